package cli

import (
	"context"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/iudanet/authgate/pkg/api"
)

func newStatusCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runStatus(ctx)
		}),
	}
}

func (c *Cli) runStatus(_ context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()
	c.io.Printf("Server: %s\n", c.opts.ServerURL)

	token, ok := c.session.Credential()
	if !ok {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'authgate login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")

	// Токен читается без проверки подписи: только для отображения
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		c.io.Println("Access token: opaque")
	} else {
		if email, ok := claims["email"].(string); ok {
			c.io.Printf("Email: %s\n", email)
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.io.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
			if remaining := time.Until(exp.Time); remaining > 0 {
				c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
			} else {
				c.io.Println("⚠️  Access token has expired. It will be refreshed on the next request.")
			}
		}
	}

	if c.hasRefreshSession() {
		c.io.Println("Refresh session: present")
	} else {
		c.io.Println("Refresh session: absent")
	}

	return nil
}

// hasRefreshSession проверяет наличие refresh cookie в jar
func (c *Cli) hasRefreshSession() bool {
	u, err := url.JoinPath(c.opts.ServerURL, api.PathRefresh)
	if err != nil {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	for _, cookie := range c.jar.Cookies(parsed) {
		if cookie.Name == api.CookieRefresh {
			return true
		}
	}
	return false
}
