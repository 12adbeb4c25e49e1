package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/iudanet/authgate/pkg/api"
)

const userTemplate = `
=== User Profile ===

Name:    {{.Name}}
Email:   {{.Email}}
ID:      {{.ID}}
{{- if .Roles }}
Roles:   {{join .Roles}}
{{- end}}
{{- if .CreatedAt }}
Created: {{.CreatedAt}}
{{- end}}
{{- if .UpdatedAt }}
Updated: {{.UpdatedAt}}
{{- end}}
Avatar:  {{if .ProfileImage}}set ({{len .ProfileImage}} base64 chars){{else}}none{{end}}
`

const postTemplate = `
=== Post Details ===

Title:   {{.Title}}
ID:      {{.ID}}
Author:  {{.UserID}}
Created: {{.CreatedAt}}
{{- if ne .UpdatedAt .CreatedAt }}
Updated: {{.UpdatedAt}}
{{- end}}

{{.Body}}
`

var userTmpl = template.Must(template.New("user").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(userTemplate))

var postTmpl = template.Must(template.New("post").Parse(postTemplate))

// userView разыменовывает ProfileImage для шаблона
type userView struct {
	api.UserInfo
	ProfileImage string
}

func (c *Cli) printUser(user *api.UserInfo) error {
	view := userView{UserInfo: *user}
	if user.ProfileImage != nil {
		view.ProfileImage = *user.ProfileImage
	}
	if err := userTmpl.Execute(c.io, view); err != nil {
		return fmt.Errorf("failed to render user: %w", err)
	}
	return nil
}

func (c *Cli) printPost(post *api.Post) error {
	if err := postTmpl.Execute(c.io, post); err != nil {
		return fmt.Errorf("failed to render post: %w", err)
	}
	return nil
}

func (c *Cli) printPosts(title string, posts []api.Post) error {
	c.io.Printf("=== %s ===\n\n", title)
	if len(posts) == 0 {
		c.io.Println("No posts found.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCREATED")
	for _, p := range posts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.UserID, p.CreatedAt)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to render posts: %w", err)
	}

	c.io.Printf("\nTotal: %d post(s)\n", len(posts))
	return nil
}
