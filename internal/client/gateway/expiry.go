package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/iudanet/authgate/pkg/api"
)

// DefaultPublicPaths вызываются без bearer credential
var DefaultPublicPaths = []string{api.PathRefresh, api.PathCSRF}

// IsExpirySignal сообщает, что access token больше не действителен:
// заголовок X-Token-Expired или статус 401.
func IsExpirySignal(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if strings.EqualFold(resp.Header.Get(api.HeaderTokenExpired), "true") {
		return true
	}
	return resp.StatusCode == http.StatusUnauthorized
}

// isPublic проверяет вхождение пути из allow-list в разрешенный URL,
// поэтому относительная и абсолютная формы одного endpoint совпадают
func isPublic(u *url.URL, publicPaths []string) bool {
	target := u.String()
	for _, p := range publicPaths {
		if strings.Contains(target, p) {
			return true
		}
	}
	return false
}

// isStateChanging возвращает true для методов, которым нужен anti-forgery токен
func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}
