package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/authgate/pkg/api"
)

// DefaultTimeout таймаут http.Client, который создает NewClient
const DefaultTimeout = 30 * time.Second

// maxResponseBody ограничивает чтение ответа сервера
const maxResponseBody = 4 << 20

//go:generate moq -out doer_mock.go . Doer

// Doer отправляет запросы к защищенным endpoint'ам. Реализуется *gateway.Gateway.
type Doer interface {
	Request(ctx context.Context, method, target string, body io.Reader, header http.Header) (*http.Response, error)
}

// StatusError возвращается для ответов не 2xx
type StatusError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, msg)
}

// IsStatus проверяет, что err это StatusError с указанным статусом
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == status
}

// Client представляет HTTP клиент для взаимодействия с сервером.
// Публичные endpoint'ы (csrf, register, login) идут напрямую через httpClient,
// все остальные через authed (gateway).
type Client struct {
	httpClient *http.Client
	authed     Doer
	baseURL    string
}

// NewClient создает новый API клиент.
// httpClient должен разделять cookie jar с gateway; если nil, создается клиент
// с DefaultTimeout без jar.
func NewClient(baseURL string, httpClient *http.Client, authed Doer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		authed:     authed,
	}
}

// FetchCSRF получает anti-forgery токен; сервер также выставляет XSRF-TOKEN cookie
func (c *Client) FetchCSRF(ctx context.Context) (string, error) {
	var resp api.CSRFResponse
	if err := c.doPublic(ctx, http.MethodGet, api.PathCSRF, nil, &resp); err != nil {
		return "", fmt.Errorf("csrf request failed: %w", err)
	}
	return resp.Token, nil
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doPublic(ctx, http.MethodPost, api.PathRegister, req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя.
// Refresh токен приходит в HttpOnly cookie и остается в jar.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, api.PathLogin, req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает серверную сессию
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doAuthed(ctx, http.MethodPost, api.PathLogout, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// cookieForgetter реализуется gateway.Jar
type cookieForgetter interface {
	Forget(u *url.URL, names ...string)
}

// ForgetSession удаляет refresh cookie сервера из cookie jar без сетевого запроса.
// Используется, когда сервер недоступен и не может сам очистить cookie.
func (c *Client) ForgetSession() {
	jar := c.httpClient.Jar
	if jar == nil {
		return
	}
	u, err := url.Parse(c.baseURL + api.RefreshCookiePath)
	if err != nil {
		return
	}

	if f, ok := jar.(cookieForgetter); ok {
		f.Forget(u, api.CookieRefresh)
		return
	}
	jar.SetCookies(u, []*http.Cookie{{Name: api.CookieRefresh, Path: api.RefreshCookiePath, MaxAge: -1}})
}

// CurrentUser возвращает профиль текущего пользователя
func (c *Client) CurrentUser(ctx context.Context) (*api.UserInfo, error) {
	var user api.UserInfo
	if err := c.doAuthed(ctx, http.MethodGet, api.PathUser, nil, &user); err != nil {
		return nil, fmt.Errorf("get user request failed: %w", err)
	}
	return &user, nil
}

// UpdateProfile обновляет имя и email
func (c *Client) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*api.UserInfo, error) {
	var user api.UserInfo
	if err := c.doAuthed(ctx, http.MethodPut, api.PathUserProfile, req, &user); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &user, nil
}

// UpdatePassword меняет пароль
func (c *Client) UpdatePassword(ctx context.Context, req api.UpdatePasswordRequest) error {
	if err := c.doAuthed(ctx, http.MethodPut, api.PathUserPassword, req, nil); err != nil {
		return fmt.Errorf("update password request failed: %w", err)
	}
	return nil
}

// UploadProfileImage загружает аватар как multipart поле "file"
func (c *Client) UploadProfileImage(ctx context.Context, filename string, data []byte) (*api.ProfileImageResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	partHeader.Set("Content-Type", http.DetectContentType(data))

	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.authed.Request(ctx, http.MethodPost, api.PathProfileImage, bytes.NewReader(buf.Bytes()), header)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}

	var result api.ProfileImageResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	return &result, nil
}

// ListPosts возвращает все посты
func (c *Client) ListPosts(ctx context.Context) ([]api.Post, error) {
	var posts []api.Post
	if err := c.doAuthed(ctx, http.MethodGet, api.PathPosts, nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	return posts, nil
}

// MyPosts возвращает посты текущего пользователя
func (c *Client) MyPosts(ctx context.Context) ([]api.Post, error) {
	var posts []api.Post
	if err := c.doAuthed(ctx, http.MethodGet, api.PathPosts+"/my-posts", nil, &posts); err != nil {
		return nil, fmt.Errorf("my posts request failed: %w", err)
	}
	return posts, nil
}

// UserPosts возвращает посты пользователя userID
func (c *Client) UserPosts(ctx context.Context, userID string) ([]api.Post, error) {
	var posts []api.Post
	path := api.PathPosts + "/user/" + url.PathEscape(userID)
	if err := c.doAuthed(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, fmt.Errorf("user posts request failed: %w", err)
	}
	return posts, nil
}

// GetPost возвращает пост по id
func (c *Client) GetPost(ctx context.Context, id string) (*api.Post, error) {
	var post api.Post
	if err := c.doAuthed(ctx, http.MethodGet, postPath(id), nil, &post); err != nil {
		return nil, fmt.Errorf("get post request failed: %w", err)
	}
	return &post, nil
}

// CreatePost создает пост от имени текущего пользователя
func (c *Client) CreatePost(ctx context.Context, req api.PostRequest) (*api.Post, error) {
	var post api.Post
	if err := c.doAuthed(ctx, http.MethodPost, api.PathPosts, req, &post); err != nil {
		return nil, fmt.Errorf("create post request failed: %w", err)
	}
	return &post, nil
}

// UpdatePost обновляет заголовок и текст поста
func (c *Client) UpdatePost(ctx context.Context, id string, req api.PostRequest) (*api.Post, error) {
	var post api.Post
	if err := c.doAuthed(ctx, http.MethodPut, postPath(id), req, &post); err != nil {
		return nil, fmt.Errorf("update post request failed: %w", err)
	}
	return &post, nil
}

// DeletePost удаляет пост
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.doAuthed(ctx, http.MethodDelete, postPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete post request failed: %w", err)
	}
	return nil
}

// Demo отправляет сообщение на echo endpoint
func (c *Client) Demo(ctx context.Context, message string) (string, error) {
	var echo string
	if err := c.doAuthed(ctx, http.MethodPost, api.PathDemo, api.DemoRequest{Message: message}, &echo); err != nil {
		return "", fmt.Errorf("demo request failed: %w", err)
	}
	return echo, nil
}

func postPath(id string) string {
	return api.PathPosts + "/" + url.PathEscape(id)
}

// doAuthed выполняет запрос через gateway
func (c *Client) doAuthed(ctx context.Context, method, path string, body, result any) error {
	reader, header, err := encodeBody(body)
	if err != nil {
		return err
	}

	resp, err := c.authed.Request(ctx, method, path, reader, header)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, result)
}

// doPublic выполняет запрос без bearer токена, но с CSRF заголовком из jar
func (c *Client) doPublic(ctx context.Context, method, path string, body, result any) error {
	reader, header, err := encodeBody(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	if method != http.MethodGet && c.httpClient.Jar != nil {
		for _, cookie := range c.httpClient.Jar.Cookies(req.URL) {
			if cookie.Name == api.CookieCSRF {
				req.Header.Set(api.HeaderCSRF, cookie.Value)
			}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, result)
}

func encodeBody(body any) (io.Reader, http.Header, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if body == nil {
		return nil, header, nil
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	header.Set("Content-Type", "application/json")
	return bytes.NewReader(jsonData), header, nil
}

// decodeResponse читает ответ, закрывает тело и превращает non-2xx в *StatusError
func decodeResponse(resp *http.Response, result any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Code = errResp.Error
			statusErr.Message = errResp.Message
		} else {
			statusErr.Message = strings.TrimSpace(string(respBody))
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
