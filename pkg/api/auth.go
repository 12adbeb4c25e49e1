package api

// Пути и заголовки, общие для клиента и сервера
const (
	PathCSRF     = "/api/csrf"
	PathRegister = "/api/auth/register"
	PathLogin    = "/api/auth/login"
	PathRefresh  = "/api/auth/refresh"
	PathLogout   = "/api/auth/logout"
	PathHealth   = "/api/health"

	// RefreshCookiePath область refresh cookie: ее получают refresh и logout
	RefreshCookiePath = "/api/auth"

	// HeaderTokenExpired выставляется сервером, когда access token просрочен
	HeaderTokenExpired = "X-Token-Expired"
	// HeaderCSRF заголовок, в котором клиент возвращает anti-forgery токен
	HeaderCSRF = "X-XSRF-TOKEN"
	// CookieCSRF cookie с anti-forgery токеном (читается клиентом)
	CookieCSRF = "XSRF-TOKEN"
	// CookieRefresh HttpOnly cookie с refresh token
	CookieRefresh = "refresh_token"
)

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // сообщение об успешной регистрации
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ на успешный вход.
// Refresh token приходит отдельно в HttpOnly cookie.
type LoginResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"` // время жизни access token в секундах
}

// TokenResponse представляет ответ refresh endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// CSRFResponse содержит anti-forgery токен, также выставленный в cookie XSRF-TOKEN
type CSRFResponse struct {
	Token string `json:"token"`
}

// MessageResponse представляет простой ответ-подтверждение
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// Коды ошибок в поле ErrorResponse.Error
const (
	ErrCodeTokenExpired       = "access_token_expired"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidRefresh     = "invalid_refresh_token"
	ErrCodeCSRF               = "csrf_token_invalid"
	ErrCodeOrigin             = "origin_not_allowed"
	ErrCodeUserExists         = "user_exists"
	ErrCodeValidation         = "validation_failed"
	ErrCodeNotFound           = "not_found"
	ErrCodeForbidden          = "forbidden"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
