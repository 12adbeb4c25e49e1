package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authgate/internal/crypto"
	"github.com/iudanet/authgate/pkg/api"
)

// CSRFHandler выдает anti-forgery токены (double-submit cookie)
type CSRFHandler struct {
	logger  *slog.Logger
	cookies CookieConfig
}

// NewCSRFHandler создает handler для /api/csrf
func NewCSRFHandler(logger *slog.Logger, cookies CookieConfig) *CSRFHandler {
	return &CSRFHandler{logger: logger, cookies: cookies}
}

// Issue обрабатывает GET и POST /api/csrf
// Ставит cookie XSRF-TOKEN и дублирует значение в теле ответа
func (h *CSRFHandler) Issue(w http.ResponseWriter, r *http.Request) {
	token, err := crypto.GenerateToken()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate csrf token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.cookies.setCSRFCookie(w, token)
	w.Header().Set("Cache-Control", "no-store")
	SendJSON(w, api.CSRFResponse{Token: token}, http.StatusOK)
}
