package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/iudanet/authgate/pkg/api"
)

// maxDemoMessage ограничение длины сообщения demo endpoint
const maxDemoMessage = 1000

// DemoHandler echo endpoint для проверки авторизованных запросов
type DemoHandler struct {
	logger *slog.Logger
}

// NewDemoHandler создает handler для /api/demo
func NewDemoHandler(logger *slog.Logger) *DemoHandler {
	return &DemoHandler{logger: logger}
}

// Echo обрабатывает POST /api/demo
// Возвращает JSON строку "Echo: <message>"
func (h *DemoHandler) Echo(w http.ResponseWriter, r *http.Request) {
	var req api.DemoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		SendError(w, api.ErrCodeValidation, "message cannot be empty", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(message) > maxDemoMessage {
		SendError(w, api.ErrCodeValidation, "message is too long", http.StatusBadRequest)
		return
	}

	userID, _ := GetUserID(r.Context())
	h.logger.DebugContext(r.Context(), "demo echo", slog.String("user_id", userID))

	SendJSON(w, "Echo: "+message, http.StatusOK)
}
