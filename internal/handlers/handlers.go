package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"brigadez/internal/apperr"
	"brigadez/internal/auth"

	"go.uber.org/zap"
)

// Handler объединяет хранилище и сервисы для HTTP-обработчиков
type Handler struct {
	Store      StorageInterface
	Priority   PriorityService
	Milestones MilestoneService
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, priority PriorityService, milestones MilestoneService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:      store,
		Priority:   priority,
		Milestones: milestones,
		Logger:     logger,
		Now:        time.Now,
	}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ReadyHandler проверяет соединение с БД
func (h *Handler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// caller id пользователя из токена; пишет 401, если его нет
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperr.ErrUnauthenticated)
		return "", false
	}
	return userID, true
}

// decodeJSON ограничивает размер тела и разбирает JSON в dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Validation("", "failed to read request body")
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("", "invalid JSON format")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Updated *int   `json:"updated,omitempty"`
	Failed  *int   `json:"failed,omitempty"`
}

// writeError переводит ошибки сервисов в HTTP-ответ
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *apperr.ValidationError
		pf *apperr.PartialFailureError
	)
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "unauthenticated"})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Code: "validation_error", Field: ve.Field})
	case errors.As(err, &pf):
		h.Logger.Error("partial failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "some items were not updated, re-fetch the list",
			Code:    "partial_failure",
			Updated: &pf.Updated,
			Failed:  &pf.Failed,
		})
	default:
		h.Logger.Error("storage error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "storage_error"})
	}
}
