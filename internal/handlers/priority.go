package handlers

import (
	"net/http"

	"brigadez/internal/apperr"
	"brigadez/models"
)

type priorityRequest struct {
	IsPriority *bool    `json:"isPriority"`
	Tags       []string `json:"tags"`
}

// UpdatePriorityHandler обрабатывает PATCH /api/enquiries/{enquiryId}/priority
func (h *Handler) UpdatePriorityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req priorityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.IsPriority == nil {
		h.writeError(w, r, apperr.Validation("isPriority", "must be a boolean"))
		return
	}

	summary, err := h.Priority.AddOrTag(r.Context(), userID, enquiryID, *req.IsPriority, req.Tags)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := "Removed from priority list"
	if summary.IsPriority {
		message = "Added to priority list"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"enquiry": summary,
		"message": message,
	})
}

// GetPriorityListHandler обрабатывает GET /api/priority/list
func (h *Handler) GetPriorityListHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	items, err := h.Priority.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"enquiries": items,
	})
}

type reorderRequest struct {
	Items []models.ReorderItem `json:"items"`
}

// ReorderPriorityHandler обрабатывает POST /api/priority/reorder.
// При ошибке клиент должен перечитать список, а не доверять локальному порядку.
func (h *Handler) ReorderPriorityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.Priority.Reorder(r.Context(), userID, req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"updatedCount": updated,
	})
}
