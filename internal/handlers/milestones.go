package handlers

import (
	"net/http"
)

// GetMilestoneHandler обрабатывает GET /api/enquiries/{enquiryId}/milestone.
// Если отметок ещё не было, milestone равен null.
func (h *Handler) GetMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	milestone, err := h.Milestones.Get(r.Context(), userID, enquiryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"milestone": milestone})
}

type toggleRequest struct {
	CheckpointKey string `json:"checkpointKey"`
	ActorID       string `json:"actorId"`
}

// ToggleCheckpointHandler обрабатывает POST /api/enquiries/{enquiryId}/milestone/toggle
func (h *Handler) ToggleCheckpointHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	value, err := h.Milestones.ToggleCheckpoint(r.Context(), userID, enquiryID, req.CheckpointKey, req.ActorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"checkpoint": req.CheckpointKey,
		"value":      value,
	})
}

type rectificationRequest struct {
	Note    string `json:"note"`
	ActorID string `json:"actorId"`
}

// SetRectificationNoteHandler обрабатывает PUT /api/enquiries/{enquiryId}/milestone/rectification-note
func (h *Handler) SetRectificationNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req rectificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Milestones.SetRectificationNote(r.Context(), userID, enquiryID, req.Note, req.ActorID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CreateRectificationTaskHandler обрабатывает POST /api/enquiries/{enquiryId}/rectification-task
func (h *Handler) CreateRectificationTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req rectificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	taskID, err := h.Milestones.CreateRectificationTask(r.Context(), userID, enquiryID, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"taskId": taskID})
}

// FlagRectificationHandler обрабатывает POST /api/enquiries/{enquiryId}/rectification
func (h *Handler) FlagRectificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req rectificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.Milestones.FlagRectification(r.Context(), userID, enquiryID, req.Note, req.ActorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
