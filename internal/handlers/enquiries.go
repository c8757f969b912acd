package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"brigadez/internal/apperr"
	"brigadez/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 20 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// enquiryIDParam достаёт {enquiryId} из пути и приводит к каноничному виду uuid
func enquiryIDParam(r *http.Request) (string, error) {
	u, err := uuid.Parse(chi.URLParam(r, "enquiryId"))
	if err != nil {
		return "", apperr.Validation("enquiryId", "must be a uuid")
	}
	return u.String(), nil
}

// CreateClientHandler обрабатывает POST /api/clients
func (h *Handler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var client models.Client
	if err := decodeJSON(w, r, &client); err != nil {
		h.writeError(w, r, err)
		return
	}
	client.Name = strings.TrimSpace(client.Name)
	if client.Name == "" || len(client.Name) > 200 {
		h.writeError(w, r, apperr.Validation("name", "is required and max length 200"))
		return
	}
	client.ID = ""
	client.UserID = userID

	if err := h.Store.CreateClient(r.Context(), &client); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// GetClientsHandler обрабатывает GET /api/clients
func (h *Handler) GetClientsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	clients, err := h.Store.GetClients(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

type createEnquiryRequest struct {
	ClientID    *string `json:"clientId"`
	JobName     string  `json:"jobName"`
	Description *string `json:"description"`
	Stage       string  `json:"stage"`
	DueDate     *string `json:"dueDate"`
}

// validateEnquiryRequest проверяет поля новой заявки
func validateEnquiryRequest(req *createEnquiryRequest) (*models.Enquiry, error) {
	e := &models.Enquiry{
		JobName:     strings.TrimSpace(req.JobName),
		Description: req.Description,
		Stage:       strings.TrimSpace(req.Stage),
	}
	if e.JobName == "" || len(e.JobName) > 200 {
		return nil, apperr.Validation("jobName", "is required and max length 200")
	}
	if req.ClientID != nil && *req.ClientID != "" {
		u, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, apperr.Validation("clientId", "must be a uuid")
		}
		clientID := u.String()
		e.ClientID = &clientID
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.Parse(time.DateOnly, *req.DueDate)
		if err != nil {
			return nil, apperr.Validation("dueDate", "must be YYYY-MM-DD")
		}
		e.DueDate = &due
	}
	return e, nil
}

// CreateEnquiryHandler обрабатывает POST /api/enquiries
func (h *Handler) CreateEnquiryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req createEnquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	enquiry, err := validateEnquiryRequest(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	enquiry.UserID = userID

	if err := h.Store.CreateEnquiry(r.Context(), enquiry, h.Now()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, enquiry)
}

// GetEnquiriesHandler обрабатывает GET /api/enquiries
func (h *Handler) GetEnquiriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	enquiries, err := h.Store.GetEnquiries(r.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enquiries)
}

// GetEnquiryHandler обрабатывает GET /api/enquiries/{enquiryId}
func (h *Handler) GetEnquiryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	enquiry, err := h.Store.GetEnquiry(r.Context(), userID, enquiryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enquiry)
}

// GetSchedulesHandler обрабатывает GET /api/enquiries/{enquiryId}/schedules
func (h *Handler) GetSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	enquiryID, err := enquiryIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Проверка, что заявка принадлежит пользователю
	if _, err := h.Store.GetEnquiry(r.Context(), userID, enquiryID); err != nil {
		h.writeError(w, r, err)
		return
	}

	schedules, err := h.Store.GetSchedulesForEnquiry(r.Context(), userID, enquiryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}
