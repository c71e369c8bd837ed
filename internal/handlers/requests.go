package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/regivehq/regive/internal/middleware"
	"github.com/regivehq/regive/internal/requests"
)

type RequestsHandler struct {
	svc    *requests.Service
	logger *slog.Logger
}

func NewRequestsHandler(svc *requests.Service, logger *slog.Logger) *RequestsHandler {
	return &RequestsHandler{
		svc:    svc,
		logger: logger,
	}
}

type TransitionRequest struct {
	Status          string `json:"status"`
	TrackingCode    string `json:"trackingCode"`
	TrackingCodeURL string `json:"trackingCodeUrl"`
}

type CreateRequestRequest struct {
	Message string `json:"message"`
}

// Transition handles PATCH /requests/{id}.
func (h *RequestsHandler) Transition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		requestID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "request not found", nil)
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		target, ok := requests.ParseStatus(req.Status)
		if !ok {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status value",
				map[string]string{"status": "must be one of PENDING, ACCEPTED, REJECTED, SHIPPED, COMPLETED"})
			return
		}

		var tracking *requests.TrackingInfo
		if req.TrackingCode != "" || req.TrackingCodeURL != "" {
			tracking = &requests.TrackingInfo{Code: req.TrackingCode, URL: req.TrackingCodeURL}
		}

		updated, err := h.svc.Transition(r.Context(), requestID, actorID, target, tracking)
		if err != nil {
			h.writeServiceError(w, r, err, "transition request")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /requests/{id}.
func (h *RequestsHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		requestID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "request not found", nil)
			return
		}

		if err := h.svc.DeleteRequest(r.Context(), requestID, actorID); err != nil {
			h.writeServiceError(w, r, err, "delete request")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Get handles GET /requests/{id}.
func (h *RequestsHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		requestID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "request not found", nil)
			return
		}

		req, err := h.svc.GetRequest(r.Context(), requestID, actorID)
		if err != nil {
			h.writeServiceError(w, r, err, "get request")
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

// Create handles POST /posts/{id}/requests.
func (h *RequestsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}

		var req CreateRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		created, err := h.svc.CreateRequest(r.Context(), postID, actorID, req.Message)
		if err != nil {
			h.writeServiceError(w, r, err, "create request")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ListForPost handles GET /posts/{id}/requests.
func (h *RequestsHandler) ListForPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}

		items, err := h.svc.ListForPost(r.Context(), postID, actorID)
		if err != nil {
			h.writeServiceError(w, r, err, "list requests")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": items})
	}
}

func (h *RequestsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *requests.ValidationError
	switch {
	case errors.Is(err, requests.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "request or post not found", nil)
	case errors.Is(err, requests.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "not permitted for this request", nil)
	case errors.Is(err, requests.ErrInvalidState):
		writeError(w, r, http.StatusForbidden, "INVALID_STATE", "request is not in the required status", nil)
	case errors.Is(err, requests.ErrInvalidTransition):
		writeError(w, r, http.StatusUnprocessableEntity, "INVALID_TRANSITION", "target status not reachable from current status", nil)
	case errors.Is(err, requests.ErrConflict):
		writeError(w, r, http.StatusConflict, "CONFLICT", "lost a concurrent update, re-fetch and retry", nil)
	case errors.As(err, &verr):
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", verr.Fields)
	default:
		h.logger.Error(op+" failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
