package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/regivehq/regive/internal/middleware"
	"github.com/regivehq/regive/internal/posts"
)

type PostsHandler struct {
	svc    *posts.Service
	logger *slog.Logger
}

func NewPostsHandler(svc *posts.Service, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:    svc,
		logger: logger,
	}
}

type CreatePostRequest struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	CarbonGrams float64 `json:"carbon_grams"`
}

// Create handles POST /posts.
func (h *PostsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		errs := make(map[string]string)
		if req.Title == "" {
			errs["title"] = "required"
		}
		if req.Slug == "" {
			errs["slug"] = "required"
		}
		if req.CarbonGrams < 0 {
			errs["carbon_grams"] = "must not be negative"
		}
		if len(errs) > 0 {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", errs)
			return
		}

		post, err := h.svc.CreatePost(r.Context(), ownerID, req.Title, req.Slug, req.Description, req.CarbonGrams)
		if err != nil {
			if errors.Is(err, posts.ErrSlugExists) {
				writeError(w, r, http.StatusConflict, "CONFLICT", "slug already exists", nil)
				return
			}
			h.logger.Error("create post failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			return
		}

		writeJSON(w, http.StatusCreated, post)
	}
}

// GetBySlug handles GET /posts/{slug}.
func (h *PostsHandler) GetBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if slug == "" {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "slug is required", nil)
			return
		}

		post, err := h.svc.GetPostBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, posts.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
				return
			}
			h.logger.Error("get post failed", "slug", slug, "error", err)
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			return
		}

		writeJSON(w, http.StatusOK, post)
	}
}

// List handles GET /posts.
func (h *PostsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		onlyAvailable := r.URL.Query().Get("available") != "false"

		result, err := h.svc.ListPosts(r.Context(), page, perPage, onlyAvailable)
		if err != nil {
			h.logger.Error("list posts failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// SetPhoto handles PUT /posts/{slug}/photo. The body is the raw image.
func (h *PostsHandler) SetPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		slug := r.PathValue("slug")

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		post, err := h.svc.SetPhoto(r.Context(), slug, actorID, r.Body, contentType)
		if err != nil {
			h.writePostsError(w, r, err, "set post photo")
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

// GetPhoto handles GET /posts/{slug}/photo. Streams the raw image.
func (h *PostsHandler) GetPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		body, err := h.svc.Photo(r.Context(), slug)
		if err != nil {
			if errors.Is(err, posts.ErrNoPhoto) {
				writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post has no photo", nil)
				return
			}
			h.writePostsError(w, r, err, "get post photo")
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, body)
	}
}

// Delete handles DELETE /posts/{slug}.
func (h *PostsHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
			return
		}
		slug := r.PathValue("slug")

		if err := h.svc.DeletePost(r.Context(), slug, actorID); err != nil {
			h.writePostsError(w, r, err, "delete post")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (h *PostsHandler) writePostsError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
	case errors.Is(err, posts.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "not the post owner", nil)
	case errors.Is(err, posts.ErrActiveRequest):
		writeError(w, r, http.StatusConflict, "CONFLICT", "post has an active request", nil)
	default:
		h.logger.Error(op+" failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
