package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/regivehq/regive/internal/storage"
)

type Service struct {
	repo   Repository
	store  storage.Storage
	logger *slog.Logger
}

func NewService(repo Repository, store storage.Storage, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger}
}

func (s *Service) CreatePost(ctx context.Context, ownerID uuid.UUID, title, slug, description string, carbonGrams float64) (*Post, error) {
	now := time.Now().UTC()
	post := &Post{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Slug:        slug,
		Description: description,
		CarbonGrams: carbonGrams,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) ListPosts(ctx context.Context, page, perPage int, onlyAvailable bool) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	items, err := s.repo.List(ctx, ListParams{
		Limit:         perPage,
		Offset:        offset,
		OnlyAvailable: onlyAvailable,
	})
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, onlyAvailable)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	return &ListResult{
		Posts:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// SetPhoto stores the uploaded photo in object storage and records its key.
// Only the post owner may attach a photo.
func (s *Service) SetPhoto(ctx context.Context, slug string, actorID uuid.UUID, body io.Reader, contentType string) (*Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if s.store == nil {
		return nil, errors.New("object storage not configured")
	}

	key := fmt.Sprintf("posts/%s/photo", post.Slug)
	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.repo.SetPhotoKey(ctx, post.ID, key); err != nil {
		return nil, err
	}
	post.PhotoKey = key
	return post, nil
}

// Photo streams the stored photo for a post. The caller closes the reader.
func (s *Service) Photo(ctx context.Context, slug string) (io.ReadCloser, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.PhotoKey == "" || s.store == nil {
		return nil, ErrNoPhoto
	}
	body, err := s.store.Download(ctx, post.PhotoKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoPhoto
	}
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	return body, nil
}

// DeletePost removes an owned post. The store refuses while a request on the
// post has progressed past PENDING/REJECTED.
func (s *Service) DeletePost(ctx context.Context, slug string, actorID uuid.UUID) error {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if post.OwnerID != actorID {
		return ErrForbidden
	}

	ok, err := s.repo.Delete(ctx, post.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrActiveRequest
	}

	if post.PhotoKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, post.PhotoKey); err != nil {
			s.logger.Error("delete post photo failed", "key", post.PhotoKey, "error", err)
		}
	}
	return nil
}
