package requests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/regivehq/regive/internal/events"
	"github.com/regivehq/regive/internal/posts"
	"github.com/regivehq/regive/internal/users"
)

const notifyTimeout = 5 * time.Second

// Service coordinates the request lifecycle. All status movement goes
// through Transition; nothing else mutates request status or post
// availability.
type Service struct {
	repo   Repository
	posts  posts.Repository
	users  users.Repository
	pub    events.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, postRepo posts.Repository, userRepo users.Repository, pub events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		posts:  postRepo,
		users:  userRepo,
		pub:    pub,
		logger: logger,
	}
}

// CreateRequest files a PENDING request against an available post. Donors
// cannot request their own post, and a requester may hold at most one
// PENDING request per post.
func (s *Service) CreateRequest(ctx context.Context, postID, requesterID uuid.UUID, message string) (*Request, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, posts.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.OwnerID == requesterID {
		return nil, ErrForbidden
	}
	if !post.IsAvailable {
		return nil, ErrConflict
	}

	dup, err := s.repo.HasPendingByRequester(ctx, postID, requesterID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrConflict
	}

	now := time.Now().UTC()
	req := &Request{
		ID:          uuid.New(),
		PostID:      postID,
		RequesterID: requesterID,
		Status:      StatusPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Transition validates and applies a status change on behalf of actorID.
// On failure nothing is mutated; on a lost race the caller gets ErrConflict
// and may retry after re-reading.
func (s *Service) Transition(ctx context.Context, requestID, actorID uuid.UUID, target Status, tracking *TrackingInfo) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, req.PostID)
	if errors.Is(err, posts.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := Authorize(actorID, post.OwnerID, req.RequesterID, req.Status, target); err != nil {
		return nil, err
	}

	switch target {
	case StatusAccepted:
		if err := s.accept(ctx, req, post); err != nil {
			return nil, err
		}
	case StatusRejected:
		if err := s.cas(ctx, req.ID, StatusPending, StatusRejected); err != nil {
			return nil, err
		}
	case StatusShipped:
		if tracking == nil || tracking.Code == "" {
			return nil, &ValidationError{Fields: map[string]string{"trackingCode": "required for SHIPPED"}}
		}
		ok, err := s.repo.MarkShipped(ctx, req.ID, *tracking)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		req.TrackingCode = tracking.Code
		req.TrackingCodeURL = tracking.URL
		s.notifyShipped(ctx, req, post)
	case StatusCompleted:
		if err := s.cas(ctx, req.ID, StatusShipped, StatusCompleted); err != nil {
			return nil, err
		}
	}

	req.Status = target
	req.UpdatedAt = time.Now().UTC()
	return req, nil
}

// accept is the only multi-document path. The conditional availability flip
// on the post is the linearization point: of N concurrent accepts on the
// same post, exactly one flip matches. The sibling cascade afterwards is a
// conditional bulk write, idempotent and safe to re-run.
func (s *Service) accept(ctx context.Context, req *Request, post *posts.Post) error {
	ok, err := s.posts.MarkClaimed(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("claim post: %w", err)
	}
	if !ok {
		return ErrConflict
	}

	if err := s.cas(ctx, req.ID, StatusPending, StatusAccepted); err != nil {
		// The flip won but the request is no longer PENDING: the requester
		// can delete it concurrently. Release the claim so the post does
		// not stay unavailable with no accepted request.
		if _, relErr := s.posts.MarkAvailable(ctx, post.ID); relErr != nil {
			s.logger.Error("release post after failed accept",
				"post_id", post.ID,
				"request_id", req.ID,
				"error", relErr,
			)
		}
		return err
	}

	if _, err := s.repo.RejectOtherPending(ctx, post.ID, req.ID); err != nil {
		// The winner is already accepted and the post claimed; leftover
		// PENDING siblings can never be accepted and the cascade re-runs
		// cleanly on the next attempt.
		s.logger.Error("sibling rejection cascade failed",
			"post_id", post.ID,
			"request_id", req.ID,
			"error", err,
		)
	}
	return nil
}

func (s *Service) cas(ctx context.Context, id uuid.UUID, expected, next Status) error {
	ok, err := s.repo.CompareAndSetStatus(ctx, id, expected, next)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// notifyShipped is fire-and-forget: lookup or publish failures are logged
// and never roll back the transition.
func (s *Service) notifyShipped(ctx context.Context, req *Request, post *posts.Post) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	requester, err := s.users.GetByID(nctx, req.RequesterID)
	if err != nil {
		s.logger.Error("shipped notification: requester lookup failed",
			"request_id", req.ID, "error", err)
		return
	}

	e := events.NewRequestShipped(req.ID, post.Title, requester.Email, req.TrackingCode, req.TrackingCodeURL)
	if err := s.pub.PublishRequestShipped(nctx, e); err != nil {
		s.logger.Error("shipped notification: publish failed",
			"request_id", req.ID, "error", err)
	}
}

// GetRequest returns the request to its donor or requester.
func (s *Service) GetRequest(ctx context.Context, requestID, actorID uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, req.PostID)
	if errors.Is(err, posts.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if actorID != post.OwnerID && actorID != req.RequesterID {
		return nil, ErrForbidden
	}
	return req, nil
}

// ListForPost returns every request on a post, donor only.
func (s *Service) ListForPost(ctx context.Context, postID, actorID uuid.UUID) ([]*Request, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, posts.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return s.repo.ListByPost(ctx, postID)
}

// DeleteRequest removes a request, only by its creator and only while
// PENDING. The delete itself is conditional on PENDING, so a concurrent
// acceptance cannot be erased.
func (s *Service) DeleteRequest(ctx context.Context, requestID, actorID uuid.UUID) error {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actorID {
		return ErrForbidden
	}
	if req.Status != StatusPending {
		return ErrInvalidState
	}

	ok, err := s.repo.DeletePending(ctx, req.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
