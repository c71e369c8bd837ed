package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/regivehq/regive/internal/events"
	"github.com/regivehq/regive/internal/middleware"
	"github.com/regivehq/regive/internal/posts"
	"github.com/regivehq/regive/internal/requests"
	"github.com/regivehq/regive/internal/users"
)

type testMockRequestRepo struct {
	getByID             func(ctx context.Context, id uuid.UUID) (*requests.Request, error)
	compareAndSetStatus func(ctx context.Context, id uuid.UUID, expected, next requests.Status) (bool, error)
	markShipped         func(ctx context.Context, id uuid.UUID, tracking requests.TrackingInfo) (bool, error)
	deletePending       func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *testMockRequestRepo) Create(context.Context, *requests.Request) error { return nil }

func (m *testMockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*requests.Request, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, requests.ErrNotFound
}

func (m *testMockRequestRepo) ListByPost(context.Context, uuid.UUID) ([]*requests.Request, error) {
	return nil, nil
}

func (m *testMockRequestRepo) HasPendingByRequester(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (m *testMockRequestRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next requests.Status) (bool, error) {
	if m.compareAndSetStatus != nil {
		return m.compareAndSetStatus(ctx, id, expected, next)
	}
	return true, nil
}

func (m *testMockRequestRepo) MarkShipped(ctx context.Context, id uuid.UUID, tracking requests.TrackingInfo) (bool, error) {
	if m.markShipped != nil {
		return m.markShipped(ctx, id, tracking)
	}
	return true, nil
}

func (m *testMockRequestRepo) RejectOtherPending(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *testMockRequestRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.deletePending != nil {
		return m.deletePending(ctx, id)
	}
	return true, nil
}

type testMockPostRepo struct {
	getByID     func(ctx context.Context, id uuid.UUID) (*posts.Post, error)
	getBySlug   func(ctx context.Context, slug string) (*posts.Post, error)
	markClaimed func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *testMockPostRepo) Create(context.Context, *posts.Post) error { return nil }

func (m *testMockPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*posts.Post, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, posts.ErrNotFound
}

func (m *testMockPostRepo) GetBySlug(ctx context.Context, slug string) (*posts.Post, error) {
	if m.getBySlug != nil {
		return m.getBySlug(ctx, slug)
	}
	return nil, posts.ErrNotFound
}

func (m *testMockPostRepo) List(context.Context, posts.ListParams) ([]*posts.Post, error) {
	return nil, nil
}

func (m *testMockPostRepo) Count(context.Context, bool) (int64, error) { return 0, nil }

func (m *testMockPostRepo) SetPhotoKey(context.Context, uuid.UUID, string) error { return nil }

func (m *testMockPostRepo) MarkClaimed(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.markClaimed != nil {
		return m.markClaimed(ctx, id)
	}
	return true, nil
}

func (m *testMockPostRepo) MarkAvailable(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

func (m *testMockPostRepo) Delete(context.Context, uuid.UUID) (bool, error) { return true, nil }

type testMockUserRepo struct{}

func (testMockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	return &users.User{ID: id, Email: "user@example.com"}, nil
}

var (
	testDonorID     = uuid.MustParse("00000000-0000-0000-0000-0000000000d0")
	testRequesterID = uuid.MustParse("00000000-0000-0000-0000-0000000000e0")
)

func testRequestsHandler(repo *testMockRequestRepo, postRepo *testMockPostRepo) *RequestsHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := requests.NewService(repo, postRepo, testMockUserRepo{}, events.NoopPublisher{}, logger)
	return NewRequestsHandler(svc, logger)
}

func testPost() *posts.Post {
	return &posts.Post{
		ID:          uuid.New(),
		OwnerID:     testDonorID,
		Title:       "Bookshelf",
		Slug:        "bookshelf",
		IsAvailable: true,
	}
}

func testRequest(postID uuid.UUID, status requests.Status) *requests.Request {
	now := time.Now().UTC()
	return &requests.Request{
		ID:          uuid.New(),
		PostID:      postID,
		RequesterID: testRequesterID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func patchRequest(t *testing.T, h *RequestsHandler, actor uuid.UUID, requestID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(http.MethodPatch, "/requests/"+requestID, bytes.NewReader(data))
	r.SetPathValue("id", requestID)
	if actor != uuid.Nil {
		r = r.WithContext(middleware.WithUserID(r.Context(), actor))
	}
	rec := httptest.NewRecorder()
	h.Transition()(rec, r)
	return rec
}

func TestRequestsHandler_Transition(t *testing.T) {
	t.Run("accept returns 200 with new status", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusPending)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testDonorID, req.ID.String(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
		}
		var got requests.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Status != requests.StatusAccepted {
			t.Errorf("status = %s", got.Status)
		}
	})

	t.Run("no session is 401", func(t *testing.T) {
		h := testRequestsHandler(&testMockRequestRepo{}, &testMockPostRepo{})
		rec := patchRequest(t, h, uuid.Nil, uuid.NewString(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown request is 404", func(t *testing.T) {
		h := testRequestsHandler(&testMockRequestRepo{}, &testMockPostRepo{})
		rec := patchRequest(t, h, testDonorID, uuid.NewString(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("requester accepting is 403", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusPending)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testRequesterID, req.ID.String(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("lost availability race is 409", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusPending)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{
			getByID:     func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil },
			markClaimed: func(context.Context, uuid.UUID) (bool, error) { return false, nil },
		}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testDonorID, req.ID.String(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown status value is 422", func(t *testing.T) {
		h := testRequestsHandler(&testMockRequestRepo{}, &testMockPostRepo{})
		rec := patchRequest(t, h, testDonorID, uuid.NewString(), TransitionRequest{Status: "CANCELLED"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unreachable transition is 422", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusRejected)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testDonorID, req.ID.String(), TransitionRequest{Status: "ACCEPTED"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d body = %s", rec.Code, rec.Body)
		}
	})

	t.Run("ship without tracking is 422", func(t *testing.T) {
		post := testPost()
		post.IsAvailable = false
		req := testRequest(post.ID, requests.StatusAccepted)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testDonorID, req.ID.String(), TransitionRequest{Status: "SHIPPED"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("ship with tracking is 200", func(t *testing.T) {
		post := testPost()
		post.IsAvailable = false
		req := testRequest(post.ID, requests.StatusAccepted)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
		h := testRequestsHandler(repo, postRepo)

		rec := patchRequest(t, h, testDonorID, req.ID.String(),
			TransitionRequest{Status: "SHIPPED", TrackingCode: "ABC123"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
		}
		var got requests.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Status != requests.StatusShipped || got.TrackingCode != "ABC123" {
			t.Errorf("got %+v", got)
		}
	})
}

func TestRequestsHandler_Delete(t *testing.T) {
	deleteRequest := func(h *RequestsHandler, actor uuid.UUID, requestID string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodDelete, "/requests/"+requestID, nil)
		r.SetPathValue("id", requestID)
		if actor != uuid.Nil {
			r = r.WithContext(middleware.WithUserID(r.Context(), actor))
		}
		rec := httptest.NewRecorder()
		h.Delete()(rec, r)
		return rec
	}

	t.Run("own pending request is 200", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusPending)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		h := testRequestsHandler(repo, &testMockPostRepo{})

		if rec := deleteRequest(h, testRequesterID, req.ID.String()); rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("not the creator is 403", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusPending)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		h := testRequestsHandler(repo, &testMockPostRepo{})

		if rec := deleteRequest(h, testDonorID, req.ID.String()); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("rejected request is 403", func(t *testing.T) {
		post := testPost()
		req := testRequest(post.ID, requests.StatusRejected)
		repo := &testMockRequestRepo{getByID: func(context.Context, uuid.UUID) (*requests.Request, error) { return req, nil }}
		h := testRequestsHandler(repo, &testMockPostRepo{})

		if rec := deleteRequest(h, testRequesterID, req.ID.String()); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown request is 404", func(t *testing.T) {
		h := testRequestsHandler(&testMockRequestRepo{}, &testMockPostRepo{})
		if rec := deleteRequest(h, testRequesterID, uuid.NewString()); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRequestsHandler_Create(t *testing.T) {
	post := testPost()
	postRepo := &testMockPostRepo{getByID: func(context.Context, uuid.UUID) (*posts.Post, error) { return post, nil }}
	h := testRequestsHandler(&testMockRequestRepo{}, postRepo)

	createRequest := func(actor uuid.UUID, postID string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/requests",
			bytes.NewReader([]byte(`{"message":"hi"}`)))
		r.SetPathValue("id", postID)
		if actor != uuid.Nil {
			r = r.WithContext(middleware.WithUserID(r.Context(), actor))
		}
		rec := httptest.NewRecorder()
		h.Create()(rec, r)
		return rec
	}

	t.Run("requester creates pending request", func(t *testing.T) {
		rec := createRequest(testRequesterID, post.ID.String())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
		}
		var got requests.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Status != requests.StatusPending || got.Message != "hi" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("own post is 403", func(t *testing.T) {
		if rec := createRequest(testDonorID, post.ID.String()); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
