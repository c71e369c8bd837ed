package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var _ Repository = (*postgresRepository)(nil)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, req *Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO requests (id, post_id, requester_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.PostID, req.RequesterID, req.Status, req.Message, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `
		SELECT id, post_id, requester_id, status, message,
		       COALESCE(tracking_code, '') AS tracking_code,
		       COALESCE(tracking_code_url, '') AS tracking_code_url,
		       created_at, updated_at
		FROM requests WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select request: %w", err)
	}
	return &req, nil
}

func (r *postgresRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*Request, error) {
	var reqs []*Request
	err := r.db.SelectContext(ctx, &reqs, `
		SELECT id, post_id, requester_id, status, message,
		       COALESCE(tracking_code, '') AS tracking_code,
		       COALESCE(tracking_code_url, '') AS tracking_code_url,
		       created_at, updated_at
		FROM requests WHERE post_id = $1 ORDER BY created_at
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("select requests by post: %w", err)
	}
	return reqs, nil
}

func (r *postgresRepository) HasPendingByRequester(ctx context.Context, postID, requesterID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE post_id = $1 AND requester_id = $2 AND status = $3
		)
	`, postID, requesterID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, next, id, expected)
	if err != nil {
		return false, fmt.Errorf("cas request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas request status: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepository) MarkShipped(ctx context.Context, id uuid.UUID, tracking TrackingInfo) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $1, tracking_code = $2, tracking_code_url = $3, updated_at = now()
		WHERE id = $4 AND status = $5
	`, StatusShipped, tracking.Code, tracking.URL, id, StatusAccepted)
	if err != nil {
		return false, fmt.Errorf("mark request shipped: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark request shipped: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepository) RejectOtherPending(ctx context.Context, postID, acceptedID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests SET status = $1, updated_at = now()
		WHERE post_id = $2 AND id <> $3 AND status = $4
	`, StatusRejected, postID, acceptedID, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("reject sibling requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reject sibling requests: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM requests WHERE id = $1 AND status = $2
	`, id, StatusPending)
	if err != nil {
		return false, fmt.Errorf("delete pending request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pending request: %w", err)
	}
	return n == 1, nil
}
