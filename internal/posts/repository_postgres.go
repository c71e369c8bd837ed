package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var _ Repository = (*postgresRepository)(nil)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const postColumns = `
	id, owner_id, title, slug, description, carbon_grams,
	COALESCE(photo_key, '') AS photo_key, is_available, created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, p *Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, owner_id, title, slug, description, carbon_grams, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.OwnerID, p.Title, p.Slug, p.Description, p.CarbonGrams, p.IsAvailable, p.CreatedAt, p.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var p Post
	err := r.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	var p Post
	err := r.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select post by slug: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, params ListParams) ([]*Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts`
	if params.OnlyAvailable {
		q += ` WHERE is_available`
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var out []*Post
	if err := r.db.SelectContext(ctx, &out, q, params.Limit, params.Offset); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) Count(ctx context.Context, onlyAvailable bool) (int64, error) {
	q := `SELECT COUNT(*) FROM posts`
	if onlyAvailable {
		q += ` WHERE is_available`
	}
	var total int64
	if err := r.db.GetContext(ctx, &total, q); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) SetPhotoKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts SET photo_key = $1, updated_at = now() WHERE id = $2
	`, key, id)
	if err != nil {
		return fmt.Errorf("set post photo: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkClaimed(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts SET is_available = false, updated_at = now()
		WHERE id = $1 AND is_available
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark post claimed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark post claimed: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepository) MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts SET is_available = true, updated_at = now()
		WHERE id = $1 AND NOT is_available
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark post available: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark post available: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM posts
		WHERE id = $1 AND NOT EXISTS (
			SELECT 1 FROM requests
			WHERE post_id = posts.id AND status NOT IN ('PENDING', 'REJECTED')
		)
	`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return n == 1, nil
}
