package posts

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, params ListParams) ([]*Post, error)
	Count(ctx context.Context, onlyAvailable bool) (int64, error)
	SetPhotoKey(ctx context.Context, id uuid.UUID, key string) error

	// MarkClaimed flips is_available from true to false in a single
	// conditional statement. A false result means another transition
	// already claimed the post.
	MarkClaimed(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkAvailable is the inverse conditional flip, used to release a
	// claim when the acceptance that won it could not complete.
	MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error)

	// Delete removes the post unless some request on it has progressed
	// past PENDING/REJECTED. A false result with a nil error means the
	// deletion guard refused.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
