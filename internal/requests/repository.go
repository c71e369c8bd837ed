package requests

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the request half of the entity store. Every write is an
// independent atomic single-row statement; the bool results report whether
// the conditional write matched, so callers can turn a miss into ErrConflict.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*Request, error)
	HasPendingByRequester(ctx context.Context, postID, requesterID uuid.UUID) (bool, error)

	// CompareAndSetStatus moves id from expected to next only if the stored
	// status still equals expected.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error)

	// MarkShipped is CompareAndSetStatus(ACCEPTED→SHIPPED) plus the tracking
	// fields, in one statement.
	MarkShipped(ctx context.Context, id uuid.UUID, tracking TrackingInfo) (bool, error)

	// RejectOtherPending force-rejects every still-PENDING request on the
	// post except acceptedID. Idempotent; returns the number rejected.
	RejectOtherPending(ctx context.Context, postID, acceptedID uuid.UUID) (int64, error)

	// DeletePending removes id only while it is still PENDING.
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
}
