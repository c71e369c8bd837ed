package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("session not found")

// Sessions resolves opaque bearer tokens to user identities. Tokens are
// minted by the login service; this core only reads them.
type Sessions interface {
	UserID(ctx context.Context, token string) (uuid.UUID, error)
}
