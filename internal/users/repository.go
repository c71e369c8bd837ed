package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
