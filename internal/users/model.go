package users

import (
	"time"

	"github.com/google/uuid"
)

// User records are owned by the account service; this core only reads them
// for authorization context and notification payloads.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
