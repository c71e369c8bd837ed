package posts

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	// CarbonGrams is the estimated carbon saved by rehoming the item.
	// Supplied by the caller; the estimator is an external service.
	CarbonGrams float64   `json:"carbon_grams" db:"carbon_grams"`
	PhotoKey    string    `json:"photo_key,omitempty" db:"photo_key"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ListParams struct {
	Limit         int
	Offset        int
	OnlyAvailable bool
}

type ListResult struct {
	Posts      []*Post `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	TotalPages int     `json:"total_pages"`
}
