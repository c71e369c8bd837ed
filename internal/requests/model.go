package requests

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a request. The zero value is not valid;
// requests are always created as StatusPending.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusShipped   Status = "SHIPPED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus maps a wire value onto the closed status set.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusShipped, StatusCompleted:
		return Status(s), true
	}
	return "", false
}

// transitions is the full state machine. Anything absent here is illegal,
// including every backward edge.
var transitions = map[Status]map[Status]bool{
	StatusPending:  {StatusAccepted: true, StatusRejected: true},
	StatusAccepted: {StatusShipped: true},
	StatusShipped:  {StatusCompleted: true},
}

// CanTransition reports whether the state machine contains the edge from→to.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

type Request struct {
	ID              uuid.UUID `json:"id" db:"id"`
	PostID          uuid.UUID `json:"post_id" db:"post_id"`
	RequesterID     uuid.UUID `json:"requester_id" db:"requester_id"`
	Status          Status    `json:"status" db:"status"`
	Message         string    `json:"message" db:"message"`
	TrackingCode    string    `json:"tracking_code,omitempty" db:"tracking_code"`
	TrackingCodeURL string    `json:"tracking_code_url,omitempty" db:"tracking_code_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// TrackingInfo accompanies the SHIPPED transition and is immutable afterwards.
type TrackingInfo struct {
	Code string
	URL  string
}
