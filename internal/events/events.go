package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeRequestShipped = "request.shipped"

type RequestShippedPayload struct {
	RequestID       uuid.UUID `json:"request_id"`
	PostTitle       string    `json:"post_title"`
	RequesterEmail  string    `json:"requester_email"`
	TrackingCode    string    `json:"tracking_code"`
	TrackingCodeURL string    `json:"tracking_code_url,omitempty"`
}

type RequestShipped struct {
	Type      string                `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	Payload   RequestShippedPayload `json:"payload"`
}

func NewRequestShipped(requestID uuid.UUID, postTitle, requesterEmail, trackingCode, trackingCodeURL string) RequestShipped {
	return RequestShipped{
		Type:      TypeRequestShipped,
		Timestamp: time.Now().UTC(),
		Payload: RequestShippedPayload{
			RequestID:       requestID,
			PostTitle:       postTitle,
			RequesterEmail:  requesterEmail,
			TrackingCode:    trackingCode,
			TrackingCodeURL: trackingCodeURL,
		},
	}
}
