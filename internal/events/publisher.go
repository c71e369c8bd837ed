package events

import "context"

type Publisher interface {
	PublishRequestShipped(ctx context.Context, e RequestShipped) error
}
