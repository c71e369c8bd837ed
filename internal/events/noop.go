package events

import "context"

type NoopPublisher struct{}

func (NoopPublisher) PublishRequestShipped(context.Context, RequestShipped) error {
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
