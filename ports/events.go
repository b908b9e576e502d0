package ports

import "context"

// EventPublisher publishes auth events to notify other instances.
type EventPublisher interface {
	PublishLogout(ctx context.Context, subject string, tokenID string) error
}
