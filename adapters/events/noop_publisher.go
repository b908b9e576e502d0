package events

import (
	"context"

	"github.com/kana-labs/kana-auth/ports"
)

// NoopPublisher discards events. Used when no message broker is wired, e.g.
// single-instance deployments running on the in-memory stores.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher() ports.EventPublisher {
	return &NoopPublisher{}
}

// PublishLogout discards the event.
func (p *NoopPublisher) PublishLogout(ctx context.Context, subject string, tokenID string) error {
	return nil
}
