package repository

import (
	"context"

	"github.com/jimxer74/find-my-crew/internal/domain"
)

// StreamRepository wraps Redis Streams consume/publish for update events.
type StreamRepository interface {
	// ConsumeStream reads messages from the stream via a consumer group.
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// AckMessage acknowledges a processed message.
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup creates the consumer group (idempotent).
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream publishes data as JSON to the stream.
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
