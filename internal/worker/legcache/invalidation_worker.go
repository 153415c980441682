package legcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/domain/repository"
	"github.com/jimxer74/find-my-crew/internal/worker"
)

// CacheInvalidationWorker consumes leg update events and drops the cached
// search responses, so searches after an edit see fresh data before the TTL
// would have expired them.
type CacheInvalidationWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	cacheRepo  repository.CacheRepository
	stream     string
	maxRetries int
}

func NewCacheInvalidationWorker(
	streamRepo repository.StreamRepository,
	cacheRepo repository.CacheRepository,
	stream string,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *CacheInvalidationWorker {
	return &CacheInvalidationWorker{
		BaseWorker: worker.NewBaseWorker("leg-cache-invalidation", consumerGroup, logger),
		streamRepo: streamRepo,
		cacheRepo:  cacheRepo,
		stream:     stream,
		maxRetries: maxRetries,
	}
}

// Start consumes the update stream until the context is cancelled or Stop is
// called.
func (w *CacheInvalidationWorker) Start(ctx context.Context) error {
	if err := w.streamRepo.CreateConsumerGroup(ctx, w.stream, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	consumer := fmt.Sprintf("%s-%s", w.Name(), uuid.NewString()[:8])
	msgChan, err := w.streamRepo.ConsumeStream(ctx, w.stream, w.ConsumerGroup(), consumer)
	if err != nil {
		return fmt.Errorf("consume stream: %w", err)
	}

	w.Logger().Info("Cache invalidation worker started",
		zap.String("stream", w.stream),
		zap.String("consumer", consumer))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.StopChan():
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *CacheInvalidationWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	var event domain.LegUpdateEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		// Malformed events are acked so they don't poison the group.
		w.Logger().Warn("Dropping malformed leg update event",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		w.ack(ctx, msg.ID)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		dropped, err := w.cacheRepo.InvalidateSearchResults(ctx)
		if err == nil {
			w.Logger().Debug("Search cache invalidated",
				zap.String("leg_id", event.LegID),
				zap.String("action", event.Action),
				zap.Int("keys_dropped", dropped),
				zap.Int("attempt", attempt))
			w.ack(ctx, msg.ID)
			return
		}
		lastErr = err
	}

	// Leave the message pending for redelivery.
	w.Logger().Error("Failed to invalidate search cache",
		zap.String("message_id", msg.ID),
		zap.Int("attempts", w.maxRetries),
		zap.Error(lastErr))
}

func (w *CacheInvalidationWorker) ack(ctx context.Context, messageID string) {
	if err := w.streamRepo.AckMessage(ctx, w.stream, w.ConsumerGroup(), messageID); err != nil {
		w.Logger().Error("Failed to ack message",
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}
