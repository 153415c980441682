package legcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/worker/legcache"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) InvalidateSearchResults(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

const (
	testStream = "legs:updates"
	testGroup  = "leg-search-cache-workers"
)

func runWorker(
	t *testing.T,
	streamRepo *MockStreamRepository,
	cacheRepo *MockCacheRepository,
	maxRetries int,
	messages ...domain.StreamMessage,
) {
	t.Helper()

	msgChan := make(chan domain.StreamMessage, len(messages))
	for _, msg := range messages {
		msgChan <- msg
	}
	close(msgChan)

	streamRepo.On("CreateConsumerGroup", mock.Anything, testStream, testGroup).Return(nil)
	streamRepo.On("ConsumeStream", mock.Anything, testStream, testGroup, mock.AnythingOfType("string")).
		Return((<-chan domain.StreamMessage)(msgChan), nil)

	w := legcache.NewCacheInvalidationWorker(
		streamRepo, cacheRepo, testStream, testGroup, maxRetries, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- w.Start(context.Background())
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the stream in time")
	}
}

func TestCacheInvalidationWorker_InvalidatesAndAcks(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	cacheRepo := &MockCacheRepository{}

	cacheRepo.On("InvalidateSearchResults", mock.Anything).Return(7, nil).Once()
	streamRepo.On("AckMessage", mock.Anything, testStream, testGroup, "1-0").Return(nil).Once()

	msg := domain.StreamMessage{
		ID:   "1-0",
		Data: `{"leg_id":"leg-1","journey_id":"j-1","action":"updated"}`,
	}
	runWorker(t, streamRepo, cacheRepo, 3, msg)

	cacheRepo.AssertExpectations(t)
	streamRepo.AssertExpectations(t)
}

func TestCacheInvalidationWorker_MalformedEventAckedAndDropped(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	cacheRepo := &MockCacheRepository{}

	streamRepo.On("AckMessage", mock.Anything, testStream, testGroup, "2-0").Return(nil).Once()

	msg := domain.StreamMessage{ID: "2-0", Data: "{not json"}
	runWorker(t, streamRepo, cacheRepo, 3, msg)

	cacheRepo.AssertNotCalled(t, "InvalidateSearchResults")
	streamRepo.AssertExpectations(t)
}

func TestCacheInvalidationWorker_RetriesThenLeavesPending(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	cacheRepo := &MockCacheRepository{}

	cacheRepo.On("InvalidateSearchResults", mock.Anything).
		Return(0, errors.New("redis down")).
		Times(3)

	msg := domain.StreamMessage{
		ID:   "3-0",
		Data: `{"leg_id":"leg-1","action":"deleted"}`,
	}
	runWorker(t, streamRepo, cacheRepo, 3, msg)

	cacheRepo.AssertExpectations(t)
	// Not acked: the message stays pending for redelivery.
	streamRepo.AssertNotCalled(t, "AckMessage", mock.Anything, testStream, testGroup, "3-0")
}

func TestCacheInvalidationWorker_RetrySucceedsMidway(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	cacheRepo := &MockCacheRepository{}

	cacheRepo.On("InvalidateSearchResults", mock.Anything).
		Return(0, errors.New("transient")).Once()
	cacheRepo.On("InvalidateSearchResults", mock.Anything).
		Return(4, nil).Once()
	streamRepo.On("AckMessage", mock.Anything, testStream, testGroup, "4-0").Return(nil).Once()

	msg := domain.StreamMessage{
		ID:   "4-0",
		Data: `{"leg_id":"leg-2","action":"updated"}`,
	}
	runWorker(t, streamRepo, cacheRepo, 3, msg)

	cacheRepo.AssertExpectations(t)
	streamRepo.AssertExpectations(t)
}
