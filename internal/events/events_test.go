package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecorder(id string) (*EventHandlerFunc, *[]Event, *sync.Mutex) {
	var mu sync.Mutex
	var got []Event
	h := &EventHandlerFunc{
		ID: id,
		Func: func(ctx context.Context, event Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, event)
			return nil
		},
	}
	return h, &got, &mu
}

func TestInMemoryEventBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got, mu := newRecorder("h1")
	require.NoError(t, bus.Subscribe(TypeCommentCreated, *h))

	event := NewCommentEvent(TypeCommentCreated, "p1", "c1", "", "u1")
	require.NoError(t, bus.Publish(context.Background(), event))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *got, 1)
	assert.Equal(t, event.GetEventID(), (*got)[0].GetEventID())
	assert.Equal(t, TypeCommentCreated, (*got)[0].GetEventType())
}

func TestInMemoryEventBus_PublishOnlyMatchingType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got, mu := newRecorder("h1")
	require.NoError(t, bus.Subscribe(TypeCommentDeleted, *h))

	require.NoError(t, bus.Publish(context.Background(), NewCommentEvent(TypeCommentCreated, "p1", "c1", "", "u1")))

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, *got)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := EventHandlerFunc{
		ID: "failing",
		Func: func(ctx context.Context, event Event) error {
			return errors.New("handler broke")
		},
	}
	ok, got, mu := newRecorder("ok")
	require.NoError(t, bus.Subscribe(TypeLikeToggled, failing))
	require.NoError(t, bus.Subscribe(TypeLikeToggled, *ok))

	err := bus.Publish(context.Background(), NewCommentEvent(TypeLikeToggled, "p1", "c1", "", "u1"))
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, *got, 1)

	stats := bus.Stats()
	assert.Equal(t, int64(1), stats.EventsPublished)
	assert.Equal(t, int64(1), stats.EventsFailed)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got, mu := newRecorder("h1")
	require.NoError(t, bus.Subscribe(TypeReplyCreated, *h))
	require.NoError(t, bus.Unsubscribe(TypeReplyCreated, "h1"))

	require.NoError(t, bus.Publish(context.Background(), NewCommentEvent(TypeReplyCreated, "p1", "c1", "r1", "u1")))

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, *got)

	err := bus.Unsubscribe(TypeReplyCreated, "h1")
	assert.Error(t, err)
}

func TestInMemoryEventBus_PublishAsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got, mu := newRecorder("h1")
	require.NoError(t, bus.Subscribe(TypeCommentUpdated, *h))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishAsync(context.Background(), NewCommentEvent(TypeCommentUpdated, "p1", "c1", "", "u1")))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, *got, 5)

	// Closed bus refuses further async publishes.
	err := bus.PublishAsync(context.Background(), NewCommentEvent(TypeCommentUpdated, "p1", "c1", "", "u1"))
	assert.Error(t, err)
}

func TestInMemoryEventBus_NilEvent(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.Error(t, bus.Publish(context.Background(), nil))
	assert.Error(t, bus.PublishAsync(context.Background(), nil))
}

func TestInMemoryEventBus_StatsHandlerCount(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h1, _, _ := newRecorder("h1")
	h2, _, _ := newRecorder("h2")
	require.NoError(t, bus.Subscribe(TypeCommentCreated, *h1))
	require.NoError(t, bus.Subscribe(TypeCommentDeleted, *h2))

	assert.Equal(t, 2, bus.Stats().HandlersCount)
}

func TestGenerateEventID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateEventID()
		require.NotEmpty(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestNewMutationRolledBackEvent(t *testing.T) {
	e := NewMutationRolledBackEvent("p1", "edit_comment", "c1", "server rejected")
	assert.Equal(t, TypeMutationRolledBack, e.GetEventType())
	assert.NotEmpty(t, e.GetEventID())
	assert.False(t, e.GetTimestamp().IsZero())
	assert.Equal(t, "p1", e.PostID)
	assert.Equal(t, "edit_comment", e.Operation)
	assert.Equal(t, "c1", e.EntityID)
	assert.Equal(t, "server rejected", e.Reason)
}
