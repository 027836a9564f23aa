package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "worldpass/pkg/platform/audit"
	"worldpass/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		Action: audit.ActionRevoke,
		VCID:   "vc-1",
		Result: "ok",
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.ListByVC(context.Background(), "vc-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRevoke, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	event := audit.Event{
		Action: audit.ActionPresentation,
		VCID:   "vc-1",
		Result: "ok",
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	require.Eventually(t, func() bool {
		events, err := store.ListByVC(context.Background(), "vc-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		event := audit.Event{
			Action: audit.ActionIssue,
			VCID:   "vc-1",
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByVC(context.Background(), "vc-1")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
}
