package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, cleanup := hub.Subscribe("run-1")
	defer cleanup()

	hub.Publish("run-1", Event{RunID: "run-1", Event: "write_progress", Data: 42})

	ev := <-ch
	assert.Equal(t, "write_progress", ev.Event)
	assert.Equal(t, 42, ev.Data)
}

func TestHub_PublishIsScopedToRun(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, cleanup := hub.Subscribe("run-1")
	defer cleanup()

	hub.Publish("run-2", Event{RunID: "run-2", Event: "write_progress"})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, cleanup := hub.Subscribe("run-1")
	require.Equal(t, 1, hub.SubscriberCount("run-1"))

	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("run-1"))

	// Publishing to a drained run must not panic.
	hub.Publish("run-1", Event{RunID: "run-1", Event: "write_progress"})
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, cleanup := hub.Subscribe("run-1")
	defer cleanup()

	// Overfill the buffered channel; extra events are dropped.
	for i := 0; i < 100; i++ {
		hub.Publish("run-1", Event{RunID: "run-1", Event: "write_progress", Data: i})
	}
}
