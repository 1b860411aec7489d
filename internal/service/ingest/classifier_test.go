package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

func boundEvent(userID string, ts time.Time, code *int) punch.ClassifiedEvent {
	return punch.ClassifiedEvent{
		Event: punch.Event{
			UserID:    userID,
			Timestamp: ts,
			PunchCode: code,
			DeviceID:  "dev1",
		},
		ShiftDayBinding: BindShiftDay(punch.Event{Timestamp: ts}, 4),
		Direction:       punch.DirectionOther,
	}
}

func intPtr(n int) *int { return &n }

func TestPositionalClassifier_FirstInLastOut(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []punch.ClassifiedEvent{
		boundEvent("7", day.Add(12*time.Hour), nil),
		boundEvent("7", day.Add(8*time.Hour+45*time.Minute), nil),
		boundEvent("7", day.Add(15*time.Hour+20*time.Minute), nil),
	}

	out := NewPositionalClassifier().Classify(events)

	require.Len(t, out, 3)
	// Input order is preserved; classification follows time order.
	assert.Equal(t, punch.DirectionOther, out[0].Direction)
	assert.Equal(t, punch.DirectionIn, out[1].Direction)
	assert.Equal(t, punch.DirectionOut, out[2].Direction)
}

func TestPositionalClassifier_SinglePunchIsIn(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := NewPositionalClassifier().Classify([]punch.ClassifiedEvent{
		boundEvent("7", day.Add(8*time.Hour+45*time.Minute), nil),
	})

	require.Len(t, out, 1)
	assert.Equal(t, punch.DirectionIn, out[0].Direction)
}

func TestPositionalClassifier_GroupsByUserAndShiftDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []punch.ClassifiedEvent{
		boundEvent("7", day.Add(8*time.Hour+45*time.Minute), nil),
		boundEvent("7", day.Add(15*time.Hour+20*time.Minute), nil),
		boundEvent("12", day.Add(9*time.Hour), nil),
	}

	out := NewPositionalClassifier().Classify(events)

	assert.Equal(t, punch.DirectionIn, out[0].Direction)
	assert.Equal(t, punch.DirectionOut, out[1].Direction)
	assert.Equal(t, punch.DirectionIn, out[2].Direction)
}

func TestPositionalClassifier_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []punch.ClassifiedEvent{
		boundEvent("7", day.Add(8*time.Hour), nil),
	}

	NewPositionalClassifier().Classify(events)

	assert.Equal(t, punch.DirectionOther, events[0].Direction)
}

func TestCodeClassifier_MapsCodes(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []punch.ClassifiedEvent{
		boundEvent("7", day.Add(8*time.Hour), intPtr(0)),
		boundEvent("7", day.Add(12*time.Hour), intPtr(4)),
		boundEvent("7", day.Add(15*time.Hour), intPtr(1)),
		boundEvent("7", day.Add(16*time.Hour), intPtr(5)),
		boundEvent("7", day.Add(17*time.Hour), intPtr(9)),
		boundEvent("7", day.Add(18*time.Hour), nil),
	}

	out := NewCodeClassifier([]int{0, 4}, []int{1, 5}).Classify(events)

	assert.Equal(t, punch.DirectionIn, out[0].Direction)
	assert.Equal(t, punch.DirectionIn, out[1].Direction)
	assert.Equal(t, punch.DirectionOut, out[2].Direction)
	assert.Equal(t, punch.DirectionOut, out[3].Direction)
	assert.Equal(t, punch.DirectionOther, out[4].Direction)
	assert.Equal(t, punch.DirectionOther, out[5].Direction)
}
