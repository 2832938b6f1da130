package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_EdgeTriggeredDelivery(t *testing.T) {
	m := NewManual(Offline)
	assert.Equal(t, Offline, m.Status())

	m.Set(Online)
	assert.Equal(t, Online, m.Status())

	select {
	case got := <-m.Events():
		assert.Equal(t, Online, got)
	default:
		t.Fatal("expected a transition event")
	}
}

func TestManual_NoEventWithoutTransition(t *testing.T) {
	m := NewManual(Online)

	// Same state again: no edge, no event.
	m.Set(Online)

	select {
	case got := <-m.Events():
		t.Fatalf("unexpected event %v", got)
	default:
	}
}

func TestManual_TransitionSequence(t *testing.T) {
	m := NewManual(Offline)

	m.Set(Online)
	m.Set(Offline)
	m.Set(Online)

	var got []Status
	for i := 0; i < 3; i++ {
		select {
		case s := <-m.Events():
			got = append(got, s)
		default:
			t.Fatalf("expected 3 events, got %d", len(got))
		}
	}
	require.Equal(t, []Status{Online, Offline, Online}, got)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "online", Online.String())
	assert.Equal(t, "offline", Offline.String())
}
