// Package netmon abstracts the platform's connectivity signal. The sync
// coordinator subscribes to transition events; it never polls.
package netmon

import "sync"

// Status is the device's connectivity state.
type Status int

const (
	Offline Status = iota
	Online
)

func (s Status) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Monitor is the network-state collaborator. Implementations deliver
// edge-triggered transitions on Events: a value is sent only when the
// status actually changes.
type Monitor interface {
	// Events returns the transition channel. It is never closed while
	// the monitor is in use.
	Events() <-chan Status

	// Status returns the current connectivity state.
	Status() Status
}

// Manual is a Monitor driven by explicit Set calls. Hosts wire their
// platform's connectivity callback to Set; tests drive it directly.
type Manual struct {
	mu     sync.Mutex
	status Status
	events chan Status
}

// NewManual returns a Manual monitor starting in the given state.
func NewManual(initial Status) *Manual {
	return &Manual{
		status: initial,
		// Buffered so a transition is never lost if the coordinator is
		// mid-drain; repeated identical states are filtered out anyway.
		events: make(chan Status, 4),
	}
}

// Events implements Monitor.
func (m *Manual) Events() <-chan Status {
	return m.events
}

// Status implements Monitor.
func (m *Manual) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Set updates the connectivity state, emitting a transition event only
// on an actual change.
func (m *Manual) Set(status Status) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.mu.Unlock()

	if !changed {
		return
	}

	select {
	case m.events <- status:
	default:
		// Channel full; the coordinator will observe Status() on its
		// next wakeup.
	}
}
