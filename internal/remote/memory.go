package remote

import (
	"context"
	"sync"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

type subKey struct {
	userID string
	day    appday.AppDay
}

// Memory is an in-process Store implementation. It backs tests and
// hosts that run without a remote backend. All methods are safe for
// concurrent use.
type Memory struct {
	mu             sync.Mutex
	submissions    map[subKey]model.Submission
	progress       map[string]model.ProgressState
	listeners      map[subKey]map[int]func(*model.Submission)
	nextListenerID int
	failWrites     bool
}

// NewMemory returns an empty in-memory remote store.
func NewMemory() *Memory {
	return &Memory{
		submissions: make(map[subKey]model.Submission),
		progress:    make(map[string]model.ProgressState),
		listeners:   make(map[subKey]map[int]func(*model.Submission)),
	}
}

// SetFailWrites toggles write failures, simulating an unreachable
// backend. Safe to call while the store is in use.
func (m *Memory) SetFailWrites(fail bool) {
	m.mu.Lock()
	m.failWrites = fail
	m.mu.Unlock()
}

// CreateSubmissionIfAbsent implements Store.
func (m *Memory) CreateSubmissionIfAbsent(ctx context.Context, sub model.Submission) (bool, error) {
	m.mu.Lock()
	if m.failWrites {
		m.mu.Unlock()
		return false, &UnavailableError{Op: "create submission", Err: context.DeadlineExceeded}
	}

	key := subKey{userID: sub.UserID, day: sub.AppDay}
	if _, exists := m.submissions[key]; exists {
		m.mu.Unlock()
		return false, ErrConflict
	}

	stored := sub
	stored.SyncState = model.SyncStateSynced
	m.submissions[key] = stored

	fns := m.listenersFor(key)
	m.mu.Unlock()

	for _, fn := range fns {
		s := stored
		fn(&s)
	}
	return true, nil
}

// GetSubmission implements Store.
func (m *Memory) GetSubmission(ctx context.Context, userID string, day appday.AppDay) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.submissions[subKey{userID: userID, day: day}]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

// SaveProgress implements Store.
func (m *Memory) SaveProgress(ctx context.Context, p model.ProgressState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return &UnavailableError{Op: "save progress", Err: context.DeadlineExceeded}
	}
	m.progress[p.UserID] = p
	return nil
}

// GetProgress returns the mirrored progress state, or nil if absent.
// Not part of the Store interface; tests use it to observe mirroring.
func (m *Memory) GetProgress(userID string) *model.ProgressState {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.progress[userID]
	if !ok {
		return nil
	}
	return &p
}

// SubscribeToday implements Store. The current value is delivered
// synchronously before SubscribeToday returns.
func (m *Memory) SubscribeToday(userID string, day appday.AppDay, fn func(*model.Submission)) (func(), error) {
	key := subKey{userID: userID, day: day}

	m.mu.Lock()
	id := m.nextListenerID
	m.nextListenerID++
	if m.listeners[key] == nil {
		m.listeners[key] = make(map[int]func(*model.Submission))
	}
	m.listeners[key][id] = fn

	var current *model.Submission
	if sub, ok := m.submissions[key]; ok {
		current = &sub
	}
	m.mu.Unlock()

	fn(current)

	cancel := func() {
		m.mu.Lock()
		delete(m.listeners[key], id)
		m.mu.Unlock()
	}
	return cancel, nil
}

// listenersFor snapshots the listener set for key. Caller holds mu.
func (m *Memory) listenersFor(key subKey) []func(*model.Submission) {
	fns := make([]func(*model.Submission), 0, len(m.listeners[key]))
	for _, fn := range m.listeners[key] {
		fns = append(fns, fn)
	}
	return fns
}
