// Package sync bridges the offline queue and the remote store. The
// Coordinator listens for connectivity transitions, drains queued
// submissions oldest-first per user, and publishes live submission
// state to subscribers.
package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
	"github.com/nhle/habit-engine/internal/netmon"
	"github.com/nhle/habit-engine/internal/remote"
	"github.com/nhle/habit-engine/internal/store"
)

// State describes a user's sync health.
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateError
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Health is the per-user sync-health snapshot surfaced to the UI. A
// permanently failing sync shows up here as a growing PendingCount and
// a sticky LastError; it is never surfaced as a submit failure.
type Health struct {
	State        State
	PendingCount int
	LastError    error
	LastSyncAt   time.Time
}

// remoteWriteTimeout is the maximum time allowed for a single remote write.
const remoteWriteTimeout = 15 * time.Second

// Options configures a Coordinator.
type Options struct {
	Store   store.Store
	Remote  remote.Store
	Monitor netmon.Monitor
	Clock   appday.Clock
	Cal     appday.Calculator
	Locks   *KeyedMutex

	// BackoffBase is the first retry delay after a failed drain;
	// BackoffMax caps the exponential growth. Zero values get defaults.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// userStatus tracks one user's drain state.
type userStatus struct {
	state      State
	lastError  error
	lastSyncAt time.Time
	backoff    time.Duration
	inflight   bool
	again      bool
}

// Coordinator owns the queue-to-remote drain path and live
// subscriptions. Construct with New, call Start, and Stop when done.
type Coordinator struct {
	store       store.Store
	remote      remote.Store
	monitor     netmon.Monitor
	clock       appday.Clock
	cal         appday.Calculator
	locks       *KeyedMutex
	logger      *slog.Logger
	backoffBase time.Duration
	backoffMax  time.Duration

	mu        gosync.Mutex
	statuses  map[string]*userStatus
	subs      map[string]map[int]*Subscription
	nextSubID int
	running   bool

	triggerCh chan string
	stopCh    chan struct{}
	wg        gosync.WaitGroup
}

// New creates a Coordinator. It does nothing until Start is called.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 5 * time.Second
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = opts.BackoffBase
	}
	if opts.Locks == nil {
		opts.Locks = NewKeyedMutex()
	}
	if opts.Clock == nil {
		opts.Clock = appday.RealClock{}
	}

	return &Coordinator{
		store:       opts.Store,
		remote:      opts.Remote,
		monitor:     opts.Monitor,
		clock:       opts.Clock,
		cal:         opts.Cal,
		locks:       opts.Locks,
		logger:      logger,
		backoffBase: opts.BackoffBase,
		backoffMax:  opts.BackoffMax,
		statuses:    make(map[string]*userStatus),
		subs:        make(map[string]map[int]*Subscription),
		triggerCh:   make(chan string, 16),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the coordinator loop. If the device is already online,
// any queue left over from a previous run is drained immediately.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()

	if c.monitor.Status() == netmon.Online {
		c.drainAll()
	}
}

// Stop halts the coordinator. In-flight drains finish; no new drains start.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
}

// Trigger requests a drain of one user's queue. It never blocks; if the
// channel is full the user is picked up on the next online transition
// or backoff retry.
func (c *Coordinator) Trigger(userID string) {
	select {
	case c.triggerCh <- userID:
	default:
	}
}

// run is the coordinator's event loop.
func (c *Coordinator) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.Info("sync coordinator stopping")
			return
		case status := <-c.monitor.Events():
			if status == netmon.Online {
				c.logger.Info("network available, draining offline queue")
				c.resetBackoffs()
				c.drainAll()
			}
		case userID := <-c.triggerCh:
			c.maybeDrain(userID)
		}
	}
}

// drainAll starts a drain for every user with queued entries. Users are
// independent and drain in parallel.
func (c *Coordinator) drainAll() {
	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	users, err := c.store.ListUsersWithPending(ctx)
	cancel()
	if err != nil {
		c.logger.Error("listing users with pending queue", "error", err)
		return
	}

	for _, userID := range users {
		c.maybeDrain(userID)
	}
}

// maybeDrain starts a drain goroutine for the user unless one is
// already running, in which case a re-drain is noted for when it ends.
func (c *Coordinator) maybeDrain(userID string) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	st := c.status(userID)
	if st.inflight {
		st.again = true
		c.mu.Unlock()
		return
	}
	st.inflight = true
	st.state = StateSyncing
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.drainUser(userID)

		c.mu.Lock()
		st := c.status(userID)
		st.inflight = false
		again := st.again
		st.again = false
		c.mu.Unlock()

		if again {
			c.Trigger(userID)
		}
	}()
}

// drainUser writes the user's queued submissions to the remote store in
// app-day order. On the first failure it stops without skipping ahead,
// preserving ordering, and schedules an exponential-backoff retry.
func (c *Coordinator) drainUser(userID string) {
	c.locks.Lock(userID)
	defer c.locks.Unlock(userID)

	ctx := context.Background()

	entries, err := c.store.ListPendingQueue(ctx, userID)
	if err != nil {
		c.fail(userID, err)
		return
	}

	for _, entry := range entries {
		if err := c.syncEntry(ctx, entry); err != nil {
			c.logger.Warn("remote write failed, will retry",
				"user", userID,
				"app_day", entry.Submission.AppDay,
				"attempts", entry.Attempts+1,
				"error", err)
			c.fail(userID, err)
			return
		}

		synced := entry.Submission
		synced.SyncState = model.SyncStateSynced
		c.publish(userID, &synced)

		c.logger.Info("submission synced",
			"user", userID,
			"app_day", entry.Submission.AppDay,
			"score", entry.Submission.Score)
	}

	// Mirror progress so other devices see the streak. Best effort: the
	// local record is authoritative and this retries on the next drain.
	if p, err := c.store.GetProgress(ctx, userID); err == nil && p != nil {
		wctx, cancel := context.WithTimeout(ctx, remoteWriteTimeout)
		if err := c.remote.SaveProgress(wctx, *p); err != nil {
			c.logger.Warn("mirroring progress failed", "user", userID, "error", err)
		}
		cancel()
	}

	c.mu.Lock()
	st := c.status(userID)
	st.state = StateIdle
	st.lastError = nil
	st.lastSyncAt = c.clock.Now()
	st.backoff = 0
	c.mu.Unlock()
}

// syncEntry performs the idempotent remote create for one queue entry
// and removes it from the queue. A remote conflict means a retried
// write already landed or another device won the race; both count as
// success.
func (c *Coordinator) syncEntry(ctx context.Context, entry model.QueuedSubmission) error {
	wctx, cancel := context.WithTimeout(ctx, remoteWriteTimeout)
	defer cancel()

	_, err := c.remote.CreateSubmissionIfAbsent(wctx, entry.Submission)
	if err != nil && !errors.Is(err, remote.ErrConflict) {
		if rerr := c.store.RecordSyncAttempt(ctx, entry.ID, err); rerr != nil {
			c.logger.Error("recording sync attempt", "entry", entry.ID, "error", rerr)
		}
		return err
	}

	if err := c.store.MarkSynced(ctx, entry.ID); err != nil {
		return err
	}
	return nil
}

// fail marks the user's sync state failed and schedules a retry with
// exponential backoff. An online transition arriving sooner resets the
// backoff and retries immediately.
func (c *Coordinator) fail(userID string, err error) {
	c.mu.Lock()
	st := c.status(userID)
	st.state = StateError
	st.lastError = err
	if st.backoff == 0 {
		st.backoff = c.backoffBase
	} else {
		st.backoff *= 2
		if st.backoff > c.backoffMax {
			st.backoff = c.backoffMax
		}
	}
	delay := st.backoff
	running := c.running
	c.mu.Unlock()

	if !running {
		return
	}

	time.AfterFunc(delay, func() {
		c.Trigger(userID)
	})
}

// resetBackoffs clears retry delays so an online edge drains immediately.
func (c *Coordinator) resetBackoffs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.statuses {
		st.backoff = 0
	}
}

// Health returns the user's current sync-health snapshot.
func (c *Coordinator) Health(userID string) Health {
	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	pending, err := c.store.PendingCount(ctx, userID)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.status(userID)
	h := Health{
		State:        st.state,
		PendingCount: pending,
		LastError:    st.lastError,
		LastSyncAt:   st.lastSyncAt,
	}
	if err != nil && h.LastError == nil {
		h.LastError = err
	}
	return h
}

// status returns the user's status record, creating it if needed.
// Caller holds mu.
func (c *Coordinator) status(userID string) *userStatus {
	st, ok := c.statuses[userID]
	if !ok {
		st = &userStatus{}
		c.statuses[userID] = st
	}
	return st
}
