// Package engine is the submission API used by the host app. It
// composes the day-boundary calculator, scoring, streak tracking,
// offline queue, and sync coordination behind a single facade whose
// lifecycle the host owns: construct on user login, Close on logout.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/credential"
	"github.com/nhle/habit-engine/internal/model"
	"github.com/nhle/habit-engine/internal/netmon"
	"github.com/nhle/habit-engine/internal/remote"
	"github.com/nhle/habit-engine/internal/scoring"
	"github.com/nhle/habit-engine/internal/store"
	"github.com/nhle/habit-engine/internal/streak"
	enginesync "github.com/nhle/habit-engine/internal/sync"
)

// Result is what Submit hands back to the UI.
type Result struct {
	// Score is the weighted 0-100 score for the submission.
	Score int `json:"score"`

	// Message is the score-banded motivational message.
	Message string `json:"message"`

	// Submission is the accepted record, sync state pending.
	Submission model.Submission `json:"submission"`
}

// Options configures an Engine.
type Options struct {
	// Config supplies tuning; nil loads defaults.
	Config *model.EngineConfig

	// Store overrides the local store. When nil, a SQLite store is
	// opened at Config.Storage.DBPath and owned (closed) by the engine.
	Store store.Store

	// Remote is the backing document store. Required.
	Remote remote.Store

	// Monitor is the connectivity signal. Required.
	Monitor netmon.Monitor

	// Clock overrides time.Now for tests.
	Clock appday.Clock

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Engine is the task submission and progress facade.
type Engine struct {
	store    store.Store
	ownStore bool
	remote   remote.Store
	monitor  netmon.Monitor
	coord    *enginesync.Coordinator
	clock    appday.Clock
	cal      appday.Calculator
	locks    *enginesync.KeyedMutex
	logger   *slog.Logger

	reminderDelay time.Duration
}

// New builds an Engine and starts its sync coordinator.
func New(opts Options) (*Engine, error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("engine: remote store is required")
	}
	if opts.Monitor == nil {
		return nil, fmt.Errorf("engine: network monitor is required")
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := model.LoadConfig(model.DefaultConfigPath())
		if err != nil {
			return nil, fmt.Errorf("engine: loading config: %w", err)
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := opts.Clock
	if clock == nil {
		clock = appday.RealClock{}
	}

	st := opts.Store
	ownStore := false
	if st == nil {
		sqliteStore, err := store.NewSQLiteStore(cfg.Storage.DBPath, cfg.Storage.WriteRetries)
		if err != nil {
			return nil, fmt.Errorf("engine: opening local store: %w", err)
		}
		st = sqliteStore
		ownStore = true
	}

	cal := appday.New(cfg.ResetHour)
	locks := enginesync.NewKeyedMutex()

	coord := enginesync.New(enginesync.Options{
		Store:       st,
		Remote:      opts.Remote,
		Monitor:     opts.Monitor,
		Clock:       clock,
		Cal:         cal,
		Locks:       locks,
		BackoffBase: time.Duration(cfg.Sync.BackoffBaseSec) * time.Second,
		BackoffMax:  time.Duration(cfg.Sync.BackoffMaxSec) * time.Second,
		Logger:      logger,
	})

	e := &Engine{
		store:         st,
		ownStore:      ownStore,
		remote:        opts.Remote,
		monitor:       opts.Monitor,
		coord:         coord,
		clock:         clock,
		cal:           cal,
		locks:         locks,
		logger:        logger,
		reminderDelay: time.Duration(cfg.ReminderDelayMin) * time.Minute,
	}

	coord.Start()
	return e, nil
}

// Close stops the sync coordinator and releases the local store if the
// engine opened it. In-flight drains finish first.
func (e *Engine) Close() error {
	e.coord.Stop()
	if e.ownStore {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("engine: closing store: %w", err)
		}
	}
	return nil
}

// Submit accepts the user's checklist for the current app-day. The call
// returns as soon as the submission is durably accepted locally; the
// remote write happens in the background. The streak is credited on
// local acceptance and is never revoked by a later sync failure.
func (e *Engine) Submit(ctx context.Context, userID string, flags model.HabitFlags) (Result, error) {
	now := e.clock.Now()
	day := e.cal.AppDay(now)

	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	existing, err := e.store.GetSubmission(ctx, userID, day)
	if err != nil {
		return Result{}, &StorageError{Op: "checking today's submission", Err: err}
	}
	if existing != nil {
		return Result{}, ErrAlreadySubmitted
	}

	// Another device may have submitted already. Best effort: an
	// unreachable remote is treated as unknown, and the idempotent
	// create resolves any race later.
	if e.monitor.Status() == netmon.Online {
		if remoteSub, err := e.remote.GetSubmission(ctx, userID, day); err == nil && remoteSub != nil {
			return Result{}, ErrAlreadySubmitted
		}
	}

	score := scoring.Score(flags)
	sub := model.Submission{
		UserID:      userID,
		AppDay:      day,
		Habits:      flags,
		Score:       score,
		SubmittedAt: now,
		SyncState:   model.SyncStatePending,
	}

	prior := model.ProgressState{UserID: userID}
	if p, err := e.store.GetProgress(ctx, userID); err != nil {
		return Result{}, &StorageError{Op: "reading progress", Err: err}
	} else if p != nil {
		prior = *p
	}

	progress, _ := streak.Apply(prior, day, now)

	if _, err := e.store.ApplySubmission(ctx, sub, progress); err != nil {
		return Result{}, &StorageError{Op: "persisting submission", Err: err}
	}

	e.logger.Info("submission accepted",
		"user", userID,
		"app_day", day,
		"score", score,
		"streak", progress.CurrentStreak)

	e.coord.PublishLocal(sub)

	// Best-effort immediate sync; fire-and-forget from the caller's
	// perspective.
	if e.monitor.Status() == netmon.Online {
		e.coord.Trigger(userID)
	}

	return Result{
		Score:      score,
		Message:    scoring.Message(score),
		Submission: sub,
	}, nil
}

// TodaySubmission returns the local submission for the current app-day,
// or nil if the user has not submitted yet.
func (e *Engine) TodaySubmission(ctx context.Context, userID string) (*model.Submission, error) {
	day := e.cal.AppDay(e.clock.Now())
	return e.store.GetSubmission(ctx, userID, day)
}

// Progress returns the user's streak record, or nil before the first
// submission.
func (e *Engine) Progress(ctx context.Context, userID string) (*model.ProgressState, error) {
	return e.store.GetProgress(ctx, userID)
}

// WeekData returns the submissions for the seven app-days starting at
// start, ordered by day. Days without a submission are simply absent.
func (e *Engine) WeekData(ctx context.Context, userID string, start appday.AppDay) ([]model.Submission, error) {
	end := start
	for i := 0; i < 6; i++ {
		end = end.Next()
	}
	return e.store.ListSubmissionsRange(ctx, userID, start, end)
}

// SubscribeToday returns a live view of the user's submission for the
// current app-day. Cancel it when the screen goes away.
func (e *Engine) SubscribeToday(userID string) *enginesync.Subscription {
	return e.coord.SubscribeToday(userID)
}

// Health returns the user's sync-health snapshot for the "not yet
// synced" indicator.
func (e *Engine) Health(userID string) enginesync.Health {
	return e.coord.Health(userID)
}

// StoreRemoteToken saves the remote session token obtained at sign-in.
func (e *Engine) StoreRemoteToken(userID, token string) error {
	return credential.SetToken(userID, token)
}

// ClearRemoteToken removes the stored token, e.g. on logout.
func (e *Engine) ClearRemoteToken(userID string) error {
	return credential.DeleteToken(userID)
}
