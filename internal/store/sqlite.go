package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

// defaultWriteRetries bounds retries of write transactions on transient
// storage errors before the failure is surfaced to the caller.
const defaultWriteRetries = 3

// retryDelay is how long to wait between write retries.
const retryDelay = 50 * time.Millisecond

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db           *sqlx.DB
	writeRetries int
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
// writeRetries bounds transient-error retries on the accept path;
// values <= 0 use the default.
func NewSQLiteStore(dbPath string, writeRetries int) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection; pin the pool so all
	// statements see the same database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if writeRetries <= 0 {
		writeRetries = defaultWriteRetries
	}

	s := &SQLiteStore{db: db, writeRetries: writeRetries}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// submissionRow is the flat database shape of a Submission.
type submissionRow struct {
	UserID        string    `db:"user_id"`
	AppDay        string    `db:"app_day"`
	DrinkWater    bool      `db:"drink_water"`
	NoSocialMedia bool      `db:"no_social_media"`
	Sunlight      bool      `db:"sunlight"`
	ElephantTask  bool      `db:"elephant_task"`
	Score         int       `db:"score"`
	SubmittedAt   time.Time `db:"submitted_at"`
	SyncState     string    `db:"sync_state"`
}

func (r submissionRow) toModel() model.Submission {
	return model.Submission{
		UserID: r.UserID,
		AppDay: appday.AppDay(r.AppDay),
		Habits: model.HabitFlags{
			DrinkWater:    r.DrinkWater,
			NoSocialMedia: r.NoSocialMedia,
			Sunlight:      r.Sunlight,
			ElephantTask:  r.ElephantTask,
		},
		Score:       r.Score,
		SubmittedAt: r.SubmittedAt,
		SyncState:   model.SyncState(r.SyncState),
	}
}

const submissionColumns = `user_id, app_day, drink_water, no_social_media,
	sunlight, elephant_task, score, submitted_at, sync_state`

// GetSubmission returns the submission for (userID, day), or nil if none exists.
func (s *SQLiteStore) GetSubmission(
	ctx context.Context,
	userID string,
	day appday.AppDay,
) (*model.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+submissionColumns+" FROM submissions WHERE user_id = ? AND app_day = ?",
		userID, string(day),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting submission %s/%s: %w", userID, day, err)
	}

	sub := row.toModel()
	return &sub, nil
}

// ListSubmissionsRange returns submissions in [from, to] ordered by app_day.
func (s *SQLiteStore) ListSubmissionsRange(
	ctx context.Context,
	userID string,
	from, to appday.AppDay,
) ([]model.Submission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+submissionColumns+` FROM submissions
		WHERE user_id = ? AND app_day >= ? AND app_day <= ?
		ORDER BY app_day ASC`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for %s: %w", userID, err)
	}

	subs := make([]model.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toModel())
	}
	return subs, nil
}

// GetProgress returns the user's progress state, or nil if absent.
func (s *SQLiteStore) GetProgress(ctx context.Context, userID string) (*model.ProgressState, error) {
	var p model.ProgressState
	err := s.db.GetContext(ctx, &p,
		`SELECT user_id, current_streak, longest_streak, total_days,
			last_submitted_app_day, updated_at
		FROM progress WHERE user_id = ?`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting progress for %s: %w", userID, err)
	}
	return &p, nil
}

// ApplySubmission writes the submission, the updated progress state, and
// an offline-queue entry in one transaction, retrying a bounded number
// of times on transient storage errors.
func (s *SQLiteStore) ApplySubmission(
	ctx context.Context,
	sub model.Submission,
	progress model.ProgressState,
) (model.QueuedSubmission, error) {
	entry := model.QueuedSubmission{
		ID:         uuid.NewString(),
		Submission: sub,
		EnqueuedAt: sub.SubmittedAt,
	}

	var lastErr error
	for attempt := 0; attempt <= s.writeRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return model.QueuedSubmission{}, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		lastErr = s.applySubmissionTx(ctx, sub, progress, entry)
		if lastErr == nil {
			return entry, nil
		}
		if !isTransient(lastErr) {
			break
		}
	}

	return model.QueuedSubmission{}, fmt.Errorf("applying submission %s/%s: %w", sub.UserID, sub.AppDay, lastErr)
}

func (s *SQLiteStore) applySubmissionTx(
	ctx context.Context,
	sub model.Submission,
	progress model.ProgressState,
	entry model.QueuedSubmission,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Plain INSERT: the primary key makes overwriting an existing
	// (possibly already synced) submission impossible at this layer too.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.UserID, string(sub.AppDay),
		sub.Habits.DrinkWater, sub.Habits.NoSocialMedia,
		sub.Habits.Sunlight, sub.Habits.ElephantTask,
		sub.Score, sub.SubmittedAt.UTC(), string(sub.SyncState),
	)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO progress (
			user_id, current_streak, longest_streak, total_days,
			last_submitted_app_day, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		progress.UserID, progress.CurrentStreak, progress.LongestStreak,
		progress.TotalDays, string(progress.LastSubmittedAppDay), progress.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO offline_queue (id, user_id, app_day, enqueued_at)
		VALUES (?, ?, ?, ?)`,
		entry.ID, sub.UserID, string(sub.AppDay), entry.EnqueuedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("enqueueing submission: %w", err)
	}

	return tx.Commit()
}

// queueRow joins an offline_queue entry with its submission.
type queueRow struct {
	ID         string    `db:"id"`
	EnqueuedAt time.Time `db:"enqueued_at"`
	Attempts   int       `db:"attempts"`
	LastError  string    `db:"last_error"`
	submissionRow
}

// ListPendingQueue returns the user's queued entries oldest app-day first.
func (s *SQLiteStore) ListPendingQueue(ctx context.Context, userID string) ([]model.QueuedSubmission, error) {
	var rows []queueRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT q.id, q.enqueued_at, q.attempts, q.last_error,
			s.user_id, s.app_day, s.drink_water, s.no_social_media,
			s.sunlight, s.elephant_task, s.score, s.submitted_at, s.sync_state
		FROM offline_queue q
		JOIN submissions s ON s.user_id = q.user_id AND s.app_day = q.app_day
		WHERE q.user_id = ?
		ORDER BY q.app_day ASC, q.seq ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending queue for %s: %w", userID, err)
	}

	entries := make([]model.QueuedSubmission, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.QueuedSubmission{
			ID:         r.ID,
			Submission: r.toModel(),
			EnqueuedAt: r.EnqueuedAt,
			Attempts:   r.Attempts,
			LastError:  r.LastError,
		})
	}
	return entries, nil
}

// PendingCount returns the number of queued entries for the user.
func (s *SQLiteStore) PendingCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM offline_queue WHERE user_id = ?", userID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting pending queue for %s: %w", userID, err)
	}
	return count, nil
}

// ListUsersWithPending returns the distinct users with queued entries.
func (s *SQLiteStore) ListUsersWithPending(ctx context.Context) ([]string, error) {
	var users []string
	err := s.db.SelectContext(ctx, &users,
		"SELECT DISTINCT user_id FROM offline_queue ORDER BY user_id",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users with pending queue: %w", err)
	}
	return users, nil
}

// MarkSynced flips the submission to synced and removes the queue entry.
func (s *SQLiteStore) MarkSynced(ctx context.Context, queueID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var userID, day string
	err = tx.QueryRowxContext(ctx,
		"SELECT user_id, app_day FROM offline_queue WHERE id = ?", queueID,
	).Scan(&userID, &day)
	if errors.Is(err, sql.ErrNoRows) {
		// Already confirmed and removed; marking twice is harmless.
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up queue entry %s: %w", queueID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE submissions SET sync_state = 'synced' WHERE user_id = ? AND app_day = ?",
		userID, day,
	); err != nil {
		return fmt.Errorf("marking submission synced: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM offline_queue WHERE id = ?", queueID,
	); err != nil {
		return fmt.Errorf("removing queue entry %s: %w", queueID, err)
	}

	return tx.Commit()
}

// RecordSyncAttempt increments the attempt counter and stores the failure.
func (s *SQLiteStore) RecordSyncAttempt(ctx context.Context, queueID string, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE offline_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?",
		msg, queueID,
	)
	if err != nil {
		return fmt.Errorf("recording sync attempt for %s: %w", queueID, err)
	}
	return nil
}

// isTransient reports whether err looks like a retryable SQLite
// contention error rather than a permanent failure.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "busy") || strings.Contains(msg, "locked")
}
