package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	user_id         TEXT NOT NULL,
	app_day         TEXT NOT NULL,
	drink_water     INTEGER NOT NULL DEFAULT 0 CHECK(drink_water IN (0, 1)),
	no_social_media INTEGER NOT NULL DEFAULT 0 CHECK(no_social_media IN (0, 1)),
	sunlight        INTEGER NOT NULL DEFAULT 0 CHECK(sunlight IN (0, 1)),
	elephant_task   INTEGER NOT NULL DEFAULT 0 CHECK(elephant_task IN (0, 1)),
	score           INTEGER NOT NULL CHECK(score BETWEEN 0 AND 100),
	submitted_at    DATETIME NOT NULL,
	sync_state      TEXT NOT NULL DEFAULT 'pending' CHECK(sync_state IN ('pending', 'synced')),
	PRIMARY KEY (user_id, app_day)
);

CREATE TABLE IF NOT EXISTS progress (
	user_id                TEXT PRIMARY KEY,
	current_streak         INTEGER NOT NULL DEFAULT 0,
	longest_streak         INTEGER NOT NULL DEFAULT 0,
	total_days             INTEGER NOT NULL DEFAULT 0,
	last_submitted_app_day TEXT NOT NULL DEFAULT '',
	updated_at             DATETIME NOT NULL,
	CHECK(longest_streak >= current_streak)
);

CREATE TABLE IF NOT EXISTS offline_queue (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	user_id     TEXT NOT NULL,
	app_day     TEXT NOT NULL,
	enqueued_at DATETIME NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	last_error  TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (user_id, app_day) REFERENCES submissions(user_id, app_day) ON DELETE CASCADE,
	UNIQUE(user_id, app_day)
);

CREATE INDEX IF NOT EXISTS idx_submissions_sync_state ON submissions(sync_state);
CREATE INDEX IF NOT EXISTS idx_offline_queue_user ON offline_queue(user_id, app_day);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
