package sqlite

type migration struct {
	version int
	sql     string
}

// Times are stored as unix nanoseconds in UTC.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          INTEGER PRIMARY KEY,
	user_id     INTEGER NOT NULL,
	title       TEXT    NOT NULL,
	message     TEXT    NOT NULL,
	type        TEXT    NOT NULL,
	task_id     TEXT,
	is_read     INTEGER NOT NULL DEFAULT 0,
	is_sent     INTEGER NOT NULL DEFAULT 0,
	dedup_key   TEXT,
	created_at  INTEGER NOT NULL,
	sent_at     INTEGER,
	read_at     INTEGER
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications (user_id, is_read);
CREATE INDEX IF NOT EXISTS idx_notifications_user_type ON notifications (user_id, type);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE UNIQUE INDEX IF NOT EXISTS uq_notifications_dedup_key ON notifications (dedup_key);
CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications (is_sent, id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
