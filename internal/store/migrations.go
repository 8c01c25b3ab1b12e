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

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	title         TEXT NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	payload       TEXT NOT NULL DEFAULT '{}',
	target_id     TEXT NOT NULL,
	priority      TEXT NOT NULL DEFAULT 'medium',
	is_read       INTEGER NOT NULL DEFAULT 0,
	has_been_seen INTEGER NOT NULL DEFAULT 0,
	is_archived   INTEGER NOT NULL DEFAULT 0,
	position      INTEGER NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	id              TEXT PRIMARY KEY,
	notification_id TEXT NOT NULL,
	kind            TEXT NOT NULL,
	category        TEXT NOT NULL,
	position        INTEGER NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS store_state (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	unread_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notifications_category_target
	ON notifications(category, target_id);
CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);
CREATE INDEX IF NOT EXISTS idx_interactions_position ON interactions(position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_interactions_category
	ON interactions(category, position);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
