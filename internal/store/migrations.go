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

CREATE TABLE IF NOT EXISTS messages (
	external_id     TEXT PRIMARY KEY,
	thread_id       TEXT NOT NULL DEFAULT '',
	from_name       TEXT NOT NULL DEFAULT '',
	from_email      TEXT NOT NULL DEFAULT '',
	subject         TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL DEFAULT '',
	sector          TEXT NOT NULL DEFAULT 'General',
	relevance_score INTEGER NOT NULL DEFAULT 0,
	timestamp       DATETIME NOT NULL,
	attachments     TEXT NOT NULL DEFAULT '[]',
	links           TEXT NOT NULL DEFAULT '[]',
	replies         TEXT NOT NULL DEFAULT '[]',
	is_read         INTEGER NOT NULL DEFAULT 0,
	is_starred      INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS decisions (
	id          TEXT PRIMARY KEY,
	user_scope  TEXT NOT NULL,
	external_id TEXT NOT NULL,
	decision    TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_scope, external_id)
);

CREATE TABLE IF NOT EXISTS theses (
	user_scope     TEXT PRIMARY KEY,
	sectors        TEXT NOT NULL DEFAULT '[]',
	keywords       TEXT NOT NULL DEFAULT '[]',
	excluded_keywords TEXT NOT NULL DEFAULT '[]',
	geographies    TEXT NOT NULL DEFAULT '[]',
	stages         TEXT NOT NULL DEFAULT '[]',
	check_size_min INTEGER NOT NULL DEFAULT 0,
	check_size_max INTEGER NOT NULL DEFAULT 0,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
CREATE INDEX IF NOT EXISTS idx_messages_sector ON messages(sector);
CREATE INDEX IF NOT EXISTS idx_decisions_scope ON decisions(user_scope);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
