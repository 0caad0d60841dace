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

CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	avatar       TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS families (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_id    TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_families_owner_id ON families(owner_id);

CREATE TABLE IF NOT EXISTS family_members (
	id         TEXT PRIMARY KEY,
	family_id  TEXT NOT NULL REFERENCES families(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'member'
		CHECK(role IN ('owner', 'admin', 'moderator', 'member')),
	status     TEXT NOT NULL DEFAULT 'invited' CHECK(status IN ('active', 'invited')),
	invited_at DATETIME,
	joined_at  DATETIME,
	UNIQUE(family_id, email)
);

CREATE INDEX IF NOT EXISTS idx_family_members_family_id ON family_members(family_id);
CREATE INDEX IF NOT EXISTS idx_family_members_email ON family_members(email);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'in_progress', 'completed')),
	priority    TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
	due_date    DATETIME,
	created_by  TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	family_id   TEXT REFERENCES families(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_family_id ON tasks(family_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);

CREATE TABLE IF NOT EXISTS user_preferences (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL UNIQUE,
	bio                 TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	email_notifications INTEGER NOT NULL DEFAULT 1,
	push_notifications  INTEGER NOT NULL DEFAULT 1,
	task_reminders      INTEGER NOT NULL DEFAULT 1,
	family_updates      INTEGER NOT NULL DEFAULT 1,
	weekly_digest       INTEGER NOT NULL DEFAULT 0,
	theme               TEXT NOT NULL DEFAULT 'indigo',
	dark_mode           INTEGER NOT NULL DEFAULT 0,
	compact_mode        INTEGER NOT NULL DEFAULT 0,
	profile_visibility  TEXT NOT NULL DEFAULT 'friends',
	activity_status     INTEGER NOT NULL DEFAULT 1,
	data_sharing        INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
