// ABOUTME: SQLite schema for the local history cache
// ABOUTME: One row per question/answer exchange, keyed by conversation
package sqlite

// Schema contains all SQL statements for database initialization.
// created_at holds unix nanoseconds; 0 means the backend sent no usable time.
const Schema = `
CREATE TABLE IF NOT EXISTS history_records (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    username TEXT NOT NULL DEFAULT '',
    user_question TEXT NOT NULL DEFAULT '',
    bot_answer TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT 0,
    cached_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (conversation_id, created_at, user_question)
);

CREATE INDEX IF NOT EXISTS idx_records_conversation ON history_records(conversation_id);
CREATE INDEX IF NOT EXISTS idx_records_username ON history_records(username);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
