package storage

// Schema is applied on every open. Timestamps are UTC unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS discovered_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'regular',
    priority INTEGER NOT NULL DEFAULT 4,
    delivered INTEGER NOT NULL DEFAULT 0,
    claimed_until INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_queue ON discovered_items(delivered, priority, created_at, id);

CREATE TABLE IF NOT EXISTS scheduled_content (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    body TEXT NOT NULL,
    due_at INTEGER NOT NULL,
    delivered INTEGER NOT NULL DEFAULT 0,
    claimed_until INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scheduled_queue ON scheduled_content(delivered, due_at, id);

CREATE TABLE IF NOT EXISTS trend_observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    topic TEXT NOT NULL,
    score INTEGER NOT NULL,
    detected_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trends_detected ON trend_observations(detected_at);

CREATE TABLE IF NOT EXISTS daily_counters (
    date TEXT PRIMARY KEY,
    posts_delivered INTEGER NOT NULL DEFAULT 0,
    trends_detected INTEGER NOT NULL DEFAULT 0
);
`
