package database

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
    id TEXT PRIMARY KEY,
    content_id TEXT NOT NULL,
    asset_path TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL,
    bytes INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries (created_at);
CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries (status);
`
