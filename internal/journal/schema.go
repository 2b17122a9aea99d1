package journal

const schema = `
CREATE TABLE IF NOT EXISTS steps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id TEXT NOT NULL,
    pixel_id TEXT NOT NULL,
    mode TEXT NOT NULL DEFAULT '',
    step TEXT NOT NULL,
    ok INTEGER NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_steps_pixel ON steps(pixel_id, step);
`
