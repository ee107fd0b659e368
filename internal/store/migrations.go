package store

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    address    TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active);

CREATE TABLE IF NOT EXISTS checkpoints (
    source_id    TEXT PRIMARY KEY REFERENCES sources(id),
    last_item_id INTEGER NOT NULL DEFAULT 0,
    updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL REFERENCES sources(id),
    category     TEXT NOT NULL,
    title        TEXT NOT NULL,
    text         TEXT NOT NULL,
    published_at DATETIME NOT NULL,
    embedding    TEXT NOT NULL,
    fingerprint  TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL,
    UNIQUE(source_id, text)
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_id);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_published ON documents(published_at);
`
