// Package sqlite provides the embedded SQLite implementation of the journal
// store. It is CGO-free (modernc.org/sqlite) and is the default backend.
package sqlite

// Schema contains the SQL statements to create the database schema.
// Works and mnemons mirror the domain records field-for-field; feelings and
// notes are stored as JSON arrays. Assets hold locally cached media blobs.
const Schema = `
-- Works table: media entities shared across mnemons
CREATE TABLE IF NOT EXISTS works (
    id TEXT PRIMARY KEY,
    work_type TEXT NOT NULL,
    title_en TEXT NOT NULL,
    release_year INTEGER,
    cover_image_uri TEXT,
    theme_music_uri TEXT,
    provider_source TEXT,
    provider_external_id TEXT,
    origin TEXT NOT NULL DEFAULT 'manual',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Mnemons table: user memories, each referencing one work
CREATE TABLE IF NOT EXISTS mnemons (
    id TEXT PRIMARY KEY,
    work_id TEXT NOT NULL,
    finished_date TEXT,
    feelings TEXT,
    notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Assets table: cached cover images and theme music blobs
CREATE TABLE IF NOT EXISTS assets (
    id TEXT PRIMARY KEY,
    mime_type TEXT NOT NULL,
    data BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Settings table: user settings persisted across restarts
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_mnemons_work_id ON mnemons(work_id);
CREATE INDEX IF NOT EXISTS idx_works_provider_ref ON works(provider_source, provider_external_id);
`
