package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/pkg/types"
)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore opens a PostgreSQL connection and creates the schema.
func NewStore(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAll fetches every persisted work and mnemon, each ordered by creation time.
func (s *Store) LoadAll(ctx context.Context) (*storage.PersistedData, error) {
	works, err := s.loadWorks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load works: %w", err)
	}
	mnemons, err := s.loadMnemons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mnemons: %w", err)
	}
	return &storage.PersistedData{Works: works, Mnemons: mnemons}, nil
}

func (s *Store) loadWorks(ctx context.Context) ([]*types.Work, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_type, title_en, release_year, cover_image_uri,
		       theme_music_uri, provider_source, provider_external_id,
		       origin, created_at
		FROM works
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []*types.Work
	for rows.Next() {
		var (
			w                             types.Work
			releaseYear                   sql.NullInt64
			coverURI, musicURI            sql.NullString
			providerSource, providerExtID sql.NullString
			createdAt                     time.Time
		)
		if err := rows.Scan(&w.ID, &w.WorkType, &w.TitleEn, &releaseYear,
			&coverURI, &musicURI, &providerSource, &providerExtID,
			&w.Origin, &createdAt); err != nil {
			return nil, err
		}
		w.ReleaseYear = int(releaseYear.Int64)
		w.CoverImageURI = coverURI.String
		w.ThemeMusicURI = musicURI.String
		if providerSource.Valid && providerSource.String != "" {
			w.ProviderRef = &types.ProviderRef{
				Source:     providerSource.String,
				ExternalID: providerExtID.String,
			}
		}
		w.CreatedAt = createdAt
		works = append(works, &w)
	}
	return works, rows.Err()
}

func (s *Store) loadMnemons(ctx context.Context) ([]*types.Mnemon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_id, finished_date, feelings, notes, created_at
		FROM mnemons
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mnemons []*types.Mnemon
	for rows.Next() {
		var (
			m                       types.Mnemon
			finishedDate            sql.NullString
			feelingsJSON, notesJSON []byte
			createdAt               time.Time
		)
		if err := rows.Scan(&m.ID, &m.WorkID, &finishedDate, &feelingsJSON,
			&notesJSON, &createdAt); err != nil {
			return nil, err
		}
		m.FinishedDate = finishedDate.String
		if len(feelingsJSON) > 0 {
			if err := json.Unmarshal(feelingsJSON, &m.Feelings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal feelings for %s: %w", m.ID, err)
			}
		}
		if len(notesJSON) > 0 {
			if err := json.Unmarshal(notesJSON, &m.Notes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notes for %s: %w", m.ID, err)
			}
		}
		m.CreatedAt = createdAt
		mnemons = append(mnemons, &m)
	}
	return mnemons, rows.Err()
}

// SaveWork creates or updates a work (upsert semantics).
func (s *Store) SaveWork(ctx context.Context, work *types.Work) error {
	if work == nil {
		return storage.ErrInvalidInput
	}
	if work.ID == "" {
		return fmt.Errorf("%w: work ID is required", storage.ErrInvalidInput)
	}
	if work.TitleEn == "" {
		return fmt.Errorf("%w: work title is required", storage.ErrInvalidInput)
	}

	if work.CreatedAt.IsZero() {
		work.CreatedAt = time.Now().UTC()
	}

	var providerSource, providerExtID sql.NullString
	if work.ProviderRef != nil {
		providerSource = sql.NullString{String: work.ProviderRef.Source, Valid: true}
		providerExtID = sql.NullString{String: work.ProviderRef.ExternalID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO works (
			id, work_type, title_en, release_year, cover_image_uri,
			theme_music_uri, provider_source, provider_external_id,
			origin, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(id) DO UPDATE SET
			work_type = EXCLUDED.work_type,
			title_en = EXCLUDED.title_en,
			release_year = EXCLUDED.release_year,
			cover_image_uri = EXCLUDED.cover_image_uri,
			theme_music_uri = EXCLUDED.theme_music_uri,
			provider_source = EXCLUDED.provider_source,
			provider_external_id = EXCLUDED.provider_external_id,
			origin = EXCLUDED.origin
	`, work.ID, work.WorkType, work.TitleEn, nullInt(work.ReleaseYear),
		nullString(work.CoverImageURI), nullString(work.ThemeMusicURI),
		providerSource, providerExtID, work.Origin, work.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save work: %w", err)
	}
	return nil
}

// SaveMnemon creates or updates a mnemon (upsert semantics).
func (s *Store) SaveMnemon(ctx context.Context, mnemon *types.Mnemon) error {
	if mnemon == nil {
		return storage.ErrInvalidInput
	}
	if mnemon.ID == "" {
		return fmt.Errorf("%w: mnemon ID is required", storage.ErrInvalidInput)
	}
	if mnemon.WorkID == "" {
		return fmt.Errorf("%w: mnemon work ID is required", storage.ErrInvalidInput)
	}

	if mnemon.CreatedAt.IsZero() {
		mnemon.CreatedAt = time.Now().UTC()
	}

	feelingsJSON, err := marshalLines(mnemon.Feelings)
	if err != nil {
		return fmt.Errorf("failed to marshal feelings: %w", err)
	}
	notesJSON, err := marshalLines(mnemon.Notes)
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mnemons (id, work_id, finished_date, feelings, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(id) DO UPDATE SET
			work_id = EXCLUDED.work_id,
			finished_date = EXCLUDED.finished_date,
			feelings = EXCLUDED.feelings,
			notes = EXCLUDED.notes
	`, mnemon.ID, mnemon.WorkID, nullString(mnemon.FinishedDate),
		feelingsJSON, notesJSON, mnemon.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save mnemon: %w", err)
	}
	return nil
}

// DeleteMnemon permanently removes a mnemon by ID.
func (s *Store) DeleteMnemon(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: mnemon ID is required", storage.ErrInvalidInput)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM mnemons WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete mnemon: %w", err)
	}
	return nil
}

// SaveAsset stores a media blob by ID (upsert semantics).
func (s *Store) SaveAsset(ctx context.Context, asset *storage.Asset) error {
	if asset == nil || asset.ID == "" {
		return fmt.Errorf("%w: asset ID is required", storage.ErrInvalidInput)
	}
	if len(asset.Data) == 0 {
		return fmt.Errorf("%w: asset data is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, mime_type, data)
		VALUES ($1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET
			mime_type = EXCLUDED.mime_type,
			data = EXCLUDED.data
	`, asset.ID, asset.MimeType, asset.Data)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// LoadAsset retrieves a media blob by ID.
func (s *Store) LoadAsset(ctx context.Context, id string) (*storage.Asset, error) {
	asset := &storage.Asset{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT mime_type, data FROM assets WHERE id = $1", id,
	).Scan(&asset.MimeType, &asset.Data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	return asset, nil
}

// GetSetting retrieves a user setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = $1", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a user setting. An empty value removes the key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: setting key is required", storage.ErrInvalidInput)
	}
	if value == "" {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = $1", key); err != nil {
			return fmt.Errorf("failed to clear setting %s: %w", key, err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func marshalLines(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	return json.Marshal(lines)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
