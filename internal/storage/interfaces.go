// Package storage defines the persistence contract for the Mnemon journal.
//
// The store is a small async key-value layer with three logical tables
// (works, mnemons, assets) plus user settings. The in-memory AppState is the
// session source of truth; the store provides best-effort durability and the
// next full LoadAll is the recovery point after a failed write.
package storage

import (
	"context"

	"github.com/scrypster/mnemon/pkg/types"
)

// PersistedData is everything LoadAll returns: the full contents of the works
// and mnemons tables.
type PersistedData struct {
	Works   []*types.Work
	Mnemons []*types.Mnemon
}

// Store is the persistence backend for the journal. Implementations must be
// safe for concurrent use; the engine issues at most one background write per
// mutation and never awaits them.
type Store interface {
	// LoadAll fetches every persisted work and mnemon.
	LoadAll(ctx context.Context) (*PersistedData, error)

	// SaveWork creates or updates a work (upsert semantics).
	SaveWork(ctx context.Context, work *types.Work) error

	// SaveMnemon creates or updates a mnemon (upsert semantics).
	SaveMnemon(ctx context.Context, mnemon *types.Mnemon) error

	// DeleteMnemon permanently removes a mnemon by ID.
	// Deleting an absent mnemon is not an error.
	DeleteMnemon(ctx context.Context, id string) error

	// SaveAsset stores a media blob (cover image, theme music) by ID.
	SaveAsset(ctx context.Context, asset *Asset) error

	// LoadAsset retrieves a media blob by ID.
	// Returns ErrNotFound if the asset doesn't exist.
	LoadAsset(ctx context.Context, id string) (*Asset, error)

	// GetSetting retrieves a user setting by key.
	// Returns ErrNotFound if the key has never been set.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting stores a user setting. An empty value removes the key.
	SetSetting(ctx context.Context, key, value string) error

	// Close releases the underlying database handle.
	Close() error
}

// Asset is a locally cached media blob referenced by a work.
type Asset struct {
	// ID is the asset identifier; the work records it as the
	// "/api/assets/{id}" cover URI.
	ID string

	// MimeType is the content type of the blob.
	MimeType string

	// Data is the raw bytes.
	Data []byte
}
