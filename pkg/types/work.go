// Package types defines the core data structures for the Mnemon journal:
// works (the media entities), mnemons (the user's memories of them), provider
// references, and search results.
package types

import (
	"time"

	"github.com/google/uuid"
)

// WorkType identifies the kind of media a Work represents.
type WorkType string

// WorkOrigin records how a Work entered the system.
type WorkOrigin string

// Work type constants
const (
	// WorkTypeMovie is a feature film
	WorkTypeMovie WorkType = "movie"

	// WorkTypeTvAnime is a TV series or anime
	WorkTypeTvAnime WorkType = "tv_anime"

	// WorkTypeGame is a video game
	WorkTypeGame WorkType = "game"
)

// Work origin constants
const (
	// OriginProvider indicates the work was created from a provider search result
	OriginProvider WorkOrigin = "provider"

	// OriginManual indicates the work was entered by hand
	OriginManual WorkOrigin = "manual"
)

// ValidWorkTypes lists every accepted work type.
var ValidWorkTypes = []WorkType{WorkTypeMovie, WorkTypeTvAnime, WorkTypeGame}

// Valid reports whether t is one of the known work types.
func (t WorkType) Valid() bool {
	switch t {
	case WorkTypeMovie, WorkTypeTvAnime, WorkTypeGame:
		return true
	}
	return false
}

// Label returns the human-readable name for the work type.
func (t WorkType) Label() string {
	switch t {
	case WorkTypeMovie:
		return "Movie"
	case WorkTypeTvAnime:
		return "TV/Anime"
	case WorkTypeGame:
		return "Game"
	}
	return string(t)
}

// Icon returns the emoji used for the work type in the UI.
func (t WorkType) Icon() string {
	switch t {
	case WorkTypeMovie:
		return "🎬"
	case WorkTypeTvAnime:
		return "📺"
	case WorkTypeGame:
		return "🎮"
	}
	return "❓"
}

// Work is a piece of media (movie, TV/anime, or game). Works are shared across
// mnemons: remembering the same film twice creates one Work and two Mnemons.
// A Work is immutable after creation and is never deleted; orphaned works are
// tolerated.
type Work struct {
	// ID is the unique identifier, assigned at creation.
	ID string `json:"id"`

	// WorkType is the kind of media. Immutable after creation.
	WorkType WorkType `json:"work_type"`

	// TitleEn is the English display title. Required.
	TitleEn string `json:"title_en"`

	// ReleaseYear is the 4-digit release year, 0 when unknown.
	ReleaseYear int `json:"release_year,omitempty"`

	// CoverImageURI points at the cached cover image, empty when absent.
	CoverImageURI string `json:"cover_image_uri,omitempty"`

	// ThemeMusicURI points at the cached theme music, empty when absent.
	ThemeMusicURI string `json:"theme_music_uri,omitempty"`

	// ProviderRef identifies the work in an external provider. Nil for
	// manually entered works. Two works with matching refs are duplicates.
	ProviderRef *ProviderRef `json:"provider_ref,omitempty"`

	// Origin records whether the work came from a provider or manual entry.
	Origin WorkOrigin `json:"origin"`

	// CreatedAt is when the work was created. Set once.
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkFromProvider creates a Work from a selected provider search result.
func NewWorkFromProvider(workType WorkType, title string, year int, coverURL, themeMusicURL string, ref ProviderRef) *Work {
	return &Work{
		ID:            uuid.NewString(),
		WorkType:      workType,
		TitleEn:       title,
		ReleaseYear:   year,
		CoverImageURI: coverURL,
		ThemeMusicURI: themeMusicURL,
		ProviderRef:   &ref,
		Origin:        OriginProvider,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewManualWork creates a Work from manual entry.
func NewManualWork(workType WorkType, title string, year int) *Work {
	return &Work{
		ID:          uuid.NewString(),
		WorkType:    workType,
		TitleEn:     title,
		ReleaseYear: year,
		Origin:      OriginManual,
		CreatedAt:   time.Now().UTC(),
	}
}
