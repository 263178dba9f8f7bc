package handlers

import (
	"github.com/scrypster/mnemon/internal/config"
	"github.com/scrypster/mnemon/internal/engine"
	"github.com/scrypster/mnemon/internal/providers"
	"github.com/scrypster/mnemon/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MnemonView is a mnemon joined with its work for display.
type MnemonView struct {
	Mnemon *types.Mnemon `json:"mnemon"`
	Work   *types.Work   `json:"work"`

	// NoteDurationsMs mirrors Mnemon.Notes: how long the hero holds each
	// note on screen, derived from its word count.
	NoteDurationsMs []int64 `json:"note_durations_ms,omitempty"`
}

// StateResponse is the full UI snapshot returned by GET /api/state. The
// client renders entirely from this; the websocket only signals that a fresh
// snapshot should be fetched.
type StateResponse struct {
	Mnemons     []MnemonView          `json:"mnemons"`
	Shuffled    []int                 `json:"shuffled"`
	Carousel    engine.CarouselState  `json:"carousel"`
	Search      providers.SearchState `json:"search"`
	UndoPending string                `json:"undo_pending,omitempty"`
	Feelings    []types.Feeling       `json:"feelings"`
}

// CreateMnemonRequest is the body for POST /api/mnemons. Exactly one of
// Result (a provider search hit) or Manual must be set.
type CreateMnemonRequest struct {
	Result *types.SearchResult `json:"result,omitempty"`
	Manual *ManualWorkRequest  `json:"manual,omitempty"`

	FinishedDate string   `json:"finished_date,omitempty"`
	Feelings     []string `json:"feelings,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// ManualWorkRequest describes a work entered by hand.
type ManualWorkRequest struct {
	Title    string         `json:"title"`
	WorkType types.WorkType `json:"work_type"`
	Year     int            `json:"year,omitempty"`
}

// CreateMnemonResponse returns the created records and where the carousel
// will show them.
type CreateMnemonResponse struct {
	Mnemon   *types.Mnemon `json:"mnemon"`
	Work     *types.Work   `json:"work"`
	Position int           `json:"position"`
}

// UpdateMnemonRequest is the body for PATCH /api/mnemons/{id}.
type UpdateMnemonRequest struct {
	FinishedDate string   `json:"finished_date"`
	Feelings     []string `json:"feelings"`
	Notes        string   `json:"notes"`
}

// SwipeRequest is the body for POST /api/carousel/swipe.
type SwipeRequest struct {
	Direction string `json:"direction"` // "left" | "right" | "up" | "down"
}

// GesturePoint is one sampled touch position.
type GesturePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GestureRequest is the body for POST /api/carousel/gesture: a raw touch
// trace, first point down, last point up.
type GestureRequest struct {
	Points []GesturePoint `json:"points"`
}

// SearchQueryRequest is the body for POST /api/search/query.
type SearchQueryRequest struct {
	Query    string         `json:"query"`
	WorkType types.WorkType `json:"work_type,omitempty"`
}

// WorkTypeRequest is the body for POST /api/search/work-type.
type WorkTypeRequest struct {
	WorkType types.WorkType `json:"work_type"`
}

// DetailsRequest is the body for POST /api/carousel/details.
type DetailsRequest struct {
	Open bool `json:"open"`
}

// PauseRequest is the body for POST /api/carousel/pause.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// CarouselResponse reports whether a navigation was accepted along with the
// carousel snapshot after it.
type CarouselResponse struct {
	Accepted bool                 `json:"accepted"`
	Carousel engine.CarouselState `json:"carousel"`
}

// DeleteMnemonResponse confirms a staged deletion and how long the undo
// window stays open.
type DeleteMnemonResponse struct {
	Pending     string `json:"pending"`
	UndoSeconds int    `json:"undo_seconds"`
}

// SettingsResponse is the response format for GET /api/settings.
// Credentials are masked.
type SettingsResponse struct {
	TmdbToken       string `json:"tmdb_token"` // Masked
	RawgKey         string `json:"rawg_key"`   // Masked
	UseFixtures     bool   `json:"use_fixtures"`
	AutoCyclePaused bool   `json:"auto_cycle_paused"`
	StorageEngine   string `json:"storage_engine"`
}

// SettingsRequest is the body for POST /api/settings. Nil fields are left
// unchanged, so the form can submit only what the user touched.
type SettingsRequest struct {
	TmdbToken       *string `json:"tmdb_token,omitempty"`
	RawgKey         *string `json:"rawg_key,omitempty"`
	UseFixtures     *bool   `json:"use_fixtures,omitempty"`
	AutoCyclePaused *bool   `json:"auto_cycle_paused,omitempty"`
}

// MaskAPIKey masks a credential for safe display.
// Shows first 4 chars and last 4 chars, hides the middle.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// ToSettingsResponse converts a config.Config to SettingsResponse with
// masked credentials.
func ToSettingsResponse(cfg *config.Config) SettingsResponse {
	p := cfg.ProviderSettings()
	return SettingsResponse{
		TmdbToken:       MaskAPIKey(p.TmdbToken),
		RawgKey:         MaskAPIKey(p.RawgKey),
		UseFixtures:     p.UseFixtures,
		AutoCyclePaused: p.AutoCyclePaused,
		StorageEngine:   cfg.Storage.StorageEngine,
	}
}
