package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Setting keys persisted in the settings table. Provider credentials live
// here rather than in env config so the user can manage them from the UI.
const (
	// SettingTmdbToken is the TMDB API read access token.
	SettingTmdbToken = "tmdb_access_token"

	// SettingRawgKey is the RAWG API key.
	SettingRawgKey = "rawg_api_key"

	// SettingUseFixtures enables the fixture search catalog when the real
	// provider is unconfigured ("true"/"false").
	SettingUseFixtures = "use_fixtures"

	// SettingAutoCyclePaused persists the slideshow pause toggle
	// ("true"/"false").
	SettingAutoCyclePaused = "auto_cycle_paused"
)
