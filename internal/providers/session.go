package providers

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/mnemon/pkg/types"
)

const (
	// DefaultDebounce is how long typing must settle before a search fires.
	DefaultDebounce = 300 * time.Millisecond

	// MinQueryChars is the minimum trimmed query length that triggers a
	// search.
	MinQueryChars = 3

	searchTimeout = 20 * time.Second
)

// SearchStatus describes the outcome of the most recent search.
type SearchStatus string

const (
	// SearchIdle means no search has run for the current query.
	SearchIdle SearchStatus = "idle"

	// SearchSuccess means a live provider returned the results.
	SearchSuccess SearchStatus = "success"

	// SearchUsingFixtures means the fixture catalog served the results.
	SearchUsingFixtures SearchStatus = "using_fixtures"

	// SearchNotConfigured means the live provider has no credential and
	// fixtures are not enabled; manual entry is the only path.
	SearchNotConfigured SearchStatus = "not_configured"

	// SearchNetworkError means the provider was unreachable.
	SearchNetworkError SearchStatus = "network_error"

	// SearchAPIError means the provider rejected the request.
	SearchAPIError SearchStatus = "api_error"
)

// Registry picks the gateway for a work type: TMDB for movies and TV, RAWG
// for games, with the fixture catalog standing in when fixtures are
// enabled.
type Registry struct {
	tmdb     Gateway
	rawg     Gateway
	fixtures Gateway

	// useFixtures reads the current fixtures setting.
	useFixtures func() bool
}

// NewRegistry builds a registry over the given gateways.
func NewRegistry(tmdb, rawg, fixtures Gateway, useFixtures func() bool) *Registry {
	if useFixtures == nil {
		useFixtures = func() bool { return false }
	}
	return &Registry{tmdb: tmdb, rawg: rawg, fixtures: fixtures, useFixtures: useFixtures}
}

// GatewayFor returns the gateway serving the work type, and whether the
// fixture catalog is serving. A nil gateway means the live provider has no
// credential and fixtures are disabled, so no search can run at all.
func (r *Registry) GatewayFor(workType types.WorkType) (Gateway, bool) {
	var live Gateway
	switch workType {
	case types.WorkTypeGame:
		live = r.rawg
	default:
		live = r.tmdb
	}
	if r.useFixtures() {
		return r.fixtures, true
	}
	if live == nil || live.Status() == StatusNotConfigured {
		return nil, false
	}
	return live, false
}

// SearchState is a consistent snapshot of the session for rendering.
type SearchState struct {
	Query         string            `json:"query"`
	WorkType      types.WorkType    `json:"work_type"`
	Searching     bool              `json:"searching"`
	Results       *types.SearchPage `json:"results,omitempty"`
	Status        SearchStatus      `json:"status"`
	StatusMessage string            `json:"status_message,omitempty"`
	StatusCode    int               `json:"status_code,omitempty"`
}

// SearchSession drives the incremental search flow: queries debounce while
// the user types, short queries clear the results, and page moves fire
// immediately. Every state commit is guarded by a version token captured
// when the request started; a newer query or page move issued while a
// request was in flight wins, and the stale response is discarded.
type SearchSession struct {
	mu       sync.Mutex
	registry *Registry
	debounce time.Duration

	version uint64
	timer   *time.Timer
	state   SearchState

	// onChange is invoked outside the lock after every state commit.
	onChange func()
}

// NewSearchSession creates a session over the registry. A debounce of 0 uses
// DefaultDebounce.
func NewSearchSession(registry *Registry, debounce time.Duration) *SearchSession {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SearchSession{
		registry: registry,
		debounce: debounce,
		state:    SearchState{Status: SearchIdle, WorkType: types.WorkTypeMovie},
	}
}

// OnChange registers a callback invoked after every state commit. Must be
// set before the session is shared across goroutines.
func (s *SearchSession) OnChange(fn func()) {
	s.onChange = fn
}

func (s *SearchSession) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// State returns a snapshot of the current search state.
func (s *SearchSession) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetWorkType switches the active tab. The current query re-runs against the
// new work type immediately (no debounce: this is a deliberate click, not
// typing).
func (s *SearchSession) SetWorkType(workType types.WorkType) {
	s.mu.Lock()
	s.stopTimerLocked()
	s.version++
	s.state.WorkType = workType
	query := s.state.Query
	if len(query) < MinQueryChars {
		s.clearResultsLocked()
		s.mu.Unlock()
		s.notify()
		return
	}
	version := s.version
	s.state.Searching = true
	s.mu.Unlock()
	s.notify()

	go s.execute(version, query, workType, 0)
}

// SetQuery feeds a keystroke. Queries shorter than MinQueryChars clear the
// results; anything longer starts the debounce window, and only the last
// query standing when the window closes actually searches.
func (s *SearchSession) SetQuery(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.stopTimerLocked()
	s.version++
	s.state.Query = query

	if len(query) < MinQueryChars {
		s.clearResultsLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	version := s.version
	workType := s.state.WorkType
	s.state.Searching = true
	s.timer = time.AfterFunc(s.debounce, func() {
		s.execute(version, query, workType, 0)
	})
	s.mu.Unlock()
	s.notify()
}

// SearchNow runs query immediately, skipping the debounce window and the
// minimum length. Used when the user forces a search with Enter. An empty
// query still just clears.
func (s *SearchSession) SearchNow(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.stopTimerLocked()
	s.version++
	s.state.Query = query

	if query == "" {
		s.clearResultsLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	version := s.version
	workType := s.state.WorkType
	s.state.Searching = true
	s.mu.Unlock()
	s.notify()

	go s.execute(version, query, workType, 0)
}

// NextPage fetches the following page of the current results, if any.
func (s *SearchSession) NextPage() {
	s.page(+1)
}

// PrevPage fetches the preceding page of the current results, if any.
func (s *SearchSession) PrevPage() {
	s.page(-1)
}

func (s *SearchSession) page(delta int) {
	s.mu.Lock()
	results := s.state.Results
	if results == nil {
		s.mu.Unlock()
		return
	}
	if delta > 0 && !results.HasNextPage() {
		s.mu.Unlock()
		return
	}
	if delta < 0 && !results.HasPreviousPage() {
		s.mu.Unlock()
		return
	}

	s.stopTimerLocked()
	s.version++
	version := s.version
	query := s.state.Query
	workType := s.state.WorkType
	target := results.Page + delta
	s.state.Searching = true
	s.mu.Unlock()
	s.notify()

	go s.execute(version, query, workType, target)
}

// execute runs one search and commits the outcome unless the session moved
// on while the request was in flight.
func (s *SearchSession) execute(version uint64, query string, workType types.WorkType, page int) {
	// A newer query may have landed between the debounce wake-up and this
	// point; skip the provider call instead of discarding afterwards.
	s.mu.Lock()
	if version != s.version {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	gateway, usingFixtures := s.registry.GatewayFor(workType)
	if gateway == nil {
		s.mu.Lock()
		if version != s.version {
			s.mu.Unlock()
			return
		}
		s.state.Searching = false
		s.state.Results = nil
		s.state.Status = SearchNotConfigured
		s.state.StatusMessage = ""
		s.state.StatusCode = 0
		s.mu.Unlock()
		s.notify()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	results, err := gateway.Search(ctx, query, workType, page)

	s.mu.Lock()
	if version != s.version {
		s.mu.Unlock()
		return
	}
	s.state.Searching = false
	s.state.StatusMessage = ""
	s.state.StatusCode = 0

	switch {
	case err == nil:
		s.state.Results = results
		if usingFixtures {
			s.state.Status = SearchUsingFixtures
		} else {
			s.state.Status = SearchSuccess
		}
	default:
		log.Printf("ERROR: %s search failed: %v", gateway.Name(), err)
		s.state.Results = nil
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			s.state.Status = SearchAPIError
			s.state.StatusMessage = apiErr.Message
			s.state.StatusCode = apiErr.StatusCode
		} else {
			s.state.Status = SearchNetworkError
			s.state.StatusMessage = err.Error()
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Reset clears the session back to its initial state, used when the add
// dialog closes.
func (s *SearchSession) Reset() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.version++
	s.state.Query = ""
	s.clearResultsLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *SearchSession) clearResultsLocked() {
	s.state.Searching = false
	s.state.Results = nil
	s.state.Status = SearchIdle
	s.state.StatusMessage = ""
	s.state.StatusCode = 0
}

func (s *SearchSession) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
