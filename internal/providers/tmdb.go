package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/mnemon/pkg/types"
)

const (
	tmdbAPIBase   = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
)

// TmdbClient searches TMDB (The Movie Database) for movies and TV shows.
// Calls go through a circuit breaker and a client-side rate limiter.
type TmdbClient struct {
	baseURL   string
	imageBase string
	token     func() string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *Breaker
}

// NewTmdbClient creates a TMDB client. token is read per request so a
// credential saved in settings takes effect without a restart.
func NewTmdbClient(token func() string) *TmdbClient {
	return &TmdbClient{
		baseURL:   tmdbAPIBase,
		imageBase: tmdbImageBase,
		token:     token,
		client:    &http.Client{Timeout: 15 * time.Second},
		// TMDB allows ~50 req/s; stay well under it.
		limiter: rate.NewLimiter(rate.Limit(20), 5),
		breaker: NewBreaker("tmdb"),
	}
}

// Name implements Gateway.
func (c *TmdbClient) Name() string { return "tmdb" }

// Status implements Gateway.
func (c *TmdbClient) Status() Status {
	if c.token() == "" {
		return StatusNotConfigured
	}
	if c.breaker.Open() {
		return StatusOffline
	}
	return StatusAvailable
}

type tmdbSearchResponse struct {
	Page         int                `json:"page"`
	Results      []tmdbSearchResult `json:"results"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
}

type tmdbSearchResult struct {
	ID int64 `json:"id"`
	// Movie fields.
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	// TV fields.
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
	// Common.
	PosterPath string `json:"poster_path"`
}

func (r *tmdbSearchResult) toSearchResult(workType types.WorkType, imageBase string) types.SearchResult {
	title, date := r.Title, r.ReleaseDate
	if workType == types.WorkTypeTvAnime {
		title, date = r.Name, r.FirstAirDate
	}

	coverURL := ""
	if r.PosterPath != "" {
		coverURL = imageBase + r.PosterPath
	}

	return types.SearchResult{
		ProviderRef: types.NewProviderRef("tmdb", fmt.Sprintf("%d", r.ID)),
		Title:       title,
		Year:        yearFromDate(date),
		WorkType:    workType,
		CoverURL:    coverURL,
	}
}

// Search implements Gateway. TMDB has separate movie and TV endpoints; games
// are not supported.
func (c *TmdbClient) Search(ctx context.Context, query string, workType types.WorkType, page int) (*types.SearchPage, error) {
	token := c.token()
	if token == "" {
		return nil, ErrNotConfigured
	}

	var endpoint string
	switch workType {
	case types.WorkTypeMovie:
		endpoint = "search/movie"
	case types.WorkTypeTvAnime:
		endpoint = "search/tv"
	default:
		return nil, fmt.Errorf("tmdb does not support work type %q", workType)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// TMDB pages are 1-indexed.
	reqURL := fmt.Sprintf("%s/%s?query=%s&page=%d&include_adult=false&language=en-US",
		c.baseURL, endpoint, url.QueryEscape(query), page+1)

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.doSearch(ctx, reqURL, token)
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*tmdbSearchResponse)
	log.Printf("TMDB returned %d results for %q (page %d/%d)",
		len(resp.Results), query, resp.Page, resp.TotalPages)

	results := make([]types.SearchResult, 0, len(resp.Results))
	for i := range resp.Results {
		results = append(results, resp.Results[i].toSearchResult(workType, c.imageBase))
	}
	return &types.SearchPage{
		Results:    results,
		TotalCount: resp.TotalResults,
		Page:       page,
		TotalPages: resp.TotalPages,
	}, nil
}

func (c *TmdbClient) doSearch(ctx context.Context, reqURL, token string) (*tmdbSearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var search tmdbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding TMDB response: %w", err)
	}
	return &search, nil
}
