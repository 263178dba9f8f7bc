package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/mnemon/pkg/types"
)

const (
	rawgAPIBase  = "https://api.rawg.io/api"
	rawgPageSize = 20
)

// RawgClient searches RAWG (the video games database). Only games are
// supported; the API key travels as a query parameter.
type RawgClient struct {
	baseURL string
	apiKey  func() string
	client  *http.Client
	limiter *rate.Limiter
	breaker *Breaker
}

// NewRawgClient creates a RAWG client. apiKey is read per request so a
// credential saved in settings takes effect without a restart.
func NewRawgClient(apiKey func() string) *RawgClient {
	return &RawgClient{
		baseURL: rawgAPIBase,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		// The free RAWG tier is modest; keep the request rate low.
		limiter: rate.NewLimiter(rate.Limit(5), 2),
		breaker: NewBreaker("rawg"),
	}
}

// Name implements Gateway.
func (c *RawgClient) Name() string { return "rawg" }

// Status implements Gateway.
func (c *RawgClient) Status() Status {
	if c.apiKey() == "" {
		return StatusNotConfigured
	}
	if c.breaker.Open() {
		return StatusOffline
	}
	return StatusAvailable
}

type rawgSearchResponse struct {
	Count   int        `json:"count"`
	Results []rawgGame `json:"results"`
}

type rawgGame struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Released        string `json:"released"`
	BackgroundImage string `json:"background_image"`
}

func (g *rawgGame) toSearchResult() types.SearchResult {
	return types.SearchResult{
		ProviderRef: types.NewProviderRef("rawg", fmt.Sprintf("%d", g.ID)),
		Title:       g.Name,
		Year:        yearFromDate(g.Released),
		WorkType:    types.WorkTypeGame,
		CoverURL:    g.BackgroundImage,
	}
}

// Search implements Gateway. page is 0-indexed; RAWG pages are 1-indexed.
func (c *RawgClient) Search(ctx context.Context, query string, workType types.WorkType, page int) (*types.SearchPage, error) {
	if workType != types.WorkTypeGame {
		return nil, fmt.Errorf("rawg does not support work type %q", workType)
	}
	key := c.apiKey()
	if key == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(query) == "" {
		return &types.SearchPage{Page: page}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/games?key=%s&search=%s&page=%d&page_size=%d",
		c.baseURL, url.QueryEscape(key), url.QueryEscape(query), page+1, rawgPageSize)

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.doSearch(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*rawgSearchResponse)
	log.Printf("RAWG returned %d results for %q (total %d)", len(resp.Results), query, resp.Count)

	results := make([]types.SearchResult, 0, len(resp.Results))
	for i := range resp.Results {
		results = append(results, resp.Results[i].toSearchResult())
	}
	totalPages := (resp.Count + rawgPageSize - 1) / rawgPageSize
	return &types.SearchPage{
		Results:    results,
		TotalCount: resp.Count,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

func (c *RawgClient) doSearch(ctx context.Context, reqURL string) (*rawgSearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
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

	var search rawgSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding RAWG response: %w", err)
	}
	return &search, nil
}
