package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mnemon/pkg/types"
)

func newTestTmdb(t *testing.T, handler http.HandlerFunc) *TmdbClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewTmdbClient(func() string { return "test-token" })
	c.baseURL = srv.URL
	return c
}

func TestTmdbSearchMovies(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	c := newTestTmdb(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 129, "title": "Spirited Away", "release_date": "2001-07-20", "poster_path": "/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg"},
				{"id": 4935, "title": "Howl's Moving Castle", "release_date": "", "poster_path": ""}
			],
			"total_pages": 3,
			"total_results": 42
		}`))
	})

	page, err := c.Search(context.Background(), "spirited", types.WorkTypeMovie, 0)
	require.NoError(t, err)

	assert.Equal(t, "/search/movie", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, []string{"1"}, gotQuery["page"], "pages sent to TMDB are 1-indexed")
	assert.Equal(t, []string{"spirited"}, gotQuery["query"])

	require.Len(t, page.Results, 2)
	first := page.Results[0]
	assert.Equal(t, types.NewProviderRef("tmdb", "129"), first.ProviderRef)
	assert.Equal(t, "Spirited Away", first.Title)
	assert.Equal(t, 2001, first.Year)
	assert.Equal(t, types.WorkTypeMovie, first.WorkType)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg", first.CoverURL)

	second := page.Results[1]
	assert.Equal(t, 0, second.Year, "missing release date yields zero year")
	assert.Empty(t, second.CoverURL)

	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNextPage())
}

func TestTmdbSearchTvUsesNameFields(t *testing.T) {
	c := newTestTmdb(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		w.Write([]byte(`{
			"page": 1,
			"results": [{"id": 1355, "name": "Cowboy Bebop", "first_air_date": "1998-04-03"}],
			"total_pages": 1,
			"total_results": 1
		}`))
	})

	page, err := c.Search(context.Background(), "cowboy", types.WorkTypeTvAnime, 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Cowboy Bebop", page.Results[0].Title)
	assert.Equal(t, 1998, page.Results[0].Year)
	assert.Equal(t, types.WorkTypeTvAnime, page.Results[0].WorkType)
}

func TestTmdbRejectsGames(t *testing.T) {
	c := NewTmdbClient(func() string { return "token" })
	_, err := c.Search(context.Background(), "zelda", types.WorkTypeGame, 0)
	assert.Error(t, err)
}

func TestTmdbNotConfigured(t *testing.T) {
	c := NewTmdbClient(func() string { return "" })
	assert.Equal(t, StatusNotConfigured, c.Status())

	_, err := c.Search(context.Background(), "query", types.WorkTypeMovie, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTmdbAPIError(t *testing.T) {
	c := newTestTmdb(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_message":"Invalid API key"}`))
	})

	_, err := c.Search(context.Background(), "query", types.WorkTypeMovie, 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Invalid API key")
}

func TestYearFromDate(t *testing.T) {
	assert.Equal(t, 2024, yearFromDate("2024-03-15"))
	assert.Equal(t, 1957, yearFromDate("1957"))
	assert.Equal(t, 0, yearFromDate(""))
	assert.Equal(t, 0, yearFromDate("n/a"))
	assert.Equal(t, 0, yearFromDate("20"))
}
