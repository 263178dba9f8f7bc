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

func newTestRawg(t *testing.T, handler http.HandlerFunc) *RawgClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewRawgClient(func() string { return "test-key" })
	c.baseURL = srv.URL
	return c
}

func TestRawgSearch(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestRawg(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"count": 45,
			"results": [
				{"id": 41494, "name": "Hollow Knight", "released": "2017-02-23", "background_image": "https://media.rawg.io/hk.jpg"},
				{"id": 99, "name": "Unreleased Game"}
			]
		}`))
	})

	page, err := c.Search(context.Background(), "hollow", types.WorkTypeGame, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"test-key"}, gotQuery["key"])
	assert.Equal(t, []string{"hollow"}, gotQuery["search"])
	assert.Equal(t, []string{"2"}, gotQuery["page"], "pages sent to RAWG are 1-indexed")
	assert.Equal(t, []string{"20"}, gotQuery["page_size"])

	require.Len(t, page.Results, 2)
	first := page.Results[0]
	assert.Equal(t, types.NewProviderRef("rawg", "41494"), first.ProviderRef)
	assert.Equal(t, "Hollow Knight", first.Title)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, types.WorkTypeGame, first.WorkType)
	assert.Equal(t, "https://media.rawg.io/hk.jpg", first.CoverURL)
	assert.Equal(t, 0, page.Results[1].Year)

	assert.Equal(t, 45, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages, "45 results at page size 20 is 3 pages")
	assert.Equal(t, 1, page.Page)
	assert.True(t, page.HasPreviousPage())
}

func TestRawgEmptyQuery(t *testing.T) {
	c := NewRawgClient(func() string { return "key" })
	page, err := c.Search(context.Background(), "   ", types.WorkTypeGame, 0)
	require.NoError(t, err)
	assert.True(t, page.IsEmpty())
}

func TestRawgNotConfigured(t *testing.T) {
	c := NewRawgClient(func() string { return "" })
	assert.Equal(t, StatusNotConfigured, c.Status())

	_, err := c.Search(context.Background(), "zelda", types.WorkTypeGame, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRawgRejectsNonGames(t *testing.T) {
	c := NewRawgClient(func() string { return "key" })
	_, err := c.Search(context.Background(), "query", types.WorkTypeMovie, 0)
	assert.Error(t, err)
}

func TestRawgAPIError(t *testing.T) {
	c := newTestRawg(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid API key"))
	})

	_, err := c.Search(context.Background(), "zelda", types.WorkTypeGame, 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
