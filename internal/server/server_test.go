package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/scrypster/mnemon/internal/config"
	"github.com/scrypster/mnemon/internal/engine"
	"github.com/scrypster/mnemon/internal/providers"
	"github.com/scrypster/mnemon/internal/server"
	"github.com/scrypster/mnemon/internal/storage/sqlite"
	"github.com/scrypster/mnemon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer starts a full server on a random port over an in-memory
// SQLite store and returns the base URL.
func startTestServer(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Security.SecurityMode == "" {
		cfg.Security.SecurityMode = "development"
	}

	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tasks := engine.NewDispatcher(5 * time.Second)
	state := engine.NewAppState(store, tasks)

	carousel, err := engine.NewCarouselController(engine.DefaultCarouselConfig(), state.MnemonCount)
	require.NoError(t, err)

	undo := engine.NewUndoQueue(state, engine.DefaultUndoTimeout)

	fixtures := providers.NewFixtureGateway()
	registry := providers.NewRegistry(fixtures, fixtures, fixtures, func() bool { return true })
	search := providers.NewSearchSession(registry, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	addr, _ := server.Start(ctx, cfg, server.Deps{
		Store:    store,
		State:    state,
		Carousel: carousel,
		Undo:     undo,
		Search:   search,
		Tasks:    tasks,
	})

	require.NoError(t, state.Load(context.Background()))

	return fmt.Sprintf("http://%s", addr)
}

func TestHealthEndpointNoAuth(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"
	base := startTestServer(t, cfg)

	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestAPIRequiresTokenInProduction(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"
	base := startTestServer(t, cfg)

	// Without a token.
	resp, err := http.Get(base + "/api/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the token.
	req, err := http.NewRequest(http.MethodGet, base+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndFetchMnemonOverHTTP(t *testing.T) {
	base := startTestServer(t, &config.Config{})

	payload := map[string]interface{}{
		"result": map[string]interface{}{
			"provider_ref": map[string]string{"source": "tmdb", "external_id": "129"},
			"title":        "Spirited Away",
			"year":         2001,
			"work_type":    "movie",
		},
		"feelings": []string{"Nostalgic"},
		"notes":    "saw it in the cinema",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(base+"/api/mnemons", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Mnemon *types.Mnemon `json:"mnemon"`
		Work   *types.Work   `json:"work"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Spirited Away", created.Work.TitleEn)

	stateResp, err := http.Get(base + "/api/state")
	require.NoError(t, err)
	defer stateResp.Body.Close()
	require.Equal(t, http.StatusOK, stateResp.StatusCode)

	var state struct {
		Mnemons  []json.RawMessage `json:"mnemons"`
		Shuffled []int             `json:"shuffled"`
	}
	require.NoError(t, json.NewDecoder(stateResp.Body).Decode(&state))
	assert.Len(t, state.Mnemons, 1)
	assert.Equal(t, []int{0}, state.Shuffled)
}

func TestSecurityHeaders(t *testing.T) {
	base := startTestServer(t, &config.Config{})

	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestUnknownRouteIs404(t *testing.T) {
	base := startTestServer(t, &config.Config{})

	resp, err := http.Get(base + "/definitely-not-a-page")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
