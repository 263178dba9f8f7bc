package config

import (
	"context"
	"sync"
	"testing"

	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 6373 {
		t.Errorf("expected default port 6373, got %d", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "sqlite" {
		t.Errorf("expected default engine sqlite, got %s", cfg.Storage.StorageEngine)
	}
	if cfg.HasTmdbCredential() || cfg.HasRawgCredential() {
		t.Error("expected no provider credentials by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MNEMON_PORT", "7000")
	t.Setenv("MNEMON_TMDB_TOKEN", "env-token")
	t.Setenv("MNEMON_USE_FIXTURES", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
	if !cfg.HasTmdbCredential() {
		t.Error("expected TMDB credential from env")
	}
	if !cfg.ProviderSettings().UseFixtures {
		t.Error("expected fixtures enabled from env")
	}
}

func TestLoadConfigFromStore_StoreTakesPrecedence(t *testing.T) {
	t.Setenv("MNEMON_TMDB_TOKEN", "env-token")

	ctx := context.Background()
	store := newTestStore(t)
	for key, value := range map[string]string{
		"tmdb_access_token": "db-token",
		"rawg_api_key":      "db-rawg",
		"auto_cycle_paused": "true",
	} {
		if err := store.SetSetting(ctx, key, value); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
	}

	cfg, err := LoadConfigFromStore(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfigFromStore failed: %v", err)
	}

	p := cfg.ProviderSettings()
	if p.TmdbToken != "db-token" {
		t.Errorf("expected persisted value to win, got %q", p.TmdbToken)
	}
	if p.RawgKey != "db-rawg" {
		t.Errorf("expected RAWG key from store, got %q", p.RawgKey)
	}
	if !p.AutoCyclePaused {
		t.Error("expected auto-cycle pause from store")
	}
}

func TestLoadConfigFromStore_FallsBackToEnv(t *testing.T) {
	t.Setenv("MNEMON_RAWG_KEY", "env-rawg")

	cfg, err := LoadConfigFromStore(context.Background(), newTestStore(t))
	if err != nil {
		t.Fatalf("LoadConfigFromStore failed: %v", err)
	}
	if got := cfg.ProviderSettings().RawgKey; got != "env-rawg" {
		t.Errorf("expected env fallback, got %q", got)
	}
}

func TestLoadConfigFromStore_NilStore(t *testing.T) {
	if _, err := LoadConfigFromStore(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cfg, err := LoadConfigFromStore(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfigFromStore failed: %v", err)
	}
	cfg.UpdateProviderSettings(func(p *ProvidersConfig) {
		p.TmdbToken = "saved-token"
		p.UseFixtures = true
	})

	if err := cfg.SaveConfig(ctx, store); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	reloaded, err := LoadConfigFromStore(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfigFromStore failed: %v", err)
	}
	p := reloaded.ProviderSettings()
	if p.TmdbToken != "saved-token" {
		t.Errorf("expected saved token, got %q", p.TmdbToken)
	}
	if !p.UseFixtures {
		t.Error("expected fixtures toggle to persist")
	}
}

func TestProviderSettings_ConcurrentAccess(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Settings-form writes race against credential reads from search
	// goroutines; both run through the guarded accessors.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg.UpdateProviderSettings(func(p *ProvidersConfig) {
					p.TmdbToken = "token"
					p.UseFixtures = !p.UseFixtures
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = cfg.ProviderSettings().TmdbToken
				_ = cfg.HasRawgCredential()
			}
		}()
	}
	wg.Wait()

	if got := cfg.ProviderSettings().TmdbToken; got != "token" {
		t.Errorf("TmdbToken = %q after concurrent writes, want token", got)
	}
}
