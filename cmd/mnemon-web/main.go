package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/mnemon/internal/config"
	"github.com/scrypster/mnemon/internal/engine"
	"github.com/scrypster/mnemon/internal/providers"
	"github.com/scrypster/mnemon/internal/server"
	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/internal/storage/postgres"
	"github.com/scrypster/mnemon/internal/storage/sqlite"
)

func main() {
	dataPath := flag.String("data", "", "Data directory (default: MNEMON_DATA_PATH or ./data)")
	flag.Parse()

	// Load base configuration from the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataPath != "" {
		cfg.Storage.DataPath = *dataPath
	}

	// Initialize storage
	var store storage.Store
	switch cfg.Storage.StorageEngine {
	case "postgres":
		pgStore, err := postgres.NewStore(cfg.Storage.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize postgres storage: %v", err)
		}
		store = pgStore
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		sqStore, err := sqlite.NewStore(cfg.Storage.DataPath + "/mnemon.db")
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		store = sqStore
	}
	defer store.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings managed from the UI (provider credentials, fixture toggle)
	// override the environment.
	storeCfg, err := config.LoadConfigFromStore(ctx, store)
	if err != nil {
		log.Printf("ERROR: failed to load settings from database: %v", err)
	} else {
		saved := storeCfg.ProviderSettings()
		cfg.UpdateProviderSettings(func(p *config.ProvidersConfig) {
			if saved.TmdbToken != "" {
				p.TmdbToken = saved.TmdbToken
			}
			if saved.RawgKey != "" {
				p.RawgKey = saved.RawgKey
			}
			p.UseFixtures = p.UseFixtures || saved.UseFixtures
			p.AutoCyclePaused = p.AutoCyclePaused || saved.AutoCyclePaused
		})
	}

	// Build the engine
	tasks := engine.NewDispatcher(10 * time.Second)
	state := engine.NewAppState(store, tasks)

	carousel, err := engine.NewCarouselController(engine.DefaultCarouselConfig(), state.MnemonCount)
	if err != nil {
		log.Fatalf("Failed to initialize carousel: %v", err)
	}
	carousel.SetPaused(cfg.ProviderSettings().AutoCyclePaused)

	undo := engine.NewUndoQueue(state, engine.DefaultUndoTimeout)

	// Provider gateways read credentials through closures, so settings
	// changes apply without a restart.
	tmdb := providers.NewTmdbClient(func() string { return cfg.ProviderSettings().TmdbToken })
	rawg := providers.NewRawgClient(func() string { return cfg.ProviderSettings().RawgKey })
	registry := providers.NewRegistry(tmdb, rawg, providers.NewFixtureGateway(),
		func() bool { return cfg.ProviderSettings().UseFixtures })
	search := providers.NewSearchSession(registry, providers.DefaultDebounce)

	// Start server (wires change callbacks into the WebSocket hub, so it
	// must run before Load fires the first notification)
	addr, _ := server.Start(ctx, cfg, server.Deps{
		Store:    store,
		State:    state,
		Carousel: carousel,
		Undo:     undo,
		Search:   search,
		Tasks:    tasks,
	})

	if err := state.Load(ctx); err != nil {
		log.Fatalf("Failed to load journal: %v", err)
	}

	go carousel.Run(ctx)

	log.Printf("Mnemon running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	// Commit any pending deletion before the process exits.
	undo.Flush()
	cancel()
	tasks.Wait()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
