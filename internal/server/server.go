// Package server provides HTTP server initialization and lifecycle management
// for the Mnemon Web UI.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/scrypster/mnemon/internal/config"
	"github.com/scrypster/mnemon/internal/engine"
	"github.com/scrypster/mnemon/internal/providers"
	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/web/handlers"
)

// Deps bundles the engine components the server exposes over HTTP. All of
// them must be constructed before Start; Start wires their change callbacks
// into the WebSocket hub.
type Deps struct {
	Store    storage.Store
	State    *engine.AppState
	Carousel *engine.CarouselController
	Undo     *engine.UndoQueue
	Search   *providers.SearchSession
	Tasks    *engine.Dispatcher
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with port 0)
// and the WebSocketHub for wiring event broadcasts.
func Start(ctx context.Context, cfg *config.Config, deps Deps) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	// Create WebSocket hub
	wsHub := handlers.NewWebSocketHub(cfg.Server.Port)
	go wsHub.Run()

	// Every committed engine mutation tells connected clients to refetch.
	deps.State.OnChange(func() {
		wsHub.Broadcast(handlers.Event{Type: handlers.EventStateChanged})
	})
	deps.Carousel.OnChange(func() {
		wsHub.Broadcast(handlers.Event{Type: handlers.EventStateChanged})
	})
	deps.Search.OnChange(func() {
		wsHub.Broadcast(handlers.Event{Type: handlers.EventStateChanged})
	})
	deps.Undo.OnChange(func() {
		if _, staged := deps.Undo.Pending(); staged {
			wsHub.Broadcast(handlers.Event{Type: handlers.EventUndoStaged})
		} else {
			wsHub.Broadcast(handlers.Event{Type: handlers.EventUndoResolved})
		}
	})

	// Create rate limiter (10 req/sec, burst of 20)
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	appHandlers := handlers.NewAppHandlers(
		deps.State, deps.Carousel, deps.Undo, deps.Search,
		deps.Store, cfg, deps.Tasks,
	)
	importHandlers := handlers.NewImportHandlers(deps.Store)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/state", appHandlers.GetState)

	apiMux.HandleFunc("/api/mnemons", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			appHandlers.ListMnemons(w, r)
		case http.MethodPost:
			appHandlers.CreateMnemon(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("POST /api/mnemons/undo", appHandlers.UndoDelete)
	apiMux.HandleFunc("/api/mnemons/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			appHandlers.UpdateMnemon(w, r)
		case http.MethodDelete:
			appHandlers.DeleteMnemon(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Carousel routes
	apiMux.HandleFunc("POST /api/carousel/next", appHandlers.CarouselNext)
	apiMux.HandleFunc("POST /api/carousel/prev", appHandlers.CarouselPrev)
	apiMux.HandleFunc("POST /api/carousel/swipe", appHandlers.CarouselSwipe)
	apiMux.HandleFunc("POST /api/carousel/gesture", appHandlers.CarouselGesture)
	apiMux.HandleFunc("POST /api/carousel/details", appHandlers.CarouselDetails)
	apiMux.HandleFunc("POST /api/carousel/pause", appHandlers.CarouselPause)

	// Search routes
	apiMux.HandleFunc("GET /api/search", appHandlers.GetSearch)
	apiMux.HandleFunc("POST /api/search/query", appHandlers.SearchQuery)
	apiMux.HandleFunc("POST /api/search/submit", appHandlers.SearchSubmit)
	apiMux.HandleFunc("POST /api/search/work-type", appHandlers.SearchWorkType)
	apiMux.HandleFunc("POST /api/search/page/next", appHandlers.SearchNextPage)
	apiMux.HandleFunc("POST /api/search/page/prev", appHandlers.SearchPrevPage)

	// Cached media assets
	apiMux.HandleFunc("GET /api/assets/{id}", appHandlers.GetAsset)

	// Settings routes
	apiMux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			appHandlers.GetSettings(w, r)
		case http.MethodPost:
			appHandlers.UpdateSettings(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Import/export routes
	apiMux.HandleFunc("POST /api/import/markdown", importHandlers.PostMarkdownImport)
	apiMux.HandleFunc("GET /api/import/status/{job_id}", importHandlers.GetImportStatus)
	apiMux.HandleFunc("POST /api/export", importHandlers.PostExport)

	// Health endpoint is unauthenticated, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		appHandlers.HealthCheck(w, r)
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws", wsHub)

	// Static files
	basePath := findBasePath()
	fs := http.FileServer(http.Dir(basePath + "/web/static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Index page
	indexPath := basePath + "/web/templates/index.html"
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	})

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}

// findBasePath returns the base path for the project.
// When running from cmd/mnemon-web, we need to go up two directories.
// When running tests, we may already be in the project root.
func findBasePath() string {
	// Try current directory first (for when running from project root)
	if _, err := os.Stat("web/templates/index.html"); err == nil {
		return "."
	}

	// Try parent directory (for when running from cmd/)
	if _, err := os.Stat("../web/templates/index.html"); err == nil {
		return ".."
	}

	// Try two levels up (for when running from cmd/mnemon-web/)
	if _, err := os.Stat("../../web/templates/index.html"); err == nil {
		return "../.."
	}

	// Default to current directory
	return "."
}
