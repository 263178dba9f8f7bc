package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/scrypster/mnemon/internal/config"
	"github.com/scrypster/mnemon/internal/engine"
	"github.com/scrypster/mnemon/internal/providers"
	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/pkg/types"
)

// maxAssetBytes caps how much of a remote cover image gets cached.
const maxAssetBytes = 10 << 20

// AppHandlers contains the HTTP handlers for the journal API. All mutations
// go through the engine; handlers never touch the store directly except for
// asset reads and the settings table.
type AppHandlers struct {
	state    *engine.AppState
	carousel *engine.CarouselController
	undo     *engine.UndoQueue
	search   *providers.SearchSession
	store    storage.Store
	config   *config.Config
	tasks    *engine.Dispatcher
	assets   *http.Client
}

// NewAppHandlers creates an AppHandlers instance.
func NewAppHandlers(
	state *engine.AppState,
	carousel *engine.CarouselController,
	undo *engine.UndoQueue,
	search *providers.SearchSession,
	store storage.Store,
	cfg *config.Config,
	tasks *engine.Dispatcher,
) *AppHandlers {
	return &AppHandlers{
		state:    state,
		carousel: carousel,
		undo:     undo,
		search:   search,
		store:    store,
		config:   cfg,
		tasks:    tasks,
		assets:   &http.Client{Timeout: 30 * time.Second},
	}
}

func newMnemonView(mw engine.MnemonWithWork) MnemonView {
	v := MnemonView{Mnemon: mw.Mnemon, Work: mw.Work}
	for _, note := range mw.Mnemon.Notes {
		v.NoteDurationsMs = append(v.NoteDurationsMs, engine.NoteDisplayDuration(note).Milliseconds())
	}
	return v
}

// GetState handles GET /api/state - the full UI snapshot.
func (h *AppHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.buildState())
}

func (h *AppHandlers) buildState() StateResponse {
	joined := h.state.MnemonsWithWorks()
	views := make([]MnemonView, len(joined))
	for i, mw := range joined {
		views[i] = newMnemonView(mw)
	}

	pending, _ := h.undo.Pending()

	return StateResponse{
		Mnemons:     views,
		Shuffled:    h.state.ShuffledIndices(),
		Carousel:    h.carousel.State(),
		Search:      h.search.State(),
		UndoPending: pending,
		Feelings:    types.Feelings,
	}
}

// ListMnemons handles GET /api/mnemons - mnemons joined with their works,
// in insertion order. An optional limit query parameter truncates the list.
func (h *AppHandlers) ListMnemons(w http.ResponseWriter, r *http.Request) {
	joined := h.state.MnemonsWithWorks()
	views := make([]MnemonView, len(joined))
	for i, mw := range joined {
		views[i] = newMnemonView(mw)
	}

	limit := parseInt(r.URL.Query().Get("limit"), 0)
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}

	respondJSON(w, http.StatusOK, views)
}

// CreateMnemon handles POST /api/mnemons - record a new memory, creating or
// reusing its work.
func (h *AppHandlers) CreateMnemon(w http.ResponseWriter, r *http.Request) {
	var req CreateMnemonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var work *types.Work
	workIsNew := false

	switch {
	case req.Result != nil:
		ref := req.Result.ProviderRef
		if h.state.HasMnemonForProviderRef(ref) {
			respondError(w, http.StatusConflict, "already remembered", nil)
			return
		}
		if !req.Result.WorkType.Valid() {
			respondError(w, http.StatusBadRequest, "invalid work type", nil)
			return
		}
		if existing := h.state.FindWorkByProviderRef(ref); existing != nil {
			work = existing
		} else {
			coverURI := ""
			assetID := ""
			if req.Result.CoverURL != "" {
				assetID = uuid.NewString()
				coverURI = "/api/assets/" + assetID
			}
			work = types.NewWorkFromProvider(
				req.Result.WorkType,
				req.Result.Title,
				req.Result.Year,
				coverURI,
				req.Result.ThemeMusicURL,
				ref,
			)
			workIsNew = true
			if assetID != "" {
				h.cacheCover(assetID, req.Result.CoverURL)
			}
		}

	case req.Manual != nil:
		if req.Manual.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required", nil)
			return
		}
		if !req.Manual.WorkType.Valid() {
			respondError(w, http.StatusBadRequest, "invalid work type", nil)
			return
		}
		work = types.NewManualWork(req.Manual.WorkType, req.Manual.Title, req.Manual.Year)
		workIsNew = true

	default:
		respondError(w, http.StatusBadRequest, "either result or manual is required", nil)
		return
	}

	mnemon := types.NewMnemon(work.ID, req.FinishedDate, req.Feelings, types.SplitNotes(req.Notes))
	if err := mnemon.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid mnemon", err)
		return
	}

	if workIsNew {
		h.state.AddWork(work)
	}
	position := h.state.AddMnemon(mnemon)
	h.search.Reset()

	respondJSON(w, http.StatusCreated, CreateMnemonResponse{
		Mnemon:   mnemon,
		Work:     work,
		Position: position,
	})
}

// cacheCover downloads a remote cover image into the assets table in the
// background. Until the download lands the work's cover URI 404s; a failed
// download leaves it that way.
func (h *AppHandlers) cacheCover(assetID, url string) {
	h.tasks.Go("cache-cover "+assetID, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("building cover request: %w", err)
		}
		resp, err := h.assets.Do(req)
		if err != nil {
			return fmt.Errorf("fetching cover: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetching cover: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
		if err != nil {
			return fmt.Errorf("reading cover body: %w", err)
		}

		mimeType := resp.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}

		return h.store.SaveAsset(ctx, &storage.Asset{
			ID:       assetID,
			MimeType: mimeType,
			Data:     data,
		})
	})
}

// UpdateMnemon handles PATCH /api/mnemons/{id} - edit the date, feelings,
// and notes of an existing mnemon. The work reference is immutable.
func (h *AppHandlers) UpdateMnemon(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "mnemon ID is required", nil)
		return
	}

	var req UpdateMnemonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	target := h.findMnemon(id)
	if target == nil {
		respondError(w, http.StatusNotFound, "mnemon not found", nil)
		return
	}

	notes := types.SplitNotes(req.Notes)
	probe := &types.Mnemon{
		ID:       target.ID,
		WorkID:   target.WorkID,
		Feelings: req.Feelings,
		Notes:    notes,
	}
	if err := probe.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid mnemon", err)
		return
	}

	h.state.EditMnemon(id, req.FinishedDate, req.Feelings, notes)
	respondJSON(w, http.StatusOK, h.findMnemon(id))
}

func (h *AppHandlers) findMnemon(id string) *types.Mnemon {
	for _, mw := range h.state.MnemonsWithWorks() {
		if mw.Mnemon.ID == id {
			return mw.Mnemon
		}
	}
	return nil
}

// DeleteMnemon handles DELETE /api/mnemons/{id} - stage a deletion with an
// undo window. The delete is committed to storage only when the window
// expires or a newer deletion replaces it.
func (h *AppHandlers) DeleteMnemon(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "mnemon ID is required", nil)
		return
	}

	if !h.undo.Stage(id) {
		respondError(w, http.StatusNotFound, "mnemon not found", nil)
		return
	}
	h.carousel.Reclamp()

	respondJSON(w, http.StatusOK, DeleteMnemonResponse{
		Pending:     id,
		UndoSeconds: int(engine.DefaultUndoTimeout / time.Second),
	})
}

// UndoDelete handles POST /api/mnemons/undo - restore the pending deletion.
func (h *AppHandlers) UndoDelete(w http.ResponseWriter, r *http.Request) {
	if !h.undo.Undo() {
		respondError(w, http.StatusConflict, "nothing to undo", nil)
		return
	}
	h.carousel.Reclamp()
	respondJSON(w, http.StatusOK, h.buildState())
}

// CarouselNext handles POST /api/carousel/next.
func (h *AppHandlers) CarouselNext(w http.ResponseWriter, r *http.Request) {
	accepted := h.carousel.NavigateNext()
	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: accepted, Carousel: h.carousel.State()})
}

// CarouselPrev handles POST /api/carousel/prev.
func (h *AppHandlers) CarouselPrev(w http.ResponseWriter, r *http.Request) {
	accepted := h.carousel.NavigatePrev()
	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: accepted, Carousel: h.carousel.State()})
}

// CarouselSwipe handles POST /api/carousel/swipe - a completed touch gesture
// from the client, already resolved to a direction.
func (h *AppHandlers) CarouselSwipe(w http.ResponseWriter, r *http.Request) {
	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	swipe, err := parseSwipe(req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid swipe direction", err)
		return
	}

	h.carousel.HandleSwipe(swipe)
	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: true, Carousel: h.carousel.State()})
}

// CarouselGesture handles POST /api/carousel/gesture. It resolves a raw
// touch trace server-side, so the axis lock and travel thresholds live in
// one place instead of being reimplemented per client.
func (h *AppHandlers) CarouselGesture(w http.ResponseWriter, r *http.Request) {
	var req GestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Points) < 2 {
		respondError(w, http.StatusBadRequest, "gesture needs at least two points", nil)
		return
	}

	var tracker engine.GestureTracker
	tracker.Begin(req.Points[0].X, req.Points[0].Y)
	for _, p := range req.Points[1:] {
		tracker.Move(p.X, p.Y)
	}
	swipe := tracker.End()

	if swipe != engine.SwipeNone {
		h.carousel.HandleSwipe(swipe)
	}
	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: swipe != engine.SwipeNone, Carousel: h.carousel.State()})
}

func parseSwipe(direction string) (engine.Swipe, error) {
	switch direction {
	case "left":
		return engine.SwipeLeft, nil
	case "right":
		return engine.SwipeRight, nil
	case "up":
		return engine.SwipeUp, nil
	case "down":
		return engine.SwipeDown, nil
	}
	return engine.SwipeNone, fmt.Errorf("unknown direction %q", direction)
}

// CarouselDetails handles POST /api/carousel/details - open or close the
// details overlay. Auto-cycling stops while it is open.
func (h *AppHandlers) CarouselDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.carousel.SetDetailsOpen(req.Open)
	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: true, Carousel: h.carousel.State()})
}

// CarouselPause handles POST /api/carousel/pause - toggle auto-cycling. The
// choice persists across sessions.
func (h *AppHandlers) CarouselPause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.carousel.SetPaused(req.Paused)
	h.config.UpdateProviderSettings(func(p *config.ProvidersConfig) {
		p.AutoCyclePaused = req.Paused
	})
	h.persistConfig()

	respondJSON(w, http.StatusOK, CarouselResponse{Accepted: true, Carousel: h.carousel.State()})
}

func (h *AppHandlers) persistConfig() {
	cfg := h.config
	store := h.store
	h.tasks.Go("persist-settings", func(ctx context.Context) error {
		return cfg.SaveConfig(ctx, store)
	})
}

// SearchQuery handles POST /api/search/query - update the live search query.
// The actual provider call is debounced; clients learn the outcome from the
// next state snapshot.
func (h *AppHandlers) SearchQuery(w http.ResponseWriter, r *http.Request) {
	var req SearchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.WorkType != "" {
		if !req.WorkType.Valid() {
			respondError(w, http.StatusBadRequest, "invalid work type", nil)
			return
		}
		if req.WorkType != h.search.State().WorkType {
			h.search.SetWorkType(req.WorkType)
		}
	}
	h.search.SetQuery(req.Query)

	respondJSON(w, http.StatusOK, h.search.State())
}

// SearchSubmit handles POST /api/search/submit - force a search right now
// (Enter), skipping the debounce and minimum query length.
func (h *AppHandlers) SearchSubmit(w http.ResponseWriter, r *http.Request) {
	var req SearchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.WorkType != "" {
		if !req.WorkType.Valid() {
			respondError(w, http.StatusBadRequest, "invalid work type", nil)
			return
		}
		if req.WorkType != h.search.State().WorkType {
			h.search.SetWorkType(req.WorkType)
		}
	}
	h.search.SearchNow(req.Query)

	respondJSON(w, http.StatusOK, h.search.State())
}

// SearchWorkType handles POST /api/search/work-type - switch the provider
// tab. Re-runs the current query against the new type immediately.
func (h *AppHandlers) SearchWorkType(w http.ResponseWriter, r *http.Request) {
	var req WorkTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !req.WorkType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid work type", nil)
		return
	}

	h.search.SetWorkType(req.WorkType)
	respondJSON(w, http.StatusOK, h.search.State())
}

// SearchNextPage handles POST /api/search/page/next.
func (h *AppHandlers) SearchNextPage(w http.ResponseWriter, r *http.Request) {
	h.search.NextPage()
	respondJSON(w, http.StatusOK, h.search.State())
}

// SearchPrevPage handles POST /api/search/page/prev.
func (h *AppHandlers) SearchPrevPage(w http.ResponseWriter, r *http.Request) {
	h.search.PrevPage()
	respondJSON(w, http.StatusOK, h.search.State())
}

// GetSearch handles GET /api/search - the current search state.
func (h *AppHandlers) GetSearch(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.search.State())
}

// GetAsset handles GET /api/assets/{id} - serve a cached media blob.
func (h *AppHandlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "asset ID is required", nil)
		return
	}

	asset, err := h.store.LoadAsset(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "asset not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load asset", err)
		return
	}

	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.Data)
}

// HealthCheck handles GET /api/health.
func (h *AppHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"loaded": h.state.Loaded(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// extractID extracts an ID from the URL path using Go 1.22+ path parameters.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
