package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing. NewStore
// initialises the full Schema, so no additional DDL is required.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoadWork(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ref := types.NewProviderRef("tmdb", "129")
	work := types.NewWorkFromProvider(types.WorkTypeMovie, "Spirited Away", 2001,
		"asset://covers/spirited-away", "", ref)

	if err := store.SaveWork(ctx, work); err != nil {
		t.Fatalf("SaveWork failed: %v", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Works) != 1 {
		t.Fatalf("expected 1 work, got %d", len(data.Works))
	}

	got := data.Works[0]
	if got.ID != work.ID {
		t.Errorf("expected ID %s, got %s", work.ID, got.ID)
	}
	if got.TitleEn != "Spirited Away" || got.ReleaseYear != 2001 {
		t.Errorf("work fields did not round-trip: %+v", got)
	}
	if got.WorkType != types.WorkTypeMovie || got.Origin != types.OriginProvider {
		t.Errorf("work type/origin did not round-trip: %+v", got)
	}
	if got.ProviderRef == nil || !got.ProviderRef.Matches(ref) {
		t.Errorf("provider ref did not round-trip: %+v", got.ProviderRef)
	}
}

func TestSaveWork_ManualHasNoProviderRef(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	work := types.NewManualWork(types.WorkTypeGame, "Outer Wilds", 2019)
	if err := store.SaveWork(ctx, work); err != nil {
		t.Fatalf("SaveWork failed: %v", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if data.Works[0].ProviderRef != nil {
		t.Errorf("expected nil provider ref, got %+v", data.Works[0].ProviderRef)
	}
}

func TestSaveWork_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveWork(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil work, got %v", err)
	}
	if err := store.SaveWork(ctx, &types.Work{TitleEn: "No ID"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing ID, got %v", err)
	}
	if err := store.SaveWork(ctx, &types.Work{ID: "w1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing title, got %v", err)
	}
}

func TestSaveAndLoadMnemon(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := types.NewMnemon("work-1", "summer 2019",
		[]string{"Cozy", "Bittersweet"},
		[]string{"watched with my sister", "the train scene"})

	if err := store.SaveMnemon(ctx, m); err != nil {
		t.Fatalf("SaveMnemon failed: %v", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Mnemons) != 1 {
		t.Fatalf("expected 1 mnemon, got %d", len(data.Mnemons))
	}

	got := data.Mnemons[0]
	if got.WorkID != "work-1" || got.FinishedDate != "summer 2019" {
		t.Errorf("mnemon fields did not round-trip: %+v", got)
	}
	if len(got.Feelings) != 2 || got.Feelings[0] != "Cozy" {
		t.Errorf("feelings did not round-trip: %v", got.Feelings)
	}
	if len(got.Notes) != 2 || got.Notes[1] != "the train scene" {
		t.Errorf("notes did not round-trip: %v", got.Notes)
	}
}

func TestSaveMnemon_UpsertUpdatesEditableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := types.NewMnemon("work-1", "", nil, nil)
	if err := store.SaveMnemon(ctx, m); err != nil {
		t.Fatalf("SaveMnemon failed: %v", err)
	}

	m.FinishedDate = "2024-06"
	m.Feelings = []string{"Epic"}
	m.Notes = []string{"second playthrough"}
	if err := store.SaveMnemon(ctx, m); err != nil {
		t.Fatalf("SaveMnemon upsert failed: %v", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Mnemons) != 1 {
		t.Fatalf("upsert should not create a second row, got %d", len(data.Mnemons))
	}
	got := data.Mnemons[0]
	if got.FinishedDate != "2024-06" || len(got.Feelings) != 1 || len(got.Notes) != 1 {
		t.Errorf("edited fields did not persist: %+v", got)
	}
}

func TestDeleteMnemon(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := types.NewMnemon("work-1", "", nil, nil)
	if err := store.SaveMnemon(ctx, m); err != nil {
		t.Fatalf("SaveMnemon failed: %v", err)
	}
	if err := store.DeleteMnemon(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMnemon failed: %v", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Mnemons) != 0 {
		t.Errorf("expected 0 mnemons after delete, got %d", len(data.Mnemons))
	}

	// Deleting again is a silent no-op.
	if err := store.DeleteMnemon(ctx, m.ID); err != nil {
		t.Errorf("deleting absent mnemon should not error, got %v", err)
	}
}

func TestLoadAll_InsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		m := types.NewMnemon("work-1", "", nil, nil)
		m.ID = string(rune('a' + i))
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.SaveMnemon(ctx, m); err != nil {
			t.Fatalf("SaveMnemon failed: %v", err)
		}
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if data.Mnemons[i].ID != want {
			t.Fatalf("expected insertion order a,b,c, got %v at %d", data.Mnemons[i].ID, i)
		}
	}
}

func TestAssetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset := &storage.Asset{
		ID:       "asset://covers/spirited-away",
		MimeType: "image/jpeg",
		Data:     []byte{0xff, 0xd8, 0xff, 0xe0},
	}
	if err := store.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("SaveAsset failed: %v", err)
	}

	got, err := store.LoadAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("LoadAsset failed: %v", err)
	}
	if got.MimeType != "image/jpeg" || len(got.Data) != 4 {
		t.Errorf("asset did not round-trip: %+v", got)
	}

	if _, err := store.LoadAsset(ctx, "asset://missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing asset, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetSetting(ctx, storage.SettingTmdbToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := store.SetSetting(ctx, storage.SettingTmdbToken, "tok-123"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, err := store.GetSetting(ctx, storage.SettingTmdbToken)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "tok-123" {
		t.Errorf("expected tok-123, got %q", value)
	}

	// Overwrite
	if err := store.SetSetting(ctx, storage.SettingTmdbToken, "tok-456"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	value, _ = store.GetSetting(ctx, storage.SettingTmdbToken)
	if value != "tok-456" {
		t.Errorf("expected tok-456 after overwrite, got %q", value)
	}

	// Empty value clears the key
	if err := store.SetSetting(ctx, storage.SettingTmdbToken, ""); err != nil {
		t.Fatalf("SetSetting clear failed: %v", err)
	}
	if _, err := store.GetSetting(ctx, storage.SettingTmdbToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after clearing, got %v", err)
	}
}
