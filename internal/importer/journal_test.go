package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scrypster/mnemon/internal/importer"
	"github.com/scrypster/mnemon/internal/storage/sqlite"
	"github.com/scrypster/mnemon/pkg/types"
)

// TestJournalImport runs a full import against a synthetic export directory
// and validates the entries land in the store.
func TestJournalImport(t *testing.T) {
	dir := t.TempDir()

	entry1 := []byte(`---
title: Spirited Away
work_type: movie
year: 2001
provider: tmdb
provider_id: "129"
finished: 2024-01-15
feelings: [Nostalgic, Cozy]
created: 2024-01-20T10:00:00Z
---

# Spirited Away

- the train scene stayed with me for weeks
- watched it with my sister
`)
	entry2 := []byte(`---
title: Hollow Knight
work_type: game
year: 2017
provider: rawg
provider_id: "41494"
feelings: [Melancholic]
---

# Hollow Knight

- got lost in Deepnest for two hours
`)
	if err := os.WriteFile(filepath.Join(dir, "spirited-away-2001.md"), entry1, 0o600); err != nil {
		t.Fatalf("failed to write entry1: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hollow-knight-2017.md"), entry2, 0o600); err != nil {
		t.Fatalf("failed to write entry2: %v", err)
	}

	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	imp := importer.NewJournalImporter(store)
	ctx := context.Background()

	jobID, err := imp.StartImport(ctx, dir)
	if err != nil {
		t.Fatalf("StartImport failed: %v", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	var progress importer.ImportProgress
	for time.Now().Before(deadline) {
		var ok bool
		progress, ok = imp.GetJobProgress(jobID)
		if !ok {
			t.Fatal("job not found")
		}
		if progress.Status == "complete" || progress.Status == "failed" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if progress.Status != "complete" {
		t.Fatalf("job status = %q, want complete", progress.Status)
	}

	result := imp.GetJobResult(jobID)
	if result == nil {
		t.Fatal("no result returned")
	}
	if result.EntriesCreated != 2 {
		t.Fatalf("EntriesCreated = %d, want 2 (errors: %v)", result.EntriesCreated, result.Errors)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Works) != 2 || len(data.Mnemons) != 2 {
		t.Fatalf("store has %d works and %d mnemons, want 2 each", len(data.Works), len(data.Mnemons))
	}

	var spirited *types.Work
	for _, w := range data.Works {
		if w.TitleEn == "Spirited Away" {
			spirited = w
		}
	}
	if spirited == nil {
		t.Fatal("Spirited Away not imported")
	}
	if spirited.ProviderRef == nil || spirited.ProviderRef.ExternalID != "129" {
		t.Fatalf("provider ref = %+v, want tmdb:129", spirited.ProviderRef)
	}
	if spirited.ReleaseYear != 2001 {
		t.Fatalf("year = %d, want 2001", spirited.ReleaseYear)
	}

	for _, m := range data.Mnemons {
		if m.WorkID == spirited.ID {
			if len(m.Feelings) != 2 || m.Feelings[0] != "Nostalgic" {
				t.Fatalf("feelings = %v, want [Nostalgic Cozy]", m.Feelings)
			}
			if len(m.Notes) != 2 {
				t.Fatalf("notes = %v, want 2 entries", m.Notes)
			}
			if m.FinishedDate != "2024-01-15" {
				t.Fatalf("finished = %q, want 2024-01-15", m.FinishedDate)
			}
		}
	}
}

// TestJournalImportSkipsDuplicates re-imports the same directory and checks
// provider-ref deduplication.
func TestJournalImportSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	entry := []byte(`---
title: Inception
work_type: movie
year: 2010
provider: tmdb
provider_id: "27205"
---

- the spinning top
`)
	if err := os.WriteFile(filepath.Join(dir, "inception-2010.md"), entry, 0o600); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}

	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	imp := importer.NewJournalImporter(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		jobID, err := imp.StartImport(ctx, dir)
		if err != nil {
			t.Fatalf("StartImport %d failed: %v", i, err)
		}
		job, _ := waitForJob(t, imp, jobID)
		if job.Status != "complete" {
			t.Fatalf("import %d status = %q", i, job.Status)
		}
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Works) != 1 {
		t.Fatalf("works = %d after re-import, want 1", len(data.Works))
	}
}

func waitForJob(t *testing.T, imp *importer.JournalImporter, jobID string) (importer.ImportProgress, *importer.ImportResult) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		progress, ok := imp.GetJobProgress(jobID)
		if !ok {
			t.Fatal("job not found")
		}
		if progress.Status == "complete" || progress.Status == "failed" {
			return progress, imp.GetJobResult(jobID)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return importer.ImportProgress{}, nil
}

// TestExportRoundTrip exports a populated store and imports it into a fresh
// one.
func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()

	src, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create source store: %v", err)
	}
	defer func() { _ = src.Close() }()

	work := types.NewWorkFromProvider(types.WorkTypeGame, "Celeste", 2018,
		"https://example.com/celeste.png", "", types.NewProviderRef("rawg", "50738"))
	if err := src.SaveWork(ctx, work); err != nil {
		t.Fatalf("SaveWork failed: %v", err)
	}
	mnemon := types.NewMnemon(work.ID, "2023-11-02", []string{"Uplifting"}, []string{"chapter 9 wrecked me"})
	if err := src.SaveMnemon(ctx, mnemon); err != nil {
		t.Fatalf("SaveMnemon failed: %v", err)
	}

	dir := t.TempDir()
	written, err := importer.ExportJournal(ctx, src, dir)
	if err != nil {
		t.Fatalf("ExportJournal failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d, want 1", written)
	}

	dst, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create destination store: %v", err)
	}
	defer func() { _ = dst.Close() }()

	imp := importer.NewJournalImporter(dst)
	jobID, err := imp.StartImport(ctx, dir)
	if err != nil {
		t.Fatalf("StartImport failed: %v", err)
	}
	_, result := waitForJob(t, imp, jobID)
	if result == nil || result.EntriesCreated != 1 {
		t.Fatalf("result = %+v, want 1 entry", result)
	}

	data, err := dst.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(data.Works) != 1 || data.Works[0].TitleEn != "Celeste" {
		t.Fatalf("imported works = %+v", data.Works)
	}
	if len(data.Mnemons) != 1 || data.Mnemons[0].Notes[0] != "chapter 9 wrecked me" {
		t.Fatalf("imported mnemons = %+v", data.Mnemons)
	}
}
