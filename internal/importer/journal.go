package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/pkg/types"
)

// ImportResult is the final summary produced by a completed import job.
type ImportResult struct {
	JobID          string        `json:"job_id"`
	FilesFound     int           `json:"files_found"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	EntriesCreated int           `json:"entries_created"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
}

// ImportProgress carries live progress data for a running job.
type ImportProgress struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"` // "running" | "complete" | "failed"
	FilesFound     int    `json:"files_found"`
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
	CurrentFile    string `json:"current_file,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ImportJob tracks the state of an async import operation.
type ImportJob struct {
	mu       sync.RWMutex
	Progress ImportProgress
	Result   *ImportResult
	Done     chan struct{}
}

func newImportJob(jobID string) *ImportJob {
	return &ImportJob{
		Progress: ImportProgress{JobID: jobID, Status: "running"},
		Done:     make(chan struct{}),
	}
}

// GetProgress returns a snapshot of the current import progress.
func (j *ImportJob) GetProgress() ImportProgress {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Progress
}

// JournalImporter walks a directory of exported journal Markdown files and
// recreates the works and mnemons. Entries whose provider reference already
// exists in the store are skipped, so re-importing an export is idempotent
// for provider-sourced works.
type JournalImporter struct {
	store storage.Store

	mu   sync.RWMutex
	jobs map[string]*ImportJob
}

// NewJournalImporter creates an importer writing into the given store.
func NewJournalImporter(store storage.Store) *JournalImporter {
	return &JournalImporter{
		store: store,
		jobs:  make(map[string]*ImportJob),
	}
}

// StartImport begins an asynchronous import of the directory at dirPath.
// It returns a job ID for use with GetJobProgress / GetJobResult.
func (imp *JournalImporter) StartImport(ctx context.Context, dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dirPath)
	}

	jobID := uuid.New().String()
	job := newImportJob(jobID)

	imp.mu.Lock()
	imp.jobs[jobID] = job
	imp.mu.Unlock()

	go func() {
		result := imp.runImport(ctx, job, dirPath)
		job.mu.Lock()
		job.Result = result
		if len(result.Errors) > 0 && result.FilesProcessed == 0 {
			job.Progress.Status = "failed"
			job.Progress.Message = "Import failed"
		} else {
			job.Progress.Status = "complete"
			job.Progress.Message = fmt.Sprintf("Imported %d entries from %d files",
				result.EntriesCreated, result.FilesProcessed)
		}
		job.mu.Unlock()
		close(job.Done)
	}()

	return jobID, nil
}

// GetJobProgress returns the live progress for a job, or false if unknown.
func (imp *JournalImporter) GetJobProgress(jobID string) (ImportProgress, bool) {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return ImportProgress{}, false
	}
	return job.GetProgress(), true
}

// GetJobResult returns the final result for a completed job, or nil while
// the job is still running or when the ID is unknown.
func (imp *JournalImporter) GetJobResult(jobID string) *ImportResult {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return nil
	}
	job.mu.RLock()
	defer job.mu.RUnlock()
	return job.Result
}

func (imp *JournalImporter) runImport(ctx context.Context, job *ImportJob, dirPath string) *ImportResult {
	start := time.Now()
	result := &ImportResult{JobID: job.Progress.JobID}

	files, err := collectMarkdownFiles(dirPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("walk error: %v", err))
		return result
	}

	result.FilesFound = len(files)
	job.mu.Lock()
	job.Progress.FilesFound = len(files)
	job.Progress.FilesTotal = len(files)
	job.mu.Unlock()

	if len(files) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	// Index existing provider refs once for deduplication.
	existing, err := imp.existingRefs(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("loading existing works: %v", err))
		return result
	}

	for i, absPath := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		rel, _ := filepath.Rel(dirPath, absPath)

		job.mu.Lock()
		job.Progress.FilesProcessed = i
		job.Progress.CurrentFile = rel
		job.mu.Unlock()

		data, err := os.ReadFile(absPath)
		if err != nil {
			log.Printf("import: skip %s: read error: %v", rel, err)
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: read error: %v", rel, err))
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			result.FilesSkipped++
			continue
		}

		entry, err := ParseEntry(data, rel)
		if err != nil {
			log.Printf("import: skip %s: parse error: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: parse error: %v", rel, err))
			continue
		}

		if ref := entry.Work.ProviderRef; ref != nil {
			key := ref.Source + ":" + ref.ExternalID
			if existing[key] {
				log.Printf("import: skip %s: work %s already present", rel, key)
				result.FilesSkipped++
				result.FilesProcessed++
				continue
			}
			existing[key] = true
		}

		if err := imp.store.SaveWork(ctx, entry.Work); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: saving work: %v", rel, err))
			continue
		}
		if err := imp.store.SaveMnemon(ctx, entry.Mnemon); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: saving mnemon: %v", rel, err))
			continue
		}

		result.EntriesCreated++
		result.FilesProcessed++
	}

	job.mu.Lock()
	job.Progress.FilesProcessed = result.FilesProcessed
	job.Progress.CurrentFile = ""
	job.mu.Unlock()

	result.Duration = time.Since(start)
	log.Printf("Import complete: %d entries from %d files in %v",
		result.EntriesCreated, result.FilesProcessed, result.Duration)
	return result
}

func (imp *JournalImporter) existingRefs(ctx context.Context) (map[string]bool, error) {
	data, err := imp.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]bool, len(data.Works))
	for _, w := range data.Works {
		if w.ProviderRef != nil {
			refs[w.ProviderRef.Source+":"+w.ProviderRef.ExternalID] = true
		}
	}
	return refs, nil
}

// ExportJournal writes one Markdown file per mnemon into dirPath, creating
// the directory if needed. Mnemons whose work reference does not resolve are
// skipped. Returns the number of files written.
func ExportJournal(ctx context.Context, store storage.Store, dirPath string) (int, error) {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return 0, fmt.Errorf("creating export directory: %w", err)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading journal: %w", err)
	}

	works := make(map[string]*types.Work, len(data.Works))
	for _, w := range data.Works {
		works[w.ID] = w
	}

	written := 0
	seen := make(map[string]int)
	for _, m := range data.Mnemons {
		work, ok := works[m.WorkID]
		if !ok {
			log.Printf("export: skip mnemon %s: unknown work %s", m.ID, m.WorkID)
			continue
		}

		entry := Entry{Work: work, Mnemon: m}
		content, err := ExportEntry(entry)
		if err != nil {
			return written, fmt.Errorf("rendering %s: %w", m.ID, err)
		}

		name := FileName(entry)
		// Disambiguate repeat mnemons for the same work.
		if n := seen[name]; n > 0 {
			name = strings.TrimSuffix(name, ".md") + fmt.Sprintf("-%d.md", n+1)
		}
		seen[FileName(entry)]++

		if err := os.WriteFile(filepath.Join(dirPath, name), content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", name, err)
		}
		written++
	}

	log.Printf("Exported %d entries to %s", written, dirPath)
	return written, nil
}

// collectMarkdownFiles walks root and returns every .md file path.
func collectMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories like .obsidian or .git.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
