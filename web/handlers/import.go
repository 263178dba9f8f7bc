package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrypster/mnemon/internal/importer"
	"github.com/scrypster/mnemon/internal/storage"
)

// ImportHandlers contains HTTP handlers for the journal import/export API.
type ImportHandlers struct {
	store    storage.Store
	importer *importer.JournalImporter
}

// NewImportHandlers creates a new ImportHandlers backed by the given store.
func NewImportHandlers(store storage.Store) *ImportHandlers {
	return &ImportHandlers{
		store:    store,
		importer: importer.NewJournalImporter(store),
	}
}

// --- Request / Response types ---

// importByPathRequest is the JSON body for POST /api/import/markdown and
// POST /api/export when a server-side path is supplied.
type importByPathRequest struct {
	// Path is a directory path accessible on the server's filesystem.
	Path string `json:"path"`
}

// importJobResponse is returned immediately after starting an import.
type importJobResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// exportResponse is returned after a completed export.
type exportResponse struct {
	FilesWritten int    `json:"files_written"`
	Path         string `json:"path"`
}

// --- Handlers ---

// PostMarkdownImport handles POST /api/import/markdown.
// Accepts a JSON body with {"path": "/absolute/or/relative/path"}.
func (h *ImportHandlers) PostMarkdownImport(w http.ResponseWriter, r *http.Request) {
	// Parse JSON body.
	var req importByPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		respondError(w, http.StatusBadRequest, "path is required", nil)
		return
	}

	dirPath, err := resolveDir(req.Path)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Start the async import job.
	jobID, err := h.importer.StartImport(r.Context(), dirPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start import", err)
		return
	}

	respondJSON(w, http.StatusAccepted, importJobResponse{
		JobID:   jobID,
		Message: fmt.Sprintf("Import started for journal at %s", req.Path),
	})
}

// GetImportStatus handles GET /api/import/status/{job_id}.
// Returns live progress while running, and the full result when complete.
func (h *ImportHandlers) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "job_id is required", nil)
		return
	}

	progress, ok := h.importer.GetJobProgress(jobID)
	if !ok {
		respondError(w, http.StatusNotFound, "import job not found", nil)
		return
	}

	// If complete, return the full result alongside progress.
	if progress.Status == "complete" || progress.Status == "failed" {
		result := h.importer.GetJobResult(jobID)
		type statusResponse struct {
			Progress importer.ImportProgress `json:"progress"`
			Result   *importer.ImportResult  `json:"result,omitempty"`
		}
		respondJSON(w, http.StatusOK, statusResponse{
			Progress: progress,
			Result:   result,
		})
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// PostExport handles POST /api/export - write the whole journal as Markdown
// files into a server-side directory. Export is synchronous: journals are
// small enough that a job abstraction buys nothing here.
func (h *ImportHandlers) PostExport(w http.ResponseWriter, r *http.Request) {
	var req importByPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		respondError(w, http.StatusBadRequest, "path is required", nil)
		return
	}

	dirPath := req.Path
	if !filepath.IsAbs(dirPath) {
		wd, err := os.Getwd()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "cannot determine working directory", err)
			return
		}
		dirPath = filepath.Join(wd, dirPath)
	}

	written, err := importer.ExportJournal(r.Context(), h.store, dirPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export failed", err)
		return
	}

	respondJSON(w, http.StatusOK, exportResponse{
		FilesWritten: written,
		Path:         dirPath,
	})
}

// resolveDir resolves a possibly-relative path and verifies it is an
// existing directory.
func resolveDir(path string) (string, error) {
	dirPath := path
	if !filepath.IsAbs(dirPath) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("cannot determine working directory")
		}
		dirPath = filepath.Join(wd, dirPath)
	}

	if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory not found: %s", path)
	}
	return dirPath, nil
}
