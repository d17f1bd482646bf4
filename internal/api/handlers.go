// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"cogit/internal/diff"
	cerrors "cogit/internal/errors"
	"cogit/internal/logging"
	"cogit/internal/middleware"
	"cogit/internal/object"
	"cogit/internal/status"
	shared "cogit/shared/types"
	"cogit/shared/utils"

	"go.uber.org/zap"
)

// Backend is the read side of a repository.
type Backend interface {
	Head() (string, bool, error)
	Log() ([]*object.Commit, error)
	Status() ([]status.FileStatus, error)
	Diff(path string) (*diff.FileDiff, error)
	DiffAll() ([]*diff.FileDiff, error)
	Load(hash string) ([]byte, error)
}

// Handler serves repository state over HTTP. It never writes to the
// repository.
type Handler struct {
	repo   Backend
	logger *logging.Logger
}

func NewHandler(repo Backend, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes registers the endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/log", h.Log)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /api/diff", h.Diff)
	mux.HandleFunc("GET /api/objects/{hash}", h.Object)
	return mux
}

// NewRouter wraps the routes in the standard middleware chain.
func NewRouter(repo Backend, logger *logging.Logger) http.Handler {
	h := NewHandler(repo, logger)
	return middleware.Chain(h.Routes(),
		middleware.Recover(h.logger),
		middleware.Logger(h.logger),
		middleware.RequestID,
	)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, shared.HealthResponse{Status: "healthy"})
}

func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	head, _, err := h.repo.Head()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	commits, err := h.repo.Log()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := shared.LogResponse{Head: head, Commits: make([]shared.CommitInfo, 0, len(commits))}
	for _, c := range commits {
		resp.Commits = append(resp.Commits, shared.CommitInfo{
			Hash:      c.Hash,
			ShortHash: utils.ShortHash(c.Hash),
			Message:   c.Message,
			Timestamp: c.Timestamp,
			Parent:    c.Parent,
			TreeHash:  c.TreeHash,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	head, _, err := h.repo.Head()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	statuses, err := h.repo.Status()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := shared.StatusResponse{Head: head, Files: make([]shared.StatusEntry, 0, len(statuses))}
	for _, fs := range statuses {
		resp.Files = append(resp.Files, shared.StatusEntry{
			Path:           fs.Path,
			Classification: fs.Classification.String(),
			WorkingHash:    fs.WorkingHash,
			StagedHash:     fs.StagedHash,
			HeadHash:       fs.HeadHash,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// Diff answers with the diff of ?path=, or of every changed file when
// no path is given.
func (h *Handler) Diff(w http.ResponseWriter, r *http.Request) {
	var diffs []*diff.FileDiff
	if path := r.URL.Query().Get("path"); path != "" {
		fd, err := h.repo.Diff(path)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		diffs = append(diffs, fd)
	} else {
		all, err := h.repo.DiffAll()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		diffs = all
	}

	resp := shared.DiffResponse{Diffs: make([]shared.DiffEntry, 0, len(diffs))}
	for _, fd := range diffs {
		resp.Diffs = append(resp.Diffs, shared.DiffEntry{
			Path:       fd.Path,
			ChangeType: string(fd.ChangeType),
			OldHash:    fd.OldHash,
			NewHash:    fd.NewHash,
			Patch:      fd.Patch,
			Additions:  fd.Stats.Additions,
			Deletions:  fd.Stats.Deletions,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// Object answers with the raw bytes of a stored object.
func (h *Handler) Object(w http.ResponseWriter, r *http.Request) {
	data, err := h.repo.Load(r.PathValue("hash"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithRequestID(r.Context()).Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	kind := string(cerrors.ErrorTypeIO)
	var e *cerrors.Error
	if errors.As(err, &e) {
		code = e.Code()
		kind = string(e.Type)
	}
	if code >= http.StatusInternalServerError {
		h.logger.WithRequestID(r.Context()).Error("handler error", zap.Error(err))
	}
	w.Header().Set(middleware.ErrorTypeHeader, kind)
	h.writeJSON(w, r, code, shared.ErrorResponse{Type: kind, Message: err.Error()})
}
