package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/eval"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/store"
)

// layoutRequest is the body of POST /api/layout.
type layoutRequest struct {
	Name     string           `json:"name,omitempty"`
	Document json.RawMessage  `json:"document"`
	Settings *layout.Settings `json:"settings,omitempty"`
	Formats  []string         `json:"formats,omitempty"`
	Evaluate bool             `json:"evaluate,omitempty"`
	Refresh  bool             `json:"refresh,omitempty"`

	// Persist stores the finished layout; requires a configured store.
	Persist bool `json:"persist,omitempty"`
}

// layoutResponse is the body of a successful POST /api/layout.
type layoutResponse struct {
	ID         string                 `json:"id,omitempty"`
	GraphHash  string                 `json:"graph_hash"`
	LayoutHash string                 `json:"layout_hash"`
	Scopes     int                    `json:"scopes"`
	Document   json.RawMessage        `json:"document"`
	Reports    map[string]eval.Report `json:"reports,omitempty"`
	Artifacts  map[string][]byte      `json:"artifacts,omitempty"`
	Cache      pipeline.CacheInfo     `json:"cache"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	if len(req.Document) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "document is required"))
		return
	}

	opts := pipeline.Options{
		Document: req.Document,
		Name:     req.Name,
		Evaluate: req.Evaluate,
		Formats:  req.Formats,
		Refresh:  req.Refresh,
		Logger:   s.logger,
		Placer:   s.placer,
	}
	if req.Settings != nil {
		opts.Settings = *req.Settings
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	laidOut, err := flow.Marshal(result.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := layoutResponse{
		GraphHash:  result.GraphHash,
		LayoutHash: result.LayoutHash,
		Scopes:     result.Stats.ScopeCount,
		Document:   laidOut,
		Reports:    result.Reports,
		Artifacts:  result.Artifacts,
		Cache:      result.CacheInfo,
	}

	if req.Persist {
		if s.store == nil {
			writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
			return
		}
		rec := &store.LayoutRecord{
			ID:        uuid.NewString(),
			Name:      req.Name,
			GraphHash: result.GraphHash,
			Settings:  opts.Settings,
			Document:  laidOut,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.SaveLayout(r.Context(), rec); err != nil {
			writeError(w, err)
			return
		}
		resp.ID = rec.ID

		if result.Reports != nil {
			rep := &store.ReportRecord{
				ID:        uuid.NewString(),
				LayoutID:  rec.ID,
				Scopes:    result.Reports,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.store.SaveReport(r.Context(), rep); err != nil {
				writeError(w, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// evaluateRequest is the body of POST /api/evaluate. Exactly one of
// LayoutID and Document must be set.
type evaluateRequest struct {
	LayoutID string          `json:"layout_id,omitempty"`
	Document json.RawMessage `json:"document,omitempty"`
	Refresh  bool            `json:"refresh,omitempty"`
}

// evaluateResponse is the body of a successful POST /api/evaluate.
type evaluateResponse struct {
	LayoutID string                 `json:"layout_id,omitempty"`
	Reports  map[string]eval.Report `json:"reports"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}

	var docBytes []byte
	var settings layout.Settings
	switch {
	case req.LayoutID != "":
		if s.store == nil {
			writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
			return
		}
		rec, err := s.store.GetLayout(r.Context(), req.LayoutID)
		if err != nil {
			writeError(w, err)
			return
		}
		docBytes = rec.Document
		settings = rec.Settings
	case len(req.Document) > 0:
		docBytes = req.Document
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "layout_id or document is required"))
		return
	}

	doc, err := flow.Unmarshal(docBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{
		Settings: settings,
		Refresh:  req.Refresh,
		Logger:   s.logger,
		Placer:   s.placer,
	}
	opts.SetLayoutDefaults()

	layoutHash := cache.Hash(docBytes)
	reports, _, err := s.runner.EvaluateWithCacheInfo(r.Context(), doc, nil, layoutHash, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.LayoutID != "" {
		rep := &store.ReportRecord{
			ID:        uuid.NewString(),
			LayoutID:  req.LayoutID,
			Scopes:    reports,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.SaveReport(r.Context(), rep); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, evaluateResponse{LayoutID: req.LayoutID, Reports: reports})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	layouts, err := s.store.ListLayouts(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layouts": layouts})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
		return
	}
	rec, err := s.store.GetLayout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	// Listing reports for an unknown layout should 404, not return [].
	if _, err := s.store.GetLayout(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	reports, err := s.store.ListReports(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "persistence is not configured"))
		return
	}
	if err := s.store.DeleteLayout(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
