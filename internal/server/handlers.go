package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/pipeline"
	"github.com/sells-group/choropleth/internal/render"
)

type lookupEntry struct {
	Code   int      `json:"fips_code"`
	County string   `json:"county"`
	Value  *float64 `json:"value"` // null when not joined or not numeric
	Joined bool     `json:"joined"`
}

type lookupResponse struct {
	RunID   string        `json:"run_id"`
	Joined  int           `json:"joined"`
	Entries []lookupEntry `json:"entries"`
}

type runResponse struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Regions     int               `json:"regions"`
	Joined      int               `json:"joined"`
	Phases      []pipeline.Phase  `json:"phases"`
	Diagnostics []join.Diagnostic `json:"diagnostics"`
	Missing     map[string]int    `json:"missing_values"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.Current() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "maps not built yet")
		return
	}

	var buf bytes.Buffer
	err := render.WritePage(&buf, render.Page{Title: s.opts.Title, Maps: res.Maps, Clock: s.opts.Clock})
	if err != nil {
		zap.L().Error("server: render page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	s.opts.Metrics.ObserveRender("html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "maps not built yet")
		return
	}

	fig := chi.URLParam(r, "fig")
	m, ok := res.Map(fig)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown map "+strconv.Quote(fig))
		return
	}

	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, m); err != nil {
		zap.L().Error("server: render svg", zap.String("map", fig), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	s.opts.Metrics.ObserveRender("svg")
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleLookup(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "lookup not built yet")
		return
	}

	entries := s.opts.Table.Entries()
	out := lookupResponse{
		RunID:   res.RunID.String(),
		Joined:  res.Lookup.Len(),
		Entries: make([]lookupEntry, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, lookupEntryFor(res.Lookup, e.Code, e.County))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLookupCode(w http.ResponseWriter, r *http.Request) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "lookup not built yet")
		return
	}

	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "code must be an integer")
		return
	}
	entry, ok := s.opts.Table.Lookup(code)
	if !ok {
		writeError(w, http.StatusNotFound, "no reference entry for code "+strconv.Itoa(code))
		return
	}
	writeJSON(w, http.StatusOK, lookupEntryFor(res.Lookup, entry.Code, entry.County))
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no run yet")
		return
	}
	writeJSON(w, http.StatusOK, runResponseFor(res))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.Refresh(r.Context())
	if err != nil {
		zap.L().Error("server: manual refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runResponseFor(res))
}

func lookupEntryFor(l join.Lookup, code int, county string) lookupEntry {
	e := lookupEntry{Code: code, County: county}
	v, ok := l.Get(code)
	e.Joined = ok
	if ok && !math.IsNaN(v) {
		e.Value = &v
	}
	return e
}

func runResponseFor(res *pipeline.Result) runResponse {
	out := runResponse{
		RunID:       res.RunID.String(),
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		Joined:      res.Lookup.Len(),
		Phases:      res.Phases,
		Diagnostics: res.Diagnostics,
		Missing:     make(map[string]int, len(res.Maps)),
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []join.Diagnostic{}
	}
	if res.Regions != nil {
		out.Regions = len(res.Regions.Regions)
	}
	for _, m := range res.Maps {
		out.Missing[m.ID] = m.Missing()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
