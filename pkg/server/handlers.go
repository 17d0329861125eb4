package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
)

type errorResponse struct {
	Error string `json:"error"`
}

type runsResponse struct {
	Runs  []*journal.Run `json:"runs"`
	Count int            `json:"count"`
}

type targetResponse struct {
	Name     string     `json:"name"`
	Dir      string     `json:"dir"`
	Pattern  string     `json:"pattern"`
	Policy   string     `json:"policy"`
	Schedule string     `json:"schedule,omitempty"`
	DryRun   bool       `json:"dry_run"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

type runResultResponse struct {
	RunID    string    `json:"run_id"`
	Target   string    `json:"target"`
	Anchor   time.Time `json:"anchor"`
	DryRun   bool      `json:"dry_run"`
	Removed  []string  `json:"removed"`
	Failed   []string  `json:"failed,omitempty"`
	Retained int       `json:"retained"`
	Error    string    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// handleListRuns serves GET /runs?target=&since=YYYY-MM-DD&limit=&offset=.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &journal.Query{Target: q.Get("target")}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		query.Since = since
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &query.Limit}, {"offset", &query.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, p.name+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}

	runs, err := s.deps.Store.List(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*journal.Run{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs, Count: len(runs)})
}

// handleGetRun serves GET /runs/{id}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, journal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to get run", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleListTargets serves GET /targets.
func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets := s.deps.Targets()
	out := make([]targetResponse, len(targets))
	for i, t := range targets {
		out[i] = targetResponse{
			Name:     t.Name,
			Dir:      t.Dir,
			Pattern:  t.Pattern,
			Policy:   t.ThinoutPolicy().String(),
			Schedule: t.Schedule,
			DryRun:   t.DryRun,
		}
		if s.deps.Scheduler != nil {
			out[i].NextRun = s.deps.Scheduler.NextRun(t.Name)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRunTarget serves POST /targets/{name}/run?dry_run=true. The run
// continues if the client disconnects.
func (s *Server) handleRunTarget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		writeError(w, http.StatusNotImplemented, "runs are not enabled")
		return
	}

	name := r.PathValue("name")
	var target *config.TargetConfig
	for _, t := range s.deps.Targets() {
		if t.Name == name {
			target = &t
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "unknown target "+name)
		return
	}

	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dry_run must be a boolean")
			return
		}
		dryRun = b
	}

	result, err := s.deps.Runner.Run(context.WithoutCancel(r.Context()), *target, dryRun)
	if result == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := runResultResponse{
		RunID:    result.RunID,
		Target:   result.Target,
		Anchor:   result.Anchor,
		DryRun:   result.DryRun,
		Removed:  make([]string, len(result.Removed)),
		Retained: len(result.Retained) + len(result.Failed),
	}
	for i, it := range result.Removed {
		resp.Removed[i] = it.ID
	}
	for _, it := range result.Failed {
		resp.Failed = append(resp.Failed, it.ID)
	}

	code := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, resp)
}
