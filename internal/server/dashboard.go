package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"tft-tracker/internal/constants"
	"tft-tracker/internal/middleware"
	"tft-tracker/internal/repository"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type DashboardServer struct {
	stats *repository.StatsRepository
}

func NewDashboardServer(stats *repository.StatsRepository) *DashboardServer {
	return &DashboardServer{stats: stats}
}

func (s *DashboardServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.Health)
	mux.HandleFunc("GET /api/leaderboard", s.Leaderboard)
	mux.HandleFunc("GET /api/ladder/history", s.LadderHistory)
	mux.HandleFunc("GET /api/units", s.Units)
	mux.HandleFunc("GET /api/traits", s.Traits)
	mux.HandleFunc("GET /api/items", s.Items)
	mux.HandleFunc("GET /api/teamcomp", s.TeamComp)
	mux.HandleFunc("GET /api/placements", s.Placements)
	mux.HandleFunc("GET /api/dashboard", s.Dashboard)
	return mux
}

func (s *DashboardServer) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *DashboardServer) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.LeaderboardLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rows)
}

func (s *DashboardServer) LadderHistory(w http.ResponseWriter, r *http.Request) {
	puuid := r.URL.Query().Get("puuid")
	if puuid == "" {
		writeError(w, r, fmt.Errorf("%w: puuid is required", errBadRequest))
		return
	}

	points, err := s.stats.LadderHistory(r.Context(), puuid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, points)
}

func (s *DashboardServer) Units(w http.ResponseWriter, r *http.Request) {
	f, err := filterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	usage, err := s.stats.UnitUsage(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, usage)
}

func (s *DashboardServer) Traits(w http.ResponseWriter, r *http.Request) {
	f, err := filterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	traits, err := s.stats.TraitCounts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, traits)
}

func (s *DashboardServer) Items(w http.ResponseWriter, r *http.Request) {
	s.unitChart(w, r, s.stats.TopItems)
}

func (s *DashboardServer) TeamComp(w http.ResponseWriter, r *http.Request) {
	s.unitChart(w, r, s.stats.TeamComp)
}

type unitQuery func(ctx context.Context, f repository.Filter, unit string, limit int) ([]repository.Count, error)

func (s *DashboardServer) unitChart(w http.ResponseWriter, r *http.Request, query unitQuery) {
	character := r.URL.Query().Get("character")
	if character == "" {
		writeError(w, r, fmt.Errorf("%w: character is required", errBadRequest))
		return
	}
	f, err := filterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", constants.ChartLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	counts, err := query(r.Context(), f, character, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, counts)
}

func (s *DashboardServer) Placements(w http.ResponseWriter, r *http.Request) {
	placements, err := s.stats.Placements(r.Context(), r.URL.Query()["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, placements)
}

type DashboardResponse struct {
	Leaderboard []repository.LeaderboardRow `json:"leaderboard"`
	Units       []repository.UnitUsage      `json:"units"`
	Traits      []repository.Count          `json:"traits"`
}

// Dashboard runs the three overview queries concurrently.
func (s *DashboardServer) Dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := filterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	var resp DashboardResponse
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		resp.Leaderboard, err = s.stats.Leaderboard(gCtx, constants.LeaderboardLimit)
		return err
	})

	g.Go(func() error {
		var err error
		resp.Units, err = s.stats.UnitUsage(gCtx, f)
		return err
	})

	g.Go(func() error {
		var err error
		resp.Traits, err = s.stats.TraitCounts(gCtx, f)
		return err
	})

	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func filterParams(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	f := repository.Filter{Puuid: q.Get("puuid")}

	var err error
	if f.SetNumber, err = intParam(r, "set", 0); err != nil {
		return f, err
	}
	if f.From, err = dateParam(q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = dateParam(q.Get("to")); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("%w: to is before from", errBadRequest)
	}
	return f, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return v, nil
}

func dateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(constants.SnapshotDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dates use YYYY-MM-DD", errBadRequest)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}

	log := zerolog.Ctx(r.Context())
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("query failed")
		msg = http.StatusText(status)
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected request")
	}
	writeJSON(w, r, status, errorResponse{Error: msg, RequestID: middleware.GetRequestID(r.Context())})
}
