package service

import (
	"context"
	"errors"
	"fmt"
	"tft-tracker/internal/api"
	"tft-tracker/internal/config"
	"tft-tracker/internal/constants"
	"tft-tracker/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type State string

const (
	StateIdle                State = "idle"
	StateFetchingLadder      State = "fetching_ladder"
	StateFetchingMatches     State = "fetching_matches"
	StateFetchingMatchDetail State = "fetching_match_detail"
	StateNormalizing         State = "normalizing"
	StateLoading             State = "loading"
)

// Report summarises one ingestion run.
type Report struct {
	RunID          string        `json:"run_id"`
	Players        int           `json:"players"`
	MatchIDs       int           `json:"match_ids"`
	MatchesFetched int           `json:"matches_fetched"`
	MatchesStored  int           `json:"matches_stored"`
	LadderRows     int64         `json:"ladder_rows"`
	Inserted       SaveCounts    `json:"inserted"`
	Failures       int           `json:"failures"`
	Elapsed        time.Duration `json:"elapsed"`
	// RateLimit is the client's view of the Riot quota at the end of the run.
	RateLimit api.RateLimitInfo `json:"rate_limit"`
}

type SaveCounts struct {
	Matches      int64 `json:"matches"`
	Participants int64 `json:"participants"`
	Units        int64 `json:"units"`
	Traits       int64 `json:"traits"`
}

func (c *SaveCounts) add(r repository.SaveResult) {
	c.Matches += r.Matches
	c.Participants += r.Participants
	c.Units += r.Units
	c.Traits += r.Traits
}

type IngestService struct {
	riot       *api.RiotClient
	loader     *repository.Loader
	ladderRepo *repository.LadderRepository
	matchRepo  *repository.MatchRepository
	maxPlayers int
	logger     zerolog.Logger
	state      State
}

func NewIngestService(riot *api.RiotClient, loader *repository.Loader, ladderRepo *repository.LadderRepository, matchRepo *repository.MatchRepository, cfg *config.Config, logger zerolog.Logger) *IngestService {
	return &IngestService{
		riot:       riot,
		loader:     loader,
		ladderRepo: ladderRepo,
		matchRepo:  matchRepo,
		maxPlayers: cfg.MaxPlayers,
		logger:     logger.With().Str("component", "ingest").Logger(),
		state:      StateIdle,
	}
}

// Run walks the ladder once: snapshot, then every player's recent matches,
// one match at a time. Per-player and per-match failures are counted and
// skipped; only a cancelled context ends the run early.
func (s *IngestService) Run(ctx context.Context) (*Report, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	start := time.Now()
	report := &Report{RunID: runID}
	log := s.logger.With().Str("run_id", runID).Logger()
	defer func() {
		report.Elapsed = time.Since(start)
		report.RateLimit = s.riot.RateLimit()
		s.transition(log, StateIdle)
		log.Info().
			Int("players", report.Players).
			Int("match_ids", report.MatchIDs).
			Int("matches_stored", report.MatchesStored).
			Int64("matches_inserted", report.Inserted.Matches).
			Int("failures", report.Failures).
			Str("app_count", report.RateLimit.AppCount).
			Dur("retry_after", report.RateLimit.RetryAfter).
			Int("last_status", report.RateLimit.LastStatusCode).
			Dur("elapsed", report.Elapsed).
			Msg("ingestion run finished")
	}()

	log.Info().Msg("ingestion run started")

	s.transition(log, StateFetchingLadder)
	entries, err := s.fetchLadder(ctx)
	if err != nil {
		report.Failures++
		s.warnRateLimited(log, err)
		log.Error().Err(err).Msg("failed to fetch ladder")
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingestion cancelled: %w", err)
	}
	if len(entries) == 0 {
		log.Warn().Msg("ladder is empty, nothing to ingest")
		return report, nil
	}

	if err := s.storeLadder(ctx, entries, report); err != nil {
		report.Failures++
		log.Error().Err(err).Msg("failed to store ladder snapshot")
	}

	roster := NewRoster(entries)
	players := entries
	if s.maxPlayers > 0 && len(players) > s.maxPlayers {
		players = players[:s.maxPlayers]
	}

	for _, entry := range players {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("ingestion cancelled: %w", err)
		}
		report.Players++
		s.ingestPlayer(ctx, log.With().Str("puuid", entry.Puuid).Logger(), entry.Puuid, roster, report)
	}

	return report, ctx.Err()
}

func (s *IngestService) fetchLadder(ctx context.Context) ([]api.LeagueEntry, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	return s.riot.FetchLadder(apiCtx)
}

func (s *IngestService) storeLadder(ctx context.Context, entries []api.LeagueEntry, report *Report) error {
	rows, err := LadderEntries(entries, time.Now())
	if err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.loader.WithConn(dbCtx, func(conn *sqlx.Conn) error {
		n, err := s.ladderRepo.SaveSnapshot(dbCtx, conn, rows)
		report.LadderRows = n
		return err
	})
}

func (s *IngestService) ingestPlayer(ctx context.Context, log zerolog.Logger, puuid string, roster Roster, report *Report) {
	s.transition(log, StateFetchingMatches)

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	ids, err := s.riot.FetchMatchIDs(apiCtx, puuid)
	cancel()
	if err != nil {
		report.Failures++
		s.warnRateLimited(log, err)
		log.Error().Err(err).Msg("failed to list matches, skipping player")
		return
	}

	report.MatchIDs += len(ids)
	log.Debug().Int("match_ids", len(ids)).Msg("matches listed")

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.ingestMatch(ctx, log.With().Str("match_id", id).Logger(), id, roster, report); err != nil {
			report.Failures++
			s.warnRateLimited(log, err)
			log.Error().Err(err).Str("match_id", id).Msg("failed to ingest match, skipping")
		}
	}
}

func (s *IngestService) ingestMatch(ctx context.Context, log zerolog.Logger, matchID string, roster Roster, report *Report) error {
	s.transition(log, StateFetchingMatchDetail)

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	raw, err := s.riot.FetchMatch(apiCtx, matchID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to fetch match: %w", err)
	}
	report.MatchesFetched++

	s.transition(log, StateNormalizing)
	record, err := Normalize(raw, roster)
	if err != nil {
		return fmt.Errorf("failed to normalize match: %w", err)
	}

	s.transition(log, StateLoading)
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var result repository.SaveResult
	err = s.loader.WithConn(dbCtx, func(conn *sqlx.Conn) error {
		var err error
		result, err = s.matchRepo.Save(dbCtx, conn, record)
		return err
	})
	report.Inserted.add(result)
	report.Failures += result.Failures
	if err != nil {
		return err
	}

	report.MatchesStored++
	log.Debug().
		Int64("inserted", result.Total()).
		Int("participants", len(record.Participants)).
		Msg("match stored")
	return nil
}

func (s *IngestService) warnRateLimited(log zerolog.Logger, err error) {
	if !errors.Is(err, api.ErrRateLimited) {
		return
	}
	limit := s.riot.RateLimit()
	log.Warn().
		Str("app_limit", limit.AppLimit).
		Str("app_count", limit.AppCount).
		Dur("retry_after", limit.RetryAfter).
		Msg("riot rate limit hit")
}

func (s *IngestService) transition(log zerolog.Logger, next State) {
	if s.state == next {
		return
	}
	log.Debug().Str("from", string(s.state)).Str("to", string(next)).Msg("state transition")
	s.state = next
}
