package repository

import (
	"context"
	"fmt"
	"tft-tracker/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type MatchRepository struct {
	loader *Loader
	logger zerolog.Logger
}

func NewMatchRepository(loader *Loader, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{loader: loader, logger: logger}
}

// SaveResult counts the rows a Save actually inserted, per table.
type SaveResult struct {
	Matches      int64
	Participants int64
	Units        int64
	Traits       int64
	Failures     int
}

func (r SaveResult) Total() int64 {
	return r.Matches + r.Participants + r.Units + r.Traits
}

// Save writes the match before its dependents. A failed match batch aborts the
// record; a failed dependent batch is logged and the remaining batches still run.
func (r *MatchRepository) Save(ctx context.Context, conn *sqlx.Conn, record *domain.MatchRecord) (SaveResult, error) {
	var result SaveResult
	matchID := record.Match.MatchID

	n, err := r.loader.InsertBatch(ctx, conn, domain.TableMatches, []Row{record.Match}, domain.MatchKey)
	if err != nil {
		r.logger.Error().Err(err).Str("match_id", matchID).Msg("failed to store match")
		return result, fmt.Errorf("failed to store match %s: %w", matchID, err)
	}
	result.Matches = n

	batches := []struct {
		table    string
		rows     []Row
		conflict []string
		count    *int64
	}{
		{domain.TableParticipants, Rows(record.Participants), domain.ParticipantKey, &result.Participants},
		{domain.TableUnits, Rows(record.Units), domain.UnitKey, &result.Units},
		{domain.TableTraits, Rows(record.Traits), domain.TraitKey, &result.Traits},
	}

	for _, batch := range batches {
		n, err := r.loader.InsertBatch(ctx, conn, batch.table, batch.rows, batch.conflict)
		if err != nil {
			result.Failures++
			r.logger.Error().
				Err(err).
				Str("match_id", matchID).
				Str("table", batch.table).
				Int("rows", len(batch.rows)).
				Msg("failed to store batch, rolled back")
			continue
		}
		*batch.count = n
	}

	return result, nil
}
