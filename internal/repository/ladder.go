package repository

import (
	"context"
	"fmt"
	"tft-tracker/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type LadderRepository struct {
	loader *Loader
	logger zerolog.Logger
}

func NewLadderRepository(loader *Loader, logger zerolog.Logger) *LadderRepository {
	return &LadderRepository{loader: loader, logger: logger}
}

// SaveSnapshot appends the entries of one ladder snapshot. An entry already
// recorded for the same player and day is kept as it is.
func (r *LadderRepository) SaveSnapshot(ctx context.Context, conn *sqlx.Conn, entries []domain.LadderEntry) (int64, error) {
	n, err := r.loader.InsertBatch(ctx, conn, domain.TableLadder, Rows(entries), domain.LadderKey)
	if err != nil {
		r.logger.Error().Err(err).Int("entries", len(entries)).Msg("failed to store ladder snapshot")
		return 0, fmt.Errorf("failed to store ladder snapshot: %w", err)
	}

	r.logger.Info().Int("entries", len(entries)).Int64("inserted", n).Msg("ladder snapshot stored")
	return n, nil
}
