package fx

import (
	"context"
	"tft-tracker/internal/api"
	"tft-tracker/internal/config"
	"tft-tracker/internal/database"
	"tft-tracker/internal/logger"
	"tft-tracker/internal/repository"
	"tft-tracker/internal/server"
	"tft-tracker/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func closeDatabase(lc fx.Lifecycle, db *sqlx.DB, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
				return err
			}
			logger.Info().Msg("database connection closed")
			return nil
		},
	})
}

// Base is what every binary needs on top of a logger: config and the Riot client.
var Base = fx.Options(
	fx.Provide(config.Load),
	fx.Provide(api.NewRiotClient),
)

var LookupModule = fx.Options(
	fx.Provide(logger.NewCLI),
	Base,
	fx.Provide(service.NewPlayerService),
)

var Storage = fx.Options(
	fx.Provide(database.New),
	fx.Invoke(closeDatabase),
	fx.Provide(repository.NewLoader),
	// repos
	fx.Provide(repository.NewLadderRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewStatsRepository),
)

var IngestModule = fx.Options(
	fx.Provide(logger.New),
	Base,
	Storage,
	fx.Provide(service.NewIngestService),
)

var ServerModule = fx.Options(
	fx.Provide(logger.New),
	Base,
	Storage,
	fx.Provide(server.NewDashboardServer),
)
