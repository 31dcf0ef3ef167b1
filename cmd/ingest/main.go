package main

import (
	"context"
	fxmodules "tft-tracker/internal/fx"
	"tft-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.IngestModule,
		fx.Invoke(runIngest),
	).Run()
}

// runIngest performs one ingestion pass in the background and shuts the app
// down when it finishes. Stopping the app early cancels the pass.
func runIngest(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	ingest *service.IngestService,
	logger zerolog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)

				code := 0
				report, err := ingest.Run(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("ingestion stopped early")
					code = 1
				}
				if report != nil {
					logger.Info().
						Str("run_id", report.RunID).
						Int("players", report.Players).
						Int("matches_stored", report.MatchesStored).
						Int64("ladder_rows", report.LadderRows).
						Int64("participants", report.Inserted.Participants).
						Int64("units", report.Inserted.Units).
						Int64("traits", report.Inserted.Traits).
						Int("failures", report.Failures).
						Dur("elapsed", report.Elapsed).
						Msg("ingestion report")
				}

				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error().Err(err).Msg("failed to shut down")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
