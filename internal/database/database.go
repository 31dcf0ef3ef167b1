package database

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"tft-tracker/internal/config"
	"tft-tracker/internal/constants"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*/*.sql
var embedMigrations embed.FS

func New(cfg *config.Config, logger zerolog.Logger) (*sqlx.DB, error) {
	return Open(cfg.DB, logger)
}

func Open(cfg config.DBConfig, logger zerolog.Logger) (*sqlx.DB, error) {
	logger.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Str("path", cfg.Path).Msg("connecting to database")

	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("failed to reach database")
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := Migrate(db.DB, cfg.Driver, logger); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("failed to run migrations")
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("database connection established")
	return db, nil
}

// Migrate provisions the schema for the given driver from the embedded migrations.
func Migrate(db *sql.DB, driver string, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, path.Join("migrations", driver)); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("migrations completed successfully")
	return nil
}
