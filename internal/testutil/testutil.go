package testutil

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"tft-tracker/internal/config"
	"tft-tracker/internal/database"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresDB    = "tft_test"
	postgresUser  = "test"
	postgresPass  = "test"
)

var (
	pgOnce sync.Once
	pgBase config.DBConfig
	pgErr  error
	pgSeq  atomic.Int64
)

// SQLiteConfig points at a fresh database file in the test's temp dir.
func SQLiteConfig(t *testing.T) config.DBConfig {
	t.Helper()
	return config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tft.db"),
	}
}

// PostgresConfig creates an empty database on a postgres container shared by
// the test binary. Skipped with -short.
func PostgresConfig(t *testing.T) config.DBConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}

	pgOnce.Do(func() {
		pgBase, pgErr = startPostgres()
	})
	require.NoError(t, pgErr, "failed to start postgres container")

	admin, err := sqlx.Open(config.DriverPostgres, pgBase.DSN())
	require.NoError(t, err)
	defer admin.Close()

	cfg := pgBase
	cfg.Database = fmt.Sprintf("tft_%d", pgSeq.Add(1))
	_, err = admin.Exec("CREATE DATABASE " + cfg.Database)
	require.NoError(t, err)
	return cfg
}

// OpenStore opens and migrates the store described by cfg.
func OpenStore(t *testing.T, cfg config.DBConfig) *sqlx.DB {
	t.Helper()
	db, err := database.Open(cfg, zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// ForEachStore runs fn once per supported driver, each on its own empty store.
func ForEachStore(t *testing.T, fn func(t *testing.T, db *sqlx.DB)) {
	t.Helper()
	t.Run(config.DriverSQLite, func(t *testing.T) {
		fn(t, OpenStore(t, SQLiteConfig(t)))
	})
	t.Run(config.DriverPostgres, func(t *testing.T) {
		fn(t, OpenStore(t, PostgresConfig(t)))
	})
}

func startPostgres() (config.DBConfig, error) {
	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		postgresImage,
		tcPostgres.WithDatabase(postgresDB),
		tcPostgres.WithUsername(postgresUser),
		tcPostgres.WithPassword(postgresPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return config.DBConfig{}, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return config.DBConfig{}, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return config.DBConfig{}, fmt.Errorf("failed to get container port: %w", err)
	}

	return config.DBConfig{
		Driver:   config.DriverPostgres,
		Host:     host,
		Port:     port.Port(),
		Database: postgresDB,
		User:     postgresUser,
		Password: postgresPass,
		SSLMode:  "disable",
	}, nil
}
