package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RankedQueue        = "RANKED_TFT"
	DefaultMatchCount  = 20
	SnapshotDateLayout = "2006-01-02"
)

const (
	LeaderboardLimit = 10
	ChartLimit       = 10
)
