package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"tft-tracker/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var (
	ErrMissingAPIKey  = errors.New("RIOT_API_KEY is required")
	ErrMissingSection = errors.New("database config section not found")
	ErrInvalid        = errors.New("invalid configuration")
)

type Config struct {
	RiotAPIKey   string `validate:"required"`
	RiotPlatform string `validate:"required"`
	RiotRegion   string `validate:"required"`
	// RiotBaseURL replaces https://{host}.api.riotgames.com when set.
	RiotBaseURL string `validate:"omitempty,url"`
	MatchCount  int    `validate:"gte=1,lte=200"`
	MaxPlayers  int    `validate:"gte=0"`
	DB          DBConfig
	ServerPort  string `validate:"required,numeric"`
	LogLevel    string
}

type DBConfig struct {
	Driver   string `validate:"oneof=postgres sqlite3"`
	Host     string `validate:"required_if=Driver postgres"`
	Port     string `validate:"required_if=Driver postgres"`
	Database string `validate:"required_if=Driver postgres"`
	User     string `validate:"required_if=Driver postgres"`
	Password string
	SSLMode  string
	Path     string `validate:"required_if=Driver sqlite3"`
}

// DSN renders the connection string for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-64000", c.Path)
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	matchCount, err := getEnvInt("MATCH_COUNT", constants.DefaultMatchCount)
	if err != nil {
		return nil, err
	}
	maxPlayers, err := getEnvInt("MAX_PLAYERS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RiotAPIKey:   getEnv("RIOT_API_KEY", ""),
		RiotPlatform: getEnv("RIOT_PLATFORM", "na1"),
		RiotRegion:   getEnv("RIOT_REGION", "americas"),
		RiotBaseURL:  getEnv("RIOT_BASE_URL", ""),
		MatchCount:   matchCount,
		MaxPlayers:   maxPlayers,
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", DriverPostgres),
			Path:   getEnv("DB_PATH", "tft.db"),
		},
	}

	if cfg.RiotAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.DB.Driver == DriverPostgres {
		path := getEnv("DB_CONFIG_PATH", "database.ini")
		section := getEnv("DB_CONFIG_SECTION", "postgresql")
		if err := loadDBSection(&cfg.DB, path, section); err != nil {
			return nil, err
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	logger.Info().
		Str("platform", cfg.RiotPlatform).
		Str("region", cfg.RiotRegion).
		Int("match_count", cfg.MatchCount).
		Int("max_players", cfg.MaxPlayers).
		Str("db_driver", cfg.DB.Driver).
		Str("db_host", cfg.DB.Host).
		Str("db_name", cfg.DB.Database).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func loadDBSection(db *DBConfig, path, section string) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %s in %s: %v", ErrMissingSection, section, path, err)
	}

	sec, err := file.GetSection(section)
	if err != nil {
		return fmt.Errorf("%w: %s in %s", ErrMissingSection, section, path)
	}

	db.Host = sec.Key("host").String()
	db.Port = sec.Key("port").MustString("5432")
	db.Database = sec.Key("database").String()
	db.User = sec.Key("user").String()
	db.Password = sec.Key("password").String()
	db.SSLMode = sec.Key("sslmode").MustString("disable")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt falls back only when key is unset. A malformed value is an error.
func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return v, nil
}
