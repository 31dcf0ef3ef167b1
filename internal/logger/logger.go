package logger

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	return SetLevel(levelFromEnv())
}

// NewCLI logs to stderr so a command's stdout carries only its result.
// Without LOG_LEVEL only warnings and errors are shown.
func NewCLI() zerolog.Logger {
	_ = godotenv.Load()
	level := zerolog.WarnLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = ParseLevel(v)
	}
	return NewWithWriter(os.Stderr, level)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger.Level(level)
}

// ParseLevel falls back to info for empty or unknown values.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// .env is read here as well so LOG_LEVEL applies before config loading.
func levelFromEnv() zerolog.Level {
	_ = godotenv.Load()
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}
