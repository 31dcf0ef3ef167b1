package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"tft-tracker/internal/constants"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

var (
	ErrColumnMismatch = errors.New("rows do not share the same columns")
	ErrNoConflictKey  = errors.New("conflict key columns are required")
)

// Row is one typed record destined for a single table.
type Row interface {
	Columns() []string
	Values() []any
}

// Rows adapts a typed slice to []Row.
func Rows[T Row](items []T) []Row {
	out := make([]Row, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

type Loader struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewLoader(db *sqlx.DB, logger zerolog.Logger) *Loader {
	return &Loader{db: db, logger: logger}
}

// WithConn runs fn on a dedicated connection and always releases it afterwards.
func (l *Loader) WithConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to acquire database connection")
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			l.logger.Warn().Err(err).Msg("error releasing database connection")
		}
	}()

	return fn(conn)
}

// InsertBatch writes rows into table inside one transaction. Rows whose
// conflict key already exists are skipped. It returns the number of rows
// actually inserted.
func (l *Loader) InsertBatch(ctx context.Context, conn *sqlx.Conn, table string, rows []Row, conflict []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(conflict) == 0 {
		return 0, ErrNoConflictKey
	}

	columns := rows[0].Columns()
	for _, row := range rows[1:] {
		if !slices.Equal(columns, row.Columns()) {
			return 0, fmt.Errorf("%s: %w", table, ErrColumnMismatch)
		}
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for i := 0; i < len(rows); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(rows))
		chunk := rows[i:end]

		query := tx.Rebind(insertIgnoreSQL(table, columns, conflict, len(chunk)))
		args := make([]any, 0, len(chunk)*len(columns))
		for _, row := range chunk {
			args = append(args, row.Values()...)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s batch: %w", table, err)
	}

	l.logger.Debug().
		Str("table", table).
		Int("rows", len(rows)).
		Int64("inserted", inserted).
		Msg("batch committed")
	return inserted, nil
}

func insertIgnoreSQL(table string, columns, conflict []string, rowCount int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	tuples := make([]string, rowCount)
	for i := range tuples {
		tuples[i] = tuple
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		table,
		strings.Join(columns, ", "),
		strings.Join(tuples, ", "),
		strings.Join(conflict, ", "),
	)
}
