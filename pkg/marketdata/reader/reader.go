// Package reader loads persisted price files back into tables using DuckDB.
package reader

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"go.uber.org/zap"
)

// Reader reads CSV, JSON lines and Parquet files. Missing values are preserved as nulls.
type Reader struct {
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewReader(log *logger.Logger) *Reader {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Reader{
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Load reads the file at path. The format follows the extension (.csv, .jsonl/.json, .parquet).
// When start or end is set, only rows whose Date falls within the inclusive bounds are kept;
// rows with an unreadable Date are then excluded as well.
func (r *Reader) Load(path string, start optional.Option[time.Time], end optional.Option[time.Time]) (*table.Table, error) {
	source, err := tableFunction(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	query := r.sq.Select("*").From(source)

	if start.IsSome() {
		query = query.Where(squirrel.Expr(`TRY_CAST("Date" AS TIMESTAMP) >= ?`, start.Unwrap()))
	}

	if end.IsSome() {
		query = query.Where(squirrel.Expr(`TRY_CAST("Date" AS TIMESTAMP) <= ?`, end.Unwrap()))
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	r.logger.Debug("Loading table", zap.String("path", path), zap.String("query", sqlQuery))

	rows, err := db.Query(sqlQuery, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result, err := table.New(columns...)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))

	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]table.Value, len(values))
		for i, v := range values {
			row[i] = toValue(v)
		}

		if err := result.AppendRow(row...); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	r.logger.Debug("Loaded table", zap.String("path", path), zap.Int("rows", result.Len()))

	return result, nil
}

func tableFunction(path string) (string, error) {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return fmt.Sprintf("read_csv_auto(%s, header = true)", literal), nil
	case ".jsonl", ".ndjson", ".json":
		return fmt.Sprintf("read_json_auto(%s)", literal), nil
	case ".parquet":
		return fmt.Sprintf("read_parquet(%s)", literal), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported file type: %s", path)
	}
}

// toValue converts a scanned DuckDB value. DECIMAL columns arrive as a driver type with Float64.
func toValue(v any) table.Value {
	if d, ok := v.(interface{ Float64() float64 }); ok {
		return table.Float(d.Float64())
	}

	return table.FromAny(v)
}
