// Package cleaner removes and fills missing values in price tables before they are persisted.
package cleaner

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"go.uber.org/zap"
)

// Stage names reported in DataEmptyError.
const (
	StageGenericDrop       = "generic drop"
	StageColumnDrop        = "close/volume drop"
	StageDateNormalization = "date normalization"
)

// Cleaner fills and drops missing values in a table.
// It holds no mutable state and may be shared.
type Cleaner struct {
	logger *logger.Logger
}

// NewCleaner creates a cleaner that reports every rule it applies to log.
// A nil logger discards diagnostics.
func NewCleaner(log *logger.Logger) *Cleaner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Cleaner{logger: log}
}

// Clean returns a cleaned copy of input; input itself is left untouched.
//
// Rules run in a fixed order: forward fill, drop rows with any remaining
// missing value, drop rows missing Close or Volume, then parse Date and drop
// rows whose date is missing or unparseable. The row index is reset after each
// reduction. The result has no missing cells, keeps the input column set and
// row order, and is never empty: a *errors.DataEmptyError is returned instead.
func (c *Cleaner) Clean(input *table.Table) (*table.Table, error) {
	t := input.Clone()
	inputRows := t.Len()

	if t.HasNulls() {
		filled := t.FillForward()
		c.logger.Info("Filling missing values with forward fill", zap.Int("filled", filled))
	} else {
		c.logger.Info("No missing values found")
	}

	t.ResetIndex()

	if t.HasNulls() {
		dropped := t.DropNulls()
		c.logger.Info("Dropping rows with missing values", zap.Int("dropped", dropped))
	} else {
		c.logger.Info("No missing values found after forward fill")
	}

	t.ResetIndex()

	if t.Empty() {
		return nil, errors.NewDataEmptyError(StageGenericDrop, inputRows)
	}

	c.dropMissing(t, table.ColumnClose)
	c.dropMissing(t, table.ColumnVolume)

	t.ResetIndex()

	if t.Empty() {
		return nil, errors.NewDataEmptyError(StageColumnDrop, inputRows)
	}

	if t.HasColumn(table.ColumnDate) {
		_ = t.MapColumn(table.ColumnDate, parseDate)

		if missing := t.ColumnNullCount(table.ColumnDate); missing > 0 {
			dropped := t.DropNulls(table.ColumnDate)
			c.logger.Info("Dropping rows with invalid dates",
				zap.String("column", table.ColumnDate),
				zap.Int("dropped", dropped))
		} else {
			c.logger.Info("All dates are valid")
		}
	} else {
		c.logger.Info("Column not found, skipping date conversion", zap.String("column", table.ColumnDate))
	}

	if t.Empty() {
		return nil, errors.NewDataEmptyError(StageDateNormalization, inputRows)
	}

	t.ResetIndex()

	c.logger.Info("Data cleaning complete",
		zap.Int("input_rows", inputRows),
		zap.Int("output_rows", t.Len()))

	return t, nil
}

// dropMissing drops rows missing a value in column, when the column exists.
func (c *Cleaner) dropMissing(t *table.Table, column string) {
	if !t.HasColumn(column) {
		c.logger.Info("Column not found, skipping missing value check", zap.String("column", column))

		return
	}

	if t.ColumnNullCount(column) == 0 {
		c.logger.Info("No missing values found in column", zap.String("column", column))

		return
	}

	dropped := t.DropNulls(column)
	c.logger.Info("Dropping rows with missing values in column",
		zap.String("column", column),
		zap.Int("dropped", dropped))
}

// parseDate coerces a cell into a calendar date. Anything that cannot be
// read as a date becomes missing.
func parseDate(v table.Value) table.Value {
	switch v.Kind() {
	case table.KindTime:
		return v
	case table.KindString:
		parsed, err := dateparse.ParseIn(v.Text().Unwrap(), time.UTC)
		if err != nil {
			return table.Null()
		}

		return table.Time(parsed)
	default:
		return table.Null()
	}
}
