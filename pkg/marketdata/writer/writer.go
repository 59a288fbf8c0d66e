package writer

import (
	"fmt"

	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// Format is the on-disk format of a written table.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// TableWriter defines the interface for writing a table to a destination.
// The sink performs no schema validation; rows are written as given.
type TableWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize(schema table.Schema) error
	// Write persists a single row. The row must follow the schema passed to Initialize.
	Write(row []table.Value) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// New creates a writer for the given format.
func New(format Format, outputPath string) (TableWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(outputPath), nil
	case FormatJSONL:
		return NewJSONLWriter(outputPath), nil
	case FormatParquet:
		return NewDuckDBWriter(outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidWriter, "unsupported writer format: %s", format)
	}
}

// WriteTable runs the full writer lifecycle for t and returns the output path.
// The writer is always closed.
func WriteTable(w TableWriter, t *table.Table) (outputPath string, err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	if err := w.Initialize(t.Schema()); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	for i := 0; i < t.Len(); i++ {
		if err := w.Write(t.Row(i)); err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write row %d", i)
		}
	}

	outputPath, err = w.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}
