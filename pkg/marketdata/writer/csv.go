package writer

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// CSVWriter writes a header line and one record per row. No index column is written.
// Missing cells are empty fields; dates at midnight UTC are written as YYYY-MM-DD.
type CSVWriter struct {
	outputPath string
	file       *os.File
	csv        *csv.Writer
	columns    int
}

func NewCSVWriter(outputPath string) *CSVWriter {
	return &CSVWriter{outputPath: outputPath}
}

func (w *CSVWriter) Initialize(schema table.Schema) error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}

	w.file = file
	w.csv = csv.NewWriter(file)
	w.columns = len(schema)

	if err := w.csv.Write(schema.Names()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	return nil
}

func (w *CSVWriter) Write(row []table.Value) error {
	if w.csv == nil {
		return fmt.Errorf("writer not initialized")
	}

	if len(row) != w.columns {
		return fmt.Errorf("row has %d values, expected %d", len(row), w.columns)
	}

	record := make([]string, len(row))
	for i, v := range row {
		record[i] = v.String()
	}

	return w.csv.Write(record)
}

func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return w.outputPath, nil
}

func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.csv = nil

	return err
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
