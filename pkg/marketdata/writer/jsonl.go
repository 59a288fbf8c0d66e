package writer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// JSONLWriter writes one JSON object per line, keys in column order.
// Missing cells are null and times use the same text form as the CSV writer.
type JSONLWriter struct {
	outputPath string
	file       *os.File
	buf        *bufio.Writer
	keys       [][]byte
}

func NewJSONLWriter(outputPath string) *JSONLWriter {
	return &JSONLWriter{outputPath: outputPath}
}

func (w *JSONLWriter) Initialize(schema table.Schema) error {
	w.keys = make([][]byte, len(schema))

	for i, field := range schema {
		key, err := json.Marshal(field.Name)
		if err != nil {
			return fmt.Errorf("failed to encode column name %q: %w", field.Name, err)
		}

		w.keys[i] = key
	}

	file, err := os.Create(w.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create jsonl file: %w", err)
	}

	w.file = file
	w.buf = bufio.NewWriter(file)

	return nil
}

func (w *JSONLWriter) Write(row []table.Value) error {
	if w.buf == nil {
		return fmt.Errorf("writer not initialized")
	}

	if len(row) != len(w.keys) {
		return fmt.Errorf("row has %d values, expected %d", len(row), len(w.keys))
	}

	line, err := encodeRecord(w.keys, row)
	if err != nil {
		return err
	}

	if _, err := w.buf.Write(line); err != nil {
		return fmt.Errorf("failed to write jsonl line: %w", err)
	}

	return nil
}

func (w *JSONLWriter) Finalize() (string, error) {
	if w.buf == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	if err := w.buf.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush jsonl: %w", err)
	}

	return w.outputPath, nil
}

func (w *JSONLWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.buf = nil

	return err
}

func (w *JSONLWriter) GetOutputPath() string {
	return w.outputPath
}

// encodeRecord renders one row as a JSON object followed by a newline.
func encodeRecord(keys [][]byte, row []table.Value) ([]byte, error) {
	var b bytes.Buffer

	b.WriteByte('{')

	for i, v := range row {
		if i > 0 {
			b.WriteByte(',')
		}

		b.Write(keys[i])
		b.WriteByte(':')

		var value any

		switch v.Kind() {
		case table.KindNull:
			value = nil
		case table.KindFloat:
			value = v.Float().Unwrap()
		default:
			value = v.String()
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode value %v: %w", v, err)
		}

		b.Write(encoded)
	}

	b.WriteString("}\n")

	return b.Bytes(), nil
}
