package ingest

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

type tickerRow struct {
	Ticker string `csv:"ticker"`
}

// firstColumnReader trims every record to its first field.
type firstColumnReader struct {
	*csv.Reader
}

func (r firstColumnReader) Read() ([]string, error) {
	record, err := r.Reader.Read()
	if err != nil {
		return nil, err
	}

	return record[:1], nil
}

func (r firstColumnReader) ReadAll() ([][]string, error) {
	records, err := r.Reader.ReadAll()
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i] = records[i][:1]
	}

	return records, nil
}

// LoadTickers reads one ticker per line from path. Surrounding whitespace is
// trimmed, blank and '#' lines are ignored, and only the first comma separated
// column is used.
func LoadTickers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tickers file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows []*tickerRow

	err = gocsv.UnmarshalCSVWithoutHeaders(firstColumnReader{reader}, &rows)
	if err != nil && !stderrors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("failed to parse tickers file %s: %w", path, err)
	}

	tickers := make([]string, 0, len(rows))

	for _, row := range rows {
		ticker := strings.TrimSpace(row.Ticker)
		if ticker == "" {
			continue
		}

		tickers = append(tickers, ticker)
	}

	return tickers, nil
}
