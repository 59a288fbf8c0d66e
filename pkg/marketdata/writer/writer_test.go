package writer

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ingesterrors "github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"github.com/stretchr/testify/suite"
)

// mockWriter records the lifecycle calls made by WriteTable.
type mockWriter struct {
	initializeErr  error
	writeErr       error
	finalizeErr    error
	closeErr       error
	schema         table.Schema
	rows           [][]table.Value
	finalizeCalled bool
	closeCalled    bool
}

func (m *mockWriter) Initialize(schema table.Schema) error {
	m.schema = schema
	return m.initializeErr
}

func (m *mockWriter) Write(row []table.Value) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	m.finalizeCalled = true
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}
	return "/tmp/out", nil
}

func (m *mockWriter) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func (m *mockWriter) GetOutputPath() string {
	return "/tmp/out"
}

type WriterTestSuite struct {
	suite.Suite
	dir  string
	data *table.Table
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.data = table.MustNew(table.ColumnDate, table.ColumnTicker, table.ColumnClose, table.ColumnVolume)
	suite.Require().NoError(suite.data.AppendRow(
		table.Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), table.String("AAPL"), table.Float(185.64), table.Float(82488700)))
	suite.Require().NoError(suite.data.AppendRow(
		table.Time(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)), table.String("AAPL"), table.Float(184.25), table.Null()))
}

func (suite *WriterTestSuite) TestNew() {
	tests := []struct {
		format   Format
		wantType any
	}{
		{FormatCSV, &CSVWriter{}},
		{FormatJSONL, &JSONLWriter{}},
		{FormatParquet, &DuckDBWriter{}},
	}

	for _, tt := range tests {
		w, err := New(tt.format, filepath.Join(suite.dir, "out."+tt.format.Extension()))
		suite.Require().NoError(err)
		suite.IsType(tt.wantType, w)
	}

	_, err := New("xlsx", "out.xlsx")
	suite.Error(err)
	suite.Equal(ingesterrors.ErrCodeInvalidWriter, ingesterrors.GetCode(err))
}

func (suite *WriterTestSuite) TestWriteTableLifecycle() {
	m := &mockWriter{}

	path, err := WriteTable(m, suite.data)
	suite.Require().NoError(err)
	suite.Equal("/tmp/out", path)
	suite.Equal(suite.data.Schema(), m.schema)
	suite.Len(m.rows, 2)
	suite.True(m.finalizeCalled)
	suite.True(m.closeCalled)
}

func (suite *WriterTestSuite) TestWriteTableErrors() {
	tests := []struct {
		name   string
		writer *mockWriter
		errMsg string
	}{
		{name: "initialize", writer: &mockWriter{initializeErr: errors.New("disk full")}, errMsg: "failed to initialize writer"},
		{name: "write", writer: &mockWriter{writeErr: errors.New("disk full")}, errMsg: "failed to write row 0"},
		{name: "finalize", writer: &mockWriter{finalizeErr: errors.New("disk full")}, errMsg: "failed to finalize writer"},
		{name: "close", writer: &mockWriter{closeErr: errors.New("disk full")}, errMsg: "error closing writer"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := WriteTable(tt.writer, suite.data)
			suite.Require().Error(err)
			suite.Contains(err.Error(), tt.errMsg)
			suite.True(tt.writer.closeCalled)
		})
	}
}

func (suite *WriterTestSuite) TestCSVOutput() {
	outputPath := filepath.Join(suite.dir, "prices.csv")

	path, err := WriteTable(NewCSVWriter(outputPath), suite.data)
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	content, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)
	suite.Equal("Date,Ticker,Close,Volume\n2024-01-02,AAPL,185.64,82488700\n2024-01-03,AAPL,184.25,\n", string(content))
}

func (suite *WriterTestSuite) TestCSVIntradayTimestamps() {
	data := table.MustNew(table.ColumnDate)
	suite.Require().NoError(data.AppendRow(table.Time(time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC))))

	outputPath := filepath.Join(suite.dir, "intraday.csv")
	_, err := WriteTable(NewCSVWriter(outputPath), data)
	suite.Require().NoError(err)

	content, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)
	suite.Equal("Date\n2024-01-02T14:30:00Z\n", string(content))
}

func (suite *WriterTestSuite) TestJSONLOutput() {
	outputPath := filepath.Join(suite.dir, "prices.jsonl")

	_, err := WriteTable(NewJSONLWriter(outputPath), suite.data)
	suite.Require().NoError(err)

	file, err := os.Open(outputPath)
	suite.Require().NoError(err)

	defer file.Close()

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	suite.Require().Len(lines, 2)
	suite.Equal(`{"Date":"2024-01-02","Ticker":"AAPL","Close":185.64,"Volume":82488700}`, lines[0])
	suite.Equal(`{"Date":"2024-01-03","Ticker":"AAPL","Close":184.25,"Volume":null}`, lines[1])

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(lines[1]), &decoded))
	suite.Nil(decoded["Volume"])
}

func (suite *WriterTestSuite) TestJSONLEscapesKeysAndValues() {
	data := table.MustNew(`we"ird`)
	suite.Require().NoError(data.AppendRow(table.String("line\nbreak")))

	outputPath := filepath.Join(suite.dir, "escape.jsonl")
	_, err := WriteTable(NewJSONLWriter(outputPath), data)
	suite.Require().NoError(err)

	content, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)
	suite.Equal(`{"we\"ird":"line\nbreak"}`, strings.TrimSpace(string(content)))
}

func (suite *WriterTestSuite) TestWriteBeforeInitialize() {
	suite.Error(NewCSVWriter("x.csv").Write([]table.Value{table.Null()}))
	suite.Error(NewJSONLWriter("x.jsonl").Write([]table.Value{table.Null()}))

	_, err := NewCSVWriter("x.csv").Finalize()
	suite.Error(err)

	_, err = NewJSONLWriter("x.jsonl").Finalize()
	suite.Error(err)

	suite.NoError(NewCSVWriter("x.csv").Close())
	suite.NoError(NewJSONLWriter("x.jsonl").Close())
}

func (suite *WriterTestSuite) TestCreateFailsInMissingDirectory() {
	missing := filepath.Join(suite.dir, "does", "not", "exist.csv")
	_, err := WriteTable(NewCSVWriter(missing), suite.data)
	suite.Error(err)
	suite.Equal(ingesterrors.ErrCodeMarketDataWriteFailed, ingesterrors.GetCode(err))
}
