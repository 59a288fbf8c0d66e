package writer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

const stagingTable = "table_data"

// DuckDBWriter stages rows in an in-memory DuckDB table and exports them to a Parquet file on Finalize.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	columns    int
	outputPath string // Path of the output Parquet file
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies where the final Parquet file will be saved.
func NewDuckDBWriter(outputPath string) *DuckDBWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
	}
}

// Initialize opens an in-memory database, creates the staging table from the
// schema, begins a transaction, and prepares the insert statement.
func (w *DuckDBWriter) Initialize(schema table.Schema) (err error) {
	if len(schema) == 0 {
		return fmt.Errorf("schema has no columns")
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	definitions := make([]string, len(schema))
	columns := make([]string, len(schema))

	for i, field := range schema {
		columns[i] = quoteIdentifier(field.Name)
		definitions[i] = fmt.Sprintf("%s %s", columns[i], duckDBType(field.Kind))
	}

	// squirrel has no CREATE TABLE builder
	_, err = w.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", stagingTable, strings.Join(definitions, ", ")))
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to create table: %w", err)
	}

	insert, _, err := squirrel.Insert(stagingTable).
		Columns(columns...).
		Values(make([]any, len(columns))...).
		ToSql()
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to build insert statement: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.stmt, err = w.tx.Prepare(insert)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx = nil
		w.db = nil

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	w.columns = len(schema)

	return nil
}

// Write inserts a single row using the prepared statement within the transaction.
func (w *DuckDBWriter) Write(row []table.Value) error {
	if w.stmt == nil {
		return fmt.Errorf("writer not initialized or statement is nil")
	}

	if len(row) != w.columns {
		return fmt.Errorf("row has %d values, expected %d", len(row), w.columns)
	}

	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v.Any()
	}

	if _, err := w.stmt.Exec(args...); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the data to a Parquet file.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil

	_, err = w.db.Exec(fmt.Sprintf(`COPY %s TO %s (FORMAT PARQUET)`, stagingTable, quoteLiteral(w.outputPath)))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	return w.outputPath, nil
}

// Close releases the statement and the database connection,
// rolling back the transaction if Finalize was not reached.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		_ = w.tx.Rollback()
		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

func duckDBType(kind table.Kind) string {
	switch kind {
	case table.KindFloat:
		return "DOUBLE"
	case table.KindTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
