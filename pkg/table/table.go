// Package table provides the in-memory tabular dataset passed between
// price providers, the cleaner and the writers.
//
// A Table is an ordered sequence of rows over a fixed set of named columns.
// Every row carries an index label. Labels are assigned contiguously on append
// and survive row removal until ResetIndex renumbers them, so callers can tell
// which original rows a reduced table came from.
package table

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// Recognized column names.
const (
	ColumnDate   = "Date"
	ColumnTicker = "Ticker"
	ColumnOpen   = "Open"
	ColumnHigh   = "High"
	ColumnLow    = "Low"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

// PriceColumns is the column layout produced by price providers.
var PriceColumns = []string{ColumnDate, ColumnTicker, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// Field describes one column of a table.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of fields of a table.
type Schema []Field

// Names returns the column names of the schema.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}

	return names
}

// Table is an ordered collection of rows with named columns.
// A Table is not safe for concurrent mutation.
type Table struct {
	columns  []string
	position map[string]int
	index    []int
	rows     [][]Value
	next     int
}

// New creates an empty table with the given columns.
func New(columns ...string) (*Table, error) {
	position := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, exists := position[c]; exists {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "duplicate column %q", c)
		}

		position[c] = i
	}

	return &Table{
		columns:  slices.Clone(columns),
		position: position,
		index:    nil,
		rows:     nil,
		next:     0,
	}, nil
}

// MustNew is like New but panics on duplicate column names.
func MustNew(columns ...string) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}

	return t
}

// AppendRow appends a row. The number of values must equal the number of columns.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.columns) {
		return errors.Newf(errors.ErrCodeColumnMismatch, "row has %d values, table has %d columns", len(values), len(t.columns))
	}

	t.index = append(t.index, t.next)
	t.rows = append(t.rows, slices.Clone(values))
	t.next++

	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.position[name]

	return ok
}

// Index returns a copy of the row labels.
func (t *Table) Index() []int {
	return slices.Clone(t.index)
}

// At returns the value at the given row position and column. Unknown columns yield a missing value.
func (t *Table) At(row int, column string) Value {
	c, ok := t.position[column]
	if !ok {
		return Null()
	}

	return t.rows[row][c]
}

// Row returns a copy of the values at the given row position.
func (t *Table) Row(row int) []Value {
	return slices.Clone(t.rows[row])
}

// Set replaces the value at the given row position and column.
func (t *Table) Set(row int, column string, v Value) error {
	c, ok := t.position[column]
	if !ok {
		return errors.Newf(errors.ErrCodeColumnMismatch, "unknown column %q", column)
	}

	t.rows[row][c] = v

	return nil
}

// Schema infers a field per column from the first non-missing value.
// Columns without any value have KindNull.
func (t *Table) Schema() Schema {
	schema := make(Schema, len(t.columns))
	for c, name := range t.columns {
		schema[c] = Field{Name: name, Kind: KindNull}

		for _, row := range t.rows {
			if !row[c].IsNull() {
				schema[c].Kind = row[c].Kind()

				break
			}
		}
	}

	return schema
}

// NullCount returns the number of missing cells in the whole table.
func (t *Table) NullCount() int {
	count := 0

	for _, row := range t.rows {
		for _, v := range row {
			if v.IsNull() {
				count++
			}
		}
	}

	return count
}

// ColumnNullCount returns the number of missing cells in a column, 0 for unknown columns.
func (t *Table) ColumnNullCount(column string) int {
	c, ok := t.position[column]
	if !ok {
		return 0
	}

	count := 0

	for _, row := range t.rows {
		if row[c].IsNull() {
			count++
		}
	}

	return count
}

// HasNulls reports whether any cell is missing.
func (t *Table) HasNulls() bool {
	for _, row := range t.rows {
		for _, v := range row {
			if v.IsNull() {
				return true
			}
		}
	}

	return false
}

// FillForward replaces each missing cell with the most recent non-missing value
// of the same column, scanning rows in order. Leading gaps stay missing.
// Returns the number of cells filled.
func (t *Table) FillForward() int {
	filled := 0

	for c := range t.columns {
		last := Null()

		for _, row := range t.rows {
			if row[c].IsNull() {
				if !last.IsNull() {
					row[c] = last
					filled++
				}

				continue
			}

			last = row[c]
		}
	}

	return filled
}

// DropNulls removes every row that has a missing cell in one of the subset columns,
// or in any column when no subset is given. Unknown subset columns are ignored.
// Surviving rows keep their order and labels. Returns the number of rows removed.
func (t *Table) DropNulls(subset ...string) int {
	cols := make([]int, 0, len(t.columns))

	if len(subset) == 0 {
		for c := range t.columns {
			cols = append(cols, c)
		}
	} else {
		for _, name := range subset {
			if c, ok := t.position[name]; ok {
				cols = append(cols, c)
			}
		}
	}

	return t.filter(func(row []Value) bool {
		for _, c := range cols {
			if row[c].IsNull() {
				return false
			}
		}

		return true
	})
}

// filter keeps the rows for which keep returns true and returns the number removed.
func (t *Table) filter(keep func(row []Value) bool) int {
	rows := t.rows[:0]
	index := t.index[:0]

	for i, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
			index = append(index, t.index[i])
		}
	}

	removed := len(t.rows) - len(rows)

	clear(t.rows[len(rows):])
	t.rows = rows
	t.index = index

	return removed
}

// ResetIndex relabels rows contiguously from zero.
func (t *Table) ResetIndex() {
	for i := range t.index {
		t.index[i] = i
	}

	t.next = len(t.index)
}

// MapColumn replaces every value of a column with fn(value).
func (t *Table) MapColumn(column string, fn func(Value) Value) error {
	c, ok := t.position[column]
	if !ok {
		return errors.Newf(errors.ErrCodeColumnMismatch, "unknown column %q", column)
	}

	for _, row := range t.rows {
		row[c] = fn(row[c])
	}

	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		rows[i] = slices.Clone(row)
	}

	position := make(map[string]int, len(t.position))
	for k, v := range t.position {
		position[k] = v
	}

	return &Table{
		columns:  slices.Clone(t.columns),
		position: position,
		index:    slices.Clone(t.index),
		rows:     rows,
		next:     t.next,
	}
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	n = min(max(n, 0), len(t.rows))
	head := t.Clone()
	head.rows = head.rows[:n]
	head.index = head.index[:n]

	return head
}

// Concat appends the rows of other, which must have identical columns.
// Appended rows receive new labels following the current ones.
func (t *Table) Concat(other *Table) error {
	if !slices.Equal(t.columns, other.columns) {
		return errors.Newf(errors.ErrCodeColumnMismatch, "cannot concat tables with columns %v and %v", t.columns, other.columns)
	}

	for _, row := range other.rows {
		if err := t.AppendRow(row...); err != nil {
			return err
		}
	}

	return nil
}

// Equal reports whether both tables have the same columns, labels and values.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}

	if !slices.Equal(t.columns, other.columns) || !slices.Equal(t.index, other.index) {
		return false
	}

	if len(t.rows) != len(other.rows) {
		return false
	}

	for i := range t.rows {
		for c := range t.rows[i] {
			if !t.rows[i][c].Equal(other.rows[i][c]) {
				return false
			}
		}
	}

	return true
}

// Records returns the table as string rows, header first.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.rows)+1)
	records = append(records, t.Columns())

	for _, row := range t.rows {
		record := make([]string, len(row))
		for c, v := range row {
			record[c] = v.String()
		}

		records = append(records, record)
	}

	return records
}

// String implements fmt.Stringer for debugging output.
func (t *Table) String() string {
	return fmt.Sprintf("Table(columns=%v, rows=%d)", t.columns, len(t.rows))
}
