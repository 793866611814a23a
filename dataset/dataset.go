package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned by dataset operations.
var (
	ErrDuplicateColumn = errors.New("dataset: duplicate column")
	ErrColumnNotFound  = errors.New("dataset: column not found")
	ErrRowOutOfRange   = errors.New("dataset: row out of range")
	ErrRowArity        = errors.New("dataset: row arity mismatch")
)

// Dataset is an in-memory table with named columns and significant row
// order. It is the working data a pipeline run mutates in place; the
// parallel operator clones it per branch.
//
// Dataset is not safe for concurrent mutation. The composition operators
// guarantee single-writer access by construction.
type Dataset struct {
	cols     []string
	colIndex map[string]int
	rows     [][]Value
}

// New creates an empty dataset with the given column names.
func New(columns ...string) (*Dataset, error) {
	ds := &Dataset{
		cols:     make([]string, 0, len(columns)),
		colIndex: make(map[string]int, len(columns)),
	}

	for _, col := range columns {
		if _, exists := ds.colIndex[col]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col)
		}

		ds.colIndex[col] = len(ds.cols)
		ds.cols = append(ds.cols, col)
	}

	return ds, nil
}

// MustNew is New that panics on duplicate columns. Intended for tests and
// static column sets.
func MustNew(columns ...string) *Dataset {
	ds, err := New(columns...)
	if err != nil {
		panic(err)
	}

	return ds
}

// Len returns the number of rows.
func (ds *Dataset) Len() int {
	return len(ds.rows)
}

// Columns returns the column names in order. The slice is a copy.
func (ds *Dataset) Columns() []string {
	out := make([]string, len(ds.cols))
	copy(out, ds.cols)

	return out
}

// HasColumn reports whether a column exists.
func (ds *Dataset) HasColumn(name string) bool {
	_, ok := ds.colIndex[name]
	return ok
}

// ColumnIndex returns the position of a column, for index-based access in
// hot loops.
func (ds *Dataset) ColumnIndex(name string) (int, bool) {
	idx, ok := ds.colIndex[name]
	return idx, ok
}

// EnsureColumn appends a null-filled column when it does not exist yet.
// Returns true when the column was added.
func (ds *Dataset) EnsureColumn(name string) bool {
	if ds.HasColumn(name) {
		return false
	}

	ds.colIndex[name] = len(ds.cols)
	ds.cols = append(ds.cols, name)

	for i := range ds.rows {
		ds.rows[i] = append(ds.rows[i], Null())
	}

	return true
}

// AppendRow adds a row. The value count must match the column count.
func (ds *Dataset) AppendRow(values ...Value) error {
	if len(values) != len(ds.cols) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowArity, len(values), len(ds.cols))
	}

	row := make([]Value, len(values))
	copy(row, values)
	ds.rows = append(ds.rows, row)

	return nil
}

// At returns the cell at (row, column).
func (ds *Dataset) At(row int, column string) (Value, error) {
	idx, ok := ds.colIndex[column]
	if !ok {
		return Null(), fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	if row < 0 || row >= len(ds.rows) {
		return Null(), fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}

	return ds.rows[row][idx], nil
}

// AtIndex returns the cell at (row, column index) without bounds checks
// beyond the slice's own. Callers obtain indices via ColumnIndex.
func (ds *Dataset) AtIndex(row, colIdx int) Value {
	return ds.rows[row][colIdx]
}

// Set writes the cell at (row, column).
func (ds *Dataset) Set(row int, column string, v Value) error {
	idx, ok := ds.colIndex[column]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	if row < 0 || row >= len(ds.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}

	ds.rows[row][idx] = v

	return nil
}

// SetIndex writes the cell at (row, column index).
func (ds *Dataset) SetIndex(row, colIdx int, v Value) {
	ds.rows[row][colIdx] = v
}

// Column returns a copy of a column's cells in row order.
func (ds *Dataset) Column(name string) ([]Value, error) {
	idx, ok := ds.colIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	out := make([]Value, len(ds.rows))
	for i := range ds.rows {
		out[i] = ds.rows[i][idx]
	}

	return out, nil
}

// SetColumn replaces a column's cells. The column must exist and the value
// count must match the row count.
func (ds *Dataset) SetColumn(name string, values []Value) error {
	idx, ok := ds.colIndex[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	if len(values) != len(ds.rows) {
		return fmt.Errorf("%w: got %d values for %d rows", ErrRowArity, len(values), len(ds.rows))
	}

	for i := range ds.rows {
		ds.rows[i][idx] = values[i]
	}

	return nil
}

// Clone returns a deep copy. Values are immutable, so cloning copies the
// column layout and row slices.
func (ds *Dataset) Clone() *Dataset {
	if ds == nil {
		return nil
	}

	out := &Dataset{
		cols:     make([]string, len(ds.cols)),
		colIndex: make(map[string]int, len(ds.colIndex)),
		rows:     make([][]Value, len(ds.rows)),
	}

	copy(out.cols, ds.cols)

	for name, idx := range ds.colIndex {
		out.colIndex[name] = idx
	}

	for i, row := range ds.rows {
		cloned := make([]Value, len(row))
		copy(cloned, row)
		out.rows[i] = cloned
	}

	return out
}

// Equal reports whether two datasets have identical columns, row order,
// and cell contents.
func (ds *Dataset) Equal(other *Dataset) bool {
	if ds == nil || other == nil {
		return ds == other
	}

	if len(ds.cols) != len(other.cols) || len(ds.rows) != len(other.rows) {
		return false
	}

	for i, col := range ds.cols {
		if other.cols[i] != col {
			return false
		}
	}

	for i, row := range ds.rows {
		for j, cell := range row {
			if !cell.Equal(other.rows[i][j]) {
				return false
			}
		}
	}

	return true
}

// datasetJSON is the serialized form used for checkpoints.
type datasetJSON struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// MarshalJSON serializes columns and rows for checkpoint persistence.
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(datasetJSON{Columns: ds.cols, Rows: ds.rows})
}

// UnmarshalJSON restores a dataset from its checkpoint form.
func (ds *Dataset) UnmarshalJSON(data []byte) error {
	var raw datasetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	restored, err := New(raw.Columns...)
	if err != nil {
		return err
	}

	for _, row := range raw.Rows {
		if err := restored.AppendRow(row...); err != nil {
			return err
		}
	}

	*ds = *restored

	return nil
}
