package table

import (
	"sync"

	"github.com/ajitpratap0/tabeval/pkg/errors"
)

// Table is an in-memory columnar store. Every column is an ordered slice of
// values; Canonicalize pads all of them to the same row count. Failures, if
// any row failed, are kept in a parallel slice aligned by row index.
type Table struct {
	mu        sync.RWMutex
	mapper    *ColumnMapper
	columns   [][]any // indexed by mapper index
	failures  []*Failure
	rowCount  int
	rowsFixed bool // row count set explicitly by SetColumn or SetRowCount
	capacity  int
	canonical bool
}

// New creates a table with the given columns. capacityHint only tunes
// preallocation of column slices.
func New(columns []string, capacityHint int) *Table {
	if capacityHint < 0 {
		capacityHint = 0
	}
	mapper := NewColumnMapper(columns...)
	t := &Table{
		mapper:   mapper,
		columns:  make([][]any, mapper.Len()),
		capacity: capacityHint,
	}
	for i := range t.columns {
		t.columns[i] = make([]any, 0, capacityHint)
	}
	return t
}

// SetColumn replaces the whole value sequence of a column, registering the
// column if it is new. The first call fixes the row count; later calls with
// a different length fail with a SchemaError.
func (t *Table) SetColumn(name string, values []any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return err
	}
	if t.rowsFixed && len(values) != t.rowCount {
		return errors.NewSchemaError("column %q has %d values, table has %d rows", name, len(values), t.rowCount).
			WithDetail("column", name)
	}
	if !t.rowsFixed && len(values) < t.rowCount {
		return errors.NewSchemaError("column %q has %d values, table already holds %d rows", name, len(values), t.rowCount).
			WithDetail("column", name)
	}

	idx := t.columnIndex(name)
	col := make([]any, len(values))
	copy(col, values)
	t.columns[idx] = col
	t.rowCount = len(values)
	t.rowsFixed = true
	return nil
}

// Set writes one cell, registering the column if it is new and growing the
// row count to cover row.
func (t *Table) Set(row int, column string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set(row, column, value)
}

func (t *Table) set(row int, column string, value any) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if row < 0 {
		return errors.NewSchemaError("row index %d is negative", row)
	}
	if t.rowsFixed && row >= t.rowCount {
		return errors.NewSchemaError("row index %d out of range [0, %d)", row, t.rowCount)
	}

	idx := t.columnIndex(column)
	col := t.columns[idx]
	if row >= len(col) {
		col = grow(col, row+1)
	}
	col[row] = value
	t.columns[idx] = col
	if row >= t.rowCount {
		t.rowCount = row + 1
	}
	return nil
}

// AppendRow writes values as a new row at index RowCount and returns it.
func (t *Table) AppendRow(values *Values) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return -1, err
	}
	if t.rowsFixed {
		return -1, errors.NewSchemaError("cannot append to a table with a fixed row count of %d", t.rowCount)
	}

	row := t.rowCount
	t.rowCount++
	var err error
	values.Range(func(name string, value any) bool {
		err = t.set(row, name, value)
		return err == nil
	})
	return row, err
}

// SetFailure records a failure at f.Row. The failures slice is allocated on
// the first call, so tables without failures carry none.
func (t *Table) SetFailure(f *Failure) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return err
	}
	if f == nil || f.Row < 0 {
		return errors.New(errors.ErrorTypeInternal, "failure must reference a non-negative row")
	}
	if t.rowsFixed && f.Row >= t.rowCount {
		return errors.NewSchemaError("failure row %d out of range [0, %d)", f.Row, t.rowCount)
	}

	if t.failures == nil {
		t.failures = make([]*Failure, 0, max(t.capacity, f.Row+1))
	}
	if f.Row >= len(t.failures) {
		t.failures = grow(t.failures, f.Row+1)
	}
	t.failures[f.Row] = f
	if f.Row >= t.rowCount {
		t.rowCount = f.Row + 1
	}
	return nil
}

// SetRowCount fixes the row count to n. It fails if some column or failure
// already occupies a row at or beyond n.
func (t *Table) SetRowCount(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewSchemaError("row count %d is negative", n)
	}
	if t.rowsFixed && n != t.rowCount {
		return errors.NewSchemaError("row count already fixed at %d, cannot set %d", t.rowCount, n)
	}
	if n < t.rowCount {
		return errors.NewSchemaError("table holds %d rows, cannot shrink to %d", t.rowCount, n)
	}
	t.rowCount = n
	t.rowsFixed = true
	return nil
}

// Canonicalize pads every column and the failures slice to the row count.
// After the first call the table is read-only; further calls are no-ops.
func (t *Table) Canonicalize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.canonical {
		return nil
	}
	if err := t.validate(); err != nil {
		return err
	}
	for i, col := range t.columns {
		t.columns[i] = grow(col, t.rowCount)
	}
	if t.failures != nil {
		t.failures = grow(t.failures, t.rowCount)
	}
	t.rowsFixed = true
	t.canonical = true
	return nil
}

// Validate checks that no column or failure entry exceeds the row count, and,
// for a canonical table, that every column holds exactly RowCount values.
func (t *Table) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.validate()
}

func (t *Table) validate() error {
	names := t.mapper.Names()
	for i, col := range t.columns {
		if len(col) > t.rowCount || (t.canonical && len(col) != t.rowCount) {
			return errors.NewSchemaError("column %q has %d values, table has %d rows", names[i], len(col), t.rowCount).
				WithDetail("column", names[i])
		}
	}
	if len(t.failures) > t.rowCount {
		return errors.NewSchemaError("failures cover %d rows, table has %d rows", len(t.failures), t.rowCount)
	}
	return nil
}

// Canonical reports whether Canonicalize has run.
func (t *Table) Canonical() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.canonical
}

// Columns returns the column names in index order.
func (t *Table) Columns() []string {
	return t.mapper.Names()
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return t.mapper.Len()
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowCount
}

// Values returns a copy of a column's values, padded to the row count.
func (t *Table) Values(column string) ([]any, bool) {
	idx, ok := t.mapper.IndexOf(column)
	if !ok {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]any, t.rowCount)
	copy(out, t.columns[idx])
	return out, true
}

// Value returns the value of one cell. A cell that was never written reads
// as nil; false is reported only for an unknown column or a row outside
// [0, RowCount).
func (t *Table) Value(row int, column string) (any, bool) {
	idx, ok := t.mapper.IndexOf(column)
	if !ok {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if row < 0 || row >= t.rowCount {
		return nil, false
	}
	col := t.columns[idx]
	if row >= len(col) {
		return nil, true
	}
	return col[row], true
}

// HasFailures reports whether any row failure was recorded.
func (t *Table) HasFailures() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failures != nil
}

// Failures returns the failures aligned by row index, or nil when no row
// failed.
func (t *Table) Failures() []*Failure {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.failures == nil {
		return nil
	}
	out := make([]*Failure, t.rowCount)
	copy(out, t.failures)
	return out
}

// Failure returns the failure recorded for row, if any.
func (t *Table) Failure(row int) *Failure {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if row < 0 || row >= len(t.failures) {
		return nil
	}
	return t.failures[row]
}

// FailureCount returns the number of failed rows.
func (t *Table) FailureCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, f := range t.failures {
		if f != nil {
			n++
		}
	}
	return n
}

// Row returns a read-only view of one row.
func (t *Table) Row(index int) *RowReader {
	return &RowReader{table: t, index: index}
}

// Writer returns a write view of one row that suppresses dropped columns.
func (t *Table) Writer(index int, drop DropSet) *RowWriter {
	return &RowWriter{table: t, index: index, drop: drop}
}

// columnIndex must be called with mu held for writing.
func (t *Table) columnIndex(name string) int {
	idx := t.mapper.GetOrAssign(name)
	for len(t.columns) <= idx {
		t.columns = append(t.columns, make([]any, 0, t.capacity))
	}
	return idx
}

func (t *Table) checkWritable() error {
	if t.canonical {
		return errors.NewSchemaError("table is canonicalized and read-only")
	}
	return nil
}

// grow extends s with zero values up to length n.
func grow[T any](s []T, n int) []T {
	if len(s) >= n {
		return s
	}
	if cap(s) >= n {
		return s[:n]
	}
	out := make([]T, n, max(n, 2*cap(s)))
	copy(out, s)
	return out
}
