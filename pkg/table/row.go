package table

// Row is the read-only view of one input row handed to a row transform.
type Row interface {
	// Index returns the physical row index in the underlying table.
	Index() int
	// Get returns the value of column for this row, or false if unset.
	Get(column string) (any, bool)
	// Columns returns the column names of the underlying table.
	Columns() []string
	// ToMap copies the row into a plain map.
	ToMap() map[string]any
}

// RowReader binds a Table and a row index. It never copies the table and
// never mutates it, so many readers may share one table.
type RowReader struct {
	table *Table
	index int
}

var _ Row = (*RowReader)(nil)

// Index returns the row index.
func (r *RowReader) Index() int { return r.index }

// Get returns the value of column for this row.
func (r *RowReader) Get(column string) (any, bool) {
	return r.table.Value(r.index, column)
}

// Columns returns the column names of the underlying table.
func (r *RowReader) Columns() []string {
	return r.table.Columns()
}

// Len returns the number of columns.
func (r *RowReader) Len() int {
	return r.table.ColumnCount()
}

// Values copies the row into an ordered Values, in column order. Unset
// cells are reported as nil.
func (r *RowReader) Values() *Values {
	columns := r.table.Columns()
	out := NewValues(len(columns))
	for _, column := range columns {
		v, _ := r.table.Value(r.index, column)
		out.Set(column, v)
	}
	return out
}

// ToMap copies the row into a plain map.
func (r *RowReader) ToMap() map[string]any {
	columns := r.table.Columns()
	out := make(map[string]any, len(columns))
	for _, column := range columns {
		v, _ := r.table.Value(r.index, column)
		out[column] = v
	}
	return out
}

// RowWriter binds an output Table and a row index. Writes to columns in
// the drop-set are suppressed; other writes register new columns on first
// use.
type RowWriter struct {
	table *Table
	index int
	drop  DropSet
}

// Index returns the row index.
func (w *RowWriter) Index() int { return w.index }

// Put writes value into column for this row. It returns false when the
// column is dropped and nothing was written.
func (w *RowWriter) Put(column string, value any) (bool, error) {
	if w.drop.Contains(column) {
		return false, nil
	}
	if err := w.table.Set(w.index, column, value); err != nil {
		return false, err
	}
	return true, nil
}

// PutAll applies Put to every field of values in insertion order and
// returns how many fields were written.
func (w *RowWriter) PutAll(values *Values) (int, error) {
	written := 0
	var err error
	values.Range(func(name string, value any) bool {
		var ok bool
		ok, err = w.Put(name, value)
		if ok {
			written++
		}
		return err == nil
	})
	return written, err
}
