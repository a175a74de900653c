// Package table implements the in-memory columnar store used by the batch
// evaluator.
//
// # Overview
//
// A Table holds named columns, each an ordered slice of values, plus an
// optional failures slice aligned by row index. Columns are registered in a
// ColumnMapper, which assigns dense indices in first-seen order, so the
// column list of an output table is the order in which rows first wrote
// each name.
//
// # Lifecycle
//
//	t := table.New([]string{"x"}, 256)
//	_ = t.SetColumn("x", []any{int64(1), int64(2), int64(3)})
//
//	out := table.New(nil, t.RowCount())
//	w := out.Writer(0, table.NewDropSet("debug"))
//	_, _ = w.Put("y", int64(2))     // written
//	_, _ = w.Put("debug", "trace")  // suppressed
//
//	_ = out.SetRowCount(t.RowCount())
//	_ = out.Canonicalize() // pads short columns with nil; table is read-only after
//
// # Views
//
// RowReader exposes one row of a table without copying it; RowWriter writes
// one row of an output table and applies the drop-set per field, which is
// how column projection works.
package table
