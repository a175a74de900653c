package table

import (
	"fmt"
	"testing"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_SetColumn(t *testing.T) {
	tbl := New([]string{"x", "y"}, 4)

	require.NoError(t, tbl.SetColumn("x", []any{1, 2, 3}))
	require.NoError(t, tbl.SetColumn("y", []any{"a", "b", "c"}))

	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, []string{"x", "y"}, tbl.Columns())

	values, ok := tbl.Values("y")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c"}, values)
}

func TestTable_SetColumnLengthMismatch(t *testing.T) {
	tbl := New([]string{"x", "y"}, 0)
	require.NoError(t, tbl.SetColumn("x", []any{1, 2, 3}))

	err := tbl.SetColumn("y", []any{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))

	err = tbl.SetColumn("x", []any{1, 2, 3, 4})
	require.Error(t, err, "replacing a column with a different length must fail")
	assert.True(t, errors.IsSchema(err))
}

func TestTable_SetGrowsAndRegisters(t *testing.T) {
	tbl := New(nil, 0)

	require.NoError(t, tbl.Set(2, "b", "late"))
	require.NoError(t, tbl.Set(0, "a", 1))

	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, []string{"b", "a"}, tbl.Columns())

	v, ok := tbl.Value(2, "b")
	require.True(t, ok)
	assert.Equal(t, "late", v)

	for _, cell := range []struct {
		row    int
		column string
	}{{1, "b"}, {2, "a"}} {
		v, ok = tbl.Value(cell.row, cell.column)
		assert.True(t, ok, "unwritten cell (%d, %s) inside the row count", cell.row, cell.column)
		assert.Nil(t, v)
	}
	_, ok = tbl.Value(3, "a")
	assert.False(t, ok)
	_, ok = tbl.Value(0, "missing")
	assert.False(t, ok)
	require.Error(t, tbl.Set(-1, "a", 1))

	require.NoError(t, tbl.Canonicalize())
	v, ok = tbl.Value(2, "a")
	assert.True(t, ok, "canonicalization does not change how unwritten cells read")
	assert.Nil(t, v)
}

func TestTable_AppendRow(t *testing.T) {
	tbl := New(nil, 2)

	row, err := tbl.AppendRow(NewValues(2).Set("a", 1).Set("b", 2))
	require.NoError(t, err)
	assert.Equal(t, 0, row)

	row, err = tbl.AppendRow(NewValues(1).Set("c", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, row)

	require.NoError(t, tbl.Canonicalize())
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())

	a, _ := tbl.Values("a")
	c, _ := tbl.Values("c")
	assert.Equal(t, []any{1, nil}, a)
	assert.Equal(t, []any{nil, 3}, c)
}

func TestTable_CanonicalizePadsAndIsIdempotent(t *testing.T) {
	tbl := New(nil, 0)
	require.NoError(t, tbl.Set(0, "a", "x"))
	require.NoError(t, tbl.Set(1, "b", "y"))
	require.NoError(t, tbl.SetRowCount(4))

	require.NoError(t, tbl.Canonicalize())
	first := snapshot(tbl)

	require.NoError(t, tbl.Canonicalize())
	second := snapshot(tbl)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, tbl.RowCount())
	assert.Equal(t, []any{"x", nil, nil, nil}, first["a"])
	assert.Equal(t, []any{nil, "y", nil, nil}, first["b"])
	assert.True(t, tbl.Canonical())
}

func TestTable_ReadOnlyAfterCanonicalize(t *testing.T) {
	tbl := New([]string{"a"}, 0)
	require.NoError(t, tbl.SetColumn("a", []any{1}))
	require.NoError(t, tbl.Canonicalize())

	assert.True(t, errors.IsSchema(tbl.Set(0, "a", 2)))
	assert.True(t, errors.IsSchema(tbl.SetColumn("a", []any{2})))
	assert.True(t, errors.IsSchema(tbl.SetFailure(NewFailure(0, fmt.Errorf("boom")))))

	v, _ := tbl.Value(0, "a")
	assert.Equal(t, 1, v)
}

func TestTable_SetRowCount(t *testing.T) {
	tbl := New(nil, 0)
	require.NoError(t, tbl.Set(3, "a", 1))

	err := tbl.SetRowCount(2)
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))

	require.NoError(t, tbl.SetRowCount(5))
	assert.Equal(t, 5, tbl.RowCount())

	err = tbl.Set(5, "a", 1)
	assert.True(t, errors.IsSchema(err), "writes beyond a fixed row count must fail")
}

func TestTable_Failures(t *testing.T) {
	tbl := New(nil, 0)
	assert.False(t, tbl.HasFailures())
	assert.Nil(t, tbl.Failures())

	require.NoError(t, tbl.Set(0, "y", 2))
	require.NoError(t, tbl.SetFailure(NewFailure(1, fmt.Errorf("bad input"))))
	require.NoError(t, tbl.Set(2, "y", 6))
	require.NoError(t, tbl.Canonicalize())

	require.True(t, tbl.HasFailures())
	failures := tbl.Failures()
	require.Len(t, failures, 3)
	assert.Nil(t, failures[0])
	assert.Nil(t, failures[2])
	require.NotNil(t, failures[1])
	assert.Equal(t, 1, failures[1].Row)
	assert.Equal(t, "bad input", failures[1].Message)
	assert.Equal(t, 1, tbl.FailureCount())
	assert.Same(t, failures[1], tbl.Failure(1))
	assert.Nil(t, tbl.Failure(7))

	y, _ := tbl.Values("y")
	assert.Equal(t, []any{2, nil, 6}, y)
}

func TestTable_ValidateCatchesRaggedColumns(t *testing.T) {
	tbl := New(nil, 0)
	require.NoError(t, tbl.Set(1, "a", 1))
	require.NoError(t, tbl.Validate())
	require.NoError(t, tbl.SetRowCount(2))
	require.NoError(t, tbl.Validate())
}

func TestTable_DuplicateConstructorColumns(t *testing.T) {
	tbl := New([]string{"a", "a", "b"}, 0)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	assert.Equal(t, 2, tbl.ColumnCount())
}

func snapshot(tbl *Table) map[string][]any {
	out := make(map[string][]any)
	for _, c := range tbl.Columns() {
		out[c], _ = tbl.Values(c)
	}
	return out
}
