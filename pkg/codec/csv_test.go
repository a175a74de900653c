package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

func TestReadCSV_InfersTypes(t *testing.T) {
	input := "id,score,active,name\n1,0.5,true,alice\n2,,false,\n3,2,TRUE,carol\n"

	tbl, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "score", "active", "name"}, tbl.Columns())
	assert.Equal(t, 3, tbl.RowCount())

	id, _ := tbl.Values("id")
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, id)
	score, _ := tbl.Values("score")
	assert.Equal(t, []any{0.5, nil, 2.0}, score)
	active, _ := tbl.Values("active")
	assert.Equal(t, []any{true, false, true}, active)
	name, _ := tbl.Values("name")
	assert.Equal(t, []any{"alice", nil, "carol"}, name)
}

func TestReadCSV_Separator(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a;b\n1;x\n"), CSVOptions{Separator: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())

	v, ok := tbl.Value(0, "b")
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestReadCSV_RaggedRecord(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"), CSVOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
}

func TestReadCSV_Empty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.RowCount())
	assert.Empty(t, tbl.Columns())
}

func TestWriteCSV_ErrorColumnRoundTrip(t *testing.T) {
	tbl := table.New([]string{"y"}, 3)
	require.NoError(t, tbl.SetColumn("y", []any{int64(2), nil, int64(6)}))
	require.NoError(t, tbl.SetFailure(&table.Failure{Row: 1, Message: "bad row"}))

	var buf bytes.Buffer
	opts := CSVOptions{ErrorColumn: "_error"}
	require.NoError(t, WriteCSV(&buf, tbl, opts))
	assert.Equal(t, "y,_error\n2,\n,bad row\n6,\n", buf.String())

	got, err := ReadCSV(&buf, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.Columns())
	y, _ := got.Values("y")
	assert.Equal(t, []any{int64(2), nil, int64(6)}, y)
	require.NotNil(t, got.Failure(1))
	assert.Equal(t, "bad row", got.Failure(1).Message)
	assert.Equal(t, 1, got.FailureCount())
}

func TestWriteCSV_NoFailuresNoErrorColumn(t *testing.T) {
	tbl := table.New([]string{"a", "b"}, 1)
	require.NoError(t, tbl.SetColumn("a", []any{1.5}))
	require.NoError(t, tbl.SetColumn("b", []any{false}))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, CSVOptions{ErrorColumn: "_error"}))
	assert.Equal(t, "a,b\n1.5,false\n", buf.String())
}

func TestReadCSV_DuplicateHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,a\n1,x\n2,y\n"), CSVOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
	assert.Contains(t, err.Error(), `duplicate column "a"`)

	_, err = ReadCSV(strings.NewReader("a,_error,_error\n1,,\n"), CSVOptions{ErrorColumn: "_error"})
	assert.True(t, errors.IsSchema(err))
}

func TestWriteCSV_ErrorColumnCollision(t *testing.T) {
	tbl := table.New([]string{"_error"}, 2)
	require.NoError(t, tbl.SetColumn("_error", []any{"payload", nil}))
	require.NoError(t, tbl.SetFailure(&table.Failure{Row: 1, Message: "boom"}))

	var buf bytes.Buffer
	err := WriteCSV(&buf, tbl, CSVOptions{ErrorColumn: "_error"})
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
	assert.Zero(t, buf.Len())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, tbl, CSVOptions{ErrorColumn: "failure"}))
	got, err := ReadCSV(&buf, CSVOptions{ErrorColumn: "failure"})
	require.NoError(t, err)
	v, _ := got.Values("_error")
	assert.Equal(t, []any{"payload", nil}, v)
	assert.Nil(t, got.Failure(0))
	require.NotNil(t, got.Failure(1))
	assert.Equal(t, "boom", got.Failure(1).Message)
}
