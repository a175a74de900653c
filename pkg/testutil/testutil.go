// Package testutil provides helpers shared by tabeval tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tabeval/pkg/table"
)

// Logger creates a logger that writes to the test output.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// Context returns a context with a 30-second timeout that is cancelled
// when the test completes.
func Context(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Table builds a canonical table; data[i] holds the values of columns[i].
func Table(t *testing.T, columns []string, data ...[]any) *table.Table {
	t.Helper()
	require.Len(t, data, len(columns), "one data slice per column")

	rows := 0
	if len(data) > 0 {
		rows = len(data[0])
	}
	tbl := table.New(columns, rows)
	for i, column := range columns {
		require.NoError(t, tbl.SetColumn(column, data[i]))
	}
	require.NoError(t, tbl.Canonicalize())
	return tbl
}

// Column returns the values of column, failing the test when it is absent.
func Column(t *testing.T, tbl *table.Table, column string) []any {
	t.Helper()
	values, ok := tbl.Values(column)
	require.True(t, ok, "column %q not found in %v", column, tbl.Columns())
	return values
}

// Messages returns the failure message of every row, "" for rows that
// succeeded.
func Messages(tbl *table.Table) []string {
	out := make([]string, tbl.RowCount())
	for i := range out {
		if f := tbl.Failure(i); f != nil {
			out[i] = f.Message
		}
	}
	return out
}
