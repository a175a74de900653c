package evaluator

import (
	"context"
	"sort"

	"github.com/ajitpratap0/tabeval/pkg/table"
)

// Transform maps one input row to its output fields. Returning an error
// fails that row only. Fields are written in the order of the returned
// Values; a nil Values writes nothing.
type Transform func(ctx context.Context, row table.Row) (*table.Values, error)

// MapTransform adapts a function over plain maps. The row is copied into a
// fresh map for every call, and output keys are written in sorted order.
func MapTransform(fn func(ctx context.Context, arguments map[string]any) (map[string]any, error)) Transform {
	return func(ctx context.Context, row table.Row) (*table.Values, error) {
		out, err := fn(ctx, row.ToMap())
		if err != nil {
			return nil, err
		}
		return table.ValuesFromMap(out), nil
	}
}

// IdentityTransform passes every input column through unchanged, in input
// column order.
func IdentityTransform(_ context.Context, row table.Row) (*table.Values, error) {
	columns := row.Columns()
	out := table.NewValues(len(columns))
	for _, column := range columns {
		v, _ := row.Get(column)
		out.Set(column, v)
	}
	return out, nil
}

// argumentsRow presents a single argument map as a Row.
type argumentsRow map[string]any

func (a argumentsRow) Index() int { return 0 }

func (a argumentsRow) Get(column string) (any, bool) {
	v, ok := a[column]
	return v, ok
}

func (a argumentsRow) Columns() []string {
	columns := make([]string, 0, len(a))
	for k := range a {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func (a argumentsRow) ToMap() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
