// Package codec converts tables to and from their external renditions: the
// wire dictionary ({columns, data, errors}), JSON, CSV and Arrow IPC.
package codec

import (
	"io"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/json"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

// DefaultCapacity is the row capacity hint used when decoding.
const DefaultCapacity = 256

// Dict is the wire dictionary. Data[i] holds every value of Columns[i];
// Errors, when present, is aligned by row index and nil for rows that
// succeeded.
type Dict struct {
	Columns []string  `json:"columns"`
	Data    [][]any   `json:"data"`
	Errors  []*string `json:"errors,omitempty"`
}

// Decode builds a canonical table from d. Column/data length mismatches
// and ragged data fail with a SchemaError; unsupported cell values fail
// with an UnsupportedValueError.
func Decode(d *Dict) (*table.Table, error) {
	if d == nil {
		return nil, errors.NewSchemaError("dict is nil")
	}
	if len(d.Columns) != len(d.Data) {
		return nil, errors.NewSchemaError("columns has %d entries but data has %d", len(d.Columns), len(d.Data)).
			WithDetail("columns", len(d.Columns)).
			WithDetail("data", len(d.Data))
	}

	if err := checkUnique(d.Columns); err != nil {
		return nil, err
	}

	capacity := DefaultCapacity
	if len(d.Data) > 0 {
		capacity = len(d.Data[0])
	}
	t := table.New(d.Columns, capacity)

	for i, column := range d.Columns {
		values, err := CoerceSlice(d.Data[i])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedValue, "column "+column)
		}
		if err := t.SetColumn(column, values); err != nil {
			return nil, err
		}
	}

	if d.Errors != nil {
		if len(d.Columns) == 0 {
			if err := t.SetRowCount(len(d.Errors)); err != nil {
				return nil, err
			}
		} else if len(d.Errors) != t.RowCount() {
			return nil, errors.NewSchemaError("errors has %d entries, table has %d rows", len(d.Errors), t.RowCount())
		}
		for row, msg := range d.Errors {
			if msg == nil {
				continue
			}
			if err := t.SetFailure(&table.Failure{Row: row, Message: *msg}); err != nil {
				return nil, err
			}
		}
	}

	if err := t.Canonicalize(); err != nil {
		return nil, err
	}
	return t, nil
}

// Encode renders t as a Dict. The table is canonicalized first. Errors is
// set only when some row failed.
func Encode(t *table.Table) (*Dict, error) {
	if err := t.Canonicalize(); err != nil {
		return nil, err
	}

	columns := t.Columns()
	d := &Dict{
		Columns: columns,
		Data:    make([][]any, len(columns)),
	}
	for i, column := range columns {
		values, _ := t.Values(column)
		d.Data[i] = values
	}

	if failures := t.Failures(); failures != nil {
		d.Errors = make([]*string, len(failures))
		for row, f := range failures {
			if f != nil {
				msg := f.Message
				d.Errors[row] = &msg
			}
		}
	}
	return d, nil
}

// UnmarshalDict parses a JSON wire dictionary. Numbers are kept exact and
// normalized by Decode.
func UnmarshalDict(data []byte) (*Dict, error) {
	var d Dict
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse dict")
	}
	return &d, nil
}

// MarshalDict renders d as JSON.
func MarshalDict(d *Dict) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to marshal dict")
	}
	return data, nil
}

// ReadDict reads one JSON wire dictionary from r.
func ReadDict(r io.Reader) (*Dict, error) {
	var d Dict
	if err := json.UnmarshalFromReader(r, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read dict")
	}
	return &d, nil
}

// WriteDict writes d to w as JSON.
func WriteDict(w io.Writer, d *Dict) error {
	if err := json.MarshalToWriter(w, d); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write dict")
	}
	return nil
}

// checkUnique fails with a SchemaError on the first repeated column name.
func checkUnique(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		if _, dup := seen[column]; dup {
			return errors.NewSchemaError("duplicate column %q", column).WithDetail("column", column)
		}
		seen[column] = struct{}{}
	}
	return nil
}

// checkErrorColumn fails when a data column would be written under the
// name reserved for failure messages.
func checkErrorColumn(t *table.Table, errorColumn string) error {
	if errorColumn == "" {
		return nil
	}
	if _, ok := t.Values(errorColumn); ok {
		return errors.NewSchemaError("column %q collides with the error column", errorColumn).
			WithDetail("column", errorColumn)
	}
	return nil
}
