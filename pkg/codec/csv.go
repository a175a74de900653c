package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

// CSVOptions configures the CSV rendition.
type CSVOptions struct {
	// Separator is the field delimiter; zero means ','.
	Separator rune
	// ErrorColumn, when set, appends a column holding failure messages on
	// write and restores failures from that column on read.
	ErrorColumn string
}

func (o CSVOptions) separator() rune {
	if o.Separator == 0 {
		return ','
	}
	return o.Separator
}

// ReadCSV reads a table whose first record is the header. Each column's
// type is inferred from all of its non-empty cells: int64, then float64,
// then bool, falling back to string. Empty cells are nil.
func ReadCSV(r io.Reader, opts CSVOptions) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.separator()
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		t := table.New(nil, 0)
		return t, t.Canonicalize()
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV header")
	}
	if err := checkUnique(header); err != nil {
		return nil, err
	}

	raw := make([][]string, len(header))
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, errors.Wrap(err, errors.ErrorTypeSchema, "CSV record length differs from header")
			}
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV record")
		}
		for i, cell := range record {
			raw[i] = append(raw[i], cell)
		}
		rows++
	}

	columns := make([]string, 0, len(header))
	for _, name := range header {
		if name != opts.ErrorColumn || opts.ErrorColumn == "" {
			columns = append(columns, name)
		}
	}

	t := table.New(columns, rows)
	if err := t.SetRowCount(rows); err != nil {
		return nil, err
	}
	for i, name := range header {
		if opts.ErrorColumn != "" && name == opts.ErrorColumn {
			for row, msg := range raw[i] {
				if msg == "" {
					continue
				}
				if err := t.SetFailure(&table.Failure{Row: row, Message: msg}); err != nil {
					return nil, err
				}
			}
			continue
		}
		if len(raw[i]) == 0 {
			continue
		}
		if err := t.SetColumn(name, inferColumn(raw[i])); err != nil {
			return nil, err
		}
	}

	if err := t.Canonicalize(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteCSV writes t with a header record. Nil values become empty cells. A
// data column named like opts.ErrorColumn is a SchemaError.
func WriteCSV(w io.Writer, t *table.Table, opts CSVOptions) error {
	if err := t.Canonicalize(); err != nil {
		return err
	}

	if err := checkErrorColumn(t, opts.ErrorColumn); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.separator()

	columns := t.Columns()
	withErrors := opts.ErrorColumn != "" && t.HasFailures()

	header := columns
	if withErrors {
		header = append(append([]string{}, columns...), opts.ErrorColumn)
	}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write CSV header")
	}

	data := make([][]any, len(columns))
	for i, column := range columns {
		data[i], _ = t.Values(column)
	}
	failures := t.Failures()

	record := make([]string, len(header))
	for row := 0; row < t.RowCount(); row++ {
		for i := range columns {
			record[i] = formatCell(data[i][row])
		}
		if withErrors {
			record[len(columns)] = ""
			if f := failures[row]; f != nil {
				record[len(columns)] = f.Message
			}
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to write CSV record")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to flush CSV")
	}
	return nil
}

func inferColumn(cells []string) []any {
	kinds := []func(string) (any, bool){parseInt, parseFloat, parseBool}
	for _, parse := range kinds {
		if values, ok := parseAll(cells, parse); ok {
			return values
		}
	}

	out := make([]any, len(cells))
	for i, cell := range cells {
		if cell != "" {
			out[i] = cell
		}
	}
	return out
}

func parseAll(cells []string, parse func(string) (any, bool)) ([]any, bool) {
	out := make([]any, len(cells))
	nonEmpty := 0
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		v, ok := parse(cell)
		if !ok {
			return nil, false
		}
		out[i] = v
		nonEmpty++
	}
	return out, nonEmpty > 0
}

func parseInt(s string) (any, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func parseFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseBool(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
