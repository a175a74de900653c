package codec

import (
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

// columnKind is the Arrow type chosen for a table column.
type columnKind int

const (
	kindNull columnKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
)

// ToArrow converts a table into a single Arrow record. Each column's type
// is inferred from its values: all-integer columns become int64, numeric
// columns with any float become float64, booleans stay bool and anything
// else is rendered as string. nil values become Arrow nulls. When the table
// has failures and errorColumn is set, messages are appended as a nullable
// string column; a data column with that name is a SchemaError. The caller
// releases the record.
func ToArrow(mem memory.Allocator, t *table.Table, errorColumn string) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if err := t.Canonicalize(); err != nil {
		return nil, err
	}
	if err := checkErrorColumn(t, errorColumn); err != nil {
		return nil, err
	}

	columns := t.Columns()
	data := make([][]any, len(columns))
	fields := make([]arrow.Field, 0, len(columns)+1)
	kinds := make([]columnKind, len(columns))
	for i, column := range columns {
		data[i], _ = t.Values(column)
		kinds[i] = inferKind(data[i])
		fields = append(fields, arrow.Field{Name: column, Type: kinds[i].arrowType(), Nullable: true})
	}

	withErrors := errorColumn != "" && t.HasFailures()
	if withErrors {
		fields = append(fields, arrow.Field{Name: errorColumn, Type: arrow.BinaryTypes.String, Nullable: true})
	}

	schema := arrow.NewSchema(fields, nil)
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i := range columns {
		appendColumn(builder.Field(i), kinds[i], data[i])
	}
	if withErrors {
		b := builder.Field(len(columns)).(*array.StringBuilder)
		for _, f := range t.Failures() {
			if f == nil {
				b.AppendNull()
				continue
			}
			b.Append(f.Message)
		}
	}

	return builder.NewRecord(), nil
}

// FromArrow converts an Arrow record into a canonical table. Cells are
// unboxed through Arrow scalars and ToPrimitive, so every supported Arrow
// primitive type is accepted. A string column named errorColumn, if
// present, restores row failures.
func FromArrow(rec arrow.Record, errorColumn string) (*table.Table, error) {
	rows := int(rec.NumRows())
	schema := rec.Schema()

	columns := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		if errorColumn != "" && f.Name == errorColumn {
			if !isStringType(f.Type) {
				return nil, errors.NewSchemaError("error column %q has type %s, want string", f.Name, f.Type).
					WithDetail("column", f.Name)
			}
			continue
		}
		columns = append(columns, f.Name)
	}
	if err := checkUnique(columns); err != nil {
		return nil, err
	}

	t := table.New(columns, rows)
	if err := t.SetRowCount(rows); err != nil {
		return nil, err
	}

	for i, f := range schema.Fields() {
		arr := rec.Column(i)
		values := make([]any, rows)
		for row := 0; row < rows; row++ {
			s, err := scalar.GetScalar(arr, row)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read arrow column "+f.Name)
			}
			v, err := ToPrimitive(s)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedValue, "arrow column "+f.Name)
			}
			values[row] = v
		}

		if errorColumn != "" && f.Name == errorColumn {
			for row, v := range values {
				if msg, ok := v.(string); ok {
					if err := t.SetFailure(&table.Failure{Row: row, Message: msg}); err != nil {
						return nil, err
					}
				}
			}
			continue
		}
		if err := t.SetColumn(f.Name, values); err != nil {
			return nil, err
		}
	}

	if err := t.Canonicalize(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteArrowIPC writes t to w as an Arrow IPC stream with one record batch.
func WriteArrowIPC(w io.Writer, t *table.Table, errorColumn string) error {
	mem := memory.NewGoAllocator()
	rec, err := ToArrow(mem, t, errorColumn)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write arrow record")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to close arrow writer")
	}
	return nil
}

// ReadArrowIPC reads an Arrow IPC stream. All record batches are
// concatenated into one table; they must share the stream schema.
func ReadArrowIPC(r io.Reader, errorColumn string) (*table.Table, error) {
	mem := memory.NewGoAllocator()
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open arrow stream")
	}
	defer reader.Release()

	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read arrow stream")
	}

	if len(records) == 0 {
		empty := array.NewRecord(reader.Schema(), emptyColumns(mem, reader.Schema()), 0)
		defer empty.Release()
		return FromArrow(empty, errorColumn)
	}
	if len(records) == 1 {
		return FromArrow(records[0], errorColumn)
	}

	tbl := array.NewTableFromRecords(reader.Schema(), records)
	defer tbl.Release()
	merged, err := concatTable(mem, tbl)
	if err != nil {
		return nil, err
	}
	defer merged.Release()
	return FromArrow(merged, errorColumn)
}

func concatTable(mem memory.Allocator, tbl arrow.Table) (arrow.Record, error) {
	cols := make([]arrow.Array, tbl.NumCols())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		chunked := tbl.Column(i).Data()
		arr, err := array.Concatenate(chunked.Chunks(), mem)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to concatenate arrow batches")
		}
		cols[i] = arr
	}
	return array.NewRecord(tbl.Schema(), cols, tbl.NumRows()), nil
}

func emptyColumns(mem memory.Allocator, schema *arrow.Schema) []arrow.Array {
	cols := make([]arrow.Array, len(schema.Fields()))
	for i, f := range schema.Fields() {
		b := array.NewBuilder(mem, f.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	return cols
}

func inferKind(values []any) columnKind {
	kind := kindNull
	for _, v := range values {
		var k columnKind
		switch x := v.(type) {
		case nil:
			continue
		case bool:
			k = kindBool
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			k = kindInt
		case uint:
			k = kindInt
			if uint64(x) > math.MaxInt64 {
				k = kindFloat
			}
		case uint64:
			k = kindInt
			if x > math.MaxInt64 {
				k = kindFloat
			}
		case float32, float64:
			k = kindFloat
		default:
			return kindString
		}

		switch {
		case kind == kindNull:
			kind = k
		case kind == k:
		case (kind == kindInt && k == kindFloat) || (kind == kindFloat && k == kindInt):
			kind = kindFloat
		default:
			return kindString
		}
	}
	return kind
}

func (k columnKind) arrowType() arrow.DataType {
	switch k {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindNull:
		return arrow.Null
	default:
		return arrow.BinaryTypes.String
	}
}

func appendColumn(b array.Builder, kind columnKind, values []any) {
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		switch kind {
		case kindBool:
			b.(*array.BooleanBuilder).Append(v.(bool))
		case kindInt:
			b.(*array.Int64Builder).Append(toInt64(v))
		case kindFloat:
			b.(*array.Float64Builder).Append(toFloat64(v))
		case kindString:
			b.(*array.StringBuilder).Append(formatCell(v))
		}
	}
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	}
	return float64(toInt64(v))
}

func isStringType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.NULL:
		return true
	}
	return false
}
