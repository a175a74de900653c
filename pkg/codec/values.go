package codec

import (
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/json"
)

// ToPrimitive normalizes a boundary value to one of nil, string, bool or a
// Go numeric type. JSON numbers become int64 when integral and float64
// otherwise; Arrow scalars are unboxed to their native value; named types
// over a primitive kind are converted to that kind. Any other value yields
// an UnsupportedValueError naming its runtime type.
func ToPrimitive(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool:
		return v, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	case json.Number:
		return fromNumber(v)
	case scalar.Scalar:
		return fromScalar(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}

	return nil, errors.NewUnsupportedValueError(value)
}

// CoerceMap applies ToPrimitive to every value of m.
func CoerceMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		p, err := ToPrimitive(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedValue, "argument "+strconv.Quote(k))
		}
		out[k] = p
	}
	return out, nil
}

// CoerceSlice applies ToPrimitive to every element of values.
func CoerceSlice(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		p, err := ToPrimitive(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func fromNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedValue, "malformed number "+strconv.Quote(n.String()))
	}
	return f, nil
}

func fromScalar(s scalar.Scalar) (any, error) {
	if !s.IsValid() {
		return nil, nil
	}
	switch v := s.(type) {
	case *scalar.Boolean:
		return v.Value, nil
	case *scalar.Int8:
		return v.Value, nil
	case *scalar.Int16:
		return v.Value, nil
	case *scalar.Int32:
		return v.Value, nil
	case *scalar.Int64:
		return v.Value, nil
	case *scalar.Uint8:
		return v.Value, nil
	case *scalar.Uint16:
		return v.Value, nil
	case *scalar.Uint32:
		return v.Value, nil
	case *scalar.Uint64:
		return v.Value, nil
	case *scalar.Float32:
		return v.Value, nil
	case *scalar.Float64:
		return v.Value, nil
	case *scalar.String:
		return v.String(), nil
	case *scalar.LargeString:
		return v.String(), nil
	}
	return nil, errors.NewUnsupportedValueError(s)
}
