package bridge

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabeval/pkg/codec"
	"github.com/ajitpratap0/tabeval/pkg/compression"
	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/evaluator"
	"github.com/ajitpratap0/tabeval/pkg/testutil"
)

// doubleX writes y = 2x and a debug column, failing on x == 2.
func doubleX(_ context.Context, args map[string]any) (map[string]any, error) {
	x, ok := args["x"].(int64)
	if !ok {
		return nil, fmt.Errorf("x is %T", args["x"])
	}
	if x == 2 {
		return nil, fmt.Errorf("cannot evaluate x=%d", x)
	}
	return map[string]any{"y": x * 2, "debug": "ok"}, nil
}

func newBridge(t *testing.T, cfg Config) *Bridge {
	t.Helper()
	ev, err := evaluator.New(evaluator.Config{
		Name:        "bridge-test",
		Parallelism: evaluator.Bounded(2),
		DropColumns: []string{"debug"},
	}, evaluator.MapTransform(doubleX), testutil.Logger(t))
	require.NoError(t, err)

	b, err := New(ev, cfg, testutil.Logger(t))
	require.NoError(t, err)
	return b
}

func TestBridge_EvaluateAll_JSON(t *testing.T) {
	b := newBridge(t, DefaultConfig())

	out, err := b.EvaluateAll(context.Background(), []byte(`{"columns":["x"],"data":[[1,2,3]]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["y"],"data":[[2,null,6]],"errors":[null,"cannot evaluate x=2",null]}`, string(out))
}

func TestBridge_EvaluateAll_Compressed(t *testing.T) {
	for _, algorithm := range compression.Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Compression = algorithm
			b := newBridge(t, cfg)

			comp, err := compression.NewCompressor(&compression.Config{Algorithm: algorithm})
			require.NoError(t, err)
			payload, err := comp.Compress([]byte(`{"columns":["x"],"data":[[1,3]]}`))
			require.NoError(t, err)

			out, err := b.EvaluateAll(context.Background(), payload)
			require.NoError(t, err)

			raw, err := comp.Decompress(out)
			require.NoError(t, err)
			assert.JSONEq(t, `{"columns":["y"],"data":[[2,6]]}`, string(raw))
		})
	}
}

func TestBridge_EvaluateAll_Arrow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatArrow
	b := newBridge(t, cfg)

	in := testutil.Table(t, []string{"x"}, []any{int64(1), int64(2), int64(3)})
	var payload bytes.Buffer
	require.NoError(t, codec.WriteArrowIPC(&payload, in, cfg.ErrorColumn))

	out, err := b.EvaluateAll(testutil.Context(t), payload.Bytes())
	require.NoError(t, err)

	got, err := codec.ReadArrowIPC(bytes.NewReader(out), cfg.ErrorColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.Columns())
	assert.Equal(t, []any{int64(2), nil, int64(6)}, testutil.Column(t, got, "y"))
	assert.Equal(t, []string{"", "cannot evaluate x=2", ""}, testutil.Messages(got))
}

func TestBridge_EvaluateAll_ArrowErrorColumnCollision(t *testing.T) {
	ev, err := evaluator.New(evaluator.DefaultConfig(), evaluator.MapTransform(
		func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"_error": "payload"}, nil
		}), testutil.Logger(t))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Format = FormatArrow
	b, err := New(ev, cfg, testutil.Logger(t))
	require.NoError(t, err)

	var payload bytes.Buffer
	require.NoError(t, codec.WriteArrowIPC(&payload, testutil.Table(t, []string{"x"}, []any{int64(1)}), cfg.ErrorColumn))

	_, err = b.EvaluateAll(testutil.Context(t), payload.Bytes())
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
}

func TestBridge_EvaluateAll_Errors(t *testing.T) {
	b := newBridge(t, DefaultConfig())

	_, err := b.EvaluateAll(context.Background(), []byte(`{"columns":["x","z"],"data":[[1]]}`))
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))

	_, err = b.EvaluateAll(context.Background(), []byte(`not json`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.EvaluateAll(ctx, []byte(`{"columns":["x"],"data":[[1]]}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_Evaluate(t *testing.T) {
	b := newBridge(t, DefaultConfig())

	out, err := b.Evaluate(context.Background(), []byte(`{"x":4}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"y":8}`, string(out))

	_, err = b.Evaluate(context.Background(), []byte(`{"x":2}`))
	assert.EqualError(t, err, "cannot evaluate x=2")
}

func TestBridge_ArgumentsToResults(t *testing.T) {
	b := newBridge(t, DefaultConfig())

	out, err := b.ArgumentsToResults([]byte(`{"a":1,"b":1.5,"c":"s","d":null,"e":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":1.5,"c":"s","d":null,"e":true}`, string(out))

	_, err = b.ArgumentsToResults([]byte(`{"nested":{"a":1}}`))
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedValue(err))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil, DefaultConfig(), nil)
	assert.Error(t, err)

	ev, err := evaluator.New(evaluator.DefaultConfig(), evaluator.IdentityTransform, nil)
	require.NoError(t, err)

	_, err = New(ev, Config{Format: "xml"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = New(ev, Config{Compression: "brotli"}, nil)
	assert.Error(t, err)

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
}
