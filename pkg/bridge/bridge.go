// Package bridge exposes the evaluator over opaque byte payloads: a
// payload is decompressed, decoded into a table, evaluated and encoded
// back in the same format and compression.
package bridge

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabeval/pkg/codec"
	"github.com/ajitpratap0/tabeval/pkg/compression"
	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/evaluator"
	"github.com/ajitpratap0/tabeval/pkg/json"
	"github.com/ajitpratap0/tabeval/pkg/logger"
	"github.com/ajitpratap0/tabeval/pkg/pool"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

// Format is the table rendition of a payload.
type Format string

const (
	// FormatJSON is the {columns, data, errors} wire dictionary.
	FormatJSON Format = "json"
	// FormatArrow is an Arrow IPC stream.
	FormatArrow Format = "arrow"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatArrow:
		return FormatArrow, nil
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported payload format %q", name)
}

// Config describes the payloads a Bridge accepts and produces.
type Config struct {
	Format      Format
	Compression compression.Algorithm
	Level       compression.Level
	// ErrorColumn carries row failures in Arrow payloads
	ErrorColumn string
}

// DefaultConfig returns uncompressed JSON payloads.
func DefaultConfig() Config {
	return Config{
		Format:      FormatJSON,
		Compression: compression.None,
		Level:       compression.Default,
		ErrorColumn: "_error",
	}
}

// Bridge evaluates encoded payloads.
type Bridge struct {
	evaluator  *evaluator.Evaluator
	format     Format
	errorCol   string
	compressor compression.Compressor
	logger     *zap.Logger
}

// New creates a Bridge around ev.
func New(ev *evaluator.Evaluator, cfg Config, log *zap.Logger) (*Bridge, error) {
	if ev == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "evaluator is required")
	}
	format, err := ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}
	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: cfg.Compression,
		Level:     cfg.Level,
	})
	if err != nil {
		return nil, err
	}

	return &Bridge{
		evaluator:  ev,
		format:     format,
		errorCol:   cfg.ErrorColumn,
		compressor: comp,
		logger:     logger.OrNop(log).With(zap.String("component", "bridge")),
	}, nil
}

// EvaluateAll evaluates every row of an encoded table and returns the
// encoded output table.
func (b *Bridge) EvaluateAll(ctx context.Context, payload []byte) ([]byte, error) {
	raw, err := b.compressor.Decompress(payload)
	if err != nil {
		return nil, err
	}

	in, err := b.decode(raw)
	if err != nil {
		return nil, err
	}

	out, err := b.evaluator.EvaluateAll(ctx, in)
	if err != nil {
		return nil, err
	}

	encoded, err := b.encode(out)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("payload evaluated",
		zap.String("format", string(b.format)),
		zap.Int("in_bytes", len(payload)),
		zap.Int("out_bytes", len(encoded)),
		zap.Int("rows", out.RowCount()))

	return b.compressor.Compress(encoded)
}

// Evaluate evaluates a single JSON object of arguments and returns the
// JSON object of its fields. Transform errors are returned, not encoded.
func (b *Bridge) Evaluate(ctx context.Context, payload []byte) ([]byte, error) {
	arguments, err := b.arguments(payload)
	if err != nil {
		return nil, err
	}

	fields, err := b.evaluator.Evaluate(ctx, arguments)
	if err != nil {
		return nil, err
	}
	return b.marshal(fields.ToMap())
}

// ArgumentsToResults coerces a JSON object of arguments to primitives and
// returns it re-encoded, without evaluating anything.
func (b *Bridge) ArgumentsToResults(payload []byte) ([]byte, error) {
	arguments, err := b.arguments(payload)
	if err != nil {
		return nil, err
	}
	return b.marshal(arguments)
}

func (b *Bridge) arguments(payload []byte) (map[string]any, error) {
	raw, err := b.compressor.Decompress(payload)
	if err != nil {
		return nil, err
	}

	var arguments map[string]any
	if err := json.Unmarshal(raw, &arguments); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse arguments")
	}
	return codec.CoerceMap(arguments)
}

func (b *Bridge) marshal(v map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to marshal results")
	}
	return b.compressor.Compress(data)
}

func (b *Bridge) decode(raw []byte) (*table.Table, error) {
	if b.format == FormatArrow {
		return codec.ReadArrowIPC(bytes.NewReader(raw), b.errorCol)
	}

	d, err := codec.UnmarshalDict(raw)
	if err != nil {
		return nil, err
	}
	return codec.Decode(d)
}

func (b *Bridge) encode(t *table.Table) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if b.format == FormatArrow {
		if err := codec.WriteArrowIPC(buf, t, b.errorCol); err != nil {
			return nil, err
		}
	} else {
		d, err := codec.Encode(t)
		if err != nil {
			return nil, err
		}
		if err := codec.WriteDict(buf, d); err != nil {
			return nil, err
		}
	}

	return pool.CopyBytes(buf), nil
}
