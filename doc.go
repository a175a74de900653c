// Package tabeval evaluates a row transform over every row of a columnar
// table and assembles the results into a new table.
//
// A failing row does not fail the batch: its error message is recorded
// against that row in an error column aligned with the data, and the
// remaining rows are kept. Columns named in the drop-set never reach the
// output, and output columns are discovered from whatever the transform
// returns, in first-seen order.
//
// # Packages
//
//   - pkg/table: ColumnMapper, Table, row reader and writer views
//   - pkg/evaluator: the batch evaluator and its parallelism modes
//   - pkg/codec: the {columns, data, errors} dictionary, CSV and Arrow IPC
//   - pkg/bridge: bytes in, bytes out, with optional compression
//   - pkg/compression: gzip, snappy, s2, lz4, zstd and deflate payloads
//   - pkg/config: YAML configuration with environment substitution
//   - pkg/logger, pkg/metrics, pkg/observability: zap, Prometheus, OpenTelemetry
//
// # Quick Start
//
//	ev, err := evaluator.New(evaluator.Config{
//	    Name:        "scorer",
//	    Parallelism: evaluator.Bounded(8),
//	    DropColumns: []string{"debug"},
//	}, evaluator.MapTransform(score), logger.Get())
//	if err != nil {
//	    return err
//	}
//
//	d, _ := codec.UnmarshalDict(payload)
//	in, err := codec.Decode(d)
//	if err != nil {
//	    return err
//	}
//	out, err := ev.EvaluateAll(ctx, in)
//
// The tabeval command runs the identity transform over CSV, JSON or Arrow
// files:
//
//	tabeval eval -i in.csv -o out.csv --format csv --drop debug --parallelism -1
package tabeval
