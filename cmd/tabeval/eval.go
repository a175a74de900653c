package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabeval/pkg/bridge"
	"github.com/ajitpratap0/tabeval/pkg/codec"
	"github.com/ajitpratap0/tabeval/pkg/compression"
	"github.com/ajitpratap0/tabeval/pkg/config"
	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/evaluator"
	"github.com/ajitpratap0/tabeval/pkg/logger"
	"github.com/ajitpratap0/tabeval/pkg/metrics"
	"github.com/ajitpratap0/tabeval/pkg/observability"
)

type evalOptions struct {
	configFile string
	input      string
	output     string
	timeout    time.Duration
}

func newEvalCommand() *cobra.Command {
	opts := &evalOptions{}
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate every row of a table",
		Long: `Read a table, evaluate the identity transform over each row and write the
output table. Columns listed with --drop never reach the output. Rows that fail
are reported in the error column while the other rows are kept.

Example:
  tabeval eval -i scores.csv -o out.csv --format csv --drop debug --parallelism 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			effective, err := resolveConfig(cmd, opts.configFile, cfg)
			if err != nil {
				return err
			}
			return runEval(cmd.Context(), opts, effective, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file; explicit flags override it")
	flags.StringVarP(&opts.input, "input", "i", "-", "Input file, - for stdin")
	flags.StringVarP(&opts.output, "output", "o", "-", "Output file, - for stdout")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Abort the batch after this duration (0 = no limit)")

	flags.StringVar(&cfg.Name, "name", cfg.Name, "Evaluator name used in logs and metrics")
	flags.IntVar(&cfg.Evaluation.Parallelism, "parallelism", cfg.Evaluation.Parallelism, "1 sequential, -1 one worker per CPU, n > 1 for n workers")
	flags.StringSliceVar(&cfg.Evaluation.DropColumns, "drop", nil, "Columns removed from the output")
	flags.DurationVar(&cfg.Evaluation.RowTimeout, "row-timeout", 0, "Deadline for each row (0 = none)")
	flags.StringVar(&cfg.Codec.Format, "format", cfg.Codec.Format, "Table format: json, csv or arrow")
	flags.StringVar(&cfg.Codec.Compression, "compression", cfg.Codec.Compression, "Payload compression: none, gzip, snappy, s2, lz4, zstd, deflate")
	flags.IntVar(&cfg.Codec.CompressionLevel, "compression-level", cfg.Codec.CompressionLevel, "Compression level (1-9)")
	flags.StringVar(&cfg.Codec.CSVSeparator, "sep", cfg.Codec.CSVSeparator, "CSV field separator")
	flags.StringVar(&cfg.Codec.ErrorColumn, "error-column", cfg.Codec.ErrorColumn, "Column carrying row failures in csv and arrow output")
	flags.StringVar(&cfg.Observability.LogLevel, "log-level", cfg.Observability.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.Observability.LogEncoding, "log-encoding", cfg.Observability.LogEncoding, "Log encoding (json, console)")
	flags.BoolVar(&cfg.Observability.EnableMetrics, "metrics", false, "Print batch metrics to stderr after the run")
	flags.BoolVar(&cfg.Observability.EnableTracing, "tracing", false, "Export the batch span to stderr")

	return cmd
}

// resolveConfig loads the config file, if any, and applies the flags the
// user set explicitly on top of it.
func resolveConfig(cmd *cobra.Command, path string, flagCfg *config.Config) (*config.Config, error) {
	if path == "" {
		return flagCfg, flagCfg.Validate()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.Name = flagCfg.Name
	}
	if flags.Changed("parallelism") {
		cfg.Evaluation.Parallelism = flagCfg.Evaluation.Parallelism
	}
	if flags.Changed("drop") {
		cfg.Evaluation.DropColumns = flagCfg.Evaluation.DropColumns
	}
	if flags.Changed("row-timeout") {
		cfg.Evaluation.RowTimeout = flagCfg.Evaluation.RowTimeout
	}
	if flags.Changed("format") {
		cfg.Codec.Format = flagCfg.Codec.Format
	}
	if flags.Changed("compression") {
		cfg.Codec.Compression = flagCfg.Codec.Compression
	}
	if flags.Changed("compression-level") {
		cfg.Codec.CompressionLevel = flagCfg.Codec.CompressionLevel
	}
	if flags.Changed("sep") {
		cfg.Codec.CSVSeparator = flagCfg.Codec.CSVSeparator
	}
	if flags.Changed("error-column") {
		cfg.Codec.ErrorColumn = flagCfg.Codec.ErrorColumn
	}
	if flags.Changed("log-level") {
		cfg.Observability.LogLevel = flagCfg.Observability.LogLevel
	}
	if flags.Changed("log-encoding") {
		cfg.Observability.LogEncoding = flagCfg.Observability.LogEncoding
	}
	if flags.Changed("metrics") {
		cfg.Observability.EnableMetrics = flagCfg.Observability.EnableMetrics
	}
	if flags.Changed("tracing") {
		cfg.Observability.EnableTracing = flagCfg.Observability.EnableTracing
	}

	return cfg, cfg.Validate()
}

func runEval(ctx context.Context, opts *evalOptions, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Encoding:    cfg.Observability.LogEncoding,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Get()

	evalCfg, err := cfg.EvaluatorConfig()
	if err != nil {
		return err
	}

	var evalOpts []evaluator.Option
	var registry *prometheus.Registry
	if cfg.Observability.EnableMetrics {
		registry = prometheus.NewRegistry()
		evalOpts = append(evalOpts, evaluator.WithMetrics(metrics.NewBatchMetrics(registry)))
	}
	if cfg.Observability.EnableTracing {
		tracingCfg := observability.DefaultTracingConfig()
		tracingCfg.ServiceVersion = version
		tracingCfg.SamplingRate = cfg.Observability.TracingSampleRate
		tracingCfg.Writer = stderr
		tracer, err := observability.InitTracing(tracingCfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := observability.Shutdown(context.Background()); err != nil {
				log.Warn("failed to flush spans", zap.Error(err))
			}
		}()
		evalOpts = append(evalOpts, evaluator.WithTracer(tracer))
	}

	ev, err := evaluator.New(evalCfg, evaluator.IdentityTransform, log, evalOpts...)
	if err != nil {
		return err
	}

	payload, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}

	start := time.Now()
	var out []byte
	if cfg.Codec.Format == config.FormatCSV {
		out, err = evalCSV(ctx, ev, cfg, payload)
	} else {
		out, err = evalPayload(ctx, ev, cfg, payload, log)
	}
	if err != nil {
		return err
	}

	if err := writeOutput(opts.output, stdout, out); err != nil {
		return err
	}

	log.Info("evaluation finished",
		zap.String("input", opts.input),
		zap.String("output", opts.output),
		zap.String("format", cfg.Codec.Format),
		zap.Duration("duration", time.Since(start)))

	if registry != nil {
		return writeMetrics(stderr, registry)
	}
	return nil
}

func evalPayload(ctx context.Context, ev *evaluator.Evaluator, cfg *config.Config, payload []byte, log *zap.Logger) ([]byte, error) {
	comp, err := cfg.Codec.CompressionConfig()
	if err != nil {
		return nil, err
	}
	b, err := bridge.New(ev, bridge.Config{
		Format:      bridge.Format(cfg.Codec.Format),
		Compression: comp.Algorithm,
		Level:       comp.Level,
		ErrorColumn: cfg.Codec.ErrorColumn,
	}, log)
	if err != nil {
		return nil, err
	}
	return b.EvaluateAll(ctx, payload)
}

func evalCSV(ctx context.Context, ev *evaluator.Evaluator, cfg *config.Config, payload []byte) ([]byte, error) {
	compCfg, err := cfg.Codec.CompressionConfig()
	if err != nil {
		return nil, err
	}
	comp, err := compression.NewCompressor(compCfg)
	if err != nil {
		return nil, err
	}
	sep, err := cfg.Codec.Separator()
	if err != nil {
		return nil, err
	}
	csvOpts := codec.CSVOptions{Separator: sep, ErrorColumn: cfg.Codec.ErrorColumn}

	raw, err := comp.Decompress(payload)
	if err != nil {
		return nil, err
	}
	in, err := codec.ReadCSV(bytes.NewReader(raw), csvOpts)
	if err != nil {
		return nil, err
	}

	out, err := ev.EvaluateAll(ctx, in)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := codec.WriteCSV(&buf, out, csvOpts); err != nil {
		return nil, err
	}
	return comp.Compress(buf.Bytes())
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input").WithDetail("path", path)
	}
	return data, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write stdout")
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output").WithDetail("path", path)
	}
	return nil
}

func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to gather metrics")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "tabeval_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write metrics")
		}
	}
	return nil
}
