// Package logger provides structured logging for tabeval
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	mu           sync.Mutex
)

// contextKey is the type for context keys
type contextKey string

const (
	// BatchIDKey is the context key for the batch id of an evaluation call
	BatchIDKey contextKey = "batch_id"
	// EvaluatorKey is the context key for the evaluator name
	EvaluatorKey contextKey = "evaluator"
)

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // json or console
	OutputPaths []string
}

// Init initializes the global logger. Calling Init again replaces it.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	globalLogger = l
	return nil
}

// New creates a new zap logger
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "json"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// stdout usually carries the evaluated table, so logs go to stderr
	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Development {
		logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return logger, nil
}

// Get returns the global logger
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		// Create a default logger if not initialized
		logger, err := New(Config{Level: "info", Encoding: "json"})
		if err != nil {
			// Fallback to basic logger
			logger, _ = zap.NewProduction()
		}
		globalLogger = logger
	}
	return globalLogger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// WithBatchID returns a context carrying the batch id.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// WithEvaluator returns a context carrying the evaluator name.
func WithEvaluator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, EvaluatorKey, name)
}

// WithContext returns l with fields taken from the context values
func WithContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = Get()
	}

	if batchID, ok := ctx.Value(BatchIDKey).(string); ok {
		l = l.With(zap.String("batch_id", batchID))
	}

	if evaluator, ok := ctx.Value(EvaluatorKey).(string); ok {
		l = l.With(zap.String("evaluator", evaluator))
	}

	return l
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
