// Package compression compresses evaluation payloads exchanged with the
// bridge. Every algorithm is available both in memory and as a stream.
//
// # Algorithm Selection
//
//   - Snappy/S2: fastest, moderate ratio
//   - LZ4: very fast, decent ratio
//   - Zstd: best ratio at good speed
//   - Gzip/Deflate: widest compatibility
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := comp.Compress(payload)
//	original, err := comp.Decompress(compressed)
package compression

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/pool"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents deflate compression
	Deflate Algorithm = "deflate"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

// ParseAlgorithm resolves a case-insensitive algorithm name. The empty
// string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return None, nil
	}
	a := Algorithm(strings.ToLower(name))
	for _, known := range Algorithms {
		if a == known {
			return a, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", name)
}

// Level represents compression level.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// String implements fmt.Stringer
func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	default:
		return "unknown"
	}
}

// DefaultMaxDecompressedSize bounds Decompress output unless configured.
const DefaultMaxDecompressedSize = 1 << 30

// Compressor provides compression and decompression functionality.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// CompressStream compresses from reader to writer.
	CompressStream(dst io.Writer, src io.Reader) error

	// DecompressStream decompresses from reader to writer.
	DecompressStream(dst io.Writer, src io.Reader) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
	// MaxDecompressedSize caps the output of Decompress; zero means
	// DefaultMaxDecompressedSize.
	MaxDecompressedSize int64
}

// DefaultConfig returns a snappy configuration.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Snappy,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Level == 0 {
		config.Level = Default
	}

	limit := config.MaxDecompressedSize
	if limit <= 0 {
		limit = DefaultMaxDecompressedSize
	}
	base := baseCompressor{algorithm: config.Algorithm, level: config.Level, limit: limit}

	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &noneCompressor{baseCompressor: base}, nil
	case Gzip:
		return newGzipCompressor(base), nil
	case Snappy:
		return &snappyCompressor{baseCompressor: base}, nil
	case LZ4:
		return &lz4Compressor{baseCompressor: base, compressionLevel: mapLZ4Level(config.Level)}, nil
	case Zstd:
		return newZstdCompressor(base)
	case S2:
		return &s2Compressor{baseCompressor: base}, nil
	case Deflate:
		return &deflateCompressor{baseCompressor: base, flateLevel: mapDeflateLevel(config.Level)}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// readAll drains r into a fresh slice, failing once more than limit bytes
// were produced.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	n, err := io.Copy(buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompression failed")
	}
	if n > limit {
		return nil, errors.Newf(errors.ErrorTypeData, "decompressed payload exceeds %d bytes", limit)
	}

	return pool.CopyBytes(buf), nil
}

// writeAll runs write against a pooled buffer and returns a copy.
func writeAll(write func(w io.Writer) error) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := write(buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "compression failed")
	}

	return pool.CopyBytes(buf), nil
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
	limit     int64
}

// Algorithm returns the compression algorithm
func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCompressor) Level() Level {
	return bc.level
}

type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	if int64(len(data)) > nc.limit {
		return nil, errors.Newf(errors.ErrorTypeData, "payload exceeds %d bytes", nc.limit)
	}
	return data, nil
}

func (nc *noneCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

func (nc *noneCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

type gzipCompressor struct {
	baseCompressor
	writers *pool.Pool[*gzip.Writer]
	readers *pool.Pool[*gzip.Reader]
}

func newGzipCompressor(base baseCompressor) *gzipCompressor {
	level := mapGzipLevel(base.level)
	return &gzipCompressor{
		baseCompressor: base,
		writers: pool.New(func() *gzip.Writer {
			w, _ := gzip.NewWriterLevel(nil, level)
			return w
		}, nil),
		readers: pool.New(func() *gzip.Reader { return new(gzip.Reader) }, nil),
	}
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	return writeAll(func(dst io.Writer) error {
		return gc.CompressStream(dst, bytes.NewReader(data))
	})
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r := gc.readers.Get()
	defer gc.readers.Put(r)

	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid gzip header")
	}
	return readAll(r, gc.limit)
}

func (gc *gzipCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := gc.writers.Get()
	defer gc.writers.Put(w)

	w.Reset(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (gc *gzipCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := gc.readers.Get()
	defer gc.readers.Put(r)

	if err := r.Reset(src); err != nil {
		return err
	}
	_, err := io.Copy(dst, r)
	return err
}

type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid snappy block")
	}
	if int64(n) > sc.limit {
		return nil, errors.Newf(errors.ErrorTypeData, "decompressed payload exceeds %d bytes", sc.limit)
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompression failed")
	}
	return out, nil
}

func (sc *snappyCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := snappy.NewBufferedWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *snappyCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, snappy.NewReader(src))
	return err
}

type lz4Compressor struct {
	baseCompressor
	compressionLevel lz4.CompressionLevel
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	return writeAll(func(dst io.Writer) error {
		return lc.CompressStream(dst, bytes.NewReader(data))
	})
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return readAll(lz4.NewReader(bytes.NewReader(data)), lc.limit)
}

func (lc *lz4Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (lc *lz4Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, lz4.NewReader(src))
	return err
}

type zstdCompressor struct {
	baseCompressor
	encoder *zstd.Encoder // EncodeAll is safe for concurrent use
	decoder *zstd.Decoder // DecodeAll is safe for concurrent use
	level   zstd.EncoderLevel
}

func newZstdCompressor(base baseCompressor) (*zstdCompressor, error) {
	level := mapZstdLevel(base.level)
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd encoder")
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(base.limit)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd decoder")
	}
	return &zstdCompressor{baseCompressor: base, encoder: enc, decoder: dec, level: level}, nil
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zc.encoder.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := zc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompression failed")
	}
	return out, nil
}

func (zc *zstdCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zc.level))
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (zc *zstdCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return err
	}
	defer dec.Close()

	_, err = io.Copy(dst, dec)
	return err
}

type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid s2 block")
	}
	if int64(n) > sc.limit {
		return nil, errors.Newf(errors.ErrorTypeData, "decompressed payload exceeds %d bytes", sc.limit)
	}
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompression failed")
	}
	return out, nil
}

func (sc *s2Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := s2.NewWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *s2Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, s2.NewReader(src))
	return err
}

type deflateCompressor struct {
	baseCompressor
	flateLevel int
}

func (dc *deflateCompressor) Compress(data []byte) ([]byte, error) {
	return writeAll(func(dst io.Writer) error {
		return dc.CompressStream(dst, bytes.NewReader(data))
	})
}

func (dc *deflateCompressor) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return readAll(r, dc.limit)
}

func (dc *deflateCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w, err := flate.NewWriter(dst, dc.flateLevel)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (dc *deflateCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := flate.NewReader(src)
	defer r.Close()

	_, err := io.Copy(dst, r)
	return err
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}
