package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabeval/pkg/errors"
)

var payload = bytes.Repeat([]byte(`{"columns":["x"],"data":[[1,2,3]]}`), 200)

func TestCompressor_RoundTrip(t *testing.T) {
	for _, algorithm := range Algorithms {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			t.Run(string(algorithm)+"/"+level.String(), func(t *testing.T) {
				comp, err := NewCompressor(&Config{Algorithm: algorithm, Level: level})
				require.NoError(t, err)
				assert.Equal(t, algorithm, comp.Algorithm())
				assert.Equal(t, level, comp.Level())

				compressed, err := comp.Compress(payload)
				require.NoError(t, err)
				if algorithm != None {
					assert.Less(t, len(compressed), len(payload))
				}

				out, err := comp.Decompress(compressed)
				require.NoError(t, err)
				assert.Equal(t, payload, out)
			})
		}
	}
}

func TestCompressor_StreamRoundTrip(t *testing.T) {
	for _, algorithm := range Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: algorithm})
			require.NoError(t, err)

			var compressed bytes.Buffer
			require.NoError(t, comp.CompressStream(&compressed, bytes.NewReader(payload)))

			var out bytes.Buffer
			require.NoError(t, comp.DecompressStream(&out, &compressed))
			assert.Equal(t, payload, out.Bytes())
		})
	}
}

func TestCompressor_DecompressLimit(t *testing.T) {
	for _, algorithm := range []Algorithm{None, Gzip, LZ4, Snappy, S2, Deflate} {
		t.Run(string(algorithm), func(t *testing.T) {
			big, err := NewCompressor(&Config{Algorithm: algorithm})
			require.NoError(t, err)
			compressed, err := big.Compress(payload)
			require.NoError(t, err)

			small, err := NewCompressor(&Config{Algorithm: algorithm, MaxDecompressedSize: 100})
			require.NoError(t, err)
			_, err = small.Decompress(compressed)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
		})
	}
}

func TestCompressor_CorruptInput(t *testing.T) {
	for _, algorithm := range []Algorithm{Gzip, Snappy, S2, Zstd, LZ4} {
		comp, err := NewCompressor(&Config{Algorithm: algorithm})
		require.NoError(t, err)
		_, err = comp.Decompress([]byte("definitely not compressed"))
		assert.Error(t, err, string(algorithm))
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Snappy, comp.Algorithm())
	assert.Equal(t, Default, comp.Level())
}
