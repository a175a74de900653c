// Package json provides high-performance JSON serialization with pooled buffers
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/tabeval/pkg/pool"
)

// Number is a JSON number literal kept as text. Decoders in this package
// produce it for every number so integers survive without float rounding.
type Number = gojson.Number

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	return pool.GetBuffer()
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	pool.PutBuffer(buf)
}

// NewEncoder creates an encoder configured for data payloads
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// NewDecoder creates a decoder that keeps numbers as Number
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent is a high-performance replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v, keeping numbers as Number
func Unmarshal(data []byte, v interface{}) error {
	return NewDecoder(bytes.NewReader(data)).Decode(v)
}

// MarshalToWriter marshals v directly to a writer
func MarshalToWriter(w io.Writer, v interface{}) error {
	return NewEncoder(w).Encode(v)
}

// MarshalToBuffer marshals v to a pooled buffer. The caller returns the
// buffer with PutBuffer.
func MarshalToBuffer(v interface{}) (*bytes.Buffer, error) {
	buf := GetBuffer()
	if err := NewEncoder(buf).Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}
	return buf, nil
}

// UnmarshalFromReader decodes one JSON value from r into v
func UnmarshalFromReader(r io.Reader, v interface{}) error {
	return NewDecoder(r).Decode(v)
}
