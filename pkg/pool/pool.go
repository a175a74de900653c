// Package pool provides typed object pooling for the encode and compress
// paths, where every payload needs a scratch buffer.
//
// Example usage:
//
//	buf := pool.GetBuffer()
//	defer pool.PutBuffer(buf)
//
//	gzipWriters := pool.New(
//	    func() *gzip.Writer { return gzip.NewWriter(nil) },
//	    nil,
//	)
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Pool is a type-safe wrapper around sync.Pool that tracks allocation
// statistics. It is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	keep  func(T) bool
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a pool. reset, when non-nil, is called on every object
// returned through Put.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// WithKeep sets a predicate deciding whether a returned object is worth
// pooling. Objects it rejects are left to the garbage collector.
func (p *Pool[T]) WithKeep(keep func(T) bool) *Pool[T] {
	p.keep = keep
	return p
}

// Get retrieves an object from the pool, allocating one when it is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool.
func (p *Pool[T]) Put(obj T) {
	atomic.AddInt64(&p.stats.inUse, -1)
	if p.keep != nil && !p.keep(obj) {
		return
	}
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Stats returns the number of objects the pool allocated, currently
// checked out, and requested in total. gets-allocated approximates reuse.
func (p *Pool[T]) Stats() (allocated, inUse, gets int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.gets)
}

// MaxBufferCap is the largest buffer capacity kept by the buffer pool.
const MaxBufferCap = 1 << 20

var buffers = New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
).WithKeep(func(b *bytes.Buffer) bool { return b.Cap() <= MaxBufferCap })

// GetBuffer returns an empty buffer from the shared buffer pool.
func GetBuffer() *bytes.Buffer {
	return buffers.Get()
}

// PutBuffer returns a buffer to the shared pool. Buffers that grew beyond
// MaxBufferCap are dropped.
func PutBuffer(b *bytes.Buffer) {
	buffers.Put(b)
}

// CopyBytes returns a copy of b's contents, for results that outlive the
// pooled buffer.
func CopyBytes(b *bytes.Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
