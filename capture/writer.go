package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/geobridge/codec"
	"github.com/hupe1980/geobridge/internal/hash"
	"github.com/hupe1980/geobridge/internal/resource"
)

// Options configures a capture writer.
type Options struct {
	// Compression applies to every payload block.
	Compression Compression
	// Codec encodes record metadata. Defaults to codec.Default.
	Codec codec.Codec
	// Controller throttles file writes. Nil means unlimited.
	Controller *resource.Controller
	// Session identifies the capture. Defaults to a random UUID.
	Session uuid.UUID
}

// Writer appends commit records to a capture stream. It is safe for
// concurrent use.
type Writer struct {
	mu      sync.Mutex
	bw      *bufio.Writer
	closer  io.Closer
	opts    Options
	seq     uint64
	scratch []byte
	closed  bool
}

// NewWriter writes the header to w and returns a writer appending to it.
// ctx bounds the rate limiter waits of every later write.
func NewWriter(ctx context.Context, w io.Writer, opts Options) (*Writer, error) {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Session == uuid.Nil {
		opts.Session = uuid.New()
	}
	if opts.Compression > CompressionZSTD {
		return nil, fmt.Errorf("capture: unknown %s", opts.Compression)
	}

	cw := &Writer{
		bw:   bufio.NewWriter(resource.NewRateLimitedWriter(ctx, w, opts.Controller)),
		opts: opts,
	}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}

	h := header{version: Version, compression: opts.Compression, session: opts.Session}
	if _, err := cw.bw.Write(h.append(nil)); err != nil {
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	return cw, nil
}

// Create creates (or truncates) the file at path and writes the header.
func Create(ctx context.Context, path string, opts Options) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(ctx, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// Session returns the capture session id.
func (w *Writer) Session() uuid.UUID { return w.opts.Session }

// Records returns the number of records appended.
func (w *Writer) Records() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Append writes one record. payload is the raw shared-memory content the
// commit referenced; it may be nil for partial updates.
func (w *Writer) Append(meta Meta, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	meta.Seq = w.seq
	meta.Codec = w.opts.Codec.Name()
	meta.Size = len(payload)
	meta.CRC = hash.CRC32C(payload)
	if meta.Time.IsZero() {
		meta.Time = time.Now().UTC()
	}

	buf, err := w.appendMeta(w.scratch[:0], meta)
	if err != nil {
		return fmt.Errorf("capture: encode meta: %w", err)
	}
	buf, err = appendBlock(buf, payload, w.opts.Compression)
	if err != nil {
		return fmt.Errorf("capture: compress record %d: %w", meta.Seq, err)
	}
	w.scratch = buf

	if _, err := w.bw.Write(buf); err != nil {
		return fmt.Errorf("capture: write record %d: %w", meta.Seq, err)
	}
	w.seq++
	return nil
}

type appender interface {
	Append(dst []byte, v any) ([]byte, error)
}

// appendMeta appends the length-prefixed metadata document to dst.
func (w *Writer) appendMeta(dst []byte, meta Meta) ([]byte, error) {
	start := len(dst)
	dst = binary.LittleEndian.AppendUint32(dst, 0)
	if a, ok := w.opts.Codec.(appender); ok {
		out, err := a.Append(dst, meta)
		if err != nil {
			return dst[:start], err
		}
		binary.LittleEndian.PutUint32(out[start:], uint32(len(out)-start-4))
		return out, nil
	}
	js, err := w.opts.Codec.Marshal(meta)
	if err != nil {
		return dst[:start], err
	}
	binary.LittleEndian.PutUint32(dst[start:], uint32(len(js)))
	return append(dst, js...), nil
}

// Flush writes buffered records through.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bw.Flush()
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
