package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/google/uuid"

	"github.com/hupe1980/geobridge/codec"
	"github.com/hupe1980/geobridge/internal/hash"
)

// Reader iterates the records of a capture stream.
type Reader struct {
	br     *bufio.Reader
	closer io.Closer
	h      header
}

// NewReader reads the header from r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	h, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	cr := &Reader{br: br, h: h}
	if c, ok := r.(io.Closer); ok {
		cr.closer = c
	}
	return cr, nil
}

// Open opens the capture file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Session returns the capture session id.
func (r *Reader) Session() uuid.UUID { return r.h.session }

// Compression returns the block compression of the file.
func (r *Reader) Compression() Compression { return r.h.compression }

// Next returns the next record. It returns io.EOF after the last one.
func (r *Reader) Next() (Meta, []byte, error) {
	var word [4]byte
	if _, err := io.ReadFull(r.br, word[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Meta{}, nil, io.EOF
		}
		return Meta{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	js := make([]byte, binary.LittleEndian.Uint32(word[:]))
	if _, err := io.ReadFull(r.br, js); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	var meta Meta
	if err := r.metaCodec().Unmarshal(js, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	if _, ok := codec.ByName(meta.Codec); !ok {
		return meta, nil, fmt.Errorf("%w: record %d has unknown codec %q", ErrCorrupt, meta.Seq, meta.Codec)
	}

	payload, err := r.readBlock()
	if err != nil {
		return meta, nil, fmt.Errorf("record %d: %w", meta.Seq, err)
	}
	if len(payload) != meta.Size || hash.CRC32C(payload) != meta.CRC {
		return meta, nil, fmt.Errorf("%w: record %d checksum mismatch", ErrCorrupt, meta.Seq)
	}
	return meta, payload, nil
}

// metaCodec decodes metadata. Every codec writes standard JSON, so the
// default one reads them all.
func (r *Reader) metaCodec() codec.Codec { return codec.Default }

func (r *Reader) readBlock() ([]byte, error) {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(r.br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", errShortBlock, err)
	}
	rawSize := binary.LittleEndian.Uint32(hdr[0:])
	packedSize := binary.LittleEndian.Uint32(hdr[4:])

	if packedSize == 0 {
		out := make([]byte, rawSize)
		if _, err := io.ReadFull(r.br, out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return out, nil
	}

	body := make([]byte, packedSize)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return decodeBlock(body, rawSize, r.h.compression)
}

// All yields every remaining record. Iteration stops after the first error.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			meta, payload, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(Record{Meta: meta, Payload: payload}, err) || err != nil {
				return
			}
		}
	}
}

// Record is one decoded capture record.
type Record struct {
	Meta    Meta
	Payload []byte
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
