package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// WordSize is the size of one buffer word in bytes. All sizes exchanged with the
// engine are expressed in 32-bit words.
const WordSize = 4

var (
	// ErrOverflow is returned when a write would run past the end of the buffer.
	ErrOverflow = errors.New("buffer: write exceeds allocation")

	// ErrOffsetMismatch is returned by Expect when the cursor is not where the
	// plan says it should be.
	ErrOffsetMismatch = errors.New("buffer: cursor offset mismatch")
)

// Cursor is a forward-only write position over a word-addressed buffer.
//
// Values are written in native byte order since producer and consumer share
// the same machine.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current position in bytes.
func (c *Cursor) Offset() int { return c.off }

// WordOffset returns the current position in words.
func (c *Cursor) WordOffset() int { return c.off / WordSize }

// Len returns the size of the underlying buffer in bytes.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of bytes left after the cursor.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Expect checks that the cursor sits exactly at the given word offset.
func (c *Cursor) Expect(words int) error {
	if c.off != words*WordSize {
		return fmt.Errorf("%w: at word %d, expected %d", ErrOffsetMismatch, c.WordOffset(), words)
	}
	return nil
}

func (c *Cursor) reserve(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.off {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOverflow, n, c.off, len(c.buf)-c.off)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// PutInt32 writes a single word.
func (c *Cursor) PutInt32(v int32) error {
	b, err := c.reserve(WordSize)
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(b, uint32(v))
	return nil
}

// PutInt32s writes vs verbatim.
func (c *Cursor) PutInt32s(vs []int32) error {
	b, err := c.reserve(len(vs) * WordSize)
	if err != nil {
		return err
	}
	for i, v := range vs {
		binary.NativeEndian.PutUint32(b[i*WordSize:], uint32(v))
	}
	return nil
}

// PutFloat32s writes vs verbatim.
func (c *Cursor) PutFloat32s(vs []float32) error {
	b, err := c.reserve(len(vs) * WordSize)
	if err != nil {
		return err
	}
	for i, v := range vs {
		binary.NativeEndian.PutUint32(b[i*WordSize:], math.Float32bits(v))
	}
	return nil
}

// PutStrings writes every string followed by a NUL byte, then pads to
// StringWords(vs) words. The padding is zeroed.
func (c *Cursor) PutStrings(vs []string) error {
	b, err := c.reserve(StringWords(vs) * WordSize)
	if err != nil {
		return err
	}
	n := 0
	for _, s := range vs {
		n += copy(b[n:], s)
		b[n] = 0
		n++
	}
	clear(b[n:])
	return nil
}

// Skip advances the cursor by words without touching the bytes.
func (c *Cursor) Skip(words int) error {
	_, err := c.reserve(words * WordSize)
	return err
}

// StringWords returns the number of words taken by vs once written with
// PutStrings: the NUL-terminated byte length divided by four, plus one.
func StringWords(vs []string) int {
	n := 0
	for _, s := range vs {
		n += len(s) + 1
	}
	return n/WordSize + 1
}

// AlignWords rounds words up to a multiple of align.
func AlignWords(words, align int) int {
	if align <= 1 {
		return words
	}
	if r := words % align; r != 0 {
		return words + align - r
	}
	return words
}

// WordsForBytes returns the number of words needed to hold n bytes.
func WordsForBytes(n int) int {
	return (n + WordSize - 1) / WordSize
}
