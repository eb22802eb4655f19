package buffer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringWords(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want int
	}{
		{"empty", nil, 1},
		{"single char", []string{"a"}, 1},
		{"three bytes", []string{"abc"}, 2},
		{"two values", []string{"floor", "wall"}, 3},
		{"empty strings", []string{"", "", "", ""}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringWords(tt.in))
		})
	}
}

func TestAlignWords(t *testing.T) {
	assert.Equal(t, 1024, AlignWords(17, 1024))
	assert.Equal(t, 1024, AlignWords(1024, 1024))
	assert.Equal(t, 2048, AlignWords(1025, 1024))
	assert.Equal(t, 0, AlignWords(0, 1024))
	assert.Equal(t, 7, AlignWords(7, 1))
}

func TestWordsForBytes(t *testing.T) {
	assert.Equal(t, 0, WordsForBytes(0))
	assert.Equal(t, 1, WordsForBytes(1))
	assert.Equal(t, 1, WordsForBytes(4))
	assert.Equal(t, 2, WordsForBytes(5))
	assert.Equal(t, 32768, WordsForBytes(256*256*2))
}

func TestCursor_Writes(t *testing.T) {
	buf := make([]byte, 8*WordSize)
	for i := range buf {
		buf[i] = 0xff
	}
	c := NewCursor(buf)

	require.NoError(t, c.PutInt32(-1))
	require.NoError(t, c.PutInt32s([]int32{7, 8}))
	require.NoError(t, c.PutFloat32s([]float32{1.5}))
	require.NoError(t, c.Expect(4))
	require.NoError(t, c.PutStrings([]string{"ab", "c"}))
	assert.Equal(t, 6, c.WordOffset())
	require.NoError(t, c.Skip(1))
	assert.Equal(t, WordSize, c.Remaining())

	assert.Equal(t, uint32(math.MaxUint32), binary.NativeEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(7), binary.NativeEndian.Uint32(buf[4:]))
	assert.Equal(t, uint32(8), binary.NativeEndian.Uint32(buf[8:]))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.NativeEndian.Uint32(buf[12:])))
	assert.Equal(t, []byte{'a', 'b', 0, 'c', 0, 0, 0, 0}, buf[16:24], "padding is zeroed")
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf[24:28], "skip leaves bytes untouched")
}

func TestCursor_Errors(t *testing.T) {
	c := NewCursor(make([]byte, 2*WordSize))

	err := c.Expect(1)
	assert.ErrorIs(t, err, ErrOffsetMismatch)

	err = c.PutInt32s([]int32{1, 2, 3})
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, c.Offset(), "a failed write does not move the cursor")

	require.NoError(t, c.PutInt32s([]int32{1, 2}))
	assert.ErrorIs(t, c.PutInt32(3), ErrOverflow)
	assert.ErrorIs(t, c.Skip(-1), ErrOverflow)
	assert.ErrorIs(t, c.PutStrings(nil), ErrOverflow)
}
