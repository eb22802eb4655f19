package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	magic = "GBCP"
	// Version is the capture format version written by this package.
	Version uint16 = 1
	// HeaderSize is the size of the file header.
	HeaderSize = 4 + 2 + 1 + 1 + 16
)

var (
	// ErrBadHeader is returned when a file does not start with a capture header.
	ErrBadHeader = errors.New("capture: bad header")
	// ErrCorrupt is returned when a record fails to decode or its checksum differs.
	ErrCorrupt = errors.New("capture: corrupt record")
	// ErrClosed is returned when appending to a closed writer.
	ErrClosed = errors.New("capture: writer closed")
)

// Kind tells which commit produced a record.
type Kind string

const (
	KindGeometry      Kind = "geometry"
	KindVolume        Kind = "volume"
	KindVolumePartial Kind = "volume_partial"
)

// Meta describes one captured commit. Seq, Codec, Size and CRC are filled in
// by the writer.
type Meta struct {
	Seq   uint64    `json:"seq"`
	Kind  Kind      `json:"kind"`
	Key   string    `json:"key"`
	Node  int32     `json:"node"`
	Time  time.Time `json:"time"`
	Codec string    `json:"codec"`

	// Parm is the geometry descriptor JSON or the volume preset text.
	Parm   string    `json:"parm,omitempty"`
	Ints   []int32   `json:"ints,omitempty"`
	Floats []float32 `json:"floats,omitempty"`

	// Size and CRC describe the uncompressed payload (CRC32C).
	Size int    `json:"size"`
	CRC  uint32 `json:"crc"`
}

type header struct {
	version     uint16
	compression Compression
	session     uuid.UUID
}

func (h header) append(dst []byte) []byte {
	dst = append(dst, magic...)
	dst = binary.LittleEndian.AppendUint16(dst, h.version)
	dst = append(dst, byte(h.compression), 0)
	return append(dst, h.session[:]...)
}

func parseHeader(b []byte) (header, error) {
	if len(b) < HeaderSize || string(b[:4]) != magic {
		return header{}, ErrBadHeader
	}
	h := header{
		version:     binary.LittleEndian.Uint16(b[4:]),
		compression: Compression(b[6]),
	}
	if h.version != Version {
		return header{}, fmt.Errorf("%w: version %d", ErrBadHeader, h.version)
	}
	if h.compression > CompressionZSTD {
		return header{}, fmt.Errorf("%w: %s", ErrBadHeader, h.compression)
	}
	copy(h.session[:], b[8:HeaderSize])
	return h, nil
}
