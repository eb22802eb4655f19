//go:build windows

package shm

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

func defaultDir() string { return "" }

// osSegment is a named mapping backed by the paging file.
type osSegment struct {
	h    windows.Handle
	size int
}

// osOpen creates the named mapping. When a mapping with that name already
// exists, CreateFileMapping hands back a handle to it together with
// ERROR_ALREADY_EXISTS. A created mapping is zero-filled.
func osOpen(_ string, key string, size int) (*osSegment, bool, error) {
	name, err := windows.UTF16PtrFromString(key)
	if err != nil {
		return nil, false, err
	}

	hi := uint32(uint64(size) >> 32)
	lo := uint32(uint64(size))
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, hi, lo, name)
	if h == 0 {
		return nil, false, err
	}
	found := errors.Is(err, windows.ERROR_ALREADY_EXISTS)
	if err != nil && !found {
		_ = windows.CloseHandle(h)
		return nil, false, err
	}

	return &osSegment{h: h, size: size}, found, nil
}

func (s *osSegment) mapView() ([]byte, func([]byte) error, error) {
	addr, err := windows.MapViewOfFile(s.h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(s.size))
	if err != nil {
		return nil, nil, err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), s.size)
	return data, func([]byte) error {
		return windows.UnmapViewOfFile(addr)
	}, nil
}

func (s *osSegment) destroy() error {
	return windows.CloseHandle(s.h)
}
