//go:build unix

package shm

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sys/unix"
)

const linuxShmDir = "/dev/shm"

func defaultDir() string {
	if runtime.GOOS == "linux" {
		if fi, err := os.Stat(linuxShmDir); err == nil && fi.IsDir() {
			return linuxShmDir
		}
	}
	return os.TempDir()
}

// osSegment is a file-backed segment in a memory filesystem.
type osSegment struct {
	f    *os.File
	path string
	size int
}

// osOpen creates the named segment, or opens it when it already exists in
// the namespace. A created segment is zero-filled by the kernel.
func osOpen(dir, key string, size int) (*osSegment, bool, error) {
	if dir == "" {
		dir = defaultDir()
	}
	path := filepath.Join(dir, key)

	found := false
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		found = true
		f, err = os.OpenFile(path, os.O_RDWR, 0)
	}
	if err != nil {
		return nil, false, err
	}

	if found {
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, false, err
		}
		if fi.Size() != int64(size) {
			_ = f.Close()
			return nil, true, errSizeMismatch
		}
	} else if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, false, err
	}

	return &osSegment{f: f, path: path, size: size}, found, nil
}

func (s *osSegment) mapView() ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(s.f.Fd()), 0, s.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func (s *osSegment) destroy() error {
	return errors.Join(s.f.Close(), os.Remove(s.path))
}
