package volume

import (
	"context"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/internal/f16"
	"github.com/hupe1980/geobridge/internal/resource"
)

// Sample is an element type a raster view can hold.
type Sample interface {
	~uint8 | ~uint16 | ~uint32 | ~int32 | ~int64 | ~float32
}

// SizeOf returns the byte size of T.
func SizeOf[T Sample]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// View reinterprets mapped bytes as a slice of T in native byte order.
// Trailing bytes that do not fill a whole element are not part of the view.
func View[T Sample](b []byte) []T {
	size := SizeOf[T]()
	if len(b) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size) //nolint:gosec // mapped segments are page aligned
}

// Region places a row-major source block (x fastest) inside a raster of
// SizeY host rows.
type Region struct {
	X0, Y0        int
	Width, Height int
	SizeY         int
}

// rowsPerTask keeps tasks coarse enough that scheduling stays cheap.
const rowsPerTask = 64

// WriteSwapped copies src into dst, transposing host rows into engine columns:
// src[y*Width+x] lands at dst[(x+X0)*SizeY + (y+Y0)].
//
// Rows are copied in parallel, bounded by the controller's worker slots. The
// call returns once every row is written.
func WriteSwapped[T Sample](ctx context.Context, ctrl *resource.Controller, dst, src []T, r Region) error {
	if err := r.check(len(dst), len(src)); err != nil {
		return err
	}
	if r.Width == 0 || r.Height == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ctrl.Workers(), 1))

	for start := 0; start < r.Height; start += rowsPerTask {
		end := min(start+rowsPerTask, r.Height)
		g.Go(func() error {
			if err := ctrl.AcquireWorker(gctx); err != nil {
				return err
			}
			defer ctrl.ReleaseWorker()

			for y := start; y < end; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row := src[y*r.Width : (y+1)*r.Width]
				col := y + r.Y0
				for x, v := range row {
					dst[(x+r.X0)*r.SizeY+col] = v
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (r Region) check(dstLen, srcLen int) error {
	if r.X0 < 0 || r.Y0 < 0 || r.Width < 0 || r.Height < 0 || r.SizeY < 1 {
		return core.Preconditionf("invalid raster region %+v", r)
	}
	if srcLen != r.Width*r.Height {
		return core.Preconditionf("source holds %d cells, region is %dx%d", srcLen, r.Width, r.Height)
	}
	if r.Y0+r.Height > r.SizeY || (r.X0+r.Width)*r.SizeY > dstLen {
		return core.Preconditionf("region %+v exceeds a raster of %d cells", r, dstLen)
	}
	return nil
}

// EncodeFloat16 writes src as half floats into dst.
func EncodeFloat16(dst []byte, src []float32) error {
	if len(dst) < len(src)*f16.Size {
		return core.Preconditionf("float16 buffer holds %d bytes, need %d", len(dst), len(src)*f16.Size)
	}
	f16.PutSlice(dst, src)
	return nil
}
