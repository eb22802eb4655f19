package attribute

import (
	"strconv"
	"strings"

	"github.com/hupe1980/geobridge/internal/conv"
)

// Float returns element i as floats. Ints are cast, text is parsed (zero on
// failure). Out-of-range indices return nil.
func (r *Record) Float(i int) []float32 {
	start, end, ok := r.span(i)
	if !ok {
		return nil
	}
	out := make([]float32, 0, end-start)
	switch v := r.values.(type) {
	case IntValues:
		for _, x := range v[start:end] {
			out = append(out, float32(x))
		}
	case FloatValues:
		out = append(out, v[start:end]...)
	case *StringTable:
		for j := start; j < end; j++ {
			out = append(out, parseFloat(v.At(j)))
		}
	}
	return out
}

// Int returns element i as ints. Floats are truncated toward zero, text is
// parsed (zero on failure).
func (r *Record) Int(i int) []int32 {
	start, end, ok := r.span(i)
	if !ok {
		return nil
	}
	out := make([]int32, 0, end-start)
	switch v := r.values.(type) {
	case IntValues:
		out = append(out, v[start:end]...)
	case FloatValues:
		for _, x := range v[start:end] {
			out = append(out, int32(x))
		}
	case *StringTable:
		for j := start; j < end; j++ {
			out = append(out, parseInt(v.At(j)))
		}
	}
	return out
}

// String returns element i as text.
func (r *Record) String(i int) []string {
	start, end, ok := r.span(i)
	if !ok {
		return nil
	}
	out := make([]string, 0, end-start)
	switch v := r.values.(type) {
	case IntValues:
		for _, x := range v[start:end] {
			out = append(out, strconv.FormatInt(int64(x), 10))
		}
	case FloatValues:
		for _, x := range v[start:end] {
			out = append(out, conv.FormatFloat32(x))
		}
	case *StringTable:
		for j := start; j < end; j++ {
			out = append(out, v.At(j))
		}
	}
	return out
}

func parseFloat(s string) float32 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0
	}
	return float32(f)
}

func parseInt(s string) int32 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(n)
	}
	// "3.7" parses as 3, like a C atoi would stop at the dot.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int32(f)
	}
	return 0
}
