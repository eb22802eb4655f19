package attribute

import (
	"github.com/hupe1980/geobridge/buffer"
)

// Descriptor declares the record's block. prefix is prepended to the name.
//
// Numeric scalars are unique iff the backing values hold exactly one tuple.
// Text scalars are unique with one distinct value and indexed with two or
// more. Arrays of any kind are unique iff there is a single element; text
// arrays keep the pooled table layout either way.
func (r *Record) Descriptor(prefix string) Descriptor {
	d := Descriptor{
		Name:      prefix + r.name,
		Owner:     r.owner,
		Storage:   StorageOf(r.kind, r.array),
		TupleSize: r.tupleSize,
	}

	if r.array {
		d.SizeWords = len(r.counts)
	}

	switch v := r.values.(type) {
	case IntValues, FloatValues:
		d.SizeWords += v.Len()
		if r.array {
			d.Compression = arrayCompression(len(r.counts))
		} else if v.Len() == r.tupleSize {
			d.Compression = CompressionUniqueValue
		}
	case *StringTable:
		words, c := textBlock(v)
		d.SizeWords += words
		d.Compression = c
		if r.array {
			d.Compression = arrayCompression(len(r.counts))
		}
	}
	return d
}

func arrayCompression(elements int) Compression {
	if elements == 1 {
		return CompressionUniqueValue
	}
	return CompressionNone
}

// textBlock sizes the string section of a text record.
func textBlock(t *StringTable) (int, Compression) {
	strWords := buffer.StringWords(t.Unique)
	switch len(t.Unique) {
	case 0:
		return strWords, CompressionNone
	case 1:
		return strWords, CompressionUniqueValue
	default:
		// [K][strings][one index per slot]
		return 1 + strWords + len(t.Indices), CompressionIndexed
	}
}

// SizeWords returns the payload size of the record in words.
func (r *Record) SizeWords() int { return r.Descriptor("").SizeWords }

// WriteTo writes the record block at the cursor and advances it. Array records
// write their cumulative counts first.
func (r *Record) WriteTo(c *buffer.Cursor) error {
	if r.array {
		if err := c.PutInt32s(r.counts); err != nil {
			return err
		}
	}
	switch v := r.values.(type) {
	case IntValues:
		return c.PutInt32s(v)
	case FloatValues:
		return c.PutFloat32s(v)
	case *StringTable:
		if len(v.Unique) < 2 {
			return c.PutStrings(v.Unique)
		}
		if err := c.PutInt32(int32(len(v.Unique))); err != nil {
			return err
		}
		if err := c.PutStrings(v.Unique); err != nil {
			return err
		}
		return c.PutInt32s(v.Indices)
	}
	return nil
}
