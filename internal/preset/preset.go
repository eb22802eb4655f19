// Package preset builds the text presets used to set many node parameters
// in a single engine call.
//
// A preset is a header, one row per parameter and a closing brace:
//
//	#PSI_PRESET
//	version 2.0a
//	opvalues
//	{
//	version 0.8
//	name	[ 0	locks=0 ]	(	"height"	)
//	}
package preset

import (
	"strconv"
	"strings"

	"github.com/hupe1980/geobridge/internal/conv"
)

const (
	header    = "#PSI_PRESET\nversion 2.0a\nopvalues\n{\nversion 0.8\n"
	rowMid    = "\t[ 0\tlocks=0 ]\t(\t"
	rowEnd    = "\t)\n"
	footer    = "}\n"
	valueSep  = "\t"
	quoteChar = `"`
)

// Builder accumulates preset rows. The zero value is ready to use.
type Builder struct {
	rows strings.Builder
	n    int
}

// Raw appends a row whose value is written verbatim.
func (b *Builder) Raw(name, value string) *Builder {
	b.rows.WriteString(name)
	b.rows.WriteString(rowMid)
	b.rows.WriteString(value)
	b.rows.WriteString(rowEnd)
	b.n++
	return b
}

// String appends a row with a quoted string value.
func (b *Builder) String(name, value string) *Builder {
	return b.Raw(name, quoteChar+value+quoteChar)
}

// Int appends a row with an integer value.
func (b *Builder) Int(name string, value int) *Builder {
	return b.Raw(name, strconv.Itoa(value))
}

// Floats appends a row with one or more float components.
func (b *Builder) Floats(name string, values ...float32) *Builder {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = conv.FormatFloat32(v)
	}
	return b.Raw(name, strings.Join(parts, valueSep))
}

// Rows returns the number of rows appended.
func (b *Builder) Rows() int { return b.n }

// Text returns the complete preset.
func (b *Builder) Text() string {
	return header + b.rows.String() + footer
}

// Bytes returns the complete preset as bytes.
func (b *Builder) Bytes() []byte { return []byte(b.Text()) }

// Row is one parsed preset row.
type Row struct {
	Name  string
	Value string
}

// Parse splits a preset back into rows. Values keep their quotes.
func Parse(text string) ([]Row, bool) {
	body, ok := strings.CutPrefix(text, header)
	if !ok {
		return nil, false
	}
	body, ok = strings.CutSuffix(body, footer)
	if !ok {
		return nil, false
	}

	var rows []Row
	for len(body) > 0 {
		line, rest, found := strings.Cut(body, rowEnd)
		if !found {
			return nil, false
		}
		name, value, found := strings.Cut(line, rowMid)
		if !found {
			return nil, false
		}
		rows = append(rows, Row{Name: name, Value: value})
		body = rest
	}
	return rows, true
}

// Unquote strips the quotes String added.
func Unquote(v string) string {
	return strings.TrimSuffix(strings.TrimPrefix(v, quoteChar), quoteChar)
}
