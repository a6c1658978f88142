package sourcetable

import "strings"

// quotedDelimiter is the escape sequence that marks a ';' as field content
// rather than a field boundary (§4.3).
const quotedDelimiter = `";"`

// FieldIterator yields successive ';'-separated fields from one sourcetable
// line, treating the literal three-byte sequence `";"` as an escape rather
// than a field boundary. It keeps its own cursor: each call to Next returns the
// next field and advances the cursor, mirroring the C original's
// pointer-resuming style without mutating a shared buffer.
type FieldIterator struct {
	line string
	pos  int
	done bool
}

// NewFieldIterator starts an iterator over line (the "STR;..." payload with
// its leading prefix already stripped).
func NewFieldIterator(line string) *FieldIterator {
	return &FieldIterator{line: line}
}

// Next returns the next field and true, or "" and false once the line is
// exhausted.
func (it *FieldIterator) Next() (string, bool) {
	if it.done {
		return "", false
	}

	s := it.line[it.pos:]

	// Skip over every quoted-delimiter escape before searching for a real
	// field boundary.
	scan := s
	skip := 0
	for {
		idx := strings.Index(scan, quotedDelimiter)
		if idx < 0 {
			break
		}
		skip += idx + len(quotedDelimiter)
		scan = s[skip:]
	}

	if rel := strings.IndexByte(s[skip:], ';'); rel >= 0 {
		field := s[:skip+rel]
		it.pos += skip + rel + 1
		return field, true
	}

	it.done = true
	return s, true
}
