// Package diffpath parses and formats the bracketed locator strings produced
// by the structural diff of two command metadata snapshots.
//
// A path is rooted at "root" and followed by a chain of bracketed keys:
//
//	root['sub_groups']['monitor']['commands']['monitor list']['parameters'][0]['options'][1]
//
// Quoted keys are mapping keys. Unquoted integer keys are list indices. The
// distinction is made on the quote markers of the raw text, so ['0'] is a
// mapping key named "0" while [0] is the first list element.
package diffpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Root is the conventional prefix of every diff path.
const Root = "root"

// Segment is one bracketed key of a diff path.
type Segment struct {
	// Key is the mapping key. Empty when IsIndex is set.
	Key string
	// Index is the list position. Only meaningful when IsIndex is set.
	Index int
	// IsIndex reports whether the segment addresses a list element.
	IsIndex bool
}

// KeySegment returns a mapping key segment.
func KeySegment(key string) Segment {
	return Segment{Key: key}
}

// IndexSegment returns a list index segment.
func IndexSegment(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// String returns the bare key or the decimal index.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Is reports whether the segment is the mapping key k.
func (s Segment) Is(k string) bool {
	return !s.IsIndex && s.Key == k
}

func (s Segment) format() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if strings.Contains(s.Key, "'") && !strings.Contains(s.Key, `"`) {
		return `["` + s.Key + `"]`
	}
	return "['" + strings.ReplaceAll(s.Key, "'", `\'`) + "']"
}

// Path is a parsed diff path.
type Path []Segment

// String renders the path back in the bracketed grammar.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString(Root)
	for _, s := range p {
		sb.WriteString(s.format())
	}
	return sb.String()
}

// Child returns a copy of p extended with s.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Strings returns the bare keys of the path.
func (p Path) Strings() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.String()
	}
	return out
}

// ParseError reports a path that does not follow the bracketed grammar.
type ParseError struct {
	Path   string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid diff path %q at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Parse parses a raw diff path. The leading "root" marker is optional but
// anything other than bracketed keys after it is rejected.
func Parse(raw string) (Path, error) {
	s := strings.TrimSpace(raw)
	pos := 0
	if strings.HasPrefix(s, Root) {
		pos = len(Root)
	}
	if pos >= len(s) || s[pos] != '[' {
		return nil, &ParseError{Path: raw, Offset: pos, Reason: "expected '['"}
	}

	var path Path
	for pos < len(s) {
		if s[pos] != '[' {
			return nil, &ParseError{Path: raw, Offset: pos, Reason: "expected '['"}
		}
		pos++
		if pos >= len(s) {
			return nil, &ParseError{Path: raw, Offset: pos, Reason: "unterminated segment"}
		}

		switch q := s[pos]; q {
		case '\'', '"':
			key, next, ok := scanQuoted(s, pos+1, q)
			if !ok {
				return nil, &ParseError{Path: raw, Offset: pos, Reason: "unterminated quoted key"}
			}
			pos = next
			path = append(path, KeySegment(key))
		default:
			end := strings.IndexByte(s[pos:], ']')
			if end < 0 {
				return nil, &ParseError{Path: raw, Offset: pos, Reason: "unterminated segment"}
			}
			n, err := strconv.Atoi(s[pos : pos+end])
			if err != nil || n < 0 {
				return nil, &ParseError{Path: raw, Offset: pos, Reason: "unquoted key is not a list index"}
			}
			pos += end
			path = append(path, IndexSegment(n))
		}

		if pos >= len(s) || s[pos] != ']' {
			return nil, &ParseError{Path: raw, Offset: pos, Reason: "expected ']'"}
		}
		pos++
	}

	return path, nil
}

// scanQuoted reads a quoted key starting after the opening quote. It returns
// the unescaped key and the offset of the closing quote plus one.
func scanQuoted(s string, pos int, quote byte) (string, int, bool) {
	var sb strings.Builder
	for pos < len(s) {
		c := s[pos]
		switch {
		case c == '\\' && pos+1 < len(s):
			sb.WriteByte(s[pos+1])
			pos += 2
		case c == quote:
			return sb.String(), pos + 1, true
		default:
			sb.WriteByte(c)
			pos++
		}
	}
	return "", pos, false
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
