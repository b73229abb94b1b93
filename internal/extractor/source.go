package extractor

import "sort"

// source is VHDL text with comments and string literals blanked out. Byte
// offsets and line numbers are those of the original text.
type source struct {
	text     string
	newlines []int
}

func newSource(content []byte) *source {
	buf := make([]byte, len(content))
	copy(buf, content)

	var newlines []int
	inComment, inString := false, false
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c == '\n' {
			newlines = append(newlines, i)
			inComment, inString = false, false
			continue
		}
		switch {
		case inComment:
			buf[i] = ' '
		case inString:
			if c == '"' {
				inString = false
			}
			buf[i] = ' '
		case c == '-' && i+1 < len(buf) && buf[i+1] == '-':
			inComment = true
			buf[i] = ' '
		case c == '"':
			inString = true
			buf[i] = ' '
		}
	}
	return &source{text: string(buf), newlines: newlines}
}

// lineAt returns the 1-based line of a byte offset.
func (s *source) lineAt(offset int) int {
	return sort.SearchInts(s.newlines, offset) + 1
}

// firstNonSpace returns the offset of the first non-blank byte at or after
// from, bounded by to.
func (s *source) firstNonSpace(from, to int) int {
	for i := from; i < to; i++ {
		switch s.text[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return i
		}
	}
	return from
}

// matchParen returns the offset of the ')' closing the '(' at open, or -1.
func (s *source) matchParen(open int) int {
	depth := 0
	for i := open; i < len(s.text); i++ {
		switch s.text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits text[from:to] on commas outside parentheses and
// returns the [start, end) offsets of each part.
func (s *source) splitTopLevel(from, to int) [][2]int {
	var parts [][2]int
	depth, start := 0, from
	for i := from; i < to; i++ {
		switch s.text[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, [2]int{start, i})
				start = i + 1
			}
		}
	}
	return append(parts, [2]int{start, to})
}
