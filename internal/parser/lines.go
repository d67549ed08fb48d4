package parser

import "bytes"

// Line is one physical line of a document. Start and End delimit the line
// excluding its '\n'; Text additionally has a trailing '\r' removed.
type Line struct {
	Start  int64
	End    int64
	Number int
	Text   string
}

// LineScanner splits a buffer into lines while keeping byte offsets.
type LineScanner struct {
	buf    []byte
	pos    int
	number int
	line   Line
}

// NewLineScanner returns a scanner over buf.
func NewLineScanner(buf []byte) *LineScanner {
	return &LineScanner{buf: buf}
}

// Scan advances to the next line, returning false at end of input.
// Blank lines are returned too; callers decide whether to skip them.
func (s *LineScanner) Scan() bool {
	if s.pos >= len(s.buf) {
		return false
	}
	start := s.pos
	end := len(s.buf)
	if i := bytes.IndexByte(s.buf[start:], '\n'); i >= 0 {
		end = start + i
	}
	text := s.buf[start:end]
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	s.number++
	s.line = Line{
		Start:  int64(start),
		End:    int64(end),
		Number: s.number,
		Text:   string(text),
	}
	s.pos = end + 1
	return true
}

// Line returns the line produced by the last call to Scan.
func (s *LineScanner) Line() Line {
	return s.line
}

// Offset is the number of bytes consumed so far.
func (s *LineScanner) Offset() int64 {
	if s.pos > len(s.buf) {
		return int64(len(s.buf))
	}
	return int64(s.pos)
}
