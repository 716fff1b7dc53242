package scan

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/halfspin/grepline/internal/debug"
)

// DefaultMaxLineBytes caps how much of a single line is retained while the
// delimiter has not been seen yet. Scanning continues past the cap so the
// delimiter is still found; the overflowing remainder is discarded.
const DefaultMaxLineBytes = 128 * 1024

// Line is one delimited line produced by a LineSource.
//
// Content never includes the delimiter. Binary marks content that failed
// UTF-8 validation; such lines are still matched byte-wise, only their
// textual rendering is suppressed downstream. Overflow marks a line whose
// content exceeded the retention cap before its delimiter was found.
type Line struct {
	Content  []byte
	Number   int   // 1-based within the source
	Offset   int64 // byte offset of the line start
	Binary   bool
	Overflow bool
}

// Options configures a LineSource.
type Options struct {
	// Delimiter is the exact byte sequence ending a line. Empty means "\n".
	Delimiter []byte
	// MaxLineBytes caps retained content per line. Zero or negative means
	// DefaultMaxLineBytes.
	MaxLineBytes int
	// Encoding optionally names a source character encoding (IANA name).
	// Content is transcoded to UTF-8 before line splitting.
	Encoding string
}

// LineSource turns a raw byte stream into a sequence of delimited lines.
//
// Usage:
//
//	src, err := NewLineSource(r, scan.Options{})
//	for src.Scan() {
//	    line := src.Line() // valid until the next Scan call
//	}
//	if err := src.Err(); err != nil { ... }
type LineSource struct {
	r       *bufio.Reader
	delim   []byte
	max     int
	stripCR bool // delimiter begins with \n, so CRLF is normalized

	buf     []byte // retained content for the current line
	window  []byte // rolling suffix compared against the delimiter
	cur     Line
	lineNum int
	offset  int64
	done    bool
	readErr error
}

// NewLineSource creates a line source over r. The reader is wrapped in a
// buffered reader; decisions are still made one byte at a time so arbitrary
// multi-byte delimiters work without lookahead.
func NewLineSource(r io.Reader, opts Options) (*LineSource, error) {
	delim := opts.Delimiter
	if len(delim) == 0 {
		delim = []byte{'\n'}
	}
	max := opts.MaxLineBytes
	if max <= 0 {
		max = DefaultMaxLineBytes
	}

	if opts.Encoding != "" {
		decoded, err := decodeReader(r, opts.Encoding)
		if err != nil {
			return nil, err
		}
		r = decoded
	}

	debug.LogScan("line source: delimiter %q cap %d encoding %q\n", delim, max, opts.Encoding)

	return &LineSource{
		r:       bufio.NewReaderSize(r, 64*1024),
		delim:   delim,
		max:     max,
		stripCR: delim[0] == '\n',
		window:  make([]byte, 0, len(delim)),
	}, nil
}

// Scan advances to the next line. Returns false at end of stream or after a
// read failure; Err reports the failure if any.
func (s *LineSource) Scan() bool {
	if s.done {
		return false
	}

	d := len(s.delim)
	s.buf = s.buf[:0]
	s.window = s.window[:0]
	start := s.offset
	total := 0 // logical bytes consumed for this line, delimiter included

	for {
		b, err := s.r.ReadByte()
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.readErr = err
			}
			if total == 0 {
				return false
			}
			// Terminal delimiter-less line. Truncation here is
			// indistinguishable from the stream simply ending, so
			// no overflow is recorded.
			s.setLine(start, total, false)
			return true
		}
		s.offset++
		total++

		if len(s.buf) < s.max {
			s.buf = append(s.buf, b)
		}

		if len(s.window) < d {
			s.window = append(s.window, b)
		} else {
			copy(s.window, s.window[1:])
			s.window[d-1] = b
		}

		if len(s.window) == d && bytes.Equal(s.window, s.delim) {
			contentLen := total - d
			s.setLine(start, contentLen, contentLen > s.max)
			return true
		}
	}
}

// Line returns the current line. Content is a view into an internal buffer
// and is valid until the next Scan call.
func (s *LineSource) Line() Line {
	return s.cur
}

// Err returns the first read error other than io.EOF.
func (s *LineSource) Err() error {
	return s.readErr
}

// setLine finalizes the current line. contentLen is the logical length of
// the line without its delimiter; retained content is capped at max.
func (s *LineSource) setLine(start int64, contentLen int, overflow bool) {
	retained := contentLen
	if retained > s.max {
		retained = s.max
	}
	content := s.buf[:retained]

	// One \r immediately before the delimiter is stripped as well. Never
	// strip from truncated content: its last retained byte is interior.
	if s.stripCR && retained == contentLen && retained > 0 && content[retained-1] == '\r' {
		content = content[:retained-1]
	}

	s.lineNum++
	s.cur = Line{
		Content:  content,
		Number:   s.lineNum,
		Offset:   start,
		Binary:   !utf8.Valid(content),
		Overflow: overflow,
	}
}
