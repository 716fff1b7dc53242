package scan

import (
	"bytes"
	"strings"
	"testing"
)

func collectLines(t *testing.T, input string, opts Options) []Line {
	t.Helper()
	src, err := NewLineSource(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("NewLineSource: %v", err)
	}
	var lines []Line
	for src.Scan() {
		line := src.Line()
		// Content is only valid until the next Scan call, so copy it.
		line.Content = append([]byte(nil), line.Content...)
		lines = append(lines, line)
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	return lines
}

func lineTexts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, string(l.Content))
	}
	return out
}

func TestLineSource_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
		{
			name:     "single line no newline",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "single line with newline",
			input:    "hello\n",
			expected: []string{"hello"},
		},
		{
			name:     "multiple lines",
			input:    "line1\nline2\nline3",
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "multiple lines with trailing newline",
			input:    "line1\nline2\nline3\n",
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "CRLF endings",
			input:    "line1\r\nline2\r\nline3\r\n",
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "terminal line with bare CR",
			input:    "line1\nline2\r",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "empty lines",
			input:    "line1\n\nline3\n",
			expected: []string{"line1", "", "line3"},
		},
		{
			name:     "only newlines",
			input:    "\n\n\n",
			expected: []string{"", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := lineTexts(collectLines(t, tt.input, Options{}))

			if len(lines) != len(tt.expected) {
				t.Errorf("expected %d lines, got %d: %v", len(tt.expected), len(lines), lines)
				return
			}

			for i, line := range lines {
				if line != tt.expected[i] {
					t.Errorf("line %d: expected %q, got %q", i+1, tt.expected[i], line)
				}
			}
		})
	}
}

func TestLineSource_LineNumbersAndOffsets(t *testing.T) {
	lines := collectLines(t, "abc\ndefgh\ni", Options{})

	expected := []struct {
		number int
		offset int64
		text   string
	}{
		{1, 0, "abc"},
		{2, 4, "defgh"},
		{3, 10, "i"},
	}

	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, want := range expected {
		got := lines[i]
		if got.Number != want.number {
			t.Errorf("line %d: expected number %d, got %d", i+1, want.number, got.Number)
		}
		if got.Offset != want.offset {
			t.Errorf("line %d: expected offset %d, got %d", i+1, want.offset, got.Offset)
		}
		if string(got.Content) != want.text {
			t.Errorf("line %d: expected text %q, got %q", i+1, want.text, got.Content)
		}
	}
}

func TestLineSource_OffsetsWithCRLF(t *testing.T) {
	lines := collectLines(t, "a\r\nb\r\n", Options{})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Offset != 0 || lines[1].Offset != 3 {
		t.Errorf("expected offsets 0 and 3, got %d and %d", lines[0].Offset, lines[1].Offset)
	}
}

func TestLineSource_MultiByteDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		delim    string
		expected []string
	}{
		{
			name:     "three byte delimiter",
			input:    "aENDbENDc",
			delim:    "END",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "trailing delimiter",
			input:    "aENDbEND",
			delim:    "END",
			expected: []string{"a", "b"},
		},
		{
			name:     "delimiter prefix inside content",
			input:    "ENable me ENDok",
			delim:    "END",
			expected: []string{"ENable me ", "ok"},
		},
		{
			name:     "empty segments",
			input:    "ENDEND",
			delim:    "END",
			expected: []string{"", ""},
		},
		{
			name:     "paragraph delimiter strips preceding CR",
			input:    "a\r\n\nb",
			delim:    "\n\n",
			expected: []string{"a", "b"},
		},
		{
			name:     "tab delimiter leaves CR alone",
			input:    "a\r\tb",
			delim:    "\t",
			expected: []string{"a\r", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := lineTexts(collectLines(t, tt.input, Options{Delimiter: []byte(tt.delim)}))
			if len(lines) != len(tt.expected) {
				t.Fatalf("expected %d lines, got %d: %v", len(tt.expected), len(lines), lines)
			}
			for i, line := range lines {
				if line != tt.expected[i] {
					t.Errorf("line %d: expected %q, got %q", i+1, tt.expected[i], line)
				}
			}
		})
	}
}

func TestLineSource_NullDataDelimiter(t *testing.T) {
	lines := lineTexts(collectLines(t, "one\x00two\x00", Options{Delimiter: []byte{0}}))
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("unexpected lines: %q", lines)
	}
}

func TestLineSource_Overflow(t *testing.T) {
	// A 200000 byte line with the delimiter only at the very end comes back
	// once, truncated to the cap, with the overflow flag set.
	input := strings.Repeat("x", 200000) + "\n" + "tail\n"
	lines := collectLines(t, input, Options{MaxLineBytes: 131072})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0].Content) != 131072 {
		t.Errorf("expected truncated content of 131072 bytes, got %d", len(lines[0].Content))
	}
	if !lines[0].Overflow {
		t.Errorf("expected overflow flag on truncated line")
	}
	if lines[1].Overflow || string(lines[1].Content) != "tail" {
		t.Errorf("second line should be unaffected, got %q overflow=%v", lines[1].Content, lines[1].Overflow)
	}
}

func TestLineSource_OverflowScanContinues(t *testing.T) {
	// Line numbers must stay correct even when content past the cap is
	// discarded while the delimiter is still being hunted.
	input := strings.Repeat("a", 50) + "\nshort\n"
	lines := collectLines(t, input, Options{MaxLineBytes: 8})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if string(lines[0].Content) != strings.Repeat("a", 8) || !lines[0].Overflow {
		t.Errorf("expected 8 byte truncated overflow line, got %q overflow=%v", lines[0].Content, lines[0].Overflow)
	}
	if lines[1].Number != 2 || string(lines[1].Content) != "short" {
		t.Errorf("expected line 2 %q, got line %d %q", "short", lines[1].Number, lines[1].Content)
	}
}

func TestLineSource_TerminalTruncationIsNotOverflow(t *testing.T) {
	// Truncation of the final delimiter-less line cannot be told apart from
	// the stream just ending, so no overflow is recorded.
	input := strings.Repeat("y", 100)
	lines := collectLines(t, input, Options{MaxLineBytes: 10})

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if len(lines[0].Content) != 10 {
		t.Errorf("expected 10 retained bytes, got %d", len(lines[0].Content))
	}
	if lines[0].Overflow {
		t.Errorf("terminal delimiter-less line must not record overflow")
	}
}

func TestLineSource_DelimiterStraddlingCap(t *testing.T) {
	// The first delimiter byte lands inside the retained region. Content
	// must not include it and the line itself did not overflow.
	lines := collectLines(t, "xyzwab", Options{Delimiter: []byte("ab"), MaxLineBytes: 5})

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if string(lines[0].Content) != "xyzw" {
		t.Errorf("expected content %q, got %q", "xyzw", lines[0].Content)
	}
	if lines[0].Overflow {
		t.Errorf("content under the cap must not record overflow")
	}
}

func TestLineSource_BinaryDetection(t *testing.T) {
	input := "plain text\n" + string([]byte{0xff, 0xfe, 0x01}) + "\nmore text\n"
	lines := collectLines(t, input, Options{})

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Binary || lines[2].Binary {
		t.Errorf("text lines must not be marked binary")
	}
	if !lines[1].Binary {
		t.Errorf("undecodable line must be marked binary")
	}
	if !bytes.Equal(lines[1].Content, []byte{0xff, 0xfe, 0x01}) {
		t.Errorf("binary line must retain raw bytes, got %v", lines[1].Content)
	}
}

func TestLineSource_Transcoding(t *testing.T) {
	// "hi\nyo" in UTF-16LE.
	input := string([]byte{'h', 0, 'i', 0, '\n', 0, 'y', 0, 'o', 0})
	lines := lineTexts(collectLines(t, input, Options{Encoding: "utf-16le"}))

	if len(lines) != 2 || lines[0] != "hi" || lines[1] != "yo" {
		t.Errorf("unexpected transcoded lines: %q", lines)
	}
}

func TestLineSource_UnknownEncoding(t *testing.T) {
	_, err := NewLineSource(strings.NewReader("x"), Options{Encoding: "utf-99"})
	if err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
}

func TestCheckEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "utf-16le", "latin1", "shift_jis"} {
		if err := CheckEncoding(name); err != nil {
			t.Errorf("CheckEncoding(%q) = %v, want nil", name, err)
		}
	}
	if err := CheckEncoding("utf-99"); err == nil {
		t.Errorf("CheckEncoding must reject an unknown name")
	}
}
