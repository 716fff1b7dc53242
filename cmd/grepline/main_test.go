package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/halfspin/grepline/internal/version"
)

// runCLI parses args through the real app definition and executes the
// run against captured streams. HOME and GREP_COLORS are pinned so
// user configuration cannot leak into assertions.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GREP_COLORS", "")

	var out, errw bytes.Buffer
	app := newApp()
	app.Action = func(c *cli.Context) error {
		return execute(c, strings.NewReader(stdin), &out, &errw)
	}

	err := app.Run(normalizeArgs(append([]string{"grepline"}, args...)))
	return out.String(), errw.String(), err
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCLI_BasicMatch(t *testing.T) {
	out, errOut, err := runCLI(t, "foo\nbar\nfood\n", "foo")

	require.NoError(t, err)
	assert.Equal(t, "foo\nfood\n", out)
	assert.Empty(t, errOut)
}

func TestCLI_NoMatchStillSucceeds(t *testing.T) {
	out, _, err := runCLI(t, "bar\n", "foo")

	// Match presence never drives the exit status.
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCLI_NoPatternError(t *testing.T) {
	_, errOut, err := runCLI(t, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pattern")
	assert.Contains(t, errOut, "usage: grepline [OPTION]... [PATTERN] [FILE...]")
}

func TestCLI_FileOperands(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeTestFile(t, a, "foo a\nbar\n")
	writeTestFile(t, b, "foo b\n")

	out, _, err := runCLI(t, "", "-n", "foo", a, b)

	require.NoError(t, err)
	assert.Equal(t, a+":1: foo a\n"+b+":1: foo b\n", out)
}

func TestCLI_DashEPositionalBecomesOperand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	writeTestFile(t, path, "needle here\n")

	out, _, err := runCLI(t, "", "-e", "needle", path)

	require.NoError(t, err)
	assert.Equal(t, "needle here\n", out)
}

func TestCLI_PositionalPatternSplitsOnNewlines(t *testing.T) {
	out, _, err := runCLI(t, "alpha\nbeta\ngamma\n", "alpha\ngamma")

	require.NoError(t, err)
	assert.Equal(t, "alpha\ngamma\n", out)
}

func TestCLI_PatternFile(t *testing.T) {
	dir := t.TempDir()
	patFile := filepath.Join(dir, "patterns.txt")
	writeTestFile(t, patFile, "alpha\ngamma\n")

	out, _, err := runCLI(t, "alpha\nbeta\ngamma\n", "-f", patFile)

	require.NoError(t, err)
	assert.Equal(t, "alpha\ngamma\n", out)
}

func TestCLI_MissingPatternFile(t *testing.T) {
	_, _, err := runCLI(t, "", "-f", "/no/such/pattern/file")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "/no/such/pattern/file")
}

func TestCLI_ConflictingMatchers(t *testing.T) {
	_, _, err := runCLI(t, "", "-E", "-F", "pat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting matchers")
}

func TestCLI_BadPattern(t *testing.T) {
	_, _, err := runCLI(t, "", "-E", "a[b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid extended pattern")
}

func TestCLI_IgnoreCaseCancelled(t *testing.T) {
	out, _, err := runCLI(t, "foo\n", "-i", "--no-ignore-case", "FOO")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCLI_ShortOptionCombination(t *testing.T) {
	out, _, err := runCLI(t, "foo\nbar\n", "-vn", "foo")

	require.NoError(t, err)
	assert.Equal(t, "2: bar\n", out)
}

func TestCLI_ColorAlways(t *testing.T) {
	out, _, err := runCLI(t, "a foo b\n", "--color=always", "foo")

	require.NoError(t, err)
	assert.Equal(t, "a \x1b[01;31mfoo\x1b[m b\n", out)
}

func TestCLI_BareColorTakesNoValue(t *testing.T) {
	// A bare --color means auto and must leave the next argument alone.
	out, _, err := runCLI(t, "a foo b\n", "--color", "foo")

	require.NoError(t, err)
	assert.Equal(t, "a foo b\n", out)
	assert.NotContains(t, out, "\x1b")
}

func TestCLI_ColorAutoOffForNonTerminal(t *testing.T) {
	out, _, err := runCLI(t, "a foo b\n", "foo")

	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b")
}

func TestCLI_InvalidColorMode(t *testing.T) {
	_, _, err := runCLI(t, "", "--color=sometimes", "foo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")
}

func TestCLI_CountMode(t *testing.T) {
	out, _, err := runCLI(t, "foo\nbar\nfoo\n", "-c", "foo")

	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestCLI_OnlyMatching(t *testing.T) {
	out, _, err := runCLI(t, "xx foo yy\n", "-o", "foo")

	require.NoError(t, err)
	assert.Equal(t, "foo\n", out)
}

func TestCLI_JSONMode(t *testing.T) {
	out, _, err := runCLI(t, "say foo\n", "--json", "foo")

	require.NoError(t, err)
	assert.Contains(t, out, `"text":"say foo"`)
	assert.Contains(t, out, `"spans":[[4,7]]`)
}

func TestCLI_QuietMode(t *testing.T) {
	out, errOut, err := runCLI(t, "foo\n", "-q", "foo")

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, errOut)
}

func TestCLI_NullData(t *testing.T) {
	out, _, err := runCLI(t, "alpha\x00beta\x00", "-z", "alpha")

	require.NoError(t, err)
	assert.Equal(t, "alpha\n", out)
}

func TestCLI_DelimiterEscapes(t *testing.T) {
	out, _, err := runCLI(t, "one\r\ntwo\r\n", "--delimiter", `\r\n`, "one")

	require.NoError(t, err)
	assert.Equal(t, "one\n", out)
}

func TestCLI_ResultSepOverride(t *testing.T) {
	out, _, err := runCLI(t, "a foo\n", "-n", "--result-sep", " | ", "foo")

	require.NoError(t, err)
	assert.Equal(t, "1 | a foo\n", out)
}

func TestCLI_UnknownEncodingFailsPreflight(t *testing.T) {
	out, _, err := runCLI(t, "foo\n", "--encoding", "bogus-enc", "foo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus-enc")
	assert.Empty(t, out)
}

func TestCLI_EncodedInput(t *testing.T) {
	utf16 := string([]byte{'h', 0, 'i', 0, '\n', 0, 'y', 0, 'o', 0, '\n', 0})
	out, _, err := runCLI(t, utf16, "--encoding", "utf-16le", "hi")

	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestCLI_MissingOperandWarnsAndContinues(t *testing.T) {
	out, errOut, err := runCLI(t, "", "foo", "/no/such/input/file")

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "grepline: /no/such/input/file")
}

func TestCLI_VersionFlag(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run([]string{"grepline", "--version"}))
	assert.Contains(t, out.String(), version.Version)
}
