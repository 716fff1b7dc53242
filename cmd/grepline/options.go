package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/halfspin/grepline/internal/config"
	"github.com/halfspin/grepline/internal/pattern"
)

var (
	errNoPattern            = errors.New("no pattern given; try 'grepline --help' for more information")
	errConflictingMatchers  = errors.New("conflicting matchers specified")
	errEmptyDelimiterEscape = errors.New("delimiter must not be empty")
)

// normalizeArgs rewrites a bare --color or --colour into --color=auto
// before flag parsing, so the flag never consumes the argument after
// it. An explicit WHEN attaches with '='. Arguments behind a bare "--"
// stay untouched.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		switch a {
		case "--":
			return append(out, args[i:]...)
		case "--color", "--colour":
			out = append(out, "--color="+config.ColorAuto)
		default:
			out = append(out, a)
		}
	}
	return out
}

// gatherPatterns collects raw patterns from -e values, -f files, and
// the positional arguments, and returns the remaining operands. Once
// any -e or -f is given, every positional argument is an operand.
func gatherPatterns(c *cli.Context) ([]string, []string, error) {
	args := c.Args().Slice()

	var raw []string
	for _, v := range c.StringSlice("regexp") {
		raw = append(raw, pattern.Split(v)...)
	}
	for _, path := range c.StringSlice("file") {
		fromFile, err := pattern.FromFile(path)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, fromFile...)
	}

	if len(raw) > 0 {
		return raw, args, nil
	}
	if len(args) == 0 {
		return nil, nil, errNoPattern
	}
	return pattern.Split(args[0]), args[1:], nil
}

// applyFlags layers the command line over opts. Keys a config file can
// also set are only overridden when their flag was actually given.
func applyFlags(c *cli.Context, opts *config.Options) error {
	dialect, err := resolveDialect(c)
	if err != nil {
		return err
	}
	opts.Dialect = dialect

	opts.IgnoreCase = c.Bool("ignore-case") && !c.Bool("no-ignore-case")
	opts.WordAnchor = c.Bool("word-regexp")
	opts.LineAnchor = c.Bool("line-regexp")
	opts.Invert = c.Bool("invert-match")

	opts.LineNumber = opts.LineNumber || c.Bool("line-number")
	opts.ByteOffset = c.Bool("byte-offset")
	opts.WithFilename = c.Bool("with-filename")
	opts.NoFilename = c.Bool("no-filename")
	opts.Label = c.String("label")
	if c.IsSet("result-sep") {
		opts.ResultSep = c.String("result-sep")
	}
	if c.IsSet("name-num-sep") {
		opts.NameNumSep = c.String("name-num-sep")
	}

	opts.OnlyMatching = c.Bool("only-matching")
	opts.CountOnly = c.Bool("count")
	opts.FilesWithMatches = c.Bool("files-with-matches")
	opts.FilesWithoutMatch = c.Bool("files-without-match")
	opts.Quiet = c.Bool("quiet")
	opts.JSONOutput = c.Bool("json")

	// -C sets both distances; an explicit -A or -B then wins its side.
	if c.IsSet("context") {
		opts.BeforeContext = c.Int("context")
		opts.AfterContext = c.Int("context")
	}
	if c.IsSet("after-context") {
		opts.AfterContext = c.Int("after-context")
	}
	if c.IsSet("before-context") {
		opts.BeforeContext = c.Int("before-context")
	}

	opts.MaxCount = c.Int("max-count")
	opts.Include = c.StringSlice("include")
	opts.Exclude = c.StringSlice("exclude")
	opts.NoMessages = c.Bool("no-messages")

	if c.Bool("null-data") {
		opts.Delimiter = []byte{0}
	}
	if c.IsSet("delimiter") {
		delim, err := unescapeDelimiter(c.String("delimiter"))
		if err != nil {
			return err
		}
		opts.Delimiter = delim
	}
	opts.Encoding = c.String("encoding")
	if c.IsSet("max-line-bytes") {
		opts.MaxLineBytes = c.Int("max-line-bytes")
	}

	if c.IsSet("color") {
		opts.ColorMode = c.String("color")
	}
	return nil
}

// resolveDialect maps the -G/-E/-F flags to a dialect. Basic is the
// default; giving more than one is an error.
func resolveDialect(c *cli.Context) (pattern.Dialect, error) {
	var chosen []pattern.Dialect
	if c.Bool("basic-regexp") {
		chosen = append(chosen, pattern.DialectBasic)
	}
	if c.Bool("extended-regexp") {
		chosen = append(chosen, pattern.DialectExtended)
	}
	if c.Bool("fixed-strings") {
		chosen = append(chosen, pattern.DialectFixed)
	}

	switch len(chosen) {
	case 0:
		return pattern.DialectBasic, nil
	case 1:
		return chosen[0], nil
	default:
		return 0, errConflictingMatchers
	}
}

// unescapeDelimiter interprets Go-style backslash escapes so delimiters
// like "\r\n" or "\x00" can be written on the command line.
func unescapeDelimiter(s string) ([]byte, error) {
	quoted := `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	unquoted, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, fmt.Errorf("invalid delimiter %q: %v", s, err)
	}
	if unquoted == "" {
		return nil, errEmptyDelimiterEscape
	}
	return []byte(unquoted), nil
}

// colorEnabled resolves the color mode against the actual output. Auto
// means "only when writing to a terminal".
func colorEnabled(mode string, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
}
