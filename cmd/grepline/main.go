package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/halfspin/grepline/internal/config"
	"github.com/halfspin/grepline/internal/debug"
	"github.com/halfspin/grepline/internal/engine"
	"github.com/halfspin/grepline/internal/pattern"
	"github.com/halfspin/grepline/internal/scan"
	"github.com/halfspin/grepline/internal/version"
)

var cleanupFuncs []func()

func main() {
	// Writes to a closed pipe must come back as errors instead of
	// killing the process; the engine ends such runs quietly.
	signal.Ignore(syscall.SIGPIPE)

	app := newApp()

	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(normalizeArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "grepline: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version and exit",
	}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.FullInfo())
	}

	return &cli.App{
		Name:                   "grepline",
		Usage:                  "print lines matching patterns, with streaming highlights",
		ArgsUsage:              "[PATTERN] [FILE...]",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		HideHelpCommand:        true,
		Flags:                  appFlags(),
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.SetEnabled(true)
				debug.SetDebugOutput(os.Stderr)
			}
			if os.Getenv("GREPLINE_DEBUG_LOG") != "" {
				debug.SetEnabled(true)
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				debug.Log("MAIN", "debug log: %s\n", path)
				cleanupFuncs = append(cleanupFuncs, func() {
					_ = debug.CloseDebugLog()
				})
			}
			if debug.IsDebugEnabled() {
				debug.Log("MAIN", "grepline %s build %s\n", version.Version, version.BuildID())
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return execute(c, os.Stdin, os.Stdout, os.Stderr)
		},
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		// Pattern interpretation
		&cli.BoolFlag{Name: "extended-regexp", Aliases: []string{"E"}, Usage: "patterns are extended regular expressions"},
		&cli.BoolFlag{Name: "fixed-strings", Aliases: []string{"F"}, Usage: "patterns are literal strings"},
		&cli.BoolFlag{Name: "basic-regexp", Aliases: []string{"G"}, Usage: "patterns are basic regular expressions (default)"},
		&cli.StringSliceFlag{Name: "regexp", Aliases: []string{"e"}, Usage: "use `PATTERN` for matching; repeatable"},
		&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "take patterns from `FILE`, one per line; repeatable"},
		&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"i"}, Usage: "case-insensitive matching"},
		&cli.BoolFlag{Name: "no-ignore-case", Usage: "case-sensitive matching, cancelling -i"},
		&cli.BoolFlag{Name: "word-regexp", Aliases: []string{"w"}, Usage: "match only whole words"},
		&cli.BoolFlag{Name: "line-regexp", Aliases: []string{"x"}, Usage: "match only whole lines"},
		&cli.BoolFlag{Name: "invert-match", Aliases: []string{"v"}, Usage: "select non-matching lines"},

		// Record fields
		&cli.BoolFlag{Name: "line-number", Aliases: []string{"n"}, Usage: "prefix each line with its line number"},
		&cli.BoolFlag{Name: "byte-offset", Aliases: []string{"b"}, Usage: "prefix each line with its byte offset"},
		&cli.BoolFlag{Name: "with-filename", Aliases: []string{"H"}, Usage: "always prefix lines with the file name"},
		&cli.BoolFlag{Name: "no-filename", Usage: "never prefix lines with the file name"},
		&cli.StringFlag{Name: "label", Usage: "use `NAME` as the standard input file name"},
		&cli.StringFlag{Name: "result-sep", Value: config.DefaultResultSep, Usage: "separator between prefix fields and line text"},
		&cli.StringFlag{Name: "name-num-sep", Value: config.DefaultNameNumSep, Usage: "separator between file name and line number"},

		// Output modes
		&cli.BoolFlag{Name: "only-matching", Aliases: []string{"o"}, Usage: "print only the matching parts of lines"},
		&cli.BoolFlag{Name: "count", Aliases: []string{"c"}, Usage: "print only a count of selected lines per input"},
		&cli.BoolFlag{Name: "files-with-matches", Aliases: []string{"l"}, Usage: "print only names of inputs with matches"},
		&cli.BoolFlag{Name: "files-without-match", Aliases: []string{"L"}, Usage: "print only names of inputs without matches"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q", "silent"}, Usage: "suppress all normal output"},
		&cli.BoolFlag{Name: "json", Usage: "print selected lines as JSON objects, one per line"},

		// Context
		&cli.IntFlag{Name: "after-context", Aliases: []string{"A"}, Usage: "print `NUM` lines of trailing context"},
		&cli.IntFlag{Name: "before-context", Aliases: []string{"B"}, Usage: "print `NUM` lines of leading context"},
		&cli.IntFlag{Name: "context", Aliases: []string{"C"}, Usage: "print `NUM` lines of leading and trailing context"},

		// Selection limits and operand filtering
		&cli.IntFlag{Name: "max-count", Aliases: []string{"m"}, Usage: "stop each input after `NUM` selected lines"},
		&cli.StringSliceFlag{Name: "include", Usage: "search only operands matching `GLOB`"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "skip operands matching `GLOB`"},

		// Line scanning
		&cli.BoolFlag{Name: "null-data", Aliases: []string{"z"}, Usage: "lines are NUL-terminated"},
		&cli.StringFlag{Name: "delimiter", Usage: "line delimiter `SEQ`, backslash escapes allowed"},
		&cli.StringFlag{Name: "encoding", Usage: "source character encoding `ENC`, an IANA name"},
		&cli.IntFlag{Name: "max-line-bytes", Usage: "retained bytes per line before truncation"},

		// Behavior
		&cli.StringFlag{Name: "color", Aliases: []string{"colour"}, Value: config.ColorAuto, Usage: "colorize output; `WHEN` is auto, always, or never, attached with '='"},
		&cli.BoolFlag{Name: "no-messages", Aliases: []string{"s"}, Usage: "suppress open and read error messages"},
		&cli.BoolFlag{Name: "debug", Usage: "log internal diagnostics to stderr"},
	}
}

// execute is the whole run behind the CLI surface: resolve options,
// compile patterns, and stream the operands. Match presence never
// affects the returned error; only usage and pattern failures do.
func execute(c *cli.Context, stdin io.Reader, out, errw io.Writer) error {
	opts := config.Defaults()
	pal := config.DefaultPalette()
	config.LoadUserConfig(opts, &pal)
	pal.LoadEnv()

	raw, operands, err := gatherPatterns(c)
	if err != nil {
		if errors.Is(err, errNoPattern) {
			fmt.Fprintf(errw, "usage: %s [OPTION]... %s\n", c.App.Name, c.App.ArgsUsage)
		}
		return err
	}
	if err := applyFlags(c, opts); err != nil {
		return err
	}
	if err := config.Validate(opts); err != nil {
		return err
	}
	if err := scan.CheckEncoding(opts.Encoding); err != nil {
		return err
	}

	mods := pattern.Modifiers{
		IgnoreCase: opts.IgnoreCase,
		WordAnchor: opts.WordAnchor,
		LineAnchor: opts.LineAnchor,
	}
	pats, err := pattern.Compile(pattern.Dedup(raw), opts.Dialect, mods)
	if err != nil {
		return err
	}

	eng := engine.New(opts, pats, pal, colorEnabled(opts.ColorMode, out))
	eng.SetIO(stdin, out, errw)

	_, err = eng.Run(c.Context, operands)
	return err
}
