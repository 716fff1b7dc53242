// Package config holds the option record for one grepline run plus the
// surfaces that populate it: built-in defaults, KDL config files, and
// the GREP_COLORS environment palette.
package config

import (
	"github.com/halfspin/grepline/internal/pattern"
)

// Color output modes for the --color flag and the color config key.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Default separator strings for assembled records.
const (
	DefaultResultSep  = ": "
	DefaultNameNumSep = ":"
)

// StdinLabel is the display name for the standard input source.
const StdinLabel = "(standard input)"

// Options is the full option record for one run. It is assembled once
// from defaults, config files, and CLI flags, then treated read-only by
// the engine.
type Options struct {
	// Pattern interpretation
	Dialect    pattern.Dialect
	IgnoreCase bool
	WordAnchor bool
	LineAnchor bool
	Invert     bool

	// Line scanning. A zero MaxLineBytes means the scanner default.
	Delimiter    []byte
	MaxLineBytes int
	Encoding     string

	// Record fields
	LineNumber   bool
	ByteOffset   bool
	WithFilename bool
	NoFilename   bool
	Label        string
	ResultSep    string
	NameNumSep   string

	// Output modes
	OnlyMatching      bool
	CountOnly         bool
	FilesWithMatches  bool
	FilesWithoutMatch bool
	Quiet             bool
	JSONOutput        bool

	// Context distances in lines
	BeforeContext int
	AfterContext  int

	// Per-source selection limit, 0 for unlimited
	MaxCount int

	// Operand filtering globs
	Include []string
	Exclude []string

	// Behavior
	NoMessages bool
	ColorMode  string
}

// Defaults returns the option record before config files and flags are
// applied.
func Defaults() *Options {
	return &Options{
		Dialect:    pattern.DialectBasic,
		Delimiter:  []byte("\n"),
		ResultSep:  DefaultResultSep,
		NameNumSep: DefaultNameNumSep,
		ColorMode:  ColorAuto,
	}
}
