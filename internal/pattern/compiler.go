// Package pattern turns raw search patterns into evaluable form. A raw
// pattern plus a dialect (fixed string, basic regex, extended regex) and
// modifiers (case fold, word anchor, line anchor) normalizes to either a
// byte literal or a compiled regular expression. All compilation happens
// before the first line of input is read.
package pattern

import (
	"regexp"
	"strings"

	"github.com/halfspin/grepline/internal/debug"
	"github.com/halfspin/grepline/internal/errors"
)

// Dialect selects how raw pattern text is interpreted.
type Dialect int

const (
	DialectBasic Dialect = iota
	DialectExtended
	DialectFixed
)

func (d Dialect) String() string {
	switch d {
	case DialectBasic:
		return "basic"
	case DialectExtended:
		return "extended"
	case DialectFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Modifiers adjust how patterns match independent of the dialect.
type Modifiers struct {
	IgnoreCase bool
	WordAnchor bool
	LineAnchor bool
}

// Pattern is the compiled form of one raw pattern. Exactly one of Literal
// and Re is set: Literal for plain substring matching, Re for everything
// that needs the regexp engine.
type Pattern struct {
	Raw     string
	Literal []byte
	Re      *regexp.Regexp

	// Fold records case-insensitive matching. A folded Literal is already
	// lowercased; a folded Re was compiled with (?i).
	Fold bool

	// LineAnchor requires Re to match the entire line, not a substring.
	LineAnchor bool
}

// IsLiteral reports whether the pattern matches by substring search.
func (p Pattern) IsLiteral() bool {
	return p.Re == nil
}

// basicInvertSet holds the metacharacters whose escaping is inverted
// between basic and extended regular expressions.
const basicInvertSet = "?+{}|()"

// InvertEscapes rewrites a basic regular expression as an extended one.
// Escaped occurrences of ? + { } | ( ) become bare and bare occurrences
// become escaped; all other escape sequences pass through untouched. The
// transform is its own inverse on well-formed patterns.
func InvertEscapes(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 4)

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '\\' && i+1 < len(pattern) {
			next := pattern[i+1]
			if strings.IndexByte(basicInvertSet, next) >= 0 {
				b.WriteByte(next)
			} else {
				b.WriteByte(ch)
				b.WriteByte(next)
			}
			i++
			continue
		}
		if strings.IndexByte(basicInvertSet, ch) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}

	return b.String()
}

// Compile normalizes every raw pattern for the dialect and modifiers.
// The first pattern that fails to compile aborts the whole set.
func Compile(raw []string, dialect Dialect, mods Modifiers) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := compileOne(r, dialect, mods)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	debug.Log("PATTERN", "compiled %d %s pattern(s) fold=%v word=%v line=%v\n",
		len(patterns), dialect, mods.IgnoreCase, mods.WordAnchor, mods.LineAnchor)

	return patterns, nil
}

func compileOne(raw string, dialect Dialect, mods Modifiers) (Pattern, error) {
	text := raw

	if dialect == DialectFixed && mods.IgnoreCase {
		text = strings.ToLower(text)
	}
	if dialect == DialectBasic {
		text = InvertEscapes(text)
	}

	needRegex := dialect != DialectFixed
	lineAnchor := false

	// Word anchoring wins over line anchoring when both are requested.
	switch {
	case mods.WordAnchor:
		if dialect == DialectFixed {
			text = regexp.QuoteMeta(text)
		}
		text = `\b` + text + `\b`
		needRegex = true
	case mods.LineAnchor:
		if dialect == DialectFixed {
			text = regexp.QuoteMeta(text)
		}
		// The regexp package has no fullmatch entry point, so the
		// whole-line requirement is baked in as anchors.
		text = `\A(?:` + text + `)\z`
		lineAnchor = true
		needRegex = true
	}

	if !needRegex {
		return Pattern{Raw: raw, Literal: []byte(text), Fold: mods.IgnoreCase}, nil
	}

	expr := text
	if mods.IgnoreCase {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, errors.NewPatternError(raw, dialect.String(), err)
	}

	return Pattern{Raw: raw, Re: re, Fold: mods.IgnoreCase, LineAnchor: lineAnchor}, nil
}
