// Package match evaluates a compiled pattern set against one line at a
// time, producing a selection decision plus the match spans that drive
// highlighting.
package match

import (
	"bytes"

	"github.com/halfspin/grepline/internal/debug"
	"github.com/halfspin/grepline/internal/pattern"
)

// Span marks one pattern occurrence within a line. Offsets are byte
// positions into the line content, 0 <= Start <= End <= len(line).
// Pattern is the index of the pattern that produced the span.
type Span struct {
	Start   int
	End     int
	Pattern int
}

// Result is the outcome of evaluating the pattern set against one line.
// Spans is empty when the engine short-circuited or when invert selected
// the line; inverted lines never carry spans.
type Result struct {
	Matched bool
	Spans   []Span
}

// Engine holds the compiled pattern set plus the evaluation policy.
// One engine serves every line of a run; it is stateless across lines.
type Engine struct {
	patterns     []pattern.Pattern
	invert       bool
	collectSpans bool
	needsFold    bool
}

// NewEngine builds an evaluator. collectSpans enables span collection
// for highlighting; without it the engine stops at the first occurrence
// of the first matching pattern.
func NewEngine(patterns []pattern.Pattern, invert, collectSpans bool) *Engine {
	needsFold := false
	for _, p := range patterns {
		if p.IsLiteral() && p.Fold {
			needsFold = true
			break
		}
	}

	debug.LogMatch("engine: %d pattern(s) invert=%v spans=%v\n",
		len(patterns), invert, collectSpans)

	return &Engine{
		patterns:     patterns,
		invert:       invert,
		collectSpans: collectSpans,
		needsFold:    needsFold,
	}
}

// Evaluate runs every pattern against the line content. The line is
// never mutated; case folding searches a lowered copy while span offsets
// stay valid for the original bytes.
func (e *Engine) Evaluate(line []byte) Result {
	// Inverted selection never yields spans, so the boolean is all
	// that matters and the first match settles it.
	collect := e.collectSpans && !e.invert

	var lowered []byte
	if e.needsFold {
		lowered = bytes.ToLower(line)
	}

	matched := false
	var spans []Span

	for i, p := range e.patterns {
		if p.IsLiteral() {
			haystack := line
			if p.Fold {
				haystack = lowered
			}
			if len(p.Literal) == 0 {
				// An empty pattern selects every line and
				// highlights nothing.
				matched = true
				if !collect {
					break
				}
				continue
			}
			if !collect {
				if bytes.Contains(haystack, p.Literal) {
					matched = true
					break
				}
				continue
			}
			for start := 0; ; {
				idx := bytes.Index(haystack[start:], p.Literal)
				if idx < 0 {
					break
				}
				from := start + idx
				to := from + len(p.Literal)
				matched = true
				spans = append(spans, Span{Start: from, End: to, Pattern: i})
				start = to
			}
			continue
		}

		if p.LineAnchor {
			if p.Re.Match(line) {
				matched = true
				if !collect {
					break
				}
				spans = append(spans, Span{Start: 0, End: len(line), Pattern: i})
			}
			continue
		}

		if !collect {
			if p.Re.Match(line) {
				matched = true
				break
			}
			continue
		}
		for _, loc := range p.Re.FindAllIndex(line, -1) {
			matched = true
			spans = append(spans, Span{Start: loc[0], End: loc[1], Pattern: i})
		}
	}

	if e.invert {
		return Result{Matched: !matched}
	}
	return Result{Matched: matched, Spans: spans}
}
