// Package report assembles and writes the output record for every
// selected line: filename, separators, line number, byte offset, and
// the highlighted text, in that fixed order. It also implements the
// alternate output modes (only-matching, counts, file lists, quiet,
// JSON), context emission, and the per-source end summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/halfspin/grepline/internal/config"
	"github.com/halfspin/grepline/internal/debug"
	"github.com/halfspin/grepline/internal/errors"
	"github.com/halfspin/grepline/internal/highlight"
	"github.com/halfspin/grepline/internal/match"
	"github.com/halfspin/grepline/internal/scan"
)

// contextLine is a buffered candidate for before-context emission. The
// text is copied because the scanner reuses its line buffer.
type contextLine struct {
	text   string
	number int
	offset int64
}

// Reporter writes records for one run. All sources share one sink;
// per-source state resets at StartSource.
type Reporter struct {
	w    io.Writer
	opts *config.Options
	pal  config.Palette

	color        bool
	showFilename bool
	matchColor   string

	// Separators pre-styled once, the way the palette's se key wants.
	resultSep  string
	nameNumSep string
	dashSep    string
	groupSep   string

	enc *json.Encoder

	name           string
	selected       int
	binaryMatches  int
	overflowCount  int
	emittedName    bool
	beforeBuf      []contextLine
	afterRemaining int
	lastEmitted    int
}

// NewReporter builds a reporter writing to w. color is the resolved
// color decision; showFilename is the resolved filename display
// decision for this run.
func NewReporter(w io.Writer, opts *config.Options, pal config.Palette, color, showFilename bool) *Reporter {
	r := &Reporter{
		w:            w,
		opts:         opts,
		pal:          pal,
		color:        color,
		showFilename: showFilename,
		matchColor:   pal.MatchingColor(),
	}

	r.resultSep = r.styleSep(opts.ResultSep)
	r.nameNumSep = r.styleSep(opts.NameNumSep)
	r.dashSep = r.styleSep("-")
	r.groupSep = r.styleSep("--")

	if opts.JSONOutput {
		r.enc = json.NewEncoder(w)
	}

	debug.Log("REPORT", "reporter: color=%v filename=%v mode=%s\n",
		color, showFilename, r.modeName())

	return r
}

// StartSource resets per-source state for a new named source.
func (r *Reporter) StartSource(name string) {
	r.name = name
	r.selected = 0
	r.binaryMatches = 0
	r.overflowCount = 0
	r.emittedName = false
	r.beforeBuf = r.beforeBuf[:0]
	r.afterRemaining = 0
	r.lastEmitted = 0
}

// Report consumes one scanned line with its evaluation. Every line of
// a source passes through, selected or not, so context buffering and
// summary counters stay correct.
func (r *Reporter) Report(line scan.Line, res match.Result) error {
	if line.Overflow {
		r.overflowCount++
	}

	if !res.Matched {
		return r.reportUnselected(line)
	}

	r.selected++

	switch {
	case r.opts.Quiet:
		return nil
	case r.opts.CountOnly, r.opts.FilesWithoutMatch:
		return nil
	case r.opts.FilesWithMatches:
		if r.emittedName {
			return nil
		}
		r.emittedName = true
		return r.writeLine(r.styledName())
	}

	// Binary content never reaches the sink as line text; the match is
	// recorded for the end-of-source summary instead.
	if line.Binary {
		r.binaryMatches++
		return nil
	}

	switch {
	case r.opts.JSONOutput:
		return r.reportJSON(line, res)
	case r.opts.OnlyMatching:
		return r.reportOnlyMatching(line, res)
	default:
		return r.reportStandard(line, res)
	}
}

// FinishSource emits whatever the completed source still owes: the
// count record, the without-match file name, or the binary and
// overflow summaries.
func (r *Reporter) FinishSource() error {
	switch {
	case r.opts.Quiet:
		return nil
	case r.opts.CountOnly:
		return r.writeLine(r.countRecord())
	case r.opts.FilesWithoutMatch:
		if r.selected == 0 {
			return r.writeLine(r.styledName())
		}
		return nil
	case r.opts.FilesWithMatches, r.opts.JSONOutput:
		return nil
	}

	if r.binaryMatches > 0 {
		msg := fmt.Sprintf("Binary file %s matches (%d line(s))", r.name, r.binaryMatches)
		if err := r.writeLine(msg); err != nil {
			return err
		}
	}
	if r.overflowCount > 0 {
		msg := fmt.Sprintf("Truncated %d overlong line(s) in %s", r.overflowCount, r.name)
		if err := r.writeLine(msg); err != nil {
			return err
		}
	}
	return nil
}

// Selected returns how many lines the current source selected.
func (r *Reporter) Selected() int {
	return r.selected
}

func (r *Reporter) reportUnselected(line scan.Line) error {
	if !r.contextActive() || line.Binary {
		return nil
	}

	if r.afterRemaining > 0 {
		r.afterRemaining--
		return r.emitRecord(line.Number, line.Offset, string(line.Content), false)
	}
	if r.opts.BeforeContext > 0 {
		r.pushBefore(line)
	}
	return nil
}

func (r *Reporter) reportStandard(line scan.Line, res match.Result) error {
	if r.contextActive() {
		if err := r.flushBefore(); err != nil {
			return err
		}
		r.afterRemaining = r.opts.AfterContext
	}
	return r.emitRecord(line.Number, line.Offset, r.styledContent(line, res), true)
}

func (r *Reporter) reportOnlyMatching(line scan.Line, res match.Result) error {
	for _, sp := range res.Spans {
		if sp.Start >= sp.End {
			continue
		}
		text := string(line.Content[sp.Start:sp.End])
		if r.color {
			text = highlight.Sprint(r.matchColor, text)
		}
		if err := r.emitRecord(line.Number, line.Offset+int64(sp.Start), text, true); err != nil {
			return err
		}
	}
	return nil
}

// jsonRecord is one selected line in JSON output mode.
type jsonRecord struct {
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Offset int64    `json:"offset"`
	Text   string   `json:"text"`
	Spans  [][2]int `json:"spans"`
}

func (r *Reporter) reportJSON(line scan.Line, res match.Result) error {
	rec := jsonRecord{
		File:   r.name,
		Line:   line.Number,
		Offset: line.Offset,
		Text:   string(line.Content),
		Spans:  make([][2]int, 0, len(res.Spans)),
	}
	for _, sp := range res.Spans {
		rec.Spans = append(rec.Spans, [2]int{sp.Start, sp.End})
	}
	if err := r.enc.Encode(&rec); err != nil {
		return errors.NewSinkError(err)
	}
	return nil
}

// emitRecord writes one output line: prefix fields in fixed order, then
// the text. Context records swap both separators for a dash.
func (r *Reporter) emitRecord(number int, offset int64, text string, selected bool) error {
	if r.contextActive() && r.lastEmitted > 0 && number > r.lastEmitted+1 {
		if err := r.writeLine(r.groupSep); err != nil {
			return err
		}
	}

	nameSep, fieldSep := r.nameNumSep, r.resultSep
	if !selected {
		nameSep, fieldSep = r.dashSep, r.dashSep
	}

	var b strings.Builder
	if r.showFilename {
		b.WriteString(r.styledName())
		if r.opts.LineNumber {
			b.WriteString(nameSep)
		} else {
			b.WriteString(fieldSep)
		}
	}
	if r.opts.LineNumber {
		b.WriteString(r.styled(r.pal.LineNumber, strconv.Itoa(number)))
		b.WriteString(fieldSep)
	}
	if r.opts.ByteOffset {
		b.WriteString(r.styled(r.pal.ByteOffset, strconv.FormatInt(offset, 10)))
		b.WriteString(fieldSep)
	}
	b.WriteString(text)

	r.lastEmitted = number
	return r.writeLine(b.String())
}

func (r *Reporter) styledContent(line scan.Line, res match.Result) string {
	text := string(line.Content)
	if !r.color || len(res.Spans) == 0 {
		return text
	}

	st := highlight.New(text)
	for _, sp := range res.Spans {
		st.Apply(r.matchColor, sp.Start, sp.End-sp.Start)
	}
	return st.Render()
}

// contextActive reports whether context emission applies. Inverted
// selection and the replacement output modes never produce context.
func (r *Reporter) contextActive() bool {
	if r.opts.Invert || r.specialMode() {
		return false
	}
	return r.opts.BeforeContext > 0 || r.opts.AfterContext > 0
}

func (r *Reporter) specialMode() bool {
	o := r.opts
	return o.Quiet || o.CountOnly || o.FilesWithMatches || o.FilesWithoutMatch ||
		o.OnlyMatching || o.JSONOutput
}

func (r *Reporter) pushBefore(line scan.Line) {
	cl := contextLine{text: string(line.Content), number: line.Number, offset: line.Offset}
	if len(r.beforeBuf) >= r.opts.BeforeContext {
		copy(r.beforeBuf, r.beforeBuf[1:])
		r.beforeBuf[len(r.beforeBuf)-1] = cl
		return
	}
	r.beforeBuf = append(r.beforeBuf, cl)
}

func (r *Reporter) flushBefore() error {
	for _, cl := range r.beforeBuf {
		if err := r.emitRecord(cl.number, cl.offset, cl.text, false); err != nil {
			return err
		}
	}
	r.beforeBuf = r.beforeBuf[:0]
	return nil
}

func (r *Reporter) countRecord() string {
	n := strconv.Itoa(r.selected)
	if !r.showFilename {
		return n
	}
	return r.styledName() + r.nameNumSep + n
}

func (r *Reporter) styledName() string {
	return r.styled(r.pal.Filename, r.name)
}

func (r *Reporter) styled(params, text string) string {
	if !r.color {
		return text
	}
	return highlight.Sprint(params, text)
}

func (r *Reporter) styleSep(sep string) string {
	if r.color && r.pal.Separator != "" && sep != "" {
		return highlight.Sprint(r.pal.Separator, sep)
	}
	return sep
}

func (r *Reporter) writeLine(s string) error {
	if _, err := io.WriteString(r.w, s+"\n"); err != nil {
		return errors.NewSinkError(err)
	}
	return nil
}

func (r *Reporter) modeName() string {
	o := r.opts
	switch {
	case o.Quiet:
		return "quiet"
	case o.CountOnly:
		return "count"
	case o.FilesWithMatches:
		return "files-with-matches"
	case o.FilesWithoutMatch:
		return "files-without-match"
	case o.JSONOutput:
		return "json"
	case o.OnlyMatching:
		return "only-matching"
	default:
		return "standard"
	}
}
