// Package engine drives a run: it resolves the input sources, streams
// their lines through the match evaluator, and hands every line to the
// reporter in source order. Reading and reporting form a two-stage
// pipeline connected by a bounded channel, so slow sinks apply
// backpressure instead of growing memory.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/halfspin/grepline/internal/config"
	"github.com/halfspin/grepline/internal/debug"
	glerrors "github.com/halfspin/grepline/internal/errors"
	"github.com/halfspin/grepline/internal/match"
	"github.com/halfspin/grepline/internal/pattern"
	"github.com/halfspin/grepline/internal/report"
	"github.com/halfspin/grepline/internal/scan"
	"github.com/halfspin/grepline/pkg/globfilter"
)

// eventBuffer bounds the reader-to-reporter channel. Lines are copied
// into events, so this also bounds retained line memory.
const eventBuffer = 256

type eventKind int

const (
	eventSourceStart eventKind = iota
	eventLine
	eventSourceEnd
	eventWarning
)

// event is one unit of work handed from the producer to the reporter
// goroutine. Line content is owned by the event, not by the scanner.
type event struct {
	kind eventKind
	name string
	line scan.Line
	res  match.Result
	err  error
}

// Stats summarizes a completed run.
type Stats struct {
	Sources  int
	Lines    int
	Selected int
	IOErrors int
}

// Engine evaluates patterns against a sequence of input sources.
type Engine struct {
	opts   *config.Options
	pal    config.Palette
	color  bool
	eval   *match.Engine
	filter *globfilter.Filter

	stdin io.Reader
	out   io.Writer
	errw  io.Writer
}

// New builds an engine. color is the resolved color decision for this
// run; span collection follows from it and from the output mode.
func New(opts *config.Options, pats []pattern.Pattern, pal config.Palette, color bool) *Engine {
	collect := color || opts.OnlyMatching || opts.JSONOutput
	return &Engine{
		opts:   opts,
		pal:    pal,
		color:  color,
		eval:   match.NewEngine(pats, opts.Invert, collect),
		filter: globfilter.New(opts.Include, opts.Exclude),
		stdin:  os.Stdin,
		out:    os.Stdout,
		errw:   os.Stderr,
	}
}

// SetIO overrides the standard streams, mainly for tests.
func (e *Engine) SetIO(stdin io.Reader, out, errw io.Writer) {
	e.stdin = stdin
	e.out = out
	e.errw = errw
}

// source is one resolved input: a named file or the standard input.
type source struct {
	name  string
	path  string
	stdin bool
}

// Run processes the operands in order and writes all output. A nil
// error means the run completed, unreadable sources included; those
// are reported on the error stream and never abort the run.
func (e *Engine) Run(ctx context.Context, operands []string) (Stats, error) {
	sources := e.resolveSources(operands)
	rep := report.NewReporter(e.out, e.opts, e.pal, e.color, e.showFilename(len(sources)))

	debug.LogEngine("run: %d source(s)\n", len(sources))

	var stats Stats
	stats.Sources = len(sources)

	events := make(chan event, eventBuffer)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(events)
		return e.produce(ctx, sources, events, &stats)
	})
	g.Go(func() error {
		return e.consume(events, rep)
	})

	err := g.Wait()
	if err != nil && isBrokenSink(err) {
		// Downstream went away mid-run. Everything already written was
		// accepted, so the run ends quietly.
		debug.LogEngine("run: sink closed, stopping\n")
		err = nil
	}

	debug.LogEngine("run complete: lines=%d selected=%d ioErrors=%d\n",
		stats.Lines, stats.Selected, stats.IOErrors)
	return stats, err
}

// resolveSources maps operands to sources. No operands means standard
// input, as does the "-" operand. Named files that fail the glob
// filter are dropped silently.
func (e *Engine) resolveSources(operands []string) []source {
	if len(operands) == 0 {
		operands = []string{"-"}
	}

	sources := make([]source, 0, len(operands))
	for _, op := range operands {
		if op == "-" {
			sources = append(sources, source{name: e.stdinLabel(), stdin: true})
			continue
		}
		if !e.filter.Keep(op) {
			debug.LogEngine("skip %s: excluded by glob filter\n", op)
			continue
		}
		sources = append(sources, source{name: op, path: op})
	}
	return sources
}

func (e *Engine) stdinLabel() string {
	if e.opts.Label != "" {
		return e.opts.Label
	}
	return config.StdinLabel
}

// showFilename resolves the filename-prefix decision: forced on, forced
// off, or automatic when more than one source survived filtering.
func (e *Engine) showFilename(numSources int) bool {
	switch {
	case e.opts.WithFilename:
		return true
	case e.opts.NoFilename:
		return false
	default:
		return numSources > 1
	}
}

func (e *Engine) produce(ctx context.Context, sources []source, events chan<- event, stats *Stats) error {
	for i := range sources {
		stopRun, err := e.produceSource(ctx, sources[i], events, stats)
		if err != nil {
			return err
		}
		if stopRun {
			break
		}
	}
	return nil
}

// produceSource reads one source to completion or to an early stop.
// The returned bool asks for the whole run to stop.
func (e *Engine) produceSource(ctx context.Context, src source, events chan<- event, stats *Stats) (bool, error) {
	var r io.Reader = e.stdin
	if !src.stdin {
		f, err := os.Open(src.path)
		if err != nil {
			stats.IOErrors++
			return false, e.send(ctx, events, event{kind: eventWarning, err: openError(src.path, err)})
		}
		defer f.Close()
		r = f
	}

	sc, err := scan.NewLineSource(r, scan.Options{
		Delimiter:    e.opts.Delimiter,
		MaxLineBytes: e.opts.MaxLineBytes,
		Encoding:     e.opts.Encoding,
	})
	if err != nil {
		stats.IOErrors++
		return false, e.send(ctx, events, event{kind: eventWarning, err: err})
	}

	if err := e.send(ctx, events, event{kind: eventSourceStart, name: src.name}); err != nil {
		return false, err
	}

	stopRun := false
	srcSelected := 0
	for sc.Scan() {
		line := sc.Line()
		res := e.eval.Evaluate(line.Content)
		stats.Lines++

		// The scanner reuses its buffer, so the event gets its own copy.
		line.Content = append([]byte(nil), line.Content...)
		if err := e.send(ctx, events, event{kind: eventLine, line: line, res: res}); err != nil {
			return false, err
		}

		if !res.Matched {
			continue
		}
		stats.Selected++
		srcSelected++

		if e.opts.Quiet {
			stopRun = true
			break
		}
		if e.opts.FilesWithMatches || e.opts.FilesWithoutMatch {
			break
		}
		if e.opts.MaxCount > 0 && srcSelected >= e.opts.MaxCount {
			debug.LogEngine("%s: max count %d reached\n", src.name, e.opts.MaxCount)
			break
		}
	}

	if readErr := sc.Err(); readErr != nil {
		stats.IOErrors++
		ev := event{kind: eventWarning, err: glerrors.NewSourceError("read", src.name, readErr)}
		if err := e.send(ctx, events, ev); err != nil {
			return false, err
		}
	}

	if err := e.send(ctx, events, event{kind: eventSourceEnd}); err != nil {
		return false, err
	}
	return stopRun, nil
}

// consume drains events in order and feeds the reporter. It owns both
// output streams for the duration of the run.
func (e *Engine) consume(events <-chan event, rep *report.Reporter) error {
	for ev := range events {
		switch ev.kind {
		case eventSourceStart:
			rep.StartSource(ev.name)
		case eventLine:
			if err := rep.Report(ev.line, ev.res); err != nil {
				return err
			}
		case eventSourceEnd:
			if err := rep.FinishSource(); err != nil {
				return err
			}
		case eventWarning:
			if !e.opts.NoMessages {
				fmt.Fprintf(e.errw, "grepline: %v\n", ev.err)
			}
		}
	}
	return nil
}

func (e *Engine) send(ctx context.Context, events chan<- event, ev event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openError strips the redundant path the os layer bakes into its
// errors; the source error carries the path already.
func openError(path string, err error) error {
	var pe *fs.PathError
	if stderrors.As(err, &pe) {
		err = pe.Err
	}
	return glerrors.NewSourceError("open", path, err)
}

// isBrokenSink reports whether err is a write failure caused by the
// consumer of our output going away.
func isBrokenSink(err error) bool {
	var sink *glerrors.SinkError
	if !stderrors.As(err, &sink) {
		return false
	}
	return stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, fs.ErrClosed)
}
