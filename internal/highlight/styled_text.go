// Package highlight composes ANSI styled output from possibly-overlapping
// style ranges. Styles are recorded as apply and remove events keyed by
// byte offset, then flattened into one escape-coded string in a single
// left-to-right pass.
package highlight

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ansiFormat wraps SGR parameters, ansiClear drops all formatting.
	ansiFormat = "\x1b[%sm"
	ansiClear  = "\x1b[m"

	// resetParam precedes re-applied styles after a removal so dropped
	// styles never visually persist.
	resetParam = "0"
)

// styleInstance is one application of a style. Instances are unique even
// when their parameters are equal: removal targets the instance, not the
// parameter string.
type styleInstance struct {
	id     int
	params string
}

// events holds what happens at one byte offset.
type events struct {
	apply  []styleInstance
	remove []int
}

// StyledText is a base string plus offset-keyed style events. Build one
// per output line, apply the match styles, render once, discard.
type StyledText struct {
	text   string
	events map[int]*events
	nextID int
}

// New wraps base text with no styling applied.
func New(text string) *StyledText {
	return &StyledText{text: text}
}

// Text returns the unstyled base text.
func (st *StyledText) Text() string {
	return st.text
}

// Apply records a style over length bytes starting at start. A negative
// length keeps the style active through the end of the string. A zero
// length is a no-op since applying and removing at the same offset has
// no visible effect.
func (st *StyledText) Apply(params string, start, length int) {
	if length == 0 {
		return
	}

	end := -1
	if length > 0 {
		end = start + length
		if end <= 0 {
			return
		}
	}
	if start < 0 {
		start = 0
	}

	inst := styleInstance{id: st.nextID, params: params}
	st.nextID++

	st.insert(start, inst, true)
	if end >= 0 {
		st.insert(end, inst, false)
	}
}

func (st *StyledText) insert(offset int, inst styleInstance, apply bool) {
	if st.events == nil {
		st.events = make(map[int]*events)
	}
	ev := st.events[offset]
	if ev == nil {
		ev = &events{}
		st.events[offset] = ev
	}
	if apply {
		ev.apply = append(ev.apply, inst)
	} else {
		ev.remove = append(ev.remove, inst.id)
	}
}

// Render flattens the events into one ANSI string. Offsets are visited
// ascending; offsets at or past the end of the text are ignored, so a
// style closing exactly at the end is settled by the trailing clear.
func (st *StyledText) Render() string {
	if len(st.events) == 0 {
		return st.text
	}

	offsets := make([]int, 0, len(st.events))
	for off := range st.events {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	var b strings.Builder
	b.Grow(len(st.text) + 16*len(offsets))

	var active []styleInstance
	last := 0

	for _, off := range offsets {
		if off >= len(st.text) {
			break
		}
		ev := st.events[off]

		b.WriteString(st.text[last:off])
		last = off

		for _, id := range ev.remove {
			found := -1
			for i, inst := range active {
				if inst.id == id {
					found = i
					break
				}
			}
			if found < 0 {
				// Removal of an instance that was never applied is
				// a bug in event construction, not bad input.
				panic(fmt.Sprintf("highlight: remove of unapplied style instance %d at offset %d", id, off))
			}
			active = append(active[:found], active[found+1:]...)
		}
		active = append(active, ev.apply...)

		params := make([]string, 0, len(active)+1)
		if len(ev.remove) > 0 && len(active) > 0 {
			params = append(params, resetParam)
		}
		for _, inst := range active {
			params = append(params, inst.params)
		}
		fmt.Fprintf(&b, ansiFormat, strings.Join(params, ";"))
	}

	b.WriteString(st.text[last:])
	if len(active) > 0 {
		b.WriteString(ansiClear)
	}

	return b.String()
}

// String renders the styled text.
func (st *StyledText) String() string {
	return st.Render()
}

// Sprint styles a whole string with one parameter set. Empty parameters
// return the text unstyled.
func Sprint(params, text string) string {
	if params == "" {
		return text
	}
	return fmt.Sprintf(ansiFormat, params) + text + ansiClear
}
