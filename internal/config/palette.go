package config

import (
	"os"
	"strconv"
	"strings"
)

// Palette maps the GREP_COLORS semantic keys to ANSI SGR parameter
// strings. String values hold raw parameters like "01;31"; an empty
// value means the element is printed unstyled.
type Palette struct {
	Match         string // mt: overrides ms and mc when set
	MatchSet      bool
	MatchSelected string // ms
	MatchContext  string // mc
	SelectedLine  string // sl
	ContextLine   string // cx
	ReverseVideo  bool   // rv
	Filename      string // fn
	LineNumber    string // ln
	ByteOffset    string // bn
	Separator     string // se
	NoExtend      bool   // ne
}

// DefaultPalette returns GNU grep's default colors.
func DefaultPalette() Palette {
	return Palette{
		MatchSelected: "01;31",
		MatchContext:  "01;31",
		Filename:      "35",
		LineNumber:    "32",
		ByteOffset:    "32",
		Separator:     "36",
	}
}

// LoadEnv applies the GREP_COLORS environment variable, if set, on top
// of the current palette. Environment entries win over config files.
func (p *Palette) LoadEnv() {
	if v, ok := os.LookupEnv("GREP_COLORS"); ok {
		p.ParseGrepColors(v)
	}
}

// MatchingColor returns the parameters for highlighting match spans:
// mt when explicitly set, ms otherwise.
func (p Palette) MatchingColor() string {
	if p.MatchSet {
		return p.Match
	}
	return p.MatchSelected
}

// ParseGrepColors applies a GREP_COLORS value over the palette. Entries
// are colon-separated key=value pairs. Unknown keys are ignored; string
// keys reject values that are not semicolon-separated integers; boolean
// keys accept 1, t, true, or on (case-insensitive) as true and anything
// else as false.
func (p *Palette) ParseGrepColors(value string) {
	for _, entry := range strings.Split(value, ":") {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		p.applyEntry(kv[0], kv[1])
	}
}

func (p *Palette) applyEntry(key, value string) {
	switch key {
	case "rv":
		p.ReverseVideo = parseColorBool(value)
		return
	case "ne":
		p.NoExtend = parseColorBool(value)
		return
	}

	if !validSGRList(value) {
		return
	}

	switch key {
	case "mt":
		p.Match = value
		p.MatchSet = true
	case "ms":
		p.MatchSelected = value
	case "mc":
		p.MatchContext = value
	case "sl":
		p.SelectedLine = value
	case "cx":
		p.ContextLine = value
	case "fn":
		p.Filename = value
	case "ln":
		p.LineNumber = value
	case "bn":
		p.ByteOffset = value
	case "se":
		p.Separator = value
	}
}

// validSGRList reports whether the value is semicolon-separated
// integers. An empty value fails: "sl=" does not clear a color.
func validSGRList(value string) bool {
	for _, item := range strings.Split(value, ";") {
		if _, err := strconv.Atoi(item); err != nil {
			return false
		}
	}
	return true
}

func parseColorBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "t", "true", "on":
		return true
	default:
		return false
	}
}
