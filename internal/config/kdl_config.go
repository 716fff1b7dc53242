package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/halfspin/grepline/internal/errors"
)

// ConfigFileName is looked up in the home directory and then in the
// working directory; the later file overrides the earlier.
const ConfigFileName = ".grepline.kdl"

// LoadUserConfig applies the user's config files over opts and pal.
// Config files carry presentation defaults only, so a broken file is a
// stderr warning rather than a fatal error.
func LoadUserConfig(opts *Options, pal *Palette) {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ConfigFileName))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ConfigFileName))
	}

	for _, path := range paths {
		if err := LoadKDLFile(opts, pal, path); err != nil {
			fmt.Fprintf(os.Stderr, "grepline: warning: %v\n", err)
		}
	}
}

// LoadKDLFile applies one KDL config file over opts and pal. A missing
// file is not an error.
func LoadKDLFile(opts *Options, pal *Palette, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfigError("file", path, err)
	}

	if err := parseKDL(opts, pal, string(content)); err != nil {
		return errors.NewConfigError("file", path, err)
	}
	return nil
}

// parseKDL applies one KDL document over opts and pal.
func parseKDL(opts *Options, pal *Palette, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	applyKDL(opts, pal, doc.Nodes)
	return nil
}

// applyKDL walks the parsed document and assigns the recognized
// presentation keys. Unrecognized nodes are ignored so config files
// stay forward-compatible.
func applyKDL(opts *Options, pal *Palette, nodes []*document.Node) {
	for _, n := range nodes {
		switch nodeName(n) {
		case "color":
			if s, ok := firstStringArg(n); ok {
				switch s {
				case ColorAuto, ColorAlways, ColorNever:
					opts.ColorMode = s
				}
			}
		case "result_sep":
			if s, ok := firstStringArg(n); ok {
				opts.ResultSep = s
			}
		case "name_num_sep":
			if s, ok := firstStringArg(n); ok {
				opts.NameNumSep = s
			}
		case "line_number":
			if b, ok := firstBoolArg(n); ok {
				opts.LineNumber = b
			}
		case "context":
			if v, ok := firstIntArg(n); ok {
				opts.BeforeContext = v
				opts.AfterContext = v
			}
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "before":
					if v, ok := firstIntArg(cn); ok {
						opts.BeforeContext = v
					}
				case "after":
					if v, ok := firstIntArg(cn); ok {
						opts.AfterContext = v
					}
				}
			}
		case "palette":
			for _, cn := range n.Children {
				key := nodeName(cn)
				if b, ok := firstBoolArg(cn); ok {
					switch key {
					case "rv":
						pal.ReverseVideo = b
					case "ne":
						pal.NoExtend = b
					}
					continue
				}
				if s, ok := firstStringArg(cn); ok {
					pal.applyEntry(key, s)
				}
			}
		}
	}
}

// Helper functions leveraging the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
