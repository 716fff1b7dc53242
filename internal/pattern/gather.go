package pattern

import (
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/halfspin/grepline/internal/errors"
)

// Split breaks one option or positional value into individual patterns.
// Both CRLF and LF separate patterns, so values pasted from either
// platform behave the same.
func Split(value string) []string {
	normalized := strings.ReplaceAll(value, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}

// FromFile reads one pattern per line of the named file. A file that
// cannot be read is a usage error surfaced before any matching starts.
func FromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSourceError("open", path, err)
	}

	text := string(data)
	// A trailing newline terminates the last pattern rather than
	// introducing an empty match-everything pattern.
	text = strings.TrimSuffix(text, "\r\n")
	text = strings.TrimSuffix(text, "\n")

	return Split(text), nil
}

// Dedup removes duplicate raw patterns preserving first occurrence.
// Patterns are keyed by xxhash for cheap comparison; hash collisions
// fall back to string equality so distinct patterns are never dropped.
func Dedup(raw []string) []string {
	if len(raw) < 2 {
		return raw
	}

	seen := make(map[uint64][]string, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		key := xxhash.Sum64String(r)
		bucket := seen[key]
		duplicate := false
		for _, prev := range bucket {
			if prev == r {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[key] = append(bucket, r)
		out = append(out, r)
	}

	return out
}
