package config

import (
	"errors"
	"fmt"

	glerrors "github.com/halfspin/grepline/internal/errors"
)

// Validate checks the assembled option record before any source is
// opened. Violations are usage-level configuration errors.
func Validate(opts *Options) error {
	if err := validateScanOptions(opts); err != nil {
		return err
	}
	if err := validateRecordOptions(opts); err != nil {
		return err
	}
	return validateOutputModes(opts)
}

func validateScanOptions(opts *Options) error {
	if len(opts.Delimiter) == 0 {
		return glerrors.NewConfigError("delimiter", "", errors.New("delimiter cannot be empty"))
	}

	if opts.MaxLineBytes < 0 {
		return glerrors.NewConfigError("max-line-bytes", fmt.Sprint(opts.MaxLineBytes),
			errors.New("line cap cannot be negative"))
	}

	if opts.MaxCount < 0 {
		return glerrors.NewConfigError("max-count", fmt.Sprint(opts.MaxCount),
			errors.New("max count cannot be negative"))
	}

	if opts.BeforeContext < 0 || opts.AfterContext < 0 {
		return glerrors.NewConfigError("context",
			fmt.Sprintf("%d/%d", opts.BeforeContext, opts.AfterContext),
			errors.New("context distances cannot be negative"))
	}

	return nil
}

func validateRecordOptions(opts *Options) error {
	switch opts.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return glerrors.NewConfigError("color", opts.ColorMode,
			errors.New("color mode must be auto, always, or never"))
	}

	if opts.WithFilename && opts.NoFilename {
		return glerrors.NewConfigError("filename", "",
			errors.New("with-filename conflicts with no-filename"))
	}

	return nil
}

// validateOutputModes rejects combinations of modes that each replace
// the standard record; only one replacement can win.
func validateOutputModes(opts *Options) error {
	modes := 0
	for _, on := range []bool{
		opts.OnlyMatching,
		opts.CountOnly,
		opts.FilesWithMatches,
		opts.FilesWithoutMatch,
		opts.JSONOutput,
	} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return glerrors.NewConfigError("output-mode", "",
			errors.New("only one of only-matching, count, files-with-matches, files-without-match, json may be used"))
	}

	return nil
}
