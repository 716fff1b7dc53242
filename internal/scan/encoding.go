package scan

import (
	stderrors "errors"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/halfspin/grepline/internal/errors"
)

var errUnknownEncoding = stderrors.New("unknown or unsupported encoding")

// CheckEncoding reports whether name resolves to a known source encoding.
// The empty name means the input is already UTF-8 and always passes.
func CheckEncoding(name string) error {
	if name == "" {
		return nil
	}
	_, err := lookupEncoding(name)
	return err
}

// lookupEncoding resolves name through the IANA registry, so the usual
// aliases (latin1, utf-16le, shift_jis) all work.
func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.NewConfigError("encoding", name, errUnknownEncoding)
	}
	return enc, nil
}

// decodeReader wraps r so its content is transcoded from the named source
// encoding to UTF-8 before line splitting.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
