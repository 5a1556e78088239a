// Package charset resolves the text encoding of a statement export and
// decodes it to UTF-8.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Fallback is used when no encoding can be detected.
const Fallback = "utf-8"

// sampleSize caps how much of the input is handed to chardet.
const sampleSize = 64 << 10

var (
	// ErrUnknownEncoding is returned for encoding names with no decoder.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrDecode is returned when input is not valid in the resolved encoding.
	ErrDecode = errors.New("cannot decode input")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Resolver returns the name of the encoding a byte sample is written in.
type Resolver interface {
	Resolve(sample []byte) (string, error)
}

// Fixed always resolves to the configured encoding name.
type Fixed string

func (f Fixed) Resolve([]byte) (string, error) {
	if f == "" {
		return Fallback, nil
	}
	return string(f), nil
}

// Detector guesses the encoding of the whole input. Valid UTF-8 is taken as
// UTF-8. Otherwise Legacy, the encoding an institution is known to export
// in, is used when set, and a statistical guess when not.
type Detector struct {
	Legacy string
}

func (d Detector) Resolve(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return Fallback, nil
	}
	if d.Legacy != "" {
		return d.Legacy, nil
	}

	res, err := chardet.NewTextDetector().DetectBest(sampleRegion(data))
	if err != nil || res == nil {
		return Fallback, nil
	}
	return usableGuess(res.Charset), nil
}

// usableGuess maps a detector charset name to one Decode accepts.
func usableGuess(charset string) string {
	name := strings.ToLower(charset)
	if name == "" {
		return Fallback
	}
	if _, err := Lookup(name); err != nil {
		return Fallback
	}
	return name
}

// sampleRegion returns at most sampleSize bytes of data starting shortly
// before the first non-ASCII byte, so a long ASCII prefix does not hide the
// bytes the detector needs.
func sampleRegion(data []byte) []byte {
	if len(data) <= sampleSize {
		return data
	}
	start := 0
	for i, b := range data {
		if b >= utf8.RuneSelf {
			start = i
			break
		}
	}
	start -= sampleSize / 4
	if start < 0 {
		start = 0
	}
	if start+sampleSize > len(data) {
		start = len(data) - sampleSize
	}
	return data[start : start+sampleSize]
}

// Lookup maps an encoding name or alias to its implementation.
func Lookup(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts data in the named encoding to UTF-8 text. A leading UTF-8
// byte order mark is dropped.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}

	if enc == unicode.UTF8 {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w as %s: invalid byte sequence at offset %d", ErrDecode, name, invalidOffset(data))
		}
		return string(data), nil
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("%w as %s: %v", ErrDecode, name, err)
	}
	return string(out), nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
