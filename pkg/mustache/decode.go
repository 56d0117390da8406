package mustache

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Decode converts b from the named encoding to a Go string. utf-8 and ascii
// are decoded directly; any other WHATWG encoding label is looked up in
// golang.org/x/text.
func Decode(b []byte, encoding string, policy DecodePolicy) (string, error) {
	label := normalizeEncoding(encoding)
	switch label {
	case "utf-8":
		return decodeWith(b, label, policy, utf8.DecodeRune)
	case "ascii":
		return decodeWith(b, label, policy, decodeASCIIRune)
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", encoding, err)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &DecodeError{Encoding: label, Offset: -1}
	}
	s := string(out)
	if policy == DecodeReplace || !strings.ContainsRune(s, utf8.RuneError) {
		return s, nil
	}
	// x/text substitutes U+FFFD for invalid input. Output that encodes back
	// to the input holds only genuine U+FFFD characters.
	if roundTrips(enc, out, b) {
		return s, nil
	}
	return decodeChunks(b, enc, label, policy)
}

// decodeChunks decodes b into at most utf8.UTFMax bytes at a time, so a
// chunk holds at most one U+FFFD and each one can be classified as
// substituted or genuine.
func decodeChunks(b []byte, enc encoding.Encoding, label string, policy DecodePolicy) (string, error) {
	dec := enc.NewDecoder()
	dst := make([]byte, utf8.UTFMax)
	var sb strings.Builder
	sb.Grow(len(b))
	for p := 0; p < len(b); {
		nDst, nSrc, err := dec.Transform(dst, b[p:], true)
		if nSrc == 0 {
			if errors.Is(err, transform.ErrShortDst) {
				// Some decoders emit several runes for one input sequence.
				dst = make([]byte, 2*len(dst))
				continue
			}
			return "", &DecodeError{Encoding: label, Offset: p, Byte: b[p]}
		}
		chunk := dst[:nDst]
		if bytes.ContainsRune(chunk, utf8.RuneError) && !roundTrips(enc, chunk, b[p:p+nSrc]) {
			if policy == DecodeStrict {
				return "", &DecodeError{Encoding: label, Offset: p, Byte: b[p]}
			}
			chunk = bytes.ReplaceAll(chunk, []byte(string(utf8.RuneError)), nil)
		}
		sb.Write(chunk)
		p += nSrc
	}
	return sb.String(), nil
}

func roundTrips(enc encoding.Encoding, decoded, src []byte) bool {
	back, err := enc.NewEncoder().Bytes(decoded)
	return err == nil && bytes.Equal(back, src)
}

func normalizeEncoding(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "utf8", "utf-8":
		return "utf-8"
	case "ascii", "us-ascii":
		return "ascii"
	default:
		return n
	}
}

func validEncoding(name string) error {
	switch label := normalizeEncoding(name); label {
	case "utf-8", "ascii":
		return nil
	default:
		if _, err := htmlindex.Get(label); err != nil {
			return fmt.Errorf("unknown encoding %q: %w", name, err)
		}
		return nil
	}
}

func decodeASCIIRune(b []byte) (rune, int) {
	if b[0] >= utf8.RuneSelf {
		return utf8.RuneError, 1
	}
	return rune(b[0]), 1
}

func decodeWith(b []byte, label string, policy DecodePolicy, next func([]byte) (rune, int)) (string, error) {
	if label == "utf-8" && utf8.Valid(b) {
		return string(b), nil
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		r, size := next(b[i:])
		if r == utf8.RuneError && size <= 1 {
			switch policy {
			case DecodeStrict:
				return "", &DecodeError{Encoding: label, Offset: i, Byte: b[i]}
			case DecodeReplace:
				sb.WriteRune(utf8.RuneError)
			}
			i++
			continue
		}
		sb.Write(b[i : i+size])
		i += size
	}
	return sb.String(), nil
}
