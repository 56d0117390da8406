package mustache

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/neurodesk/mustache/pkg/validator"
)

// EscapeFunc transforms interpolated text for {{name}} tags.
type EscapeFunc func(string) string

// DecodePolicy selects what happens to byte sequences that are invalid in the
// configured encoding.
type DecodePolicy int

const (
	// DecodeStrict fails with a *DecodeError.
	DecodeStrict DecodePolicy = iota
	// DecodeReplace substitutes U+FFFD.
	DecodeReplace
	// DecodeIgnore drops the offending bytes.
	DecodeIgnore
)

var decodePolicyNames = map[DecodePolicy]string{
	DecodeStrict:  "strict",
	DecodeReplace: "replace",
	DecodeIgnore:  "ignore",
}

func (p DecodePolicy) String() string {
	if s, ok := decodePolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("DecodePolicy(%d)", int(p))
}

// ParseDecodePolicy parses "strict", "replace" or "ignore".
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	for p, name := range decodePolicyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return DecodeStrict, fmt.Errorf("unknown decode policy %q", s)
}

// MissingPolicy selects what happens when a name or partial cannot be
// resolved.
type MissingPolicy int

const (
	// MissingIgnore renders missing names and partials as empty.
	MissingIgnore MissingPolicy = iota
	// MissingStrict fails the render.
	MissingStrict
)

func (p MissingPolicy) String() string {
	switch p {
	case MissingIgnore:
		return "ignore"
	case MissingStrict:
		return "strict"
	}
	return fmt.Sprintf("MissingPolicy(%d)", int(p))
}

const (
	DefaultEncoding = "utf-8"
	DefaultMaxDepth = 100
)

// Options configures decoding and rendering. The zero value is usable and
// behaves like DefaultOptions.
type Options struct {
	// Escape is applied to {{name}} output. Nil means HTMLEscape.
	Escape EscapeFunc
	// Encoding names the encoding of byte strings, both BytesValue context
	// values and templates given to ParseBytes. Empty means utf-8.
	Encoding string
	// DecodeErrors is the policy for undecodable bytes.
	DecodeErrors DecodePolicy
	// MissingTags is the policy for unresolved names and partials.
	MissingTags MissingPolicy
	// MaxDepth bounds nested partial and lambda expansion. Zero means
	// DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int
	// Logger receives debug records about missing names and partials.
	// Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns HTML escaping, strict utf-8 decoding and lenient
// handling of missing names.
func DefaultOptions() Options {
	return Options{
		Escape:       HTMLEscape,
		Encoding:     DefaultEncoding,
		DecodeErrors: DecodeStrict,
		MissingTags:  MissingIgnore,
		MaxDepth:     DefaultMaxDepth,
	}
}

func (o Options) Validate() error {
	return validator.All(
		validator.MatchesAllowed(o.DecodeErrors, []DecodePolicy{DecodeStrict, DecodeReplace, DecodeIgnore}, "decode policy"),
		validator.MatchesAllowed(o.MissingTags, []MissingPolicy{MissingIgnore, MissingStrict}, "missing tags policy"),
		validEncoding(o.Encoding),
	)
}

// Decode converts b to a string using the configured encoding and policy.
func (o Options) Decode(b []byte) (string, error) {
	return Decode(b, o.Encoding, o.DecodeErrors)
}

func (o Options) escape(s string) string {
	if o.Escape == nil {
		return HTMLEscape(s)
	}
	return o.Escape(s)
}

func (o Options) maxDepth() int {
	if o.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}
