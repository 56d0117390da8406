package mustache

import (
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors. Parse and render failures wrap one of these, so callers
// can test for them with errors.Is.
var (
	ErrUnterminatedTag   = errors.New("unterminated tag")
	ErrUnclosedSection   = errors.New("unclosed section")
	ErrUnopenedSection   = errors.New("closing tag without open section")
	ErrMismatchedSection = errors.New("section close does not match open")
	ErrInvalidDelimiters = errors.New("invalid delimiter change")
	ErrEmptyTag          = errors.New("empty tag name")
	ErrNestingTooDeep    = errors.New("sections nested too deeply")
	ErrMaxDepthExceeded  = errors.New("maximum render depth exceeded")
	ErrMissingName       = errors.New("name not found in context")
	ErrMissingPartial    = errors.New("partial not found")
)

// ParseError reports a compile-time failure with its source position.
type ParseError struct {
	Err    error
	Tag    string // Tag text or name involved, if any
	Offset int    // Byte offset into the source
	Line   int    // 1-based
	Column int    // 1-based, in bytes
}

func (e *ParseError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("parse error at line %d, column %d near %q: %v", e.Line, e.Column, e.Tag, e.Err)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Err.Error()),
		slog.String("tag", e.Tag),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
		slog.Int("offset", e.Offset),
	)
}

// RenderError reports a failure while rendering the tag called Name.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("render error: %v", e.Err)
	}
	return fmt.Sprintf("render error in %q: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *RenderError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Err.Error()),
		slog.String("name", e.Name),
	)
}

// DecodeError reports an invalid byte sequence met while decoding text.
// Offset is -1 when the decoder cannot attribute the failure to one byte.
type DecodeError struct {
	Encoding string
	Offset   int
	Byte     byte
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid byte sequence for %s", e.Encoding)
	}
	return fmt.Sprintf("cannot decode byte 0x%02x at offset %d as %s", e.Byte, e.Offset, e.Encoding)
}
