package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding matches every *EncodingError.
	ErrEncoding = errors.New("unsupported text encoding")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("malformed strings file")
)

// EncodingError reports input that is neither UTF-8 nor BOM-prefixed UTF-16LE.
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode strings file: %s", e.Reason)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// ParseError reports the first line that could not be classified.
// Line is 0-based.
type ParseError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return fmt.Sprintf("%s: %s: %q", loc, e.Reason, e.Text)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
