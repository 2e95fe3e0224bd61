// File: internal/extract/errors.go
package extract

import (
	"errors"
	"fmt"
)

// This file introduces the typed errors of the extraction stage. Typed errors
// let callers classify failures with errors.Is/As instead of brittle string
// matching; the agent maps them onto user-facing notifications.

var (
	// ErrDataNotFound indicates that no payload-carrying element exists in
	// the document. Raised by the page reader, not by Extract itself.
	ErrDataNotFound = errors.New("puzzle data element not found")

	// ErrDataEmpty indicates the payload element exists but its text is
	// empty or whitespace.
	ErrDataEmpty = errors.New("puzzle data element is empty")

	// ErrPatternNotMatched indicates that none of the recognized solution
	// patterns matched the payload text.
	ErrPatternNotMatched = errors.New("no solution pattern matched the payload")
)

// ParseError indicates that a pattern matched but the captured substring is
// not a flat list of non-negative integers. A ParseError is terminal: the
// remaining patterns are NOT tried after a match has been found.
type ParseError struct {
	Pattern string // name of the matcher whose capture failed to parse
	Reason  string
	Err     error // underlying decode error, if any
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solution matched by %q is not parseable: %s: %v", e.Pattern, e.Reason, e.Err)
	}
	return fmt.Sprintf("solution matched by %q is not parseable: %s", e.Pattern, e.Reason)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
