// File: internal/replay/errors.go
package replay

import "fmt"

// ElementNotFoundError is the typed error for a target identifier that does
// not resolve to any element on the page. It is non-fatal: the replayer
// counts it as one failed step and keeps going.
type ElementNotFoundError struct {
	ID int
}

// Error implements the error interface.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element found for target identifier %d", e.ID)
}

// NewElementNotFoundError creates a new ElementNotFoundError.
func NewElementNotFoundError(id int) *ElementNotFoundError {
	return &ElementNotFoundError{ID: id}
}
