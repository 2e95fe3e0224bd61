// File: internal/browser/errors.go
package browser

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
)

// This file introduces the typed errors of the messaging layer. Typed errors
// let the controller and its tests classify failures with errors.As instead
// of brittle string matching.

// InjectionError indicates that a tab cannot host a page agent (restricted
// page, closed tab, dead session).
type InjectionError struct {
	Tab schemas.TabID
	Err error
}

// Error implements the error interface.
func (e *InjectionError) Error() string {
	return fmt.Sprintf("cannot inject agent into tab %d: %v", e.Tab, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *InjectionError) Unwrap() error {
	return e.Err
}

// DeliveryError indicates that a message could not be delivered because no
// agent is listening on the tab.
type DeliveryError struct {
	Tab schemas.TabID
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("no agent listening on tab %d", e.Tab)
}

// TimeoutError indicates that the agent did not reply before the send
// deadline. Treated by the controller exactly like a delivery failure.
type TimeoutError struct {
	Tab   schemas.TabID
	After time.Duration
	Err   error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent on tab %d did not reply within %s", e.Tab, e.After)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}
