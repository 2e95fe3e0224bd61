// api/schemas/errors.go
package schemas

// ErrorCode is a string type used for structured error reporting across the
// solve pipeline. Using a custom type ensures that only predefined constants
// can be used where an ErrorCode is expected.
type ErrorCode string

const (
	// -- Extraction errors (terminal for the solve cycle) --
	ErrCodeDataNotFound      ErrorCode = "DATA_NOT_FOUND"
	ErrCodeDataEmpty         ErrorCode = "DATA_EMPTY"
	ErrCodePatternNotMatched ErrorCode = "PATTERN_NOT_MATCHED"
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"

	// -- Messaging errors (trigger exactly one inject-and-retry recovery) --
	ErrCodeInjectionError ErrorCode = "INJECTION_ERROR"
	ErrCodeTimeout        ErrorCode = "TIMEOUT"
	ErrCodeDeliveryError  ErrorCode = "DELIVERY_ERROR"

	// -- Replay errors (absorbed into the outcome counts, never fatal) --
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
)
