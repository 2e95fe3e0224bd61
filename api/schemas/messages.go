// api/schemas/messages.go
package schemas

// Action identifies a message kind in the controller <-> agent protocol.
// Using a custom type ensures that only the predefined constants can be used
// where an Action is expected.
type Action string

const (
	// ActionCheckReady asks the agent whether the page looks solvable yet.
	// Answered synchronously.
	ActionCheckReady Action = "checkReady"
	// ActionSolvePuzzle commands a full extract-and-replay cycle. Answered
	// once the cycle has reached a terminal state.
	ActionSolvePuzzle Action = "solvePuzzle"
)

// Message is a request sent from the tab controller to a page agent.
type Message struct {
	Action Action `json:"action"`
}

// Response is the agent's reply. Ready is populated for ActionCheckReady;
// Success/Error for ActionSolvePuzzle. The loose shape mirrors the wire
// protocol, which carries exactly one of the two payloads per message kind.
type Response struct {
	Ready   bool      `json:"ready,omitempty"`
	Success bool      `json:"success,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    ErrorCode `json:"code,omitempty"`
}

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
