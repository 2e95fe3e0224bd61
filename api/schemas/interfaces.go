// api/schemas/interfaces.go
package schemas

import "context"

// -- Controller-facing collaborator contracts --
//
// The tab controller only ever talks to the browser through these interfaces.
// This decoupling is crucial for testability: the production implementations
// live in internal/browser and drive a real Chrome tab over CDP, while tests
// substitute scripted fakes.

// AgentTransport delivers protocol messages to the page agent bound to a tab,
// injecting the agent on demand.
type AgentTransport interface {
	// InjectAgent instantiates the page agent for the tab. Idempotent; fails
	// with a browser.InjectionError if the tab cannot host an agent.
	InjectAgent(ctx context.Context, tab TabID) error
	// SendToAgent delivers a message and waits for the agent's reply. Fails
	// with a browser.DeliveryError if no agent is listening, or a
	// browser.TimeoutError if the reply does not arrive before the context
	// deadline.
	SendToAgent(ctx context.Context, tab TabID, msg Message) (Response, error)
}

// TabDriver commands tab-level navigation.
type TabDriver interface {
	NavigateTab(ctx context.Context, tab TabID, url string) error
}

// BadgeSetter updates the per-tab status badge. Cosmetic and best-effort:
// implementations log failures rather than propagate them.
type BadgeSetter interface {
	SetBadge(ctx context.Context, tab TabID, text, color string) error
}

// Notifier surfaces a transient status message to the user. The rendering
// mechanism is outside the solve pipeline's scope.
type Notifier interface {
	Notify(message string, severity Severity)
}
