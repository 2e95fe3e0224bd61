// File: internal/browser/bridge.go
package browser

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/agent"
	"github.com/xkilldash9x/autosolve-cli/internal/config"
)

// messageHandler is the bridge's view of a page agent. Narrow on purpose so
// tests can substitute a scripted handler.
type messageHandler interface {
	HandleMessage(ctx context.Context, msg schemas.Message) (schemas.Response, error)
	Close()
}

// NavigationHandler receives navigation-complete events for bridged tabs.
type NavigationHandler func(tab schemas.TabID, url string)

// Bridge realizes the controller's collaborator contracts (AgentTransport,
// TabDriver, BadgeSetter) on top of CDP tab sessions. "Injecting" an agent
// instantiates a page agent bound to the tab's session; "sending" dispatches
// a protocol message to it and waits for the reply under the caller's
// deadline.
type Bridge struct {
	cfg      *config.Config
	logger   *zap.Logger
	notifier schemas.Notifier

	mu       sync.Mutex
	nextTab  schemas.TabID
	sessions map[schemas.TabID]*Session
	agents   map[schemas.TabID]messageHandler

	navHandler NavigationHandler

	// newAgent is the construction seam; tests swap in scripted handlers.
	newAgent func(s *Session) messageHandler
}

// Interface conformance.
var (
	_ schemas.AgentTransport = (*Bridge)(nil)
	_ schemas.TabDriver      = (*Bridge)(nil)
	_ schemas.BadgeSetter    = (*Bridge)(nil)
)

// NewBridge creates a Bridge. Notifications raised by page agents are routed
// through the given notifier.
func NewBridge(cfg *config.Config, notifier schemas.Notifier, logger *zap.Logger) *Bridge {
	b := &Bridge{
		cfg:      cfg,
		logger:   logger.Named("bridge"),
		notifier: notifier,
		sessions: make(map[schemas.TabID]*Session),
		agents:   make(map[schemas.TabID]messageHandler),
	}
	b.newAgent = func(s *Session) messageHandler {
		return agent.New(s, s, b.notifier, cfg.Solver, logger)
	}
	return b
}

// AddTab registers a session and returns its tab identifier.
func (b *Bridge) AddTab(s *Session) schemas.TabID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTab++
	tab := b.nextTab
	b.sessions[tab] = s
	b.logger.Debug("Tab registered.", zap.Int("tab", int(tab)))
	return tab
}

// SetNavigationHandler wires the navigation-complete event sink. Must be set
// before navigations are issued.
func (b *Bridge) SetNavigationHandler(h NavigationHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navHandler = h
}

// InjectAgent implements schemas.AgentTransport. Idempotent: a tab that
// already hosts an agent keeps it.
func (b *Bridge) InjectAgent(ctx context.Context, tab schemas.TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.agents[tab]; ok {
		return nil
	}
	s, ok := b.sessions[tab]
	if !ok {
		return &InjectionError{Tab: tab, Err: errNoSuchTab}
	}
	b.agents[tab] = b.newAgent(s)
	b.logger.Info("Agent injected.", zap.Int("tab", int(tab)))
	return nil
}

// SendToAgent implements schemas.AgentTransport. The reply is awaited under
// ctx; an expired deadline surfaces as a TimeoutError so the controller can
// run its unreachable-agent recovery.
func (b *Bridge) SendToAgent(ctx context.Context, tab schemas.TabID, msg schemas.Message) (schemas.Response, error) {
	b.mu.Lock()
	ag, ok := b.agents[tab]
	b.mu.Unlock()
	if !ok {
		return schemas.Response{}, &DeliveryError{Tab: tab}
	}

	type reply struct {
		resp schemas.Response
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		resp, err := ag.HandleMessage(ctx, msg)
		ch <- reply{resp: resp, err: err}
	}()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return schemas.Response{}, &TimeoutError{Tab: tab, After: b.cfg.Solver.SendTimeout, Err: ctx.Err()}
	}
}

// NavigateTab implements schemas.TabDriver. Once the load completes, the
// navigation-complete event is delivered asynchronously to the registered
// handler, mirroring how the controller consumes navigation events.
func (b *Bridge) NavigateTab(ctx context.Context, tab schemas.TabID, url string) error {
	s, err := b.session(tab)
	if err != nil {
		return err
	}
	if err := s.Navigate(ctx, url); err != nil {
		return err
	}

	final, err := s.CurrentURL(ctx)
	if err != nil {
		// Redirect chasing is best-effort; fall back to the requested URL.
		final = url
	}

	b.mu.Lock()
	h := b.navHandler
	b.mu.Unlock()
	if h != nil {
		go h(tab, final)
	}
	return nil
}

// SetBadge implements schemas.BadgeSetter. There is no CDP surface for an
// extension-style badge, so the badge lives in the structured log stream.
func (b *Bridge) SetBadge(_ context.Context, tab schemas.TabID, text, color string) error {
	b.logger.Info("Badge updated.",
		zap.Int("tab", int(tab)), zap.String("text", text), zap.String("color", color))
	return nil
}

// Close tears down all agents (cancelling their pending timers) and sessions.
func (b *Bridge) Close() {
	b.mu.Lock()
	agents := b.agents
	sessions := b.sessions
	b.agents = make(map[schemas.TabID]messageHandler)
	b.sessions = make(map[schemas.TabID]*Session)
	b.mu.Unlock()

	for _, ag := range agents {
		ag.Close()
	}
	for _, s := range sessions {
		s.Close()
	}
}

func (b *Bridge) session(tab schemas.TabID) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[tab]
	if !ok {
		return nil, errNoSuchTab
	}
	return s, nil
}
