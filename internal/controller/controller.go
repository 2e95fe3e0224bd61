// File: internal/controller/controller.go
//
// The tab controller is the privileged half of the solve handshake. It owns
// per-tab navigation state, decides whether to navigate or solve in place on
// a user trigger, polls agent readiness with a bounded retry budget, and
// delivers the solve command with on-demand agent injection and a single
// retry.
package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/config"
)

// Badge presentation for terminal cycle states.
const (
	badgeTextSuccess  = "OK"
	badgeTextFailure  = "ERR"
	badgeColorSuccess = "#1b5e20"
	badgeColorFailure = "#b71c1c"
)

// Result is the terminal record of one solve cycle.
type Result struct {
	Tab      schemas.TabID
	Response schemas.Response
	Err      error
}

// Controller coordinates solve cycles across tabs. All browser access goes
// through the injected collaborator interfaces, which keeps the retry and
// handshake logic fully testable.
type Controller struct {
	transport schemas.AgentTransport
	tabs      schemas.TabDriver
	badge     schemas.BadgeSetter
	cfg       config.SolverConfig
	logger    *zap.Logger

	pending PendingNavigation
	results chan Result
}

// New creates a Controller.
func New(transport schemas.AgentTransport, tabs schemas.TabDriver, badge schemas.BadgeSetter,
	cfg config.SolverConfig, logger *zap.Logger) *Controller {
	return &Controller{
		transport: transport,
		tabs:      tabs,
		badge:     badge,
		cfg:       cfg,
		logger:    logger.Named("controller"),
		results:   make(chan Result, 8),
	}
}

// Results exposes the terminal records of completed solve cycles.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Trigger handles the user action for a tab. On a non-target page the tab is
// tracked in the pending-navigation slot and sent to the puzzle page; the
// solve resumes in OnNavigated. On the target page the solve starts
// immediately.
func (c *Controller) Trigger(ctx context.Context, tab schemas.TabID, currentURL string) error {
	log := c.logger.With(zap.Int("tab", int(tab)))

	if !strings.Contains(currentURL, c.cfg.TargetURLMatch) {
		c.pending.Set(tab)
		log.Info("Trigger on a non-target page; navigating to the puzzle.",
			zap.String("current_url", currentURL), zap.String("target_url", c.cfg.TargetURL))
		if err := c.tabs.NavigateTab(ctx, tab, c.cfg.TargetURL); err != nil {
			// Only clear the slot if a newer trigger hasn't claimed it.
			c.pending.Take(tab)
			return fmt.Errorf("navigation to %s failed: %w", c.cfg.TargetURL, err)
		}
		return nil
	}

	log.Info("Trigger on the target page; solving in place.")
	return c.solve(ctx, tab)
}

// OnNavigated handles a navigation-complete event. Only a navigation of the
// tracked tab onto the target page starts an auto-solve; everything else is
// ignored.
func (c *Controller) OnNavigated(ctx context.Context, tab schemas.TabID, url string) error {
	if !strings.Contains(url, c.cfg.TargetURLMatch) {
		return nil
	}
	if !c.pending.Take(tab) {
		return nil
	}

	c.logger.Info("Tracked navigation completed; waiting for the page to settle.",
		zap.Int("tab", int(tab)), zap.Duration("settle", c.cfg.NavigationSettle))
	if err := sleepCtx(ctx, c.cfg.NavigationSettle); err != nil {
		return err
	}
	return c.solve(ctx, tab)
}

// solve runs the polling and dispatch phases for one tab and records the
// terminal result.
func (c *Controller) solve(ctx context.Context, tab schemas.TabID) error {
	c.awaitReady(ctx, tab)
	resp, err := c.dispatch(ctx, tab)

	c.setBadge(ctx, tab, err == nil && resp.Success)
	c.deliver(Result{Tab: tab, Response: resp, Err: err})
	return err
}

// awaitReady polls agent readiness. The budget bounds the loop but exhausting
// it does not fail the cycle: the solve proceeds best-effort.
func (c *Controller) awaitReady(ctx context.Context, tab schemas.TabID) {
	log := c.logger.With(zap.Int("tab", int(tab)))

	remaining := c.cfg.MaxRetries
	for {
		if c.checkOnce(ctx, tab, log) {
			log.Debug("Agent reports ready.")
			return
		}
		remaining--
		if remaining <= 0 {
			log.Warn("Readiness budget exhausted; dispatching best-effort.")
			return
		}
		if err := sleepCtx(ctx, c.cfg.RetryDelay); err != nil {
			return
		}
	}
}

// checkOnce performs one readiness attempt. An unreachable agent is injected
// and given the settle delay, and the attempt concludes "not ready" without
// re-querying the freshly injected agent.
func (c *Controller) checkOnce(ctx context.Context, tab schemas.TabID, log *zap.Logger) bool {
	resp, err := c.send(ctx, tab, schemas.Message{Action: schemas.ActionCheckReady})
	if err != nil {
		log.Debug("Agent unreachable during readiness poll; injecting.", zap.Error(err))
		if ierr := c.injectAndSettle(ctx, tab); ierr != nil {
			log.Warn("Agent injection failed during readiness poll.", zap.Error(ierr))
		}
		return false
	}
	return resp.Ready
}

// dispatch sends the solve command. An unreachable agent triggers exactly one
// inject-and-resend recovery; any further failure is terminal for the cycle.
func (c *Controller) dispatch(ctx context.Context, tab schemas.TabID) (schemas.Response, error) {
	log := c.logger.With(zap.Int("tab", int(tab)))
	solveMsg := schemas.Message{Action: schemas.ActionSolvePuzzle}

	resp, err := c.send(ctx, tab, solveMsg)
	if err != nil {
		log.Warn("Solve delivery failed; reinjecting agent and retrying once.", zap.Error(err))
		if ierr := c.injectAndSettle(ctx, tab); ierr != nil {
			return schemas.Response{}, fmt.Errorf("agent reinjection failed: %w", ierr)
		}
		resp, err = c.send(ctx, tab, solveMsg)
		if err != nil {
			return schemas.Response{}, fmt.Errorf("solve delivery failed after reinjection: %w", err)
		}
	}

	if !resp.Success {
		return resp, fmt.Errorf("solve cycle reported failure: %s", resp.Error)
	}
	log.Info("Solve cycle dispatched and completed.")
	return resp, nil
}

// send delivers one message, bounded by the configured send timeout.
func (c *Controller) send(ctx context.Context, tab schemas.TabID, msg schemas.Message) (schemas.Response, error) {
	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()
	return c.transport.SendToAgent(sendCtx, tab, msg)
}

func (c *Controller) injectAndSettle(ctx context.Context, tab schemas.TabID) error {
	if err := c.transport.InjectAgent(ctx, tab); err != nil {
		return err
	}
	return sleepCtx(ctx, c.cfg.InjectSettle)
}

// setBadge is cosmetic and best-effort; failures are logged, never propagated.
func (c *Controller) setBadge(ctx context.Context, tab schemas.TabID, ok bool) {
	text, color := badgeTextSuccess, badgeColorSuccess
	if !ok {
		text, color = badgeTextFailure, badgeColorFailure
	}
	if err := c.badge.SetBadge(ctx, tab, text, color); err != nil {
		c.logger.Debug("Badge update failed.", zap.Int("tab", int(tab)), zap.Error(err))
	}
}

// deliver records a terminal result without ever blocking the solve path.
func (c *Controller) deliver(res Result) {
	select {
	case c.results <- res:
	default:
		c.logger.Warn("Result channel full; dropping result.", zap.Int("tab", int(res.Tab)))
	}
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
