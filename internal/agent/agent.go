// File: internal/agent/agent.go
//
// The page agent is the in-page half of the solve handshake. It owns the
// readiness predicate, the cancellable timer registry, and the two-message
// protocol exposed to the tab controller, and it orchestrates extraction and
// replay for one tab.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/config"
	"github.com/xkilldash9x/autosolve-cli/internal/extract"
	"github.com/xkilldash9x/autosolve-cli/internal/replay"
	"github.com/xkilldash9x/autosolve-cli/internal/timers"
)

// Page is the agent's window onto the live document.
type Page interface {
	// PayloadText returns the text content of the hydration payload element.
	// Returns an error wrapping extract.ErrDataNotFound when no payload
	// element exists.
	PayloadText(ctx context.Context) (string, error)
}

// State names one phase of a solve cycle.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateReplaying  State = "replaying"
	StateReported   State = "reported"
)

// Agent runs solve cycles against one page. Solve cycles are serialized on an
// internal mutex: when a dispatcher abandons a timed-out send and resends, the
// abandoned cycle finishes (or aborts on its cancelled context) before the
// retried one starts. A new solve cycle cancels any timers left over from the
// previous cycle before touching the page.
type Agent struct {
	page     Page
	notifier schemas.Notifier
	registry *timers.Registry
	replayer *replay.Replayer
	cfg      config.SolverConfig
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates an Agent bound to one page. The agent owns its timer registry;
// exec is the browser-side executor the replayer dispatches through.
func New(page Page, exec replay.Executor, notifier schemas.Notifier, cfg config.SolverConfig, logger *zap.Logger) *Agent {
	registry := timers.NewRegistry()
	log := logger.Named("agent")
	return &Agent{
		page:     page,
		notifier: notifier,
		registry: registry,
		replayer: replay.New(exec, registry, cfg.Pacing, log),
		cfg:      cfg,
		logger:   log,
		state:    StateIdle,
	}
}

// HandleMessage dispatches one protocol message and produces its reply.
// checkReady is answered synchronously; solvePuzzle runs a full solve cycle
// before replying.
func (a *Agent) HandleMessage(ctx context.Context, msg schemas.Message) (schemas.Response, error) {
	switch msg.Action {
	case schemas.ActionCheckReady:
		return schemas.Response{Ready: a.CheckReady(ctx)}, nil
	case schemas.ActionSolvePuzzle:
		if err := a.Solve(ctx); err != nil {
			return schemas.Response{Success: false, Error: err.Error(), Code: errorCode(err)}, nil
		}
		return schemas.Response{Success: true}, nil
	default:
		return schemas.Response{}, fmt.Errorf("unknown action %q", msg.Action)
	}
}

// CheckReady answers the readiness query: the payload element exists and its
// text is longer than the configured minimum. A heuristic proxy for "fully
// populated", not a structural guarantee; it holds no state.
func (a *Agent) CheckReady(ctx context.Context) bool {
	text, err := a.page.PayloadText(ctx)
	return err == nil && len(text) > a.cfg.MinPayloadLength
}

// Solve runs one complete extract-and-replay cycle. Extraction errors are
// terminal for the cycle and propagated to the caller; replay step failures
// are absorbed into the outcome counts. At most one cycle runs at a time: a
// concurrent call blocks until the running cycle reaches its terminal state.
func (a *Agent) Solve(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cycleID := uuid.NewString()
	log := a.logger.With(zap.String("cycle_id", cycleID))
	started := time.Now()

	// A fresh cycle starts by cancelling every timer the previous one may
	// have left behind. Defends against double-triggering the action.
	a.registry.CancelAll()

	a.transition(log, StateExtracting)
	text, err := a.page.PayloadText(ctx)
	var solution schemas.Solution
	if err == nil {
		solution, err = extract.Extract(text)
	}
	if err != nil {
		a.transition(log, StateReported)
		log.Error("Solve cycle failed during extraction.", zap.Error(err))
		a.notifier.Notify(fmt.Sprintf("Could not read the puzzle solution: %v", err), schemas.SeverityError)
		return err
	}

	a.transition(log, StateReplaying)
	log.Info("Solution extracted; replaying.", zap.Int("targets", len(solution)))
	outcome := a.replayer.Replay(ctx, solution)

	a.transition(log, StateReported)
	a.report(log, outcome, time.Since(started))
	return nil
}

// Close cancels all pending timers and refuses further scheduling. Called at
// page teardown so no callback can outlive the page.
func (a *Agent) Close() {
	a.registry.Close()
}

// State returns the current cycle phase.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// PendingTimers reports how many scheduled callbacks are outstanding.
func (a *Agent) PendingTimers() int {
	return a.registry.Len()
}

// errorCode classifies a solve failure for the structured response payload.
func errorCode(err error) schemas.ErrorCode {
	var perr *extract.ParseError
	switch {
	case errors.Is(err, extract.ErrDataNotFound):
		return schemas.ErrCodeDataNotFound
	case errors.Is(err, extract.ErrDataEmpty):
		return schemas.ErrCodeDataEmpty
	case errors.Is(err, extract.ErrPatternNotMatched):
		return schemas.ErrCodePatternNotMatched
	case errors.As(err, &perr):
		return schemas.ErrCodeParseError
	default:
		return ""
	}
}

func (a *Agent) transition(log *zap.Logger, next State) {
	log.Debug("State transition.", zap.String("from", string(a.state)), zap.String("to", string(next)))
	a.state = next
}

func (a *Agent) report(log *zap.Logger, outcome schemas.ReplayOutcome, elapsed time.Duration) {
	log.Info("Solve cycle finished.",
		zap.Int("attempted", outcome.Attempted),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
		zap.Duration("elapsed", elapsed))

	switch {
	case outcome.Attempted == 0:
		a.notifier.Notify("Puzzle solution was empty; nothing to replay.", schemas.SeverityWarning)
	case outcome.Failed == 0:
		a.notifier.Notify(fmt.Sprintf("Puzzle solved: %d cells activated.", outcome.Succeeded), schemas.SeveritySuccess)
	default:
		a.notifier.Notify(fmt.Sprintf("Puzzle partially solved: %d of %d cells activated.",
			outcome.Succeeded, outcome.Attempted), schemas.SeverityWarning)
	}
}
