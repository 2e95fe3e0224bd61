// File: internal/replay/replay.go
package replay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/timers"
)

// Executor defines the contract for the per-target browser work, allowing for
// mocking during tests. The production implementation lives in
// internal/browser and talks to the page over CDP.
type Executor interface {
	// ResolveTarget checks that the target identifier maps to a live element.
	// Returns *ElementNotFoundError when no element matches. Targets are
	// re-resolved on every step so the replay survives content shifts.
	ResolveTarget(ctx context.Context, id int) error

	// ActivateTarget performs the activation sequence against the element:
	// native click, then mousedown/mouseup/click with the primary button,
	// then pointerdown/pointerup, all bubbling and cancelable. The page
	// listens on several event layers; the redundant dispatch triggers
	// whichever listener is actually wired.
	ActivateTarget(ctx context.Context, id int) error
}

// Replayer walks a solution in order, activating one target per pacing tick.
type Replayer struct {
	exec   Executor
	reg    *timers.Registry
	pacing time.Duration
	logger *zap.Logger
}

// New creates a Replayer that schedules its steps through the given registry.
// The registry is owned by the page agent: cancelling it cancels the replay.
func New(exec Executor, reg *timers.Registry, pacing time.Duration, logger *zap.Logger) *Replayer {
	return &Replayer{
		exec:   exec,
		reg:    reg,
		pacing: pacing,
		logger: logger.Named("replay"),
	}
}

// Replay activates every target in solution order and returns the aggregated
// outcome. It never fails outright: a target that does not resolve counts as
// one failed step and the remaining steps still run.
//
// Step i fires at (i+1) x pacing, so steps execute strictly in solution order
// and the full replay spans at least len(solution) x pacing. The outcome is
// delivered only after the final scheduled step has fired. An empty solution
// returns the zero outcome immediately without scheduling any timer.
//
// If ctx is cancelled, or the scheduled timers are revoked out from under us
// (CancelAll or Close on the owning registry), Replay returns the outcome
// accumulated so far. A registry already closed when scheduling starts yields
// the zero outcome immediately.
func (r *Replayer) Replay(ctx context.Context, solution schemas.Solution) schemas.ReplayOutcome {
	if len(solution) == 0 {
		return schemas.ReplayOutcome{}
	}

	var (
		mu      sync.Mutex
		outcome schemas.ReplayOutcome
		done    = make(chan schemas.ReplayOutcome, 1)
		last    = len(solution) - 1
	)
	// Captured before scheduling so a bulk revocation between now and the
	// final step is always observed.
	revoked := r.reg.Revoked()

	for i, id := range solution {
		i, id := i, id
		delay := time.Duration(i+1) * r.pacing
		_, scheduled := r.reg.AfterFunc(delay, func() {
			err := r.step(ctx, i, id)

			mu.Lock()
			outcome.Attempted++
			if err != nil {
				outcome.Failed++
			} else {
				outcome.Succeeded++
			}
			snapshot := outcome
			mu.Unlock()

			if i == last {
				done <- snapshot
			}
		})
		if !scheduled {
			// Registry already closed: the page is going away.
			r.logger.Warn("Replay aborted; timer registry is closed.",
				zap.Int("position", i), zap.Int("target", id))
			mu.Lock()
			snapshot := outcome
			mu.Unlock()
			return snapshot
		}
	}

	select {
	case final := <-done:
		return final
	case <-ctx.Done():
		mu.Lock()
		snapshot := outcome
		mu.Unlock()
		r.logger.Warn("Replay interrupted by context cancellation.",
			zap.Int("attempted", snapshot.Attempted))
		return snapshot
	case <-revoked:
		mu.Lock()
		snapshot := outcome
		mu.Unlock()
		r.logger.Warn("Replay timers revoked; returning accumulated outcome.",
			zap.Int("attempted", snapshot.Attempted))
		return snapshot
	}
}

// step resolves and activates one target.
func (r *Replayer) step(ctx context.Context, position, id int) error {
	if err := r.exec.ResolveTarget(ctx, id); err != nil {
		r.logger.Warn("Target did not resolve; counting step as failed.",
			zap.Int("position", position), zap.Int("target", id), zap.Error(err))
		return err
	}
	if err := r.exec.ActivateTarget(ctx, id); err != nil {
		r.logger.Warn("Target activation failed; counting step as failed.",
			zap.Int("position", position), zap.Int("target", id), zap.Error(err))
		return err
	}
	r.logger.Debug("Target activated.", zap.Int("position", position), zap.Int("target", id))
	return nil
}
