// File: internal/replay/replay_test.go
package replay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/timers"
)

// mockExecutor records activation order and fails the targets it is told to.
type mockExecutor struct {
	mu         sync.Mutex
	activated  []int
	missing    map[int]bool
	activeErrs map[int]error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{missing: make(map[int]bool), activeErrs: make(map[int]error)}
}

func (m *mockExecutor) ResolveTarget(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing[id] {
		return NewElementNotFoundError(id)
	}
	return nil
}

func (m *mockExecutor) ActivateTarget(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.activeErrs[id]; err != nil {
		return err
	}
	m.activated = append(m.activated, id)
	return nil
}

func (m *mockExecutor) order() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.activated...)
}

func newTestReplayer(t *testing.T, exec Executor, pacing time.Duration) (*Replayer, *timers.Registry) {
	t.Helper()
	reg := timers.NewRegistry()
	t.Cleanup(reg.Close)
	return New(exec, reg, pacing, zaptest.NewLogger(t)), reg
}

func TestReplayEmptySolution(t *testing.T) {
	exec := newMockExecutor()
	r, reg := newTestReplayer(t, exec, time.Hour)

	outcome := r.Replay(context.Background(), nil)

	assert.Equal(t, schemas.ReplayOutcome{}, outcome)
	assert.Equal(t, 0, reg.Len(), "empty solution must not schedule any timer")
}

func TestReplayAllTargetsResolve(t *testing.T) {
	exec := newMockExecutor()
	r, _ := newTestReplayer(t, exec, 10*time.Millisecond)

	solution := schemas.Solution{3, 1, 4, 1, 5}
	start := time.Now()
	outcome := r.Replay(context.Background(), solution)
	elapsed := time.Since(start)

	assert.Equal(t, schemas.ReplayOutcome{Attempted: 5, Succeeded: 5, Failed: 0}, outcome)
	assert.True(t, outcome.Complete())
	assert.Equal(t, []int{3, 1, 4, 1, 5}, exec.order(), "activation must follow solution order")
	assert.GreaterOrEqual(t, elapsed, 5*10*time.Millisecond,
		"total span must cover one pacing delay per step")
}

func TestReplayMissingTargetDoesNotAbort(t *testing.T) {
	exec := newMockExecutor()
	exec.missing[7] = true
	r, _ := newTestReplayer(t, exec, 5*time.Millisecond)

	outcome := r.Replay(context.Background(), schemas.Solution{2, 7, 9})

	assert.Equal(t, schemas.ReplayOutcome{Attempted: 3, Succeeded: 2, Failed: 1}, outcome)
	assert.True(t, outcome.Partial())
	assert.Equal(t, []int{2, 9}, exec.order(), "steps after the failure must still run")
}

func TestReplayActivationErrorCountsAsFailure(t *testing.T) {
	exec := newMockExecutor()
	exec.activeErrs[4] = assert.AnError
	r, _ := newTestReplayer(t, exec, 5*time.Millisecond)

	outcome := r.Replay(context.Background(), schemas.Solution{4, 5})

	assert.Equal(t, schemas.ReplayOutcome{Attempted: 2, Succeeded: 1, Failed: 1}, outcome)
}

func TestReplayAllTargetsMissing(t *testing.T) {
	exec := newMockExecutor()
	exec.missing[1] = true
	exec.missing[2] = true
	r, _ := newTestReplayer(t, exec, 5*time.Millisecond)

	outcome := r.Replay(context.Background(), schemas.Solution{1, 2})

	assert.Equal(t, schemas.ReplayOutcome{Attempted: 2, Succeeded: 0, Failed: 2}, outcome)
	assert.False(t, outcome.Complete())
	assert.False(t, outcome.Partial())
}

func TestReplayReturnsEarlyOnContextCancel(t *testing.T) {
	exec := newMockExecutor()
	r, _ := newTestReplayer(t, exec, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome := r.Replay(ctx, schemas.Solution{1, 2, 3})

	require.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 0, outcome.Attempted, "no step had fired before cancellation")
}

func TestReplayReturnsWhenTimersRevokedMidFlight(t *testing.T) {
	exec := newMockExecutor()
	r, reg := newTestReplayer(t, exec, time.Hour)

	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.CancelAll()
	}()

	start := time.Now()
	// No deadline on the context: only the revocation can unblock the wait.
	outcome := r.Replay(context.Background(), schemas.Solution{1, 2, 3})

	require.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 0, outcome.Attempted, "no step had fired before revocation")
	assert.Empty(t, exec.order())
}

func TestReplayOnClosedRegistry(t *testing.T) {
	exec := newMockExecutor()
	reg := timers.NewRegistry()
	reg.Close()
	r := New(exec, reg, time.Millisecond, zaptest.NewLogger(t))

	outcome := r.Replay(context.Background(), schemas.Solution{1, 2, 3})

	assert.Equal(t, schemas.ReplayOutcome{}, outcome)
	assert.Empty(t, exec.order())
}
