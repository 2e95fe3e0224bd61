// File: internal/browser/session_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/autosolve-cli/internal/config"
)

func TestCellSelector(t *testing.T) {
	assert.Equal(t, `[data-cell-idx="0"]`, cellSelector("data-cell-idx", 0))
	assert.Equal(t, `[data-cell-idx="42"]`, cellSelector("data-cell-idx", 42))
	assert.Equal(t, `[data-idx="7"]`, cellSelector("data-idx", 7))
}

func TestCombineContextSecondaryCancelPropagates(t *testing.T) {
	secondary, secondaryCancel := context.WithCancel(context.Background())

	combined, cancel := combineContext(context.Background(), secondary)
	defer cancel()

	select {
	case <-combined.Done():
		t.Fatal("combined context done before either parent")
	default:
	}

	secondaryCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("secondary cancellation did not propagate")
	}
}

func TestCombineContextPrimaryCancelPropagates(t *testing.T) {
	primary, primaryCancel := context.WithCancel(context.Background())
	secondary := context.Background()

	combined, cancel := combineContext(primary, secondary)
	defer cancel()

	primaryCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("primary cancellation did not propagate")
	}
}

func TestClosedSessionRefusesEvaluation(t *testing.T) {
	s := &Session{
		id:      "test",
		cfg:     config.Default(),
		logger:  zaptest.NewLogger(t),
		limiter: rate.NewLimiter(rate.Every(evalInterval), 1),
	}
	s.isClosed = true

	_, err := s.PayloadText(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	err = s.ResolveTarget(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(ctx, cancel, config.Default(), zaptest.NewLogger(t))

	s.Close()
	s.Close()
	assert.Error(t, ctx.Err())
}
