// File: internal/browser/bridge_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubHandler scripts the page-agent side of the message protocol.
type stubHandler struct {
	resp    schemas.Response
	err     error
	block   bool
	calls   int
	closed  bool
	lastMsg schemas.Message
}

func (h *stubHandler) HandleMessage(ctx context.Context, msg schemas.Message) (schemas.Response, error) {
	h.calls++
	h.lastMsg = msg
	if h.block {
		<-ctx.Done()
		return schemas.Response{}, ctx.Err()
	}
	return h.resp, h.err
}

func (h *stubHandler) Close() { h.closed = true }

func newTestBridge(t *testing.T, handler messageHandler) (*Bridge, schemas.TabID) {
	t.Helper()
	cfg := config.Default()
	logger := zaptest.NewLogger(t)
	b := NewBridge(cfg, NewLogNotifier(logger), logger)
	b.newAgent = func(_ *Session) messageHandler { return handler }

	tab := b.AddTab(&Session{logger: logger})
	return b, tab
}

func TestInjectAgentIsIdempotent(t *testing.T) {
	handler := &stubHandler{}
	injected := 0
	b, tab := newTestBridge(t, handler)
	b.newAgent = func(_ *Session) messageHandler {
		injected++
		return handler
	}

	require.NoError(t, b.InjectAgent(context.Background(), tab))
	require.NoError(t, b.InjectAgent(context.Background(), tab))
	assert.Equal(t, 1, injected, "a tab that already hosts an agent keeps it")
}

func TestInjectAgentUnknownTab(t *testing.T) {
	b, _ := newTestBridge(t, &stubHandler{})

	err := b.InjectAgent(context.Background(), schemas.TabID(99))
	var injErr *InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Equal(t, schemas.TabID(99), injErr.Tab)
}

func TestSendToAgentDeliversAndReplies(t *testing.T) {
	handler := &stubHandler{resp: schemas.Response{Ready: true}}
	b, tab := newTestBridge(t, handler)
	require.NoError(t, b.InjectAgent(context.Background(), tab))

	resp, err := b.SendToAgent(context.Background(), tab, schemas.Message{Action: schemas.ActionCheckReady})
	require.NoError(t, err)
	assert.True(t, resp.Ready)
	assert.Equal(t, schemas.ActionCheckReady, handler.lastMsg.Action)
}

func TestSendToAgentWithoutAgent(t *testing.T) {
	b, tab := newTestBridge(t, &stubHandler{})

	_, err := b.SendToAgent(context.Background(), tab, schemas.Message{Action: schemas.ActionCheckReady})
	var delErr *DeliveryError
	require.ErrorAs(t, err, &delErr)
	assert.Equal(t, tab, delErr.Tab)
}

func TestSendToAgentTimesOut(t *testing.T) {
	handler := &stubHandler{block: true}
	b, tab := newTestBridge(t, handler)
	require.NoError(t, b.InjectAgent(context.Background(), tab))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.SendToAgent(ctx, tab, schemas.Message{Action: schemas.ActionSolvePuzzle})
	var toErr *TimeoutError
	require.ErrorAs(t, err, &toErr)
	assert.Equal(t, tab, toErr.Tab)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendToAgentPropagatesHandlerError(t *testing.T) {
	boom := errors.New("handler exploded")
	handler := &stubHandler{err: boom}
	b, tab := newTestBridge(t, handler)
	require.NoError(t, b.InjectAgent(context.Background(), tab))

	_, err := b.SendToAgent(context.Background(), tab, schemas.Message{Action: schemas.ActionSolvePuzzle})
	assert.ErrorIs(t, err, boom)
}

func TestNavigateTabUnknownTab(t *testing.T) {
	b, _ := newTestBridge(t, &stubHandler{})

	err := b.NavigateTab(context.Background(), schemas.TabID(42), "https://example.com")
	assert.ErrorIs(t, err, errNoSuchTab)
}

func TestCloseShutsDownAgents(t *testing.T) {
	handler := &stubHandler{}
	b, tab := newTestBridge(t, handler)
	require.NoError(t, b.InjectAgent(context.Background(), tab))

	// Give each registered session a cancel func so Close can tear it down.
	b.mu.Lock()
	for _, s := range b.sessions {
		ctx, cancel := context.WithCancel(context.Background())
		s.ctx, s.cancel = ctx, cancel
	}
	b.mu.Unlock()

	b.Close()
	assert.True(t, handler.closed)

	_, err := b.SendToAgent(context.Background(), tab, schemas.Message{Action: schemas.ActionCheckReady})
	var delErr *DeliveryError
	assert.ErrorAs(t, err, &delErr, "agents are gone after Close")
}

func TestSetBadgeNeverFails(t *testing.T) {
	b, tab := newTestBridge(t, &stubHandler{})
	assert.NoError(t, b.SetBadge(context.Background(), tab, "OK", "#1b5e20"))
}
