// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/autosolve-cli/internal/config"
	"github.com/xkilldash9x/autosolve-cli/internal/extract"
	"github.com/xkilldash9x/autosolve-cli/internal/replay"
)

// evalInterval throttles CDP evaluations per session. The replay pacing is
// enforced upstream by the agent's timer registry; this limiter only keeps
// bursts of protocol traffic off the DevTools socket.
const evalInterval = 10 * time.Millisecond

// Session represents one browser tab connected over CDP. It implements
// agent.Page and replay.Executor: the page agent's entire view of the live
// document goes through this type.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	limiter *rate.Limiter

	mu       sync.Mutex
	isClosed bool
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger.Named("session").With(zap.String("session_id", sessionID)),
		limiter: rate.NewLimiter(rate.Every(evalInterval), 1),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Navigate loads the URL and waits for the document to become ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(s.ctx, navTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// CurrentURL reports the tab's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// payloadProbe is the shape returned by the payload-reading expression.
type payloadProbe struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// PayloadText implements agent.Page. It returns the text of the hydration
// payload element, or an error wrapping extract.ErrDataNotFound when no
// element matches the configured selector.
func (s *Session) PayloadText(ctx context.Context) (string, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return {found: false, text: ""}; }
		return {found: true, text: el.textContent || ""};
	})()`, strconv.Quote(s.cfg.Solver.PayloadSelector))

	var probe payloadProbe
	if err := s.run(ctx, chromedp.Evaluate(expr, &probe)); err != nil {
		return "", fmt.Errorf("payload probe failed: %w", err)
	}
	if !probe.Found {
		return "", fmt.Errorf("%w (selector %q)", extract.ErrDataNotFound, s.cfg.Solver.PayloadSelector)
	}
	return probe.Text, nil
}

// ResolveTarget implements replay.Executor. Targets are re-resolved on every
// step, so a replay survives the page re-rendering between steps.
func (s *Session) ResolveTarget(ctx context.Context, id int) error {
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`,
		strconv.Quote(cellSelector(s.cfg.Solver.CellAttribute, id)))

	var found bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("target resolution failed: %w", err)
	}
	if !found {
		return replay.NewElementNotFoundError(id)
	}
	return nil
}

// ActivateTarget implements replay.Executor. It performs the native click
// followed by the redundant mouse and pointer event storm; the page listens
// on several event layers and this hits all of them.
func (s *Session) ActivateTarget(ctx context.Context, id int) error {
	expr := fmt.Sprintf(activateExpr, strconv.Quote(cellSelector(s.cfg.Solver.CellAttribute, id)))

	var activated bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &activated)); err != nil {
		return fmt.Errorf("target activation failed: %w", err)
	}
	if !activated {
		// The element vanished between resolution and activation.
		return replay.NewElementNotFoundError(id)
	}
	return nil
}

// activateExpr dispatches the full activation sequence against one element.
// All synthetic events bubble and are cancelable.
const activateExpr = `(() => {
	const el = document.querySelector(%s);
	if (!el) { return false; }
	el.click();
	const mouseOpts = {bubbles: true, cancelable: true, view: window, button: 0};
	for (const type of ['mousedown', 'mouseup', 'click']) {
		el.dispatchEvent(new MouseEvent(type, mouseOpts));
	}
	const pointerOpts = {bubbles: true, cancelable: true, pointerType: 'mouse', isPrimary: true};
	for (const type of ['pointerdown', 'pointerup']) {
		el.dispatchEvent(new PointerEvent(type, pointerOpts));
	}
	return true;
})()`

// cellSelector builds the attribute selector for one target identifier.
func cellSelector(attribute string, id int) string {
	return fmt.Sprintf(`[%s="%d"]`, attribute, id)
}

// run executes CDP actions against this tab, throttled by the session
// limiter and bounded by both the operation and session contexts.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("session %s is closed", s.id)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Close tears down the tab.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return
	}
	s.isClosed = true
	s.cancel()
	s.logger.Debug("Session closed.")
}

// combineContext derives a context from primary that is also cancelled when
// secondary is done.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
