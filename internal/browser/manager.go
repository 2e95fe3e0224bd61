// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/internal/config"
)

// Manager owns the Chrome process (via the chromedp exec allocator) and
// creates tab sessions on top of it.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.Mutex
	sessions []*Session
}

// NewManager launches the allocator. The browser process itself starts
// lazily with the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	m := &Manager{
		cfg:         cfg,
		logger:      logger.Named("browser_manager"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
	m.logger.Info("Browser manager created.", zap.Bool("headless", cfg.Browser.Headless))
	return m, nil
}

// NewSession opens a fresh tab and connects CDP to it.
func (m *Manager) NewSession() (*Session, error) {
	var ctxOpts []chromedp.ContextOption
	if m.cfg.Browser.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(func(format string, args ...interface{}) {
			m.logger.Sugar().Debugf(format, args...)
		}))
	}
	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx, ctxOpts...)

	// Connect the target now so the first real action doesn't pay the
	// browser startup cost inside its own timeout, and give the tab a
	// desktop-sized viewport so the puzzle grid renders in its full layout.
	if err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(1280, 900, 1.0, false),
	); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to connect CDP target: %w", err)
	}

	s := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s, nil
}

// Close tears down every session and then the browser process.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.allocCancel()
	m.logger.Info("Browser manager shut down.")
}
