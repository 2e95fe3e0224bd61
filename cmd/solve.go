// File: cmd/solve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
	"github.com/xkilldash9x/autosolve-cli/internal/browser"
	"github.com/xkilldash9x/autosolve-cli/internal/controller"
	"github.com/xkilldash9x/autosolve-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// solveReport is the terminal summary written to stdout.
type solveReport struct {
	Tab       int       `json:"tab"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Elapsed   string    `json:"elapsed"`
	Timestamp time.Time `json:"timestamp"`
}

// newSolveCmd creates and configures the `solve` command.
func newSolveCmd() *cobra.Command {
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Opens the puzzle page and runs one solve cycle",
		Long: `Launches a browser tab, navigates it to the puzzle page, waits for the
page to finish hydrating, extracts the embedded solution and replays it as
paced cell activations. The cycle result is printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// Flag overrides. The config file and env carry the defaults; the
			// flags win when set explicitly.
			if cmd.Flags().Changed("url") {
				cfg.Solver.TargetURL, _ = cmd.Flags().GetString("url")
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless, _ = cmd.Flags().GetBool("headless")
			}
			if cmd.Flags().Changed("exec-path") {
				cfg.Browser.ExecPath, _ = cmd.Flags().GetString("exec-path")
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return runSolve(ctx, logger)
		},
	}

	solveCmd.Flags().String("url", "", "Puzzle page URL. (Overrides config/env)")
	solveCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	solveCmd.Flags().String("exec-path", "", "Path to the Chrome binary. (Overrides config/env)")
	solveCmd.Flags().Duration("timeout", 2*time.Minute, "Overall deadline for the solve cycle.")

	return solveCmd
}

// runSolve wires the browser, bridge and controller together and drives one
// cycle to its terminal result.
func runSolve(ctx context.Context, logger *zap.Logger) error {
	started := time.Now()

	mgr, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize browser manager: %w", err)
	}
	defer mgr.Close()

	session, err := mgr.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open browser tab: %w", err)
	}

	bridge := browser.NewBridge(cfg, browser.NewLogNotifier(logger), logger)
	defer bridge.Close()
	tab := bridge.AddTab(session)

	ctrl := controller.New(bridge, bridge, bridge, cfg.Solver, logger)
	bridge.SetNavigationHandler(func(t schemas.TabID, url string) {
		if err := ctrl.OnNavigated(ctx, t, url); err != nil {
			logger.Warn("Auto-solve after navigation failed", zap.Error(err))
		}
	})

	// The fresh tab starts on about:blank, so the trigger takes the
	// navigate-then-solve path: the tab is tracked, sent to the puzzle page,
	// and the solve resumes when the navigation completes.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Trigger(gctx, tab, "about:blank")
	})

	var res controller.Result
	g.Go(func() error {
		select {
		case res = <-ctrl.Results():
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Solve aborted", zap.Error(err))
			return fmt.Errorf("solve aborted by signal")
		}
		return err
	}

	report := solveReport{
		Tab:       int(res.Tab),
		Success:   res.Err == nil && res.Response.Success,
		Elapsed:   time.Since(started).Round(time.Millisecond).String(),
		Timestamp: time.Now().UTC(),
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal solve report: %w", err)
	}
	fmt.Println(string(out))

	if res.Err != nil {
		return fmt.Errorf("solve cycle failed: %w", res.Err)
	}
	return nil
}
