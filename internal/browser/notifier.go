// File: internal/browser/notifier.go
package browser

import (
	"errors"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
)

var errNoSuchTab = errors.New("no such tab")

// LogNotifier surfaces agent notifications through the structured log
// stream. The extension rendered these as a transient DOM banner; for the
// CLI the log line is the user-visible channel.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify implements schemas.Notifier.
func (n *LogNotifier) Notify(message string, severity schemas.Severity) {
	switch severity {
	case schemas.SeverityError:
		n.logger.Error(message)
	case schemas.SeverityWarning:
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}
