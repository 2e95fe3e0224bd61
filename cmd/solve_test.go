// File: cmd/solve_test.go
package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveCommandFlags(t *testing.T) {
	c := newSolveCmd()

	for _, name := range []string{"url", "headless", "exec-path", "timeout"} {
		assert.NotNil(t, c.Flags().Lookup(name), "flag %q must be registered", name)
	}

	timeout, err := c.Flags().GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, timeout)
}

func TestRootCommandHasSolve(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "solve" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSolveReportMarshalling(t *testing.T) {
	report := solveReport{
		Tab:     1,
		Success: true,
		Elapsed: "1.5s",
	}

	out, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"success":true`)
	assert.NotContains(t, string(out), `"error"`, "empty error is omitted")
}
