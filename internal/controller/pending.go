// File: internal/controller/pending.go
package controller

import (
	"sync"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
)

// PendingNavigation is the single-slot register tracking the one tab that is
// awaiting auto-solve after navigation. At most one tab is tracked
// process-wide: a new trigger overwrites the slot, so only the most recent
// navigating tab is remembered. Single-tab tracking is deliberate, documented
// behavior, not a bug.
//
// The slot is created when the user triggers the action on a non-target page
// and consumed exactly once, either when the awaited navigation completes or
// when a newer trigger overwrites it.
type PendingNavigation struct {
	mu  sync.Mutex
	tab schemas.TabID
	set bool
}

// Set tracks tab, overwriting any previously tracked tab.
func (p *PendingNavigation) Set(tab schemas.TabID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tab = tab
	p.set = true
}

// Take consumes the slot if it currently tracks tab. Returns true on
// consumption; false when the slot is empty or tracks a different tab.
func (p *PendingNavigation) Take(tab schemas.TabID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set || p.tab != tab {
		return false
	}
	p.set = false
	return true
}

// Peek reports the tracked tab without consuming it.
func (p *PendingNavigation) Peek() (schemas.TabID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tab, p.set
}
