// api/schemas/common.go
package schemas

// TabID identifies one browser tab managed by the controller.
type TabID int

// Solution is the ordered list of target identifiers extracted from the
// page's hydration payload. Order is significant: it is the exact activation
// order. A Solution is immutable once parsed and lives for one solve cycle.
type Solution []int

// ReplayOutcome aggregates the per-step results of replaying one Solution.
// Attempted always equals Succeeded + Failed once the replay has completed.
type ReplayOutcome struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Complete reports whether every step of the replay succeeded.
func (o ReplayOutcome) Complete() bool {
	return o.Attempted > 0 && o.Failed == 0
}

// Partial reports whether the replay finished with a mix of successes and
// failures.
func (o ReplayOutcome) Partial() bool {
	return o.Failed > 0 && o.Succeeded > 0
}
