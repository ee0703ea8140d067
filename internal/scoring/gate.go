package scoring

import (
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
)

// Reason names a gating condition that keeps a task from carrying a weight.
type Reason string

const (
	ReasonHidden              Reason = "hidden"
	ReasonWaitingForCustomer  Reason = "waiting_for_customer"
	ReasonMilestonePlanning   Reason = "milestone_planning"
	ReasonBlockedByDependency Reason = "blocked_by_dependency"
)

// Input bundles a task with its materialized associations. Milestone is nil
// when the task has none or it no longer exists.
type Input struct {
	Task         *models.Task
	Milestone    *models.Milestone
	Dependencies []*models.Task
}

// GateResult lists every failing condition; Scoreable is true only when
// Reasons is empty.
type GateResult struct {
	Scoreable bool     `json:"scoreable"`
	Reasons   []Reason `json:"reasons,omitempty"`
}

// Has reports whether r is among the failing conditions.
func (g GateResult) Has(r Reason) bool {
	for _, reason := range g.Reasons {
		if reason == r {
			return true
		}
	}
	return false
}

// Gate evaluates the conditions under which a task may carry a weight.
func Gate(in Input, now time.Time) GateResult {
	var reasons []Reason

	if in.Task.Hidden(now) {
		reasons = append(reasons, ReasonHidden)
	}
	if in.Task.WaitForCustomer {
		reasons = append(reasons, ReasonWaitingForCustomer)
	}
	if in.Milestone != nil && in.Milestone.Planning() {
		reasons = append(reasons, ReasonMilestonePlanning)
	}
	for _, dep := range in.Dependencies {
		if dep != nil && !dep.Done() {
			reasons = append(reasons, ReasonBlockedByDependency)
			break
		}
	}

	return GateResult{
		Scoreable: len(reasons) == 0,
		Reasons:   reasons,
	}
}
