package scoring

import (
	"log/slog"
	"time"
)

// Scorer applies the gate and, for tasks that pass it, the weight policy.
type Scorer struct {
	policy WeightPolicy
	logger *slog.Logger
}

// NewScorer creates a Scorer. A nil policy falls back to DefaultPolicy with
// DefaultFactors.
func NewScorer(policy WeightPolicy, logger *slog.Logger) *Scorer {
	if policy == nil {
		policy = NewDefaultPolicy(DefaultFactors())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		policy: policy,
		logger: logger,
	}
}

// Scoreable reports whether the task may carry a weight at now.
func (s *Scorer) Scoreable(in Input, now time.Time) bool {
	return Gate(in, now).Scoreable
}

// Weight returns nil for gated tasks, otherwise the policy weight floored at 0.
func (s *Scorer) Weight(in Input, now time.Time) *int {
	if !s.Scoreable(in, now) {
		return nil
	}
	return s.policyWeight(in, now)
}

func (s *Scorer) policyWeight(in Input, now time.Time) *int {
	weight := s.policy.Weight(in.Task, now)
	if weight < 0 {
		weight = 0
	}
	return &weight
}

// Apply stores the computed weight on the task and returns the gate result.
func (s *Scorer) Apply(in Input, now time.Time) GateResult {
	gate := Gate(in, now)
	if !gate.Scoreable {
		in.Task.Weight = nil
		s.logger.Debug("task not scoreable", "task_id", in.Task.ID, "reasons", gate.Reasons)
		return gate
	}

	in.Task.Weight = s.policyWeight(in, now)
	return gate
}
