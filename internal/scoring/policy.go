package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
)

// WeightPolicy computes the raw weight of a task that passed the gate.
type WeightPolicy interface {
	Weight(task *models.Task, now time.Time) int
}

// PolicyFunc adapts a plain function to WeightPolicy.
type PolicyFunc func(task *models.Task, now time.Time) int

func (f PolicyFunc) Weight(task *models.Task, now time.Time) int {
	return f(task, now)
}

// Factors tunes DefaultPolicy.
type Factors struct {
	Priority       int `yaml:"priority"`
	Severity       int `yaml:"severity"`
	DuePerDay      int `yaml:"due_per_day"`
	DueHorizonDays int `yaml:"due_horizon_days"`
}

// DefaultFactors returns the stock factor set.
func DefaultFactors() Factors {
	return Factors{
		Priority:       10,
		Severity:       5,
		DuePerDay:      2,
		DueHorizonDays: 30,
	}
}

// Validate rejects negative factors.
func (f Factors) Validate() error {
	for name, v := range map[string]int{
		"priority":         f.Priority,
		"severity":         f.Severity,
		"due_per_day":      f.DuePerDay,
		"due_horizon_days": f.DueHorizonDays,
	} {
		if v < 0 {
			return fmt.Errorf("negative scoring factor %s: %d", name, v)
		}
	}
	return nil
}

// DefaultPolicy adds the manual adjustment, weighted priority and severity,
// and a bonus growing as the due date approaches.
type DefaultPolicy struct {
	factors Factors
}

func NewDefaultPolicy(factors Factors) *DefaultPolicy {
	return &DefaultPolicy{factors: factors}
}

func (p *DefaultPolicy) Weight(task *models.Task, now time.Time) int {
	weight := task.WeightAdjustment
	weight += task.Priority * p.factors.Priority
	weight += task.Severity * p.factors.Severity
	weight += p.dueBonus(task, now)
	return weight
}

// dueBonus is zero without a due date or beyond the horizon, and reaches
// DueHorizonDays*DuePerDay once the task is due.
func (p *DefaultPolicy) dueBonus(task *models.Task, now time.Time) int {
	if task.DueAt == nil || p.factors.DueHorizonDays == 0 {
		return 0
	}

	daysLeft := int(math.Ceil(task.DueAt.Sub(now).Hours() / 24))
	switch {
	case daysLeft <= 0:
		return p.factors.DueHorizonDays * p.factors.DuePerDay
	case daysLeft >= p.factors.DueHorizonDays:
		return 0
	default:
		return (p.factors.DueHorizonDays - daysLeft) * p.factors.DuePerDay
	}
}
