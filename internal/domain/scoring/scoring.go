// Package scoring computes how well a worker fits a task.
package scoring

import (
	"math"

	"github.com/okian/taskmatch/internal/domain/model"
)

// Default scoring configuration constants.
const (
	DefaultSkillWeight            = 0.4
	DefaultAvailabilityWeight     = 0.3
	DefaultRelevanceBonus         = 20.0
	DefaultPriorityBonus          = 10.0
	DefaultPrioritySkillThreshold = 70.0
	maxScoreValue                 = 100.0
)

// Scorer rates a worker for a task on a 0-100 scale.
type Scorer interface {
	Score(task model.Task, worker model.Worker) float64
}

// SkillSource supplies the skill input for a worker on a given task.
type SkillSource interface {
	Skill(task model.Task, worker model.Worker) float64
}

// SkillSourceFunc adapts a function to SkillSource.
type SkillSourceFunc func(task model.Task, worker model.Worker) float64

// Skill implements SkillSource.
func (f SkillSourceFunc) Skill(task model.Task, worker model.Worker) float64 { return f(task, worker) }

// StoredSkill reads the worker's stored skill level.
var StoredSkill SkillSource = SkillSourceFunc(func(_ model.Task, w model.Worker) float64 {
	return w.SkillLevel
})

// Breakdown lists each component of a fitness score.
type Breakdown struct {
	Skill            float64 `json:"skill"`
	Workload         float64 `json:"workload"`
	SkillPart        float64 `json:"skill_part"`
	AvailabilityPart float64 `json:"availability_part"`
	Relevant         bool    `json:"relevant"`
	RelevanceBonus   float64 `json:"relevance_bonus"`
	PriorityBonus    float64 `json:"priority_bonus"`
	Raw              float64 `json:"raw"`
	Score            float64 `json:"score"`
}

// FitnessScorer implements Scorer as a weighted sum of skill and availability
// plus department relevance and high-priority bonuses.
type FitnessScorer struct {
	skillWeight            float64
	availabilityWeight     float64
	relevanceBonus         float64
	priorityBonus          float64
	prioritySkillThreshold float64
	relevance              RelevanceTable
	skills                 SkillSource
}

// NewFitnessScorer creates a scorer with the default weights and relevance table.
func NewFitnessScorer(opts ...Option) *FitnessScorer {
	s := &FitnessScorer{
		skillWeight:            DefaultSkillWeight,
		availabilityWeight:     DefaultAvailabilityWeight,
		relevanceBonus:         DefaultRelevanceBonus,
		priorityBonus:          DefaultPriorityBonus,
		prioritySkillThreshold: DefaultPrioritySkillThreshold,
		relevance:              DefaultRelevance(),
		skills:                 StoredSkill,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score returns the clamped fitness score.
func (s *FitnessScorer) Score(task model.Task, worker model.Worker) float64 {
	return s.Breakdown(task, worker).Score
}

// Breakdown computes the score and its components.
func (s *FitnessScorer) Breakdown(task model.Task, worker model.Worker) Breakdown {
	skill := unit(s.skills.Skill(task, worker))
	workload := unit(worker.WorkloadPercent)

	b := Breakdown{
		Skill:            skill,
		Workload:         workload,
		SkillPart:        s.skillWeight * skill,
		AvailabilityPart: s.availabilityWeight * (maxScoreValue - workload),
	}
	if s.relevance.Relevant(worker.Department, task.Description) {
		b.Relevant = true
		b.RelevanceBonus = s.relevanceBonus
	}
	if task.Priority == model.PriorityHigh && skill > s.prioritySkillThreshold {
		b.PriorityBonus = s.priorityBonus
	}

	b.Raw = b.SkillPart + b.AvailabilityPart + b.RelevanceBonus + b.PriorityBonus
	b.Score = clamp(b.Raw)
	return b
}

// unit clamps a 0-100 input and maps NaN to zero.
func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(maxScoreValue, v))
}
