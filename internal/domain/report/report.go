// Package report turns a ranking into an operator-facing recommendation.
package report

import (
	"time"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/ranking"
	"github.com/okian/taskmatch/internal/domain/scoring"
)

// Default reporting thresholds.
const (
	DefaultTopCandidates  = 3
	DefaultUrgentDays     = 3
	DefaultLargeTaskHours = 40
	excellentAbove        = 80.0
	goodAbove             = 60.0
)

// Tier is a coarse label for a candidate score.
type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierGood      Tier = "Good"
	TierAverage   Tier = "Average"
)

// TierFor maps a score to its tier: above 80 Excellent, above 60 Good, else Average.
func TierFor(score float64) Tier {
	switch {
	case score > excellentAbove:
		return TierExcellent
	case score > goodAbove:
		return TierGood
	default:
		return TierAverage
	}
}

// TaskSummary is the task part of a report.
type TaskSummary struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Priority       model.Priority `json:"priority"`
	DueDate        model.Date     `json:"due_date"`
	EstimatedHours int            `json:"estimated_hours"`
	DaysUntilDue   int            `json:"days_until_due"`
}

// CandidateView is one recommended worker.
type CandidateView struct {
	Rank       int                `json:"rank"`
	WorkerID   string             `json:"worker_id"`
	Name       string             `json:"name"`
	Department string             `json:"department"`
	Score      float64            `json:"score"`
	Workload   float64            `json:"workload"`
	Skill      float64            `json:"skill"`
	Tier       Tier               `json:"tier"`
	Breakdown  *scoring.Breakdown `json:"breakdown,omitempty"`
}

// Advisories are independent hints for the operator.
type Advisories struct {
	HighPriority bool `json:"high_priority"`
	Urgent       bool `json:"urgent"`
	LargeTask    bool `json:"large_task"`
}

// Report is the structured recommendation for one task. It carries no formatting.
type Report struct {
	Task       TaskSummary     `json:"task"`
	Candidates []CandidateView `json:"candidates"`
	Advisories Advisories      `json:"advisories"`
}

// Breakdowner explains a score. *scoring.FitnessScorer satisfies it.
type Breakdowner interface {
	Breakdown(task model.Task, worker model.Worker) scoring.Breakdown
}

// Reporter builds reports.
type Reporter struct {
	topCandidates  int
	urgentDays     int
	largeTaskHours int
	explainer      Breakdowner
}

// New creates a Reporter with the default thresholds.
func New(opts ...Option) *Reporter {
	r := &Reporter{
		topCandidates:  DefaultTopCandidates,
		urgentDays:     DefaultUrgentDays,
		largeTaskHours: DefaultLargeTaskHours,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TopCandidates is the number of candidates a report shows.
func (r *Reporter) TopCandidates() int { return r.topCandidates }

// Explain builds a report from an already ranked candidate list.
// Days until due are whole calendar days between now's date and the due date.
func (r *Reporter) Explain(task model.Task, candidates []ranking.Candidate, now time.Time) Report {
	days := task.DueDate.DaysSince(model.DateOf(now))

	rep := Report{
		Task: TaskSummary{
			ID:             task.ID,
			Title:          task.Title,
			Priority:       task.Priority,
			DueDate:        task.DueDate,
			EstimatedHours: task.EstimatedHours,
			DaysUntilDue:   days,
		},
		Advisories: Advisories{
			HighPriority: task.Priority == model.PriorityHigh,
			Urgent:       !task.DueDate.IsZero() && days < r.urgentDays,
			LargeTask:    task.EstimatedHours > r.largeTaskHours,
		},
	}

	top := ranking.Top(candidates, r.topCandidates)
	rep.Candidates = make([]CandidateView, 0, len(top))
	for _, c := range top {
		v := CandidateView{
			Rank:       c.Rank,
			WorkerID:   c.Worker.ID,
			Name:       c.Worker.Name,
			Department: c.Worker.Department,
			Score:      c.Score,
			Workload:   c.Worker.WorkloadPercent,
			Skill:      c.Worker.SkillLevel,
			Tier:       TierFor(c.Score),
		}
		if r.explainer != nil {
			b := r.explainer.Breakdown(task, c.Worker)
			v.Breakdown = &b
		}
		rep.Candidates = append(rep.Candidates, v)
	}
	return rep
}

// Explain builds a report with the default thresholds.
func Explain(task model.Task, candidates []ranking.Candidate, now time.Time) Report {
	return New().Explain(task, candidates, now)
}
