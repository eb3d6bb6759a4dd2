// Package ranking orders workers by fitness for a task.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/scoring"
)

// scoreScale controls fixed-point comparison of scores. Scores live in [0,100]
// so nine decimal places fit comfortably in an int64.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

// Candidate is a worker with its fitness for one task.
type Candidate struct {
	Rank   int          `json:"rank"`
	Worker model.Worker `json:"worker"`
	Score  float64      `json:"score"`

	fp scoreFP
}

// Rank scores every worker and orders them by score descending, then worker id
// ascending. Equal scores share a rank. The input slice is not modified.
func Rank(scorer scoring.Scorer, task model.Task, workers []model.Worker) []Candidate {
	out := make([]Candidate, len(workers))
	for i, w := range workers {
		s := scorer.Score(task, w)
		out[i] = Candidate{Worker: w, Score: s, fp: toFixedPoint(s)}
	}
	sortCandidates(out)
	assignRanksWithTies(out)
	return out
}

// Top returns at most n leading candidates. Non-positive n yields an empty slice.
func Top(candidates []Candidate, n int) []Candidate {
	if n <= 0 {
		return []Candidate{}
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

func less(a, b *Candidate) bool {
	if a.fp != b.fp {
		return a.fp > b.fp // higher score ranks earlier
	}
	return a.Worker.ID < b.Worker.ID // tie-breaker by id asc
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return less(&c[i], &c[j]) })
}

// assignRanksWithTies gives equal scores the same rank; ranks stay consecutive.
func assignRanksWithTies(c []Candidate) {
	rank := 0
	for i := range c {
		if i == 0 || c[i].fp != c[i-1].fp {
			rank++
		}
		c[i].Rank = rank
	}
}
