package ranking_test

import (
	"testing"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/ranking"
	"github.com/okian/taskmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedScorer map[string]float64

func (f fixedScorer) Score(_ model.Task, w model.Worker) float64 { return f[w.ID] }

func ids(c []ranking.Candidate) []string {
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[i].Worker.ID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given workers with known scores", t, func() {
		scorer := fixedScorer{"w3": 50, "w1": 80, "w2": 50, "w4": 10}
		workers := []model.Worker{{ID: "w3"}, {ID: "w4"}, {ID: "w1"}, {ID: "w2"}}

		Convey("When they are ranked", func() {
			got := ranking.Rank(scorer, model.Task{}, workers)

			Convey("Then order is score descending then id ascending", func() {
				So(ids(got), ShouldResemble, []string{"w1", "w2", "w3", "w4"})
			})

			Convey("Then ties share a rank and ranks stay consecutive", func() {
				So(got[0].Rank, ShouldEqual, 1)
				So(got[1].Rank, ShouldEqual, 2)
				So(got[2].Rank, ShouldEqual, 2)
				So(got[3].Rank, ShouldEqual, 3)
			})

			Convey("Then the input is left untouched", func() {
				So(workers[0].ID, ShouldEqual, "w3")
			})
		})

		Convey("When ranked from any input order", func() {
			reversed := []model.Worker{{ID: "w2"}, {ID: "w1"}, {ID: "w4"}, {ID: "w3"}}

			Convey("Then the result is identical", func() {
				So(ids(ranking.Rank(scorer, model.Task{}, reversed)), ShouldResemble,
					ids(ranking.Rank(scorer, model.Task{}, workers)))
			})
		})

		Convey("When no workers exist", func() {
			Convey("Then the ranking is empty", func() {
				So(ranking.Rank(scorer, model.Task{}, nil), ShouldBeEmpty)
			})
		})
	})
}

func TestRankWithFitnessScorer(t *testing.T) {
	Convey("Given the fitness scorer", t, func() {
		task := model.Task{Priority: model.PriorityHigh, Description: "patch the system"}
		workers := []model.Worker{
			{ID: "busy", Department: "IT", SkillLevel: 90, WorkloadPercent: 100},
			{ID: "idle", Department: "IT", SkillLevel: 90},
			{ID: "sales", Department: "Sales", SkillLevel: 90},
		}
		got := ranking.Rank(scoring.NewFitnessScorer(), task, workers)

		Convey("Then availability and relevance decide the order", func() {
			So(ids(got), ShouldResemble, []string{"idle", "sales", "busy"})
			So(got[0].Score, ShouldAlmostEqual, 96, 1e-9)
		})
	})
}

func TestTop(t *testing.T) {
	Convey("Given a ranked list", t, func() {
		c := ranking.Rank(fixedScorer{"a": 3, "b": 2, "c": 1}, model.Task{}, []model.Worker{{ID: "a"}, {ID: "b"}, {ID: "c"}})

		So(ids(ranking.Top(c, 2)), ShouldResemble, []string{"a", "b"})
		So(ids(ranking.Top(c, 10)), ShouldResemble, []string{"a", "b", "c"})
		So(ranking.Top(c, 0), ShouldBeEmpty)
	})
}
