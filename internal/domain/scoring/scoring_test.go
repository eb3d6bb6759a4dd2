package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/taskmatch/internal/domain/model"
	scoring "github.com/okian/taskmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFitnessScorer_Score(t *testing.T) {
	Convey("Given the default fitness scorer", t, func() {
		scorer := scoring.NewFitnessScorer()
		worker := model.Worker{ID: "a", Department: "IT", SkillLevel: 90}
		task := model.Task{Priority: model.PriorityHigh, EstimatedHours: 8, Description: "Upgrade the software system"}

		Convey("When an idle, skilled, relevant worker is scored for a high-priority task", func() {
			score := scorer.Score(task, worker)

			Convey("Then every component contributes", func() {
				So(score, ShouldAlmostEqual, 96, 1e-9)
			})
		})

		Convey("When the same worker is fully loaded", func() {
			worker.WorkloadPercent = 100
			b := scorer.Breakdown(task, worker)

			Convey("Then availability contributes nothing", func() {
				So(b.AvailabilityPart, ShouldEqual, 0)
				So(b.Score, ShouldAlmostEqual, 66, 1e-9)
			})
		})

		Convey("When the department name appears in any casing", func() {
			hr := model.Worker{ID: "h", Department: "Human Resources", SkillLevel: 50, WorkloadPercent: 50}
			t2 := model.Task{Priority: model.PriorityLow, Description: "Quarterly HUMAN RESOURCES review"}
			b := scorer.Breakdown(t2, hr)

			Convey("Then the relevance bonus applies", func() {
				So(b.Relevant, ShouldBeTrue)
				So(b.Score, ShouldAlmostEqual, 20+15+20, 1e-9)
			})
		})

		Convey("When a marketing worker sees a campaign task", func() {
			m := model.Worker{ID: "m", Department: "marketing", SkillLevel: 60}
			t2 := model.Task{Priority: model.PriorityMedium, Description: "Launch the spring Campaign"}

			Convey("Then the synonym table marks it relevant", func() {
				So(scorer.Breakdown(t2, m).Relevant, ShouldBeTrue)
			})
		})

		Convey("When skill is exactly at the threshold", func() {
			w := model.Worker{ID: "b", Department: "Sales", SkillLevel: 70}
			b := scorer.Breakdown(task, w)

			Convey("Then no priority bonus is given", func() {
				So(b.PriorityBonus, ShouldEqual, 0)
				So(b.Score, ShouldAlmostEqual, 28+30, 1e-9)
			})
		})

		Convey("When inputs are out of range", func() {
			w := model.Worker{ID: "c", SkillLevel: math.NaN(), WorkloadPercent: -50}

			Convey("Then the score stays within bounds", func() {
				s := scorer.Score(task, w)
				So(s, ShouldBeGreaterThanOrEqualTo, 0)
				So(s, ShouldBeLessThanOrEqualTo, 100)
			})
		})

		Convey("When an empty department is scored", func() {
			w := model.Worker{ID: "d", SkillLevel: 10}

			Convey("Then it is never relevant", func() {
				So(scorer.Breakdown(task, w).Relevant, ShouldBeFalse)
			})
		})
	})
}

func TestFitnessScorer_Bounds(t *testing.T) {
	Convey("Given a grid of workers and tasks", t, func() {
		scorer := scoring.NewFitnessScorer(scoring.WithBonuses(50, 50))
		for skill := 0.0; skill <= 100; skill += 25 {
			for load := 0.0; load <= 100; load += 25 {
				for _, p := range []model.Priority{model.PriorityLow, model.PriorityHigh} {
					s := scorer.Score(
						model.Task{Priority: p, Description: "it system"},
						model.Worker{ID: "x", Department: "IT", SkillLevel: skill, WorkloadPercent: load},
					)
					So(s, ShouldBeBetweenOrEqual, 0, 100)
				}
			}
		}
	})
}

func TestFitnessScorer_Options(t *testing.T) {
	Convey("Given custom options", t, func() {
		Convey("When keywords come from config", func() {
			scorer := scoring.NewFitnessScorer(scoring.WithRelevanceFromConfig(map[string][]string{
				"Finance": {"Invoice"},
			}))
			w := model.Worker{ID: "f", Department: "Finance", SkillLevel: 0, WorkloadPercent: 100}

			Convey("Then new keywords match and defaults remain", func() {
				So(scorer.Score(model.Task{Description: "reconcile invoices"}, w), ShouldEqual, 20)
				it := model.Worker{ID: "i", Department: "IT", WorkloadPercent: 100}
				So(scorer.Score(model.Task{Description: "system outage"}, it), ShouldEqual, 20)
			})
		})

		Convey("When a skill source is plugged in", func() {
			scorer := scoring.NewFitnessScorer(
				scoring.WithWeights(1, 0),
				scoring.WithSkillSource(scoring.SkillSourceFunc(func(_ model.Task, w model.Worker) float64 {
					return 42
				})),
			)

			Convey("Then it replaces the stored skill", func() {
				So(scorer.Score(model.Task{}, model.Worker{ID: "s", SkillLevel: 99}), ShouldEqual, 42)
			})
		})

		Convey("When the threshold is lowered", func() {
			scorer := scoring.NewFitnessScorer(scoring.WithPrioritySkillThreshold(10))
			b := scorer.Breakdown(model.Task{Priority: model.PriorityHigh}, model.Worker{ID: "l", SkillLevel: 11})

			Convey("Then the priority bonus applies", func() {
				So(b.PriorityBonus, ShouldEqual, scoring.DefaultPriorityBonus)
			})
		})
	})
}
