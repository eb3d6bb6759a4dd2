package report_test

import (
	"testing"
	"time"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/ranking"
	"github.com/okian/taskmatch/internal/domain/report"
	"github.com/okian/taskmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func dueIn(days int) model.Date {
	return model.DateOf(now.AddDate(0, 0, days))
}

func TestTierFor(t *testing.T) {
	Convey("Given tier boundaries", t, func() {
		So(report.TierFor(96), ShouldEqual, report.TierExcellent)
		So(report.TierFor(80.0001), ShouldEqual, report.TierExcellent)
		So(report.TierFor(80), ShouldEqual, report.TierGood)
		So(report.TierFor(66), ShouldEqual, report.TierGood)
		So(report.TierFor(60), ShouldEqual, report.TierAverage)
		So(report.TierFor(0), ShouldEqual, report.TierAverage)
	})
}

func TestExplain(t *testing.T) {
	Convey("Given a ranked task", t, func() {
		scorer := scoring.NewFitnessScorer()
		workers := []model.Worker{
			{ID: "a", Name: "Ada", Department: "IT", SkillLevel: 90},
			{ID: "b", Name: "Bo", Department: "IT", SkillLevel: 90, WorkloadPercent: 100},
			{ID: "c", Name: "Cy", Department: "Sales", SkillLevel: 10},
			{ID: "d", Name: "Di", Department: "Sales", SkillLevel: 5},
		}
		task := model.Task{
			ID:             "t1",
			Title:          "Upgrade",
			Description:    "Upgrade the software system",
			Priority:       model.PriorityHigh,
			EstimatedHours: 8,
			DueDate:        dueIn(10),
		}
		candidates := ranking.Rank(scorer, task, workers)

		Convey("When the report is built", func() {
			rep := report.New(report.WithBreakdowns(scorer)).Explain(task, candidates, now)

			Convey("Then only the top three are listed with tiers", func() {
				So(len(rep.Candidates), ShouldEqual, 3)
				So(rep.Candidates[0].WorkerID, ShouldEqual, "a")
				So(rep.Candidates[0].Tier, ShouldEqual, report.TierExcellent)
				So(rep.Candidates[1].WorkerID, ShouldEqual, "b")
				So(rep.Candidates[1].Score, ShouldAlmostEqual, 66, 1e-9)
				So(rep.Candidates[1].Tier, ShouldEqual, report.TierGood)
				So(rep.Candidates[0].Breakdown, ShouldNotBeNil)
			})

			Convey("Then the summary carries the task facts", func() {
				So(rep.Task.Title, ShouldEqual, "Upgrade")
				So(rep.Task.DaysUntilDue, ShouldEqual, 10)
				So(rep.Advisories.HighPriority, ShouldBeTrue)
				So(rep.Advisories.Urgent, ShouldBeFalse)
				So(rep.Advisories.LargeTask, ShouldBeFalse)
			})
		})

		Convey("When the task was due yesterday", func() {
			task.DueDate = dueIn(-1)
			rep := report.Explain(task, candidates, now)

			Convey("Then it is urgent", func() {
				So(rep.Task.DaysUntilDue, ShouldEqual, -1)
				So(rep.Advisories.Urgent, ShouldBeTrue)
			})
		})

		Convey("When the task is due in exactly three days", func() {
			task.DueDate = dueIn(3)

			Convey("Then it is not urgent", func() {
				So(report.Explain(task, candidates, now).Advisories.Urgent, ShouldBeFalse)
			})
		})

		Convey("When the due date is later today", func() {
			task.DueDate = dueIn(0)

			Convey("Then the day delta is zero and urgent", func() {
				rep := report.Explain(task, candidates, now)
				So(rep.Task.DaysUntilDue, ShouldEqual, 0)
				So(rep.Advisories.Urgent, ShouldBeTrue)
			})
		})

		Convey("When hours cross the large task threshold", func() {
			task.EstimatedHours = 41
			So(report.Explain(task, candidates, now).Advisories.LargeTask, ShouldBeTrue)
			task.EstimatedHours = 40
			So(report.Explain(task, candidates, now).Advisories.LargeTask, ShouldBeFalse)
		})

		Convey("When there are no candidates", func() {
			rep := report.Explain(task, nil, now)

			Convey("Then the candidate list is empty, not nil", func() {
				So(rep.Candidates, ShouldNotBeNil)
				So(rep.Candidates, ShouldBeEmpty)
			})
		})

		Convey("When thresholds are configured", func() {
			task.EstimatedHours = 30
			task.DueDate = dueIn(5)
			rep := report.New(
				report.WithTopCandidates(1),
				report.WithUrgentDays(7),
				report.WithLargeTaskHours(20),
			).Explain(task, candidates, now)

			Convey("Then they are honoured", func() {
				So(len(rep.Candidates), ShouldEqual, 1)
				So(rep.Advisories.Urgent, ShouldBeTrue)
				So(rep.Advisories.LargeTask, ShouldBeTrue)
				So(rep.Candidates[0].Breakdown, ShouldBeNil)
			})
		})
	})
}
