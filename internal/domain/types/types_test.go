package types_test

import (
	"testing"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/ranking"
	types "github.com/okian/taskmatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntries(t *testing.T) {
	Convey("Given ranked candidates", t, func() {
		candidates := []ranking.Candidate{
			{Rank: 1, Score: 96, Worker: model.Worker{ID: "w1", Name: "Ada", Department: "IT", SkillLevel: 90}},
			{Rank: 1, Score: 96, Worker: model.Worker{ID: "w3", Name: "Linus", Department: "IT", SkillLevel: 90}},
			{Rank: 3, Score: 46, Worker: model.Worker{ID: "w2", Name: "Grace", Department: "Marketing", SkillLevel: 40, WorkloadPercent: 50}},
		}

		Convey("When they are flattened", func() {
			entries := types.Entries(candidates)

			Convey("Then order, ranks and worker fields are kept", func() {
				So(len(entries), ShouldEqual, 3)
				So(entries[0].WorkerID, ShouldEqual, "w1")
				So(entries[1].Rank, ShouldEqual, 1)
				So(entries[2], ShouldResemble, types.Entry{
					Rank: 3, WorkerID: "w2", Name: "Grace", Department: "Marketing",
					Score: 46, Workload: 50, Skill: 40,
				})
			})
		})

		Convey("When there are none", func() {
			Convey("Then an empty, non-nil slice is returned", func() {
				entries := types.Entries(nil)
				So(entries, ShouldNotBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}
