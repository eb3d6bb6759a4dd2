package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/taskmatch/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCanTransition(t *testing.T) {
	convey.Convey("Given the task lifecycle", t, func() {
		legal := map[[2]model.Status]bool{
			{model.StatusPending, model.StatusInProgress}:    true,
			{model.StatusPending, model.StatusCancelled}:     true,
			{model.StatusInProgress, model.StatusInProgress}: true,
			{model.StatusInProgress, model.StatusCompleted}:  true,
			{model.StatusInProgress, model.StatusCancelled}:  true,
		}

		convey.Convey("Then exactly the listed transitions are legal", func() {
			for _, from := range model.Statuses {
				for _, to := range model.Statuses {
					convey.So(model.CanTransition(from, to), convey.ShouldEqual, legal[[2]model.Status{from, to}])
				}
			}
		})

		convey.Convey("Then terminal states accept nothing", func() {
			convey.So(model.StatusCompleted.Terminal(), convey.ShouldBeTrue)
			convey.So(model.StatusCancelled.Terminal(), convey.ShouldBeTrue)
			convey.So(model.StatusPending.Terminal(), convey.ShouldBeFalse)
		})
	})
}

func TestAssign(t *testing.T) {
	convey.Convey("Given a pending task", t, func() {
		task := model.Task{ID: "t1", Status: model.StatusPending}

		convey.Convey("When it is assigned", func() {
			got, err := model.Assign(task, "w1")

			convey.Convey("Then assignee and status change together", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.AssignedTo, convey.ShouldEqual, "w1")
				convey.So(got.Status, convey.ShouldEqual, model.StatusInProgress)
			})
		})

		convey.Convey("When reassigned while in progress", func() {
			first, _ := model.Assign(task, "w1")
			got, err := model.Assign(first, "w2")

			convey.Convey("Then the new assignee wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.AssignedTo, convey.ShouldEqual, "w2")
				convey.So(got.Status, convey.ShouldEqual, model.StatusInProgress)
			})
		})

		convey.Convey("When the worker id is empty", func() {
			_, err := model.Assign(task, "")

			convey.Convey("Then the field is named", func() {
				var fe *model.FieldError
				convey.So(errors.As(err, &fe), convey.ShouldBeTrue)
				convey.So(fe.Field, convey.ShouldEqual, "worker_id")
				convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a completed task", t, func() {
		task := model.Task{ID: "t9", Status: model.StatusCompleted, AssignedTo: "w1"}

		convey.Convey("When it is assigned again", func() {
			got, err := model.Assign(task, "w2")

			convey.Convey("Then it is rejected and unchanged", func() {
				convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
				convey.So(got, convey.ShouldResemble, task)
			})
		})
	})
}

func TestTransition(t *testing.T) {
	convey.Convey("Given an in-progress task", t, func() {
		task := model.Task{ID: "t1", Status: model.StatusInProgress, AssignedTo: "w1"}

		convey.Convey("Then it can complete and keeps its assignee", func() {
			got, err := model.Transition(task, model.StatusCompleted)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Status, convey.ShouldEqual, model.StatusCompleted)
			convey.So(got.AssignedTo, convey.ShouldEqual, "w1")
		})

		convey.Convey("Then it can be cancelled", func() {
			got, err := model.Transition(task, model.StatusCancelled)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Status, convey.ShouldEqual, model.StatusCancelled)
		})
	})

	convey.Convey("Given a pending task", t, func() {
		task := model.Task{ID: "t2", Status: model.StatusPending}

		convey.Convey("Then it cannot complete directly", func() {
			_, err := model.Transition(task, model.StatusCompleted)
			var te *model.TransitionError
			convey.So(errors.As(err, &te), convey.ShouldBeTrue)
			convey.So(te.From, convey.ShouldEqual, model.StatusPending)
			convey.So(te.To, convey.ShouldEqual, model.StatusCompleted)
		})

		convey.Convey("Then it cannot start without an assignee", func() {
			_, err := model.Transition(task, model.StatusInProgress)
			convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
		})
	})
}
