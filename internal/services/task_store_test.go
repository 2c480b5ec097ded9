package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/utils"
)

type TaskStoreTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (suite *TaskStoreTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
	suite.ctx = context.Background()
	suite.f.createUser(suite.T(), alicePhone, "Alice")
	suite.f.createUser(suite.T(), bobPhone, "Bob")
}

func (suite *TaskStoreTestSuite) TestAdd_Success() {
	id, err := suite.f.tasks.Add(suite.ctx, NewTask{
		Title:          "Write roadmap",
		Status:         models.TaskStatusTodo,
		PersonInCharge: alicePhone,
		DueDate:        "2099-01-01",
		Creator:        bobPhone,
		AdditionalInfo: "first draft",
	})
	suite.Require().NoError(err)

	task, err := suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Require().NotNil(task)
	suite.Equal("Write roadmap", task.Title)
	suite.Equal(alicePhone, task.PersonInCharge)
	suite.Equal(bobPhone, task.Creator)
	suite.Nil(task.Editors)
	suite.True(task.IsActive)
	suite.Equal(int64(1), task.Version)
	suite.False(task.CreationDate.IsZero())
}

func (suite *TaskStoreTestSuite) TestAdd_ReportsEveryProblemAndWritesNothing() {
	_, err := suite.f.users.SetActive(suite.ctx, bobPhone, false)
	suite.Require().NoError(err)

	_, err = suite.f.tasks.Add(suite.ctx, NewTask{
		Title:          "   ",
		Status:         models.TaskStatus("Bogus"),
		PersonInCharge: 5550000000,
		DueDate:        "2025/01/01",
		Creator:        bobPhone,
	})

	var verr *apierrors.ValidationError
	suite.Require().True(errors.As(err, &verr))
	suite.Len(verr.Problems, 5)

	all, err := suite.f.tasks.GetAll(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(all)
}

func (suite *TaskStoreTestSuite) TestAdd_InvalidStatusAlwaysFails() {
	for _, status := range []string{"", "Done", "to-do", "Bogus"} {
		_, err := suite.f.tasks.Add(suite.ctx, NewTask{
			Title:          "Write roadmap",
			Status:         models.TaskStatus(status),
			PersonInCharge: alicePhone,
			DueDate:        "2099-01-01",
			Creator:        alicePhone,
		})
		var verr *apierrors.ValidationError
		suite.True(errors.As(err, &verr), "status %q", status)
	}

	all, err := suite.f.tasks.GetAll(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(all)
}

func (suite *TaskStoreTestSuite) TestAdd_RejectsImpossibleDates() {
	for _, due := range []string{"2025-02-30", "2025-13-01", "25-01-01", "2025-1-1", "2025-01-01T00:00:00Z"} {
		_, err := suite.f.tasks.Add(suite.ctx, NewTask{
			Title:          "Write roadmap",
			Status:         models.TaskStatusTodo,
			PersonInCharge: alicePhone,
			DueDate:        due,
			Creator:        alicePhone,
		})
		var verr *apierrors.ValidationError
		suite.True(errors.As(err, &verr), "due date %q", due)
	}
}

func (suite *TaskStoreTestSuite) TestAdd_TitleTooLong() {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}

	_, err := suite.f.tasks.Add(suite.ctx, NewTask{
		Title:          string(long),
		Status:         models.TaskStatusTodo,
		PersonInCharge: alicePhone,
		DueDate:        "2099-01-01",
		Creator:        alicePhone,
	})
	var verr *apierrors.ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *TaskStoreTestSuite) TestUpdate_StampsEditorAndVersion() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")

	status := models.TaskStatusInProgress
	info := "now with examples"
	updated, err := suite.f.tasks.Update(suite.ctx, id, bobPhone, TaskPatch{Status: &status, AdditionalInfo: &info})
	suite.Require().NoError(err)
	suite.True(updated)

	task, err := suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, task.Status)
	suite.Equal("now with examples", task.AdditionalInfo)
	suite.Equal("Write roadmap", task.Title)
	suite.Require().NotNil(task.Editors)
	suite.Equal(bobPhone, *task.Editors)
	suite.Equal(int64(2), task.Version)
}

func (suite *TaskStoreTestSuite) TestUpdate_InvalidStatusIsAtomic() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")

	title := "Renamed"
	due := "2099-06-01"
	bogus := models.TaskStatus("Bogus")
	updated, err := suite.f.tasks.Update(suite.ctx, id, alicePhone, TaskPatch{Title: &title, DueDate: &due, Status: &bogus})

	var verr *apierrors.ValidationError
	suite.Require().True(errors.As(err, &verr))
	suite.False(updated)

	task, err := suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal("Write roadmap", task.Title)
	suite.Equal("2099-01-01", task.DueDate)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Nil(task.Editors)
	suite.Equal(int64(1), task.Version)
}

func (suite *TaskStoreTestSuite) TestUpdate_InactiveAssigneeRejected() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")
	_, err := suite.f.users.SetActive(suite.ctx, bobPhone, false)
	suite.Require().NoError(err)

	bob := bobPhone
	_, err = suite.f.tasks.Update(suite.ctx, id, alicePhone, TaskPatch{PersonInCharge: &bob})
	var verr *apierrors.ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *TaskStoreTestSuite) TestUpdate_NotFound() {
	title := "Anything"
	updated, err := suite.f.tasks.Update(suite.ctx, 9999, alicePhone, TaskPatch{Title: &title})
	suite.Require().NoError(err)
	suite.False(updated)
}

func (suite *TaskStoreTestSuite) TestUpdate_StaleVersionConflicts() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")

	first := "First edit"
	updated, err := suite.f.tasks.Update(suite.ctx, id, alicePhone, TaskPatch{Title: &first})
	suite.Require().NoError(err)
	suite.Require().True(updated)

	stale := int64(1)
	second := "Second edit"
	_, err = suite.f.tasks.Update(suite.ctx, id, bobPhone, TaskPatch{Title: &second, ExpectedVersion: &stale})
	suite.True(errors.Is(err, apierrors.ErrConflict))

	task, err := suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal("First edit", task.Title)
}

func (suite *TaskStoreTestSuite) TestSoftDeleteAndRestore() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")

	deleted, err := suite.f.tasks.Delete(suite.ctx, id, true)
	suite.Require().NoError(err)
	suite.True(deleted)

	task, err := suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Nil(task)

	active, err := suite.f.tasks.GetAll(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(active)

	all, err := suite.f.tasks.GetAll(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Require().Len(all, 1)
	suite.False(all[0].IsActive)

	again, err := suite.f.tasks.Delete(suite.ctx, id, true)
	suite.Require().NoError(err)
	suite.False(again)

	restored, err := suite.f.tasks.Restore(suite.ctx, id)
	suite.Require().NoError(err)
	suite.True(restored)

	task, err = suite.f.tasks.GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Require().NotNil(task)
	suite.True(task.IsActive)
}

func (suite *TaskStoreTestSuite) TestHardDelete() {
	id := suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")

	deleted, err := suite.f.tasks.Delete(suite.ctx, id, false)
	suite.Require().NoError(err)
	suite.True(deleted)

	all, err := suite.f.tasks.GetAll(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(all)

	again, err := suite.f.tasks.Delete(suite.ctx, id, false)
	suite.Require().NoError(err)
	suite.False(again)

	restored, err := suite.f.tasks.Restore(suite.ctx, id)
	suite.Require().NoError(err)
	suite.False(restored)
}

func (suite *TaskStoreTestSuite) TestGetAll_OrderedByDueDate() {
	late := suite.f.addTask(suite.T(), "Late", models.TaskStatusTodo, alicePhone, "2099-03-01")
	early := suite.f.addTask(suite.T(), "Early", models.TaskStatusFinished, alicePhone, "2099-01-01")
	middle := suite.f.addTask(suite.T(), "Middle", models.TaskStatusInProgress, bobPhone, "2099-02-01")

	tasks, err := suite.f.tasks.GetAll(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal([]uint64{early, middle, late}, []uint64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func (suite *TaskStoreTestSuite) TestPage() {
	for _, due := range []string{"2099-01-01", "2099-01-02", "2099-01-03"} {
		suite.f.addTask(suite.T(), "Task "+due, models.TaskStatusTodo, alicePhone, due)
	}

	tasks, total, err := suite.f.tasks.Page(suite.ctx, utils.NewPaginationParams(2, 2), false)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(tasks, 1)
	suite.Equal("2099-01-03", tasks[0].DueDate)
}

func (suite *TaskStoreTestSuite) TestFilters() {
	suite.f.addTask(suite.T(), "Past todo", models.TaskStatusTodo, alicePhone, "2025-03-01")
	suite.f.addTask(suite.T(), "Past finished", models.TaskStatusFinished, alicePhone, "2025-03-01")
	suite.f.addTask(suite.T(), "Due today", models.TaskStatusInProgress, bobPhone, "2025-03-10")
	suite.f.addTask(suite.T(), "Future", models.TaskStatusTodo, bobPhone, "2025-03-20")

	overdue, err := suite.f.tasks.GetOverdue(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(overdue, 1)
	suite.Equal("Past todo", overdue[0].Title)

	todo, err := suite.f.tasks.GetByStatus(suite.ctx, models.TaskStatusTodo)
	suite.Require().NoError(err)
	suite.Len(todo, 2)

	_, err = suite.f.tasks.GetByStatus(suite.ctx, models.TaskStatus("Bogus"))
	var verr *apierrors.ValidationError
	suite.True(errors.As(err, &verr))

	bobs, err := suite.f.tasks.GetByAssignee(suite.ctx, bobPhone)
	suite.Require().NoError(err)
	suite.Len(bobs, 2)

	open, err := suite.f.tasks.GetOpen(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(open, 3)
}

func (suite *TaskStoreTestSuite) TestCountByStatus_ZeroFilled() {
	suite.f.addTask(suite.T(), "One", models.TaskStatusTodo, alicePhone, "2099-01-01")
	suite.f.addTask(suite.T(), "Two", models.TaskStatusTodo, alicePhone, "2099-01-01")
	suite.f.addTask(suite.T(), "Three", models.TaskStatusFinished, bobPhone, "2099-01-01")

	counts, err := suite.f.tasks.CountByStatus(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(counts, 4)

	sum := 0
	for _, count := range counts {
		sum += count
	}
	suite.Equal(3, sum)
	suite.Equal(2, counts[models.TaskStatusTodo])
	suite.Equal(0, counts[models.TaskStatusInProgress])
	suite.Equal(0, counts[models.TaskStatusWaitingReview])
	suite.Equal(1, counts[models.TaskStatusFinished])

	byAssignee, err := suite.f.tasks.CountByAssignee(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(map[int64]int{alicePhone: 2, bobPhone: 1}, byAssignee)
}

func (suite *TaskStoreTestSuite) TestSearch() {
	suite.f.addTask(suite.T(), "Write roadmap", models.TaskStatusTodo, alicePhone, "2099-01-01")
	reviewID, err := suite.f.tasks.Add(suite.ctx, NewTask{
		Title:          "Review PR",
		Status:         models.TaskStatusWaitingReview,
		PersonInCharge: bobPhone,
		DueDate:        "2099-01-02",
		Creator:        bobPhone,
		AdditionalInfo: "check the ROADMAP changes",
	})
	suite.Require().NoError(err)

	both, err := suite.f.tasks.Search(suite.ctx, "Roadmap", nil)
	suite.Require().NoError(err)
	suite.Len(both, 2)

	titles, err := suite.f.tasks.Search(suite.ctx, "roadmap", []string{SearchFieldTitle})
	suite.Require().NoError(err)
	suite.Require().Len(titles, 1)
	suite.Equal("Write roadmap", titles[0].Title)

	info, err := suite.f.tasks.Search(suite.ctx, "roadmap", []string{SearchFieldAdditionalInfo})
	suite.Require().NoError(err)
	suite.Require().Len(info, 1)
	suite.Equal(reviewID, info[0].ID)

	_, err = suite.f.tasks.Search(suite.ctx, "roadmap", []string{"creator"})
	var verr *apierrors.ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *TaskStoreTestSuite) TestSearch_WildcardsAreLiteral() {
	suite.f.addTask(suite.T(), "100% coverage", models.TaskStatusTodo, alicePhone, "2099-01-01")
	suite.f.addTask(suite.T(), "1000 items", models.TaskStatusTodo, alicePhone, "2099-01-01")
	suite.f.addTask(suite.T(), "snake_case", models.TaskStatusTodo, alicePhone, "2099-01-01")

	percent, err := suite.f.tasks.Search(suite.ctx, "0%", []string{SearchFieldTitle})
	suite.Require().NoError(err)
	suite.Require().Len(percent, 1)
	suite.Equal("100% coverage", percent[0].Title)

	underscore, err := suite.f.tasks.Search(suite.ctx, "e_c", []string{SearchFieldTitle})
	suite.Require().NoError(err)
	suite.Require().Len(underscore, 1)
	suite.Equal("snake_case", underscore[0].Title)
}

func TestTaskStoreTestSuite(t *testing.T) {
	suite.Run(t, new(TaskStoreTestSuite))
}
