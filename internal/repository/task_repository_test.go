package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-board/internal/config"
	"github.com/yukikurage/kanban-board/internal/database"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

func setupMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func newTask(title, due string) *models.Task {
	now := time.Now()
	return &models.Task{
		Title:          title,
		Status:         models.TaskStatusTodo,
		PersonInCharge: 5551234567,
		CreationDate:   now,
		DueDate:        due,
		Creator:        5551234567,
		LastModified:   now,
		Version:        1,
		IsActive:       true,
	}
}

func TestTaskRepository_UpdateFieldsChecksVersion(t *testing.T) {
	repo := NewTaskRepository(setupSQLite(t), time.Second)
	ctx := context.Background()

	task := newTask("Write roadmap", "2099-01-01")
	require.NoError(t, repo.Create(ctx, task))

	require.NoError(t, repo.UpdateFields(ctx, task.ID, 1, map[string]interface{}{"title": "First"}))

	err := repo.UpdateFields(ctx, task.ID, 1, map[string]interface{}{"title": "Second"})
	assert.True(t, errors.Is(err, apierrors.ErrConflict))

	stored, err := repo.FindByID(ctx, task.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "First", stored.Title)
	assert.Equal(t, int64(2), stored.Version)
}

func TestTaskRepository_FindByIDHidesInactive(t *testing.T) {
	repo := NewTaskRepository(setupSQLite(t), time.Second)
	ctx := context.Background()

	task := newTask("Write roadmap", "2099-01-01")
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.UpdateFields(ctx, task.ID, 1, map[string]interface{}{"is_active": false}))

	_, err := repo.FindByID(ctx, task.ID, false)
	assert.True(t, IsNotFound(err))

	stored, err := repo.FindByID(ctx, task.ID, true)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestTaskRepository_DeleteMissingRow(t *testing.T) {
	repo := NewTaskRepository(setupSQLite(t), time.Second)

	err := repo.Delete(context.Background(), 404)
	assert.True(t, IsNotFound(err))
}

func TestTaskRepository_ListAndCountWithFilter(t *testing.T) {
	repo := NewTaskRepository(setupSQLite(t), time.Second)
	ctx := context.Background()

	for _, due := range []string{"2025-01-01", "2025-02-01", "2025-03-01"} {
		require.NoError(t, repo.Create(ctx, newTask("Task "+due, due)))
	}

	filter := TaskFilter{DueFrom: "2025-01-15", DueTo: "2025-03-01"}
	tasks, err := repo.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "2025-02-01", tasks[0].DueDate)

	total, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestTaskRepository_TimeoutWithMock(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTaskRepository(db, 20*time.Millisecond)

	mock.ExpectQuery("SELECT").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := repo.FindByID(context.Background(), 1, false)
	assert.True(t, errors.Is(err, apierrors.ErrStorageTimeout))
}

func TestTaskRepository_ConflictWithMock(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTaskRepository(db, time.Second)

	mock.ExpectExec("UPDATE `tasks` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateFields(context.Background(), 7, 3, map[string]interface{}{"title": "Stale"})
	assert.True(t, errors.Is(err, apierrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
