package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-board/internal/config"
	"github.com/yukikurage/kanban-board/internal/database"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	alicePhone int64 = 5551234567
	bobPhone   int64 = 5559876543
	testPass         = "Passw0rd"
)

// fixture wires the real service graph over an in-memory sqlite database.
type fixture struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	taskRepo      repository.TaskRepository
	passwords     *PasswordService
	users         *UserStore
	tasks         *TaskStore
	notifications *NotificationEngine
	auth          *AuthService
	workflow      *Workflow
	now           time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:  newTestDB(t),
		now: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.Local),
	}
	clock := func() time.Time { return f.now }

	f.userRepo = repository.NewUserRepository(f.db, 5*time.Second)
	f.taskRepo = repository.NewTaskRepository(f.db, 5*time.Second)
	f.passwords = NewPasswordService(bcrypt.MinCost)
	f.users = NewUserStore(f.userRepo, f.passwords, UserStoreOptions{})
	f.tasks = NewTaskStore(f.taskRepo, f.users).WithClock(clock)
	f.notifications = NewNotificationEngine(f.tasks, f.users, 14).WithClock(clock)
	f.auth = NewAuthService(f.users, AuthOptions{
		MaxLoginAttempts:     3,
		LockoutDuration:      15 * time.Minute,
		AdminRegistrationKey: "let-me-admin",
	}).WithClock(clock)
	f.workflow = NewWorkflow(f.auth, f.users, f.tasks, f.notifications).WithClock(clock)
	return f
}

func (f *fixture) createUser(t *testing.T, phone int64, name string) *models.User {
	t.Helper()

	user, err := f.users.Create(context.Background(), phone, name, models.PositionUser, testPass)
	require.NoError(t, err)
	return user
}

func (f *fixture) addTask(t *testing.T, title string, status models.TaskStatus, assignee int64, due string) uint64 {
	t.Helper()

	id, err := f.tasks.Add(context.Background(), NewTask{
		Title:          title,
		Status:         status,
		PersonInCharge: assignee,
		DueDate:        due,
		Creator:        assignee,
	})
	require.NoError(t, err)
	return id
}
