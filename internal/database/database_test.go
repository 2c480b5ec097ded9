package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-board/internal/config"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})
	return db
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	// running twice must be harmless
	require.NoError(t, Migrate(db))

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable(&models.User{}))
	assert.True(t, migrator.HasTable(&models.Task{}))
	for _, idx := range taskIndexes {
		assert.True(t, migrator.HasIndex(&models.Task{}, idx.name), idx.name)
	}
}

func TestDialector_UnsupportedDriver(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)

	for _, driver := range []string{"sqlite", "mysql", "postgres"} {
		dialector, err := Dialector(&config.Config{DBDriver: driver, SQLitePath: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, driver, dialector.Name())
	}
}

func TestGuard_RetriesTransientFailureOnce(t *testing.T) {
	guard := NewGuard(openTestDB(t), time.Second)

	calls := 0
	err := guard.Run(context.Background(), func(db *gorm.DB) error {
		calls++
		if calls == 1 {
			return driver.ErrBadConn
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuard_GivesUpAfterOneRetry(t *testing.T) {
	guard := NewGuard(openTestDB(t), time.Second)

	calls := 0
	err := guard.Run(context.Background(), func(db *gorm.DB) error {
		calls++
		return driver.ErrBadConn
	})

	assert.True(t, errors.Is(err, driver.ErrBadConn))
	assert.Equal(t, 2, calls)
}

func TestGuard_DoesNotRetryOtherErrors(t *testing.T) {
	guard := NewGuard(openTestDB(t), time.Second)
	boom := errors.New("boom")

	calls := 0
	err := guard.Run(context.Background(), func(db *gorm.DB) error {
		calls++
		return boom
	})

	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, calls)
}

func TestGuard_DeadlineBecomesStorageTimeout(t *testing.T) {
	guard := NewGuard(openTestDB(t), 20*time.Millisecond)

	calls := 0
	err := guard.Run(context.Background(), func(db *gorm.DB) error {
		calls++
		<-db.Statement.Context.Done()
		return db.Statement.Context.Err()
	})

	assert.True(t, errors.Is(err, apierrors.ErrStorageTimeout))
	assert.Equal(t, 1, calls)
}

func TestGuard_TransactionRollsBack(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	guard := NewGuard(db, time.Second)
	boom := errors.New("boom")

	err := guard.Transaction(context.Background(), func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Create(&models.User{
			PhoneNumber: 5551234567, Name: "Alice", Position: models.PositionUser,
			PasswordHash: "x", IsActive: true, CreatedAt: now, LastModified: now,
		}).Error; err != nil {
			return err
		}
		return boom
	})
	require.True(t, errors.Is(err, boom))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBackup_CopiesSQLiteDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(dir, "kanban.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})
	require.NoError(t, Migrate(db))

	now := time.Now()
	require.NoError(t, db.Create(&models.User{
		PhoneNumber: 5551234567, Name: "Alice", Position: models.PositionUser,
		PasswordHash: "x", IsActive: true, CreatedAt: now, LastModified: now,
	}).Error)

	guard := NewGuard(db, 5*time.Second)
	taken := time.Date(2025, 3, 10, 9, 30, 15, 0, time.Local)
	backupDir := filepath.Join(dir, "backups")

	path, err := Backup(context.Background(), guard, backupDir, taken)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backupDir, "kanban_backup_20250310_093015.db"), path)

	copied, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(copied)
	})
	var users []models.User
	require.NoError(t, copied.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)

	_, err = Backup(context.Background(), guard, backupDir, taken)
	assert.Error(t, err)
}

func TestBackup_RejectsServerDatabases(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = Backup(context.Background(), NewGuard(db, time.Second), dir, time.Now())
	assert.True(t, errors.Is(err, ErrBackupUnsupported))
}
