package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultBackupDir = "backups"
	backupTimeLayout = "20060102_150405"
)

// ErrBackupUnsupported is returned for servers that are backed up with their own tooling.
var ErrBackupUnsupported = errors.New("backup is only supported for sqlite databases")

// BackupPath names the backup file taken at now.
func BackupPath(dir string, now time.Time) string {
	if dir == "" {
		dir = DefaultBackupDir
	}
	return filepath.Join(dir, fmt.Sprintf("kanban_backup_%s.db", now.Format(backupTimeLayout)))
}

// Backup writes a consistent copy of a sqlite database into dir and returns its path.
// An existing file with the same timestamp is never overwritten.
func Backup(ctx context.Context, guard *Guard, dir string, now time.Time) (string, error) {
	path := BackupPath(dir, now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	err := guard.Run(ctx, func(db *gorm.DB) error {
		if db.Dialector.Name() != "sqlite" {
			return ErrBackupUnsupported
		}
		return db.Exec("VACUUM INTO '" + strings.ReplaceAll(path, "'", "''") + "'").Error
	})
	if err != nil {
		if errors.Is(err, ErrBackupUnsupported) {
			return "", err
		}
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	logger.Info("Database backup created", zap.String("path", path))
	return path, nil
}
