package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KANBAN_CONFIG", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BACKUP_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "backups", cfg.BackupDir)
	assert.Equal(t, 14, cfg.NotifyDaysAhead)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, ActivateAll, cfg.ActivationPolicy)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KANBAN_CONFIG", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("STORE_TIMEOUT", "5s")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanban.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_driver: mysql
store_timeout: 2s
notify_days_ahead: 7
activation_policy: admin
`), 0o600))

	t.Setenv("KANBAN_CONFIG", path)
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 7, cfg.NotifyDaysAhead)
	assert.Equal(t, ActivateAdminOnly, cfg.ActivationPolicy)
	// untouched keys keep their environment value
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: [unterminated"), 0o600))
	assert.Error(t, cfg.LoadFile(path))
}

func TestValidate(t *testing.T) {
	valid := Config{DBDriver: "sqlite", ActivationPolicy: ActivateAll, StoreTimeout: time.Second}
	require.NoError(t, valid.Validate())

	badDriver := valid
	badDriver.DBDriver = "oracle"
	assert.Error(t, badDriver.Validate())

	badPolicy := valid
	badPolicy.ActivationPolicy = "nobody"
	assert.Error(t, badPolicy.Validate())

	badTimeout := valid
	badTimeout.StoreTimeout = 0
	assert.Error(t, badTimeout.Validate())
}
