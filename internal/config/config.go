package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Activation policies for newly registered accounts.
const (
	ActivateAll       = "all"
	ActivateAdminOnly = "admin"
)

type Config struct {
	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	SQLitePath string `yaml:"sqlite_path"`
	BackupDir  string `yaml:"backup_dir"`

	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	SessionSecret string `yaml:"session_secret"`
	GinMode       string `yaml:"gin_mode"`
	ServerAddr    string `yaml:"server_addr"`

	BcryptCost           int           `yaml:"bcrypt_cost"`
	StoreTimeout         time.Duration `yaml:"store_timeout"`
	UserCacheTTL         time.Duration `yaml:"user_cache_ttl"`
	UserCacheSize        int           `yaml:"user_cache_size"`
	MaxLoginAttempts     int           `yaml:"max_login_attempts"`
	LockoutDuration      time.Duration `yaml:"lockout_duration"`
	NotifyDaysAhead      int           `yaml:"notify_days_ahead"`
	ReminderInterval     time.Duration `yaml:"reminder_interval"`
	ActivationPolicy     string        `yaml:"activation_policy"`
	AdminRegistrationKey string        `yaml:"admin_registration_key"`

	LogDevelopment bool `yaml:"log_development"`
}

// Load reads the configuration from the environment. When KANBAN_CONFIG names a
// YAML file its values override the environment.
func Load() (*Config, error) {
	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "kanban"),
		DBPassword: getEnv("DB_PASSWORD", "kanban"),
		DBName:     getEnv("DB_NAME", "kanban"),
		SQLitePath: getEnv("SQLITE_PATH", "kanban.db"),
		BackupDir:  getEnv("BACKUP_DIR", "backups"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),

		BcryptCost:           getEnvInt("BCRYPT_COST", 12),
		StoreTimeout:         getEnvDuration("STORE_TIMEOUT", 30*time.Second),
		UserCacheTTL:         getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		UserCacheSize:        getEnvInt("USER_CACHE_SIZE", 512),
		MaxLoginAttempts:     getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:      getEnvDuration("LOCKOUT_DURATION", 15*time.Minute),
		NotifyDaysAhead:      getEnvInt("NOTIFY_DAYS_AHEAD", 14),
		ReminderInterval:     getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ActivationPolicy:     getEnv("ACTIVATION_POLICY", ActivateAll),
		AdminRegistrationKey: getEnv("ADMIN_REGISTRATION_KEY", ""),

		LogDevelopment: getEnv("LOG_DEVELOPMENT", "true") == "true",
	}

	if path := os.Getenv("KANBAN_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the fields present in a YAML file.
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	switch c.ActivationPolicy {
	case ActivateAll, ActivateAdminOnly:
	default:
		return fmt.Errorf("unsupported activation policy %q", c.ActivationPolicy)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
