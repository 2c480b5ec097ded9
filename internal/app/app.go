package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/config"
	"github.com/yukikurage/kanban-board/internal/database"
	"github.com/yukikurage/kanban-board/internal/handlers"
	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/repository"
	"github.com/yukikurage/kanban-board/internal/services"
	"github.com/yukikurage/kanban-board/internal/worker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App owns the storage handle and the services built on it.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Workflow *services.Workflow

	shutdowns []func()
}

// New initializes logging, connects to the database and wires the services.
func New(cfg *config.Config) (*App, error) {
	if err := logger.Init(cfg.LogDevelopment); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db, Workflow: NewWorkflow(cfg, db)}
	a.shutdowns = append(a.shutdowns, logger.Sync, func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	})
	return a, nil
}

// NewWorkflow builds the full service graph over an open storage handle.
func NewWorkflow(cfg *config.Config, db *gorm.DB) *services.Workflow {
	userRepo := repository.NewUserRepository(db, cfg.StoreTimeout)
	taskRepo := repository.NewTaskRepository(db, cfg.StoreTimeout)

	passwords := services.NewPasswordService(cfg.BcryptCost)
	users := services.NewUserStore(userRepo, passwords, services.UserStoreOptions{
		CacheTTL:         cfg.UserCacheTTL,
		CacheSize:        cfg.UserCacheSize,
		ActivationPolicy: cfg.ActivationPolicy,
	})
	tasks := services.NewTaskStore(taskRepo, users)
	notifications := services.NewNotificationEngine(tasks, users, cfg.NotifyDaysAhead)
	auth := services.NewAuthService(users, services.AuthOptions{
		MaxLoginAttempts:     cfg.MaxLoginAttempts,
		LockoutDuration:      cfg.LockoutDuration,
		AdminRegistrationKey: cfg.AdminRegistrationKey,
	})

	return services.NewWorkflow(auth, users, tasks, notifications)
}

// SessionStore uses redis when REDIS_HOST is set and signed cookies otherwise.
func SessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(10, "tcp", redisAddr, "", "", []byte(cfg.SessionSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Migrate applies the schema.
func (a *App) Migrate() error {
	return database.Migrate(a.DB)
}

// Backup copies the sqlite database into dir, or the configured backup dir when dir is empty.
func (a *App) Backup(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		dir = a.Config.BackupDir
	}
	return database.Backup(ctx, database.NewGuard(a.DB, a.Config.StoreTimeout), dir, time.Now())
}

// Serve runs the HTTP API and the reminder worker until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	gin.SetMode(a.Config.GinMode)

	store, err := SessionStore(a.Config)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.Config.ServerAddr,
		Handler:           handlers.NewRouter(a.Workflow, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if a.Config.ReminderInterval > 0 {
		reminders := worker.NewReminderWorker(a.Workflow, a.Config.ReminderInterval, a.Config.NotifyDaysAhead)
		go reminders.Start(workerCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close runs the shutdown hooks in reverse order.
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
