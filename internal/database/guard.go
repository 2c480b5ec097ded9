package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultTimeout = 30 * time.Second
	retryDelay     = 50 * time.Millisecond
	slowThreshold  = 100 * time.Millisecond
)

// Guard runs storage calls with a bounded deadline and a single retry on
// transient connection failures.
type Guard struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGuard(db *gorm.DB, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{db: db, timeout: timeout}
}

// Run calls fn with a session bound to a per-attempt deadline. A deadline
// overrun surfaces as ErrStorageTimeout.
func (g *Guard) Run(ctx context.Context, fn func(db *gorm.DB) error) error {
	start := time.Now()
	attempt := 0

	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		err := fn(g.db.WithContext(callCtx))
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return backoff.Permanent(fmt.Errorf("%w: %v", apierrors.ErrStorageTimeout, err))
		}
		if isTransient(err) {
			logger.Warn("Storage: transient failure, retrying", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), 1), ctx)
	err := backoff.Retry(op, policy)

	if elapsed := time.Since(start); elapsed > slowThreshold {
		logger.Warn("Storage: slow operation", zap.Duration("elapsed", elapsed))
	}
	return err
}

// Transaction runs fn inside a database transaction under the same guarantees as Run.
func (g *Guard) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.Run(ctx, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

func isTransient(err error) bool {
	return errors.Is(err, driver.ErrBadConn)
}
