package mysql

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	apperrors "pharmastock/internal/errors"
)

const (
	errDeadlock        = 1213
	errLockWaitTimeout = 1205
)

// TxRunner executes a unit of work in its own transaction, restarting it
// when MySQL aborts it as a deadlock victim or on lock wait timeout.
type TxRunner struct {
	db          *sql.DB
	timeout     time.Duration
	maxAttempts int
	logger      *zap.Logger
	sleep       func(time.Duration)
}

func NewTxRunner(db *sql.DB, timeout time.Duration, maxAttempts int, logger *zap.Logger) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{
		db:          db,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsDeadlock(err) {
			return err
		}
		if attempt == r.maxAttempts {
			break
		}
		r.logger.Warn("deadlock detected, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", r.maxAttempts))
		r.sleep(backoff(attempt))
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	// Rollback after a successful commit is a no-op.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// backoff grows 50ms per attempt with up to 20% jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 50 * time.Millisecond
	return base + time.Duration(rand.Int64N(int64(base/5)+1))
}

func IsDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlock || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}

func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
