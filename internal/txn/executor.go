// Package txn runs ordered batches of data operations inside one database
// transaction. Unlike a best-effort sequential executor there is no partial
// state to compensate for: any failed step rolls the whole batch back.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/database"
)

// Policy bounds a batch. Timeout caps the whole batch including commit;
// MaxWait caps how long we wait to acquire the transaction.
type Policy struct {
	Timeout time.Duration
	MaxWait time.Duration
}

// DefaultPolicy mirrors the configured workflow defaults when a caller
// passes a zero policy.
var DefaultPolicy = Policy{Timeout: 5 * time.Second, MaxWait: 2 * time.Second}

// Operation is one step of a batch, scoped to the transaction handle.
type Operation func(ctx context.Context, tx bun.IDB) error

// Executor begins, runs, and commits transactional batches.
type Executor struct {
	db     *bun.DB
	logger *zap.Logger
}

// Module provides the executor to Fx.
var Module = fx.Provide(NewExecutor)

// NewExecutor builds an executor over the primary write connection.
func NewExecutor(conns *database.Connections, logger *zap.Logger) *Executor {
	return &Executor{db: conns.Writer, logger: logger}
}

// Run executes ops in order inside a single transaction. The first failing
// op aborts the batch and rolls everything back.
func (e *Executor) Run(ctx context.Context, policy Policy, ops ...Operation) error {
	if len(ops) == 0 {
		return errors.New("txn: empty batch")
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultPolicy.Timeout
	}
	if policy.MaxWait <= 0 {
		policy.MaxWait = DefaultPolicy.MaxWait
	}

	runCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	beginCtx, beginCancel := context.WithTimeout(runCtx, policy.MaxWait)
	tx, err := e.db.BeginTx(beginCtx, nil)
	beginCancel()
	if err != nil {
		return fmt.Errorf("txn: begin: %w", err)
	}

	for i, op := range ops {
		if err := op(runCtx, tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				e.logger.Warn("transaction rollback failed",
					zap.Int("step", i), zap.Error(rbErr))
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("txn: commit: %w", err)
	}
	return nil
}
