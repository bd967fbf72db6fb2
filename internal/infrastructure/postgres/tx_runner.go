package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

const retryBackoff = 25 * time.Millisecond

// TxRunner ejecuta callbacks dentro de una transacción SERIALIZABLE.
// Los fallos de serialización se reintentan; agotados los reintentos se devuelve ErrTransient.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	retries int
	metrics ports.LedgerMetrics
	log     *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, cfg config.StoreConfig, metrics ports.LedgerMetrics, log *logger.Logger) *TxRunner {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{
		pool:    pool,
		timeout: cfg.Timeout(),
		retries: cfg.TxRetries,
		metrics: metrics,
		log:     log.Component("tx"),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	for attempt := 0; ; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		if !isRetryable(err) {
			return err
		}
		if attempt >= r.retries {
			return fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		r.metrics.TxRetried()
		r.log.Warn().Int("attempt", attempt+1).Err(err).Msg("conflicto de serialización, se reintenta")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrTransient, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := repository.TxRepos{
		Products:  NewProductRepository(tx),
		Locations: NewLocationRepository(tx),
		Stock:     NewProductLocationRepository(tx),
		Movements: NewMovementRepository(tx),
		Loans:     NewLoanRepository(tx),
		Sales:     NewSaleRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
