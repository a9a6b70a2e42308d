package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si ctx venció antes del commit, se hace Rollback. Una vez iniciado, el Commit no depende de ctx.
func (r *TxRunner) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return translateError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	repos := repository.TxRepos{
		Products:  NewProductRepository(tx),
		Locations: NewLocationRepository(tx),
		Stock:     NewProductStockRepository(tx),
		Movements: NewMovementRepository(tx),
		Orders:    NewOrderRepository(tx),
	}
	if err := fn(repos); err != nil {
		return translateError(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(context.WithoutCancel(ctx)); err != nil {
		return translateError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Repos devuelve repositorios sobre el pool para lecturas fuera de transacción.
func Repos(pool *pgxpool.Pool) repository.TxRepos {
	return repository.TxRepos{
		Products:  NewProductRepository(pool),
		Locations: NewLocationRepository(pool),
		Stock:     NewProductStockRepository(pool),
		Movements: NewMovementRepository(pool),
		Orders:    NewOrderRepository(pool),
	}
}
