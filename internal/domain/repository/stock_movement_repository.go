package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger (append-only).
// No expone Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListByProduct devuelve movimientos del más reciente al más antiguo (created_at DESC, id DESC).
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
	// ListForReplay devuelve todos los movimientos del producto en orden cronológico ascendente.
	ListForReplay(ctx context.Context, productID string) ([]*entity.StockMovement, error)
}
