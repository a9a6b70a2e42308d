package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ProductStockRepository define el puerto para consultar/actualizar la proyección de stock
// por producto+ubicación. Las escrituras solo ocurren dentro de transacciones del ledger.
type ProductStockRepository interface {
	// Get devuelve la fila o una en cero si aún no existe (sin crearla).
	Get(ctx context.Context, productID, locationID string) (*entity.ProductStock, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.ProductStock, error)
	Upsert(ctx context.Context, stock *entity.ProductStock) error
	ListByLocation(ctx context.Context, locationID string) ([]entity.LocationStockItem, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.ProductStock, error)
	// HasStockAtLocation indica si alguna fila de la ubicación tiene cantidad distinta de cero.
	HasStockAtLocation(ctx context.Context, locationID string) (bool, error)
}
