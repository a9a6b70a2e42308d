package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos Get* devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE) dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	// Update actualiza atributos de catálogo; nunca cantidades.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStockTotals lo usa únicamente el ledger: cantidad agregada y costo promedio.
	// updatedAt es el instante del movimiento que los produce.
	UpdateStockTotals(ctx context.Context, productID string, aggregateQty int64, cost decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
