package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockLevel resultado crudo: un producto con su cantidad en el alcance consultado.
type StockLevel struct {
	ProductID        string
	SKU              string
	ProductName      string
	CategoryID       string
	Cost             decimal.Decimal
	ReorderThreshold int64
	Quantity         int64
}

// AnalyticsRepository define las consultas de lectura para la analítica de inventario.
// Las implementaciones son read-only y no participan en transacciones de escritura.
type AnalyticsRepository interface {
	// ListStockLevels devuelve todos los productos con su cantidad: agregada si locationID
	// es vacío, o la de esa ubicación (cero si no hay fila).
	ListStockLevels(ctx context.Context, locationID string) ([]StockLevel, error)
	// ListMovementsSince movimientos con created_at >= since en orden ascendente;
	// productID vacío = todos los productos.
	ListMovementsSince(ctx context.Context, since time.Time, productID string) ([]*entity.StockMovement, error)
}
