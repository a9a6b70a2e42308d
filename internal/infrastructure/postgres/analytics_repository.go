package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para la analítica de inventario.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// ListStockLevels productos con su cantidad en el alcance: agregada (locationID vacío)
// o la de la ubicación (cero si el producto nunca tuvo movimiento allí).
func (r *AnalyticsRepo) ListStockLevels(ctx context.Context, locationID string) ([]repository.StockLevel, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    COALESCE(p.category_id, '')                                     AS category_id,
	    p.cost,
	    p.reorder_threshold,
	    CASE WHEN $1 = '' THEN p.aggregate_quantity
	         ELSE COALESCE(s.quantity, 0) END                           AS quantity
	FROM products p
	LEFT JOIN product_stock s ON s.product_id = p.id AND s.location_id = $1
	ORDER BY p.sku`

	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("AnalyticsRepo.ListStockLevels: %w", err)
	}
	defer rows.Close()

	var out []repository.StockLevel
	for rows.Next() {
		var lv repository.StockLevel
		if err := rows.Scan(&lv.ProductID, &lv.SKU, &lv.ProductName, &lv.CategoryID, &lv.Cost, &lv.ReorderThreshold, &lv.Quantity); err != nil {
			return nil, fmt.Errorf("AnalyticsRepo.ListStockLevels scan: %w", err)
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}

// ListMovementsSince movimientos desde `since` (inclusive) en orden cronológico.
func (r *AnalyticsRepo) ListMovementsSince(ctx context.Context, since time.Time, productID string) ([]*entity.StockMovement, error) {
	query := movementSelect + `
	WHERE created_at >= $1 AND ($2 = '' OR product_id = $2)
	ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, since, productID)
	if err != nil {
		return nil, fmt.Errorf("AnalyticsRepo.ListMovementsSince: %w", err)
	}
	list, err := collectMovements(rows)
	if err != nil {
		return nil, fmt.Errorf("AnalyticsRepo.ListMovementsSince: %w", err)
	}
	return list, nil
}
