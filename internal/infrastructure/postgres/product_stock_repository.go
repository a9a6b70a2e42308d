package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ProductStockRepository = (*ProductStockRepo)(nil)

// ProductStockRepo implementación de ProductStockRepository sobre PostgreSQL (usable con pool o tx).
type ProductStockRepo struct {
	q Querier
}

// NewProductStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewProductStockRepository(q Querier) *ProductStockRepo {
	return &ProductStockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una ubicación (cero si no hay fila).
func (r *ProductStockRepo) Get(ctx context.Context, productID, locationID string) (*entity.ProductStock, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM product_stock WHERE product_id = $1 AND location_id = $2`
	var s entity.ProductStock
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.ProductStock{ProductID: productID, LocationID: locationID}, nil
		}
		return nil, translateError(fmt.Errorf("get stock: %w", err))
	}
	return &s, nil
}

// GetForUpdate materializa la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
// Crear la fila primero garantiza que dos transacciones concurrentes compitan por el mismo bloqueo.
func (r *ProductStockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.ProductStock, error) {
	insert := `
		INSERT INTO product_stock (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, locationID); err != nil {
		return nil, translateError(fmt.Errorf("materialize stock row: %w", err))
	}
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM product_stock WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	var s entity.ProductStock
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		return nil, translateError(fmt.Errorf("get stock for update: %w", err))
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y ubicación).
func (r *ProductStockRepo) Upsert(ctx context.Context, stock *entity.ProductStock) error {
	query := `
		INSERT INTO product_stock (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.LocationID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return translateError(fmt.Errorf("upsert stock: %w", err))
	}
	return nil
}

// ListByLocation devuelve el stock de todos los productos con fila en la ubicación, por SKU.
func (r *ProductStockRepo) ListByLocation(ctx context.Context, locationID string) ([]entity.LocationStockItem, error) {
	query := `
		SELECT s.product_id, p.sku, p.name, s.quantity
		FROM product_stock s
		JOIN products p ON p.id = s.product_id
		WHERE s.location_id = $1
		ORDER BY p.sku`
	rows, err := r.q.Query(ctx, query, locationID)
	if err != nil {
		return nil, translateError(fmt.Errorf("list stock by location: %w", err))
	}
	defer rows.Close()
	var items []entity.LocationStockItem
	for rows.Next() {
		var it entity.LocationStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByProduct devuelve las filas de stock del producto en todas las ubicaciones.
func (r *ProductStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.ProductStock, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM product_stock WHERE product_id = $1
		ORDER BY location_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, translateError(fmt.Errorf("list stock by product: %w", err))
	}
	defer rows.Close()
	var list []*entity.ProductStock
	for rows.Next() {
		var s entity.ProductStock
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// HasStockAtLocation indica si alguna fila de la ubicación tiene cantidad distinta de cero.
func (r *ProductStockRepo) HasStockAtLocation(ctx context.Context, locationID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM product_stock WHERE location_id = $1 AND quantity <> 0)`
	if err := r.q.QueryRow(ctx, query, locationID).Scan(&exists); err != nil {
		return false, translateError(fmt.Errorf("check stock at location: %w", err))
	}
	return exists, nil
}
