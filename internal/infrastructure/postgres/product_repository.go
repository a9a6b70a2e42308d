package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, barcode, name, price, cost, reorder_threshold, aggregate_quantity,
	COALESCE(category_id, ''), created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Barcode, &p.Name, &p.Price, &p.Cost, &p.ReorderThreshold,
		&p.AggregateQuantity, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto con cantidad agregada cero.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, barcode, name, price, cost, reorder_threshold, aggregate_quantity, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NULLIF($8, ''), $9, $10)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Barcode, product.Name, product.Price, product.Cost,
		product.ReorderThreshold, product.CategoryID, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku o barcode %s", domain.ErrDuplicate, product.SKU)
		}
		return translateError(fmt.Errorf("insert product: %w", err))
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("%s: %w", op, err))
	}
	return p, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product for update", `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by sku", `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

// GetByBarcode obtiene un producto por código de barras.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by barcode", `SELECT `+productColumns+` FROM products WHERE barcode = $1 AND barcode <> ''`, barcode)
}

// Update actualiza atributos de catálogo (no cantidades ni costo).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, barcode = $3, price = $4, reorder_threshold = $5, category_id = NULLIF($6, ''), updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Barcode, product.Price, product.ReorderThreshold,
		product.CategoryID, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: barcode %s", domain.ErrDuplicate, product.Barcode)
		}
		return translateError(fmt.Errorf("update product: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, product.ID)
	}
	return nil
}

// UpdateStockTotals actualiza cantidad agregada y costo promedio (solo desde el ledger).
func (r *ProductRepo) UpdateStockTotals(ctx context.Context, productID string, aggregateQty int64, cost decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE products SET aggregate_quantity = $2, cost = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, productID, aggregateQty, cost, updatedAt); err != nil {
		return translateError(fmt.Errorf("update product totals: %w", err))
	}
	return nil
}

// List lista productos ordenados por SKU con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sku LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, translateError(fmt.Errorf("list products: %w", err))
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
