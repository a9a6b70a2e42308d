package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo persistencia de órdenes y líneas sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserta el encabezado y todas sus líneas.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, reference, status, actor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, order.ID, order.Reference, string(order.Status), order.ActorID, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden con referencia %s", domain.ErrDuplicate, order.Reference)
		}
		return translateError(fmt.Errorf("insert order: %w", err))
	}
	lineQuery := `
		INSERT INTO order_lines (id, order_id, product_id, location_id, quantity, returned_quantity, movement_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`
	for _, l := range order.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, l.ID, order.ID, l.ProductID, l.LocationID, l.Quantity, l.ReturnedQuantity, l.MovementID); err != nil {
			return translateError(fmt.Errorf("insert order line: %w", err))
		}
	}
	return nil
}

func (r *OrderRepo) getOne(ctx context.Context, op, where string, arg any) (*entity.Order, error) {
	query := `SELECT id, reference, status, actor_id, created_at, updated_at FROM orders WHERE ` + where
	var o entity.Order
	err := r.q.QueryRow(ctx, query, arg).Scan(&o.ID, &o.Reference, &o.Status, &o.ActorID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("%s: %w", op, err))
	}
	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]entity.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, location_id, quantity, returned_quantity, COALESCE(movement_id, '')
		FROM order_lines WHERE order_id = $1
		ORDER BY product_id, location_id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, translateError(fmt.Errorf("list order lines: %w", err))
	}
	defer rows.Close()
	var lines []entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.LocationID, &l.Quantity, &l.ReturnedQuantity, &l.MovementID); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetByID obtiene una orden con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.getOne(ctx, "get order", "id = $1", id)
}

// GetByReference obtiene una orden por su número externo.
func (r *OrderRepo) GetByReference(ctx context.Context, reference string) (*entity.Order, error) {
	return r.getOne(ctx, "get order by reference", "reference = $1", reference)
}

// GetForUpdate obtiene la orden bloqueando el encabezado (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.getOne(ctx, "get order for update", "id = $1 FOR UPDATE", id)
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return translateError(fmt.Errorf("update order status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
	}
	return nil
}

// UpdateLine actualiza la cantidad devuelta y el movimiento de una línea.
func (r *OrderRepo) UpdateLine(ctx context.Context, line *entity.OrderLine) error {
	query := `UPDATE order_lines SET returned_quantity = $2, movement_id = NULLIF($3, '') WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, line.ID, line.ReturnedQuantity, line.MovementID)
	if err != nil {
		return translateError(fmt.Errorf("update order line: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %s", domain.ErrNotFound, line.ID)
	}
	return nil
}
