package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementSelect = `
	SELECT id, type, quantity, product_id, from_location_id, to_location_id, reason, reference,
	       actor_id, resulting_quantity, unit_cost, created_at
	FROM stock_movements`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m        entity.StockMovement
		unitCost decimal.NullDecimal
	)
	err := row.Scan(
		&m.ID, &m.Type, &m.Quantity, &m.ProductID, &m.FromLocationID, &m.ToLocationID,
		&m.Reason, &m.Reference, &m.ActorID, &m.ResultingQuantity, &unitCost, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if unitCost.Valid {
		m.UnitCost = &unitCost.Decimal
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create agrega un movimiento al ledger.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, type, quantity, product_id, from_location_id, to_location_id,
			reason, reference, actor_id, resulting_quantity, unit_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	var unitCost decimal.NullDecimal
	if m.UnitCost != nil {
		unitCost = decimal.NewNullDecimal(*m.UnitCost)
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, string(m.Type), m.Quantity, m.ProductID, m.FromLocationID, m.ToLocationID,
		m.Reason, m.Reference, m.ActorID, m.ResultingQuantity, unitCost, m.CreatedAt,
	)
	if err != nil {
		return translateError(fmt.Errorf("create stock movement: %w", err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, movementSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("get movement: %w", err))
	}
	return m, nil
}

// ListByProduct historial del producto, del más reciente al más antiguo.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx,
		movementSelect+` WHERE product_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		productID, limit, offset)
	if err != nil {
		return nil, translateError(fmt.Errorf("list movements: %w", err))
	}
	return collectMovements(rows)
}

// ListForReplay todos los movimientos del producto en orden cronológico.
func (r *MovementRepo) ListForReplay(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, movementSelect+` WHERE product_id = $1 ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, translateError(fmt.Errorf("list movements for replay: %w", err))
	}
	return collectMovements(rows)
}
