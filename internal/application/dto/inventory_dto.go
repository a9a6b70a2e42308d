package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// ADJUSTMENT usa target_quantity (cantidad absoluta); los demás tipos usan quantity.
type RegisterMovementRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Type           string           `json:"type" validate:"required,oneof=IN OUT ADJUSTMENT TRANSFER"`
	Quantity       int64            `json:"quantity" validate:"min=0"`
	TargetQuantity *int64           `json:"target_quantity,omitempty" validate:"omitempty,min=0"`
	LocationID     string           `json:"location_id,omitempty"`
	FromLocationID string           `json:"from_location_id,omitempty"`
	ToLocationID   string           `json:"to_location_id,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason         string           `json:"reason" validate:"max=200"`
	Reference      string           `json:"reference" validate:"max=200"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	FromLocationID string `json:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" validate:"required"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	Reason         string `json:"reason" validate:"max=200"`
	Reference      string `json:"reference" validate:"max=200"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	Quantity          int64            `json:"quantity"`
	ProductID         string           `json:"product_id"`
	FromLocationID    *string          `json:"from_location_id"`
	ToLocationID      *string          `json:"to_location_id"`
	Reason            string           `json:"reason,omitempty"`
	Reference         string           `json:"reference,omitempty"`
	ActorID           string           `json:"actor_id"`
	ResultingQuantity int64            `json:"resulting_quantity"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// TransferResponse movimiento TRANSFER y cantidades resultantes.
type TransferResponse struct {
	Movement       MovementResponse `json:"movement"`
	FromStockAfter int64            `json:"from_stock_after"`
	ToStockAfter   int64            `json:"to_stock_after"`
}

// MovementListResponse página del historial de un producto.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MismatchResponse diferencia entre proyección y reconstrucción ("" = agregado).
type MismatchResponse struct {
	LocationID string `json:"location_id,omitempty"`
	Projected  int64  `json:"projected"`
	Replayed   int64  `json:"replayed"`
}

// VerifyResponse resultado de GET /api/products/:id/verify.
type VerifyResponse struct {
	ProductID     string             `json:"product_id"`
	Movements     int                `json:"movements"`
	Consistent    bool               `json:"consistent"`
	Aggregate     int64              `json:"aggregate_quantity"`
	ByLocation    map[string]int64   `json:"by_location"`
	Mismatches    []MismatchResponse `json:"mismatches"`
	NegativeAfter []string           `json:"negative_after,omitempty"`
}
