package dto

import "time"

// OrderLineRequest línea solicitada.
type OrderLineRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Reference string             `json:"reference" validate:"required,max=100"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReturnLineRequest devolución de una línea.
type ReturnLineRequest struct {
	LineID   string `json:"line_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

// ReturnOrderRequest body para POST /api/orders/:id/returns.
type ReturnOrderRequest struct {
	Lines []ReturnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineResponse línea de una orden.
type OrderLineResponse struct {
	ID               string `json:"id"`
	ProductID        string `json:"product_id"`
	LocationID       string `json:"location_id"`
	Quantity         int64  `json:"quantity"`
	ReturnedQuantity int64  `json:"returned_quantity"`
	MovementID       string `json:"movement_id"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID        string              `json:"id"`
	Reference string              `json:"reference"`
	Status    string              `json:"status"`
	ActorID   string              `json:"actor_id"`
	Lines     []OrderLineResponse `json:"lines"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
