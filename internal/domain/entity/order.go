package entity

import "time"

// OrderStatus estado de una orden desde la perspectiva del stock.
// UNFULFILLED → STOCK_RESERVED → {CANCELLED | COMPLETED}; los dos últimos son terminales.
type OrderStatus string

const (
	OrderStatusUnfulfilled   OrderStatus = "UNFULFILLED"
	OrderStatusStockReserved OrderStatus = "STOCK_RESERVED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusCompleted     OrderStatus = "COMPLETED"
)

// CanTransition indica si el cambio de estado está permitido.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderStatusUnfulfilled:
		return to == OrderStatusStockReserved
	case OrderStatusStockReserved:
		return to == OrderStatusCancelled || to == OrderStatusCompleted
	}
	return false
}

// Order encabezado de una orden de cumplimiento.
type Order struct {
	ID        string
	Reference string // número externo de la orden, único
	Status    OrderStatus
	ActorID   string
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLine línea de la orden; MovementID apunta a la salida (OUT) que reservó el stock.
type OrderLine struct {
	ID               string
	OrderID          string
	ProductID        string
	LocationID       string
	Quantity         int64
	ReturnedQuantity int64
	MovementID       string
}
