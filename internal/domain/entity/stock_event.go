package entity

import "time"

// StockEvent evento posterior al commit para el sumidero de notificaciones.
type StockEvent struct {
	ProductID    string       `json:"product_id"`
	LocationID   string       `json:"location_id,omitempty"`
	OldQuantity  int64        `json:"old_quantity"`
	NewQuantity  int64        `json:"new_quantity"`
	MovementID   string       `json:"movement_id"`
	MovementType MovementType `json:"movement_type"`
	ActorID      string       `json:"actor_id"`
	Timestamp    time.Time    `json:"timestamp"`
}
