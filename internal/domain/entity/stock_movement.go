package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         MovementType = "IN"         // entrada
	MovementTypeOUT        MovementType = "OUT"        // salida
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste a cantidad absoluta
	MovementTypeTRANSFER   MovementType = "TRANSFER"   // traslado entre ubicaciones
)

// Motivos registrados por los motores de cumplimiento.
const (
	ReasonOrder          = "order"
	ReasonOrderCancelled = "order_cancelled"
	ReasonOrderReturn    = "order_return"
)

// IsReservedReason indica si el motivo solo puede escribirlo un motor de cumplimiento.
func IsReservedReason(reason string) bool {
	switch reason {
	case ReasonOrder, ReasonOrderCancelled, ReasonOrderReturn:
		return true
	}
	return false
}

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT, MovementTypeTRANSFER:
		return true
	}
	return false
}

// StockMovement es una entrada inmutable del ledger (append-only: nunca se actualiza ni se borra).
//
// Ubicación según tipo: IN → To; OUT → From; ADJUSTMENT → To; TRANSFER → From y To en una sola fila.
// Quantity es magnitud positiva salvo en ADJUSTMENT, donde guarda el delta aplicado con signo.
// ResultingQuantity es la cantidad en la ubicación afectada después del movimiento
// (para TRANSFER, la del origen).
type StockMovement struct {
	ID                string
	Type              MovementType
	Quantity          int64
	ProductID         string
	FromLocationID    *string
	ToLocationID      *string
	Reason            string
	Reference         string
	ActorID           string
	ResultingQuantity int64
	UnitCost          *decimal.Decimal
	CreatedAt         time.Time
}

// IsOrderCompensation indica si el movimiento revierte una salida por cancelación de orden.
func (m *StockMovement) IsOrderCompensation() bool {
	return m.Type == MovementTypeIN && m.Reason == ReasonOrderCancelled
}
