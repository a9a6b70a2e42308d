package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// AggregateQuantity es la suma de sus ProductStock por ubicación y solo la modifica el ledger.
// Cost es promedio ponderado, actualizado por entradas (IN) que traen costo unitario.
type Product struct {
	ID                string
	SKU               string // único
	Barcode           string // opcional, único si no está vacío
	Name              string
	Price             decimal.Decimal
	Cost              decimal.Decimal
	ReorderThreshold  int64
	AggregateQuantity int64
	CategoryID        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsLowStock indica si la cantidad agregada está en o por debajo del umbral de reorden.
func (p *Product) IsLowStock() bool {
	return p.AggregateQuantity <= p.ReorderThreshold
}
