package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. La cantidad inicia en cero:
// el stock solo entra por movimientos del ledger.
type CreateProductRequest struct {
	SKU              string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode          string          `json:"barcode" validate:"max=100"`
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	Price            decimal.Decimal `json:"price"`
	Cost             decimal.Decimal `json:"cost"`
	ReorderThreshold int64           `json:"reorder_threshold" validate:"min=0"`
	CategoryID       string          `json:"category_id"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Cost ni cantidades).
type UpdateProductRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Barcode          *string          `json:"barcode" validate:"omitempty,max=100"`
	Price            *decimal.Decimal `json:"price"`
	ReorderThreshold *int64           `json:"reorder_threshold" validate:"omitempty,min=0"`
	CategoryID       *string          `json:"category_id"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode,omitempty"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	ReorderThreshold  int64           `json:"reorder_threshold"`
	AggregateQuantity int64           `json:"aggregate_quantity"`
	CategoryID        string          `json:"category_id,omitempty"`
	IsLowStock        bool            `json:"is_low_stock"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
