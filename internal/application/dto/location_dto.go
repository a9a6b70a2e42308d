package dto

import "time"

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"max=500"`
}

// UpdateLocationRequest entrada para actualizar una ubicación (el estado activo tiene rutas propias).
type UpdateLocationRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationListResponse lista paginada de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LocationStockItemResponse cantidad de un producto en la ubicación.
type LocationStockItemResponse struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// LocationStockResponse stock de todos los productos en una ubicación.
type LocationStockResponse struct {
	LocationID string                      `json:"location_id"`
	Items      []LocationStockItemResponse `json:"items"`
}

// CountSheet datos de la hoja de conteo físico de una ubicación.
type CountSheet struct {
	LocationID   string
	LocationName string
	Address      string
	AsOf         time.Time
	Items        []LocationStockItemResponse
	TotalUnits   int64
}
