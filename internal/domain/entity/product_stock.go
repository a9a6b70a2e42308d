package entity

import "time"

// ProductStock es la proyección materializada del stock de un producto en una ubicación.
// Se crea de forma perezosa en el primer movimiento y nunca se elimina; Quantity >= 0 siempre.
type ProductStock struct {
	ProductID  string
	LocationID string
	Quantity   int64
	UpdatedAt  time.Time
}

// LocationStockItem fila de lectura para el stock de una ubicación.
type LocationStockItem struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int64
}
