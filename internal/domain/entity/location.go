package entity

import "time"

// Location representa una bodega o sucursal donde se almacena inventario (multi-ubicación).
// No puede desactivarse mientras tenga stock distinto de cero para algún producto.
type Location struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
