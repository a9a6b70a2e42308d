package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para órdenes y sus líneas.
type OrderRepository interface {
	// Create persiste el encabezado y las líneas.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByReference(ctx context.Context, reference string) (*entity.Order, error)
	// GetForUpdate bloquea el encabezado de la orden dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, at time.Time) error
	UpdateLine(ctx context.Context, line *entity.OrderLine) error
}
