package ledger

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: Commit si fn devuelve nil, Rollback en otro caso.
// Una vez iniciado el Commit no debe poder cancelarse desde ctx.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.TxRepos) error) error
}

// Notifier recibe los eventos de stock después del commit. No debe bloquear ni fallar hacia el llamador.
type Notifier interface {
	Notify(events ...entity.StockEvent)
}

// NopNotifier descarta los eventos (el núcleo funciona igual sin suscriptores).
type NopNotifier struct{}

// Notify implementa Notifier.
func (NopNotifier) Notify(...entity.StockEvent) {}
