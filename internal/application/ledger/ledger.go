// Package ledger es el núcleo de escritura del inventario: el único componente que
// modifica cantidades. Cada mutación agrega exactamente un StockMovement y actualiza
// la proyección (ProductStock y Product.AggregateQuantity) en la misma transacción.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var tracer = otel.Tracer("github.com/jhoicas/stockledger-api/internal/application/ledger")

// Options reglas configurables del ledger.
type Options struct {
	TxTimeout         time.Duration
	SingleLocation    bool
	DefaultLocationID string
}

// Ledger registra movimientos de inventario de forma transaccional
// (IN, OUT, ADJUSTMENT, TRANSFER) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type Ledger struct {
	txRunner TxRunner
	repos    repository.TxRepos // lecturas fuera de transacción
	notifier Notifier
	clock    clockwork.Clock
	log      zerolog.Logger
	opts     Options
}

// New construye el ledger. notifier y clock pueden ser nil.
func New(
	txRunner TxRunner,
	repos repository.TxRepos,
	notifier Notifier,
	clock clockwork.Clock,
	log zerolog.Logger,
	opts Options,
) *Ledger {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 5 * time.Second
	}
	return &Ledger{
		txRunner: txRunner,
		repos:    repos,
		notifier: notifier,
		clock:    clock,
		log:      log,
		opts:     opts,
	}
}

// Tx unidad de trabajo: repositorios de la transacción más los eventos pendientes
// de publicar cuando la transacción confirme.
type Tx struct {
	repository.TxRepos
	events []entity.StockEvent
}

// Applied resultado de aplicar un movimiento dentro de una transacción.
type Applied struct {
	Movement   *entity.StockMovement
	StockAfter map[string]int64 // cantidad por ubicación afectada después del movimiento
	Events     []entity.StockEvent
}

// ApplyMovement es el punto de entrada único de mutación: valida, abre una transacción acotada
// por TxTimeout, aplica el movimiento y publica los eventos después del commit.
// Ante cualquier error no se escribe ninguna fila.
func (l *Ledger) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "ledger.apply_movement")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("movement.type", string(in.Type)),
		attribute.Int64("movement.quantity", in.Quantity),
	)

	var applied *Applied
	err := checkManualReason(in.Reason)
	if err == nil {
		err = l.Atomically(ctx, func(ctx context.Context, tx *Tx) error {
			var err error
			applied, err = l.Apply(ctx, tx, in)
			return err
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logFailure(err, in)
		return nil, err
	}
	l.log.Info().
		Str("movement_id", applied.Movement.ID).
		Str("product_id", in.ProductID).
		Str("type", string(in.Type)).
		Int64("quantity", applied.Movement.Quantity).
		Str("actor_id", in.ActorID).
		Msg("movimiento registrado")
	return applied.Movement, nil
}

// Atomically ejecuta fn en una transacción acotada por TxTimeout. Si fn y el commit terminan
// bien, los eventos acumulados por Apply se entregan al Notifier; si no, se descartan.
// Un timeout se reporta como ErrConflict envolviendo context.DeadlineExceeded: no hubo escritura.
func (l *Ledger) Atomically(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.opts.TxTimeout)
	defer cancel()

	var pending []entity.StockEvent
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		tx := &Tx{TxRepos: repos}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		pending = tx.events
		return nil
	})
	if err != nil {
		return translateTxError(ctx, err)
	}
	if len(pending) > 0 {
		l.notifier.Notify(pending...)
	}
	return nil
}

// Apply aplica un movimiento usando los repositorios de la transacción del llamador.
// Es la única ruta que escribe ProductStock y Product.AggregateQuantity; los motores de
// traslado y cumplimiento la invocan dentro de su propia transacción (Atomically).
func (l *Ledger) Apply(ctx context.Context, tx *Tx, in MovementInput) (*Applied, error) {
	in, err := l.normalize(in)
	if err != nil {
		return nil, err
	}

	// Bloquea el producto: serializa la actualización de la cantidad agregada.
	product, err := tx.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}

	locIDs := in.locationIDs()
	for _, id := range locIDs {
		loc, err := tx.Locations.GetForShare(ctx, id)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		if !loc.IsActive {
			return nil, fmt.Errorf("%w: %s", domain.ErrLocationInactive, id)
		}
	}

	// Bloquea las filas de stock en orden fijo de ubicación (evita deadlocks entre traslados).
	stocks := make(map[string]*entity.ProductStock, len(locIDs))
	for _, id := range locIDs {
		s, err := tx.Stock.GetForUpdate(ctx, in.ProductID, id)
		if err != nil {
			return nil, err
		}
		stocks[id] = s
	}

	now := l.clock.Now().UTC()
	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		Type:           in.Type,
		Quantity:       in.Quantity,
		ProductID:      in.ProductID,
		FromLocationID: optional(in.FromLocationID),
		ToLocationID:   optional(in.ToLocationID),
		Reason:         in.Reason,
		Reference:      in.Reference,
		ActorID:        in.ActorID,
		UnitCost:       in.UnitCost,
		CreatedAt:      now,
	}
	if in.Type == entity.MovementTypeADJUSTMENT {
		// Se guarda el delta aplicado; la cantidad absoluta queda en ResultingQuantity.
		mov.Quantity = *in.TargetQuantity - stocks[in.ToLocationID].Quantity
		if mov.Quantity == 0 {
			return nil, fmt.Errorf("%w: el ajuste no cambia la cantidad", domain.ErrValidation)
		}
	}

	applied := &Applied{Movement: mov, StockAfter: make(map[string]int64, len(locIDs))}
	for _, d := range inventory.Deltas(mov) {
		s := stocks[d.LocationID]
		newQty := s.Quantity + d.Delta
		if newQty < 0 {
			return nil, fmt.Errorf("%w: disponible %d en %s, solicitado %d",
				domain.ErrInsufficientStock, s.Quantity, d.LocationID, -d.Delta)
		}
		applied.Events = append(applied.Events, entity.StockEvent{
			ProductID:    in.ProductID,
			LocationID:   d.LocationID,
			OldQuantity:  s.Quantity,
			NewQuantity:  newQty,
			MovementID:   mov.ID,
			MovementType: mov.Type,
			ActorID:      in.ActorID,
			Timestamp:    now,
		})
		s.Quantity = newQty
		s.UpdatedAt = now
		applied.StockAfter[d.LocationID] = newQty
	}

	aggregate := product.AggregateQuantity + inventory.NetDelta(mov)
	if aggregate < 0 {
		return nil, fmt.Errorf("%w: cantidad agregada insuficiente", domain.ErrInsufficientStock)
	}
	cost := product.Cost
	if mov.Type == entity.MovementTypeIN && in.UnitCost != nil {
		cost = inventory.WeightedCost(product.AggregateQuantity, product.Cost, mov.Quantity, *in.UnitCost)
	}

	if mov.FromLocationID != nil {
		mov.ResultingQuantity = applied.StockAfter[*mov.FromLocationID]
	} else {
		mov.ResultingQuantity = applied.StockAfter[*mov.ToLocationID]
	}

	for _, id := range locIDs {
		if err := tx.Stock.Upsert(ctx, stocks[id]); err != nil {
			return nil, err
		}
	}
	if err := tx.Products.UpdateStockTotals(ctx, product.ID, aggregate, cost, now); err != nil {
		return nil, err
	}
	if err := tx.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	tx.events = append(tx.events, applied.Events...)
	return applied, nil
}

// checkManualReason rechaza los motivos de órdenes en movimientos manuales: la analítica
// distingue las compensaciones por cancelación solo por su motivo.
func checkManualReason(reason string) error {
	if entity.IsReservedReason(reason) {
		return fmt.Errorf("%w: el motivo %q está reservado para órdenes", domain.ErrValidation, reason)
	}
	return nil
}

func (l *Ledger) logFailure(err error, in MovementInput) {
	ev := l.log.Error()
	if domain.IsBusinessError(err) {
		ev = l.log.Info()
	}
	ev.Err(err).
		Str("product_id", in.ProductID).
		Str("type", string(in.Type)).
		Str("actor_id", in.ActorID).
		Msg("movimiento rechazado")
}

// translateTxError conserva los errores de negocio y convierte el vencimiento del
// plazo de la transacción en ErrConflict (el llamador puede reintentar).
func translateTxError(ctx context.Context, err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrConflict, context.DeadlineExceeded)
	}
	return err
}
