// Package fulfillment convierte órdenes en salidas de stock todo-o-nada y las revierte
// con entradas compensatorias cuando la orden se cancela.
package fulfillment

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var tracer = otel.Tracer("github.com/jhoicas/stockledger-api/internal/application/fulfillment")

// LineInput línea solicitada de una orden.
type LineInput struct {
	ProductID  string
	LocationID string
	Quantity   int64
}

// CreateOrderInput datos para crear una orden.
type CreateOrderInput struct {
	Reference string
	ActorID   string
	Lines     []LineInput
}

// ReturnLine devolución parcial o total de una línea de una orden completada.
type ReturnLine struct {
	LineID   string
	Quantity int64
}

// ReturnInput datos de una devolución.
type ReturnInput struct {
	ActorID string
	Lines   []ReturnLine
}

// Engine motor de cumplimiento de órdenes.
type Engine struct {
	ledger *ledger.Ledger
	orders repository.OrderRepository // lecturas fuera de transacción
	clock  clockwork.Clock
	log    zerolog.Logger
}

// NewEngine construye el motor. clock puede ser nil.
func NewEngine(l *ledger.Ledger, orders repository.OrderRepository, clock clockwork.Clock, log zerolog.Logger) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{ledger: l, orders: orders, clock: clock, log: log}
}

// CreateOrder crea la orden y registra una salida (OUT) por línea en una sola transacción.
// Si alguna línea falla no queda ni la orden ni ningún movimiento.
func (e *Engine) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	lines, err := mergeLines(in)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "fulfillment.create_order")
	defer span.End()
	span.SetAttributes(attribute.String("order.reference", in.Reference), attribute.Int("order.lines", len(lines)))

	now := e.clock.Now().UTC()
	order := &entity.Order{
		ID:        uuid.New().String(),
		Reference: in.Reference,
		Status:    entity.OrderStatusUnfulfilled,
		ActorID:   in.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, li := range lines {
		order.Lines = append(order.Lines, entity.OrderLine{
			ID:         uuid.New().String(),
			OrderID:    order.ID,
			ProductID:  li.ProductID,
			LocationID: li.LocationID,
			Quantity:   li.Quantity,
		})
	}

	err = e.ledger.Atomically(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		existing, err := tx.Orders.GetByReference(ctx, in.Reference)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: orden con referencia %s", domain.ErrDuplicate, in.Reference)
		}
		// Las salidas se registran primero: cada línea guarda la ubicación resuelta y su movimiento.
		for i := range order.Lines {
			line := &order.Lines[i]
			applied, err := e.ledger.Apply(ctx, tx, ledger.MovementInput{
				ProductID:  line.ProductID,
				Type:       entity.MovementTypeOUT,
				Quantity:   line.Quantity,
				LocationID: line.LocationID,
				Reason:     entity.ReasonOrder,
				Reference:  order.ID,
				ActorID:    in.ActorID,
			})
			if err != nil {
				return fmt.Errorf("línea %d (producto %s): %w", i+1, line.ProductID, err)
			}
			line.MovementID = applied.Movement.ID
			line.LocationID = *applied.Movement.FromLocationID
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		return e.transition(ctx, tx, order, entity.OrderStatusStockReserved)
	})
	if err != nil {
		return nil, e.fail(span, err, "orden rechazada", order.ID)
	}
	e.log.Info().Str("order_id", order.ID).Str("reference", order.Reference).Str("actor_id", in.ActorID).
		Int("lines", len(order.Lines)).Msg("orden creada con stock reservado")
	return order, nil
}

// CancelOrder cancela una orden con stock reservado registrando una entrada compensatoria por línea.
// Las salidas originales no se modifican.
func (e *Engine) CancelOrder(ctx context.Context, orderID, actorID string) (*entity.Order, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	ctx, span := tracer.Start(ctx, "fulfillment.cancel_order")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order *entity.Order
	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(entity.OrderStatusCancelled) {
			return fmt.Errorf("%w: no se puede cancelar una orden %s", domain.ErrInvalidOrderState, order.Status)
		}
		for _, line := range order.Lines {
			if _, err := e.ledger.Apply(ctx, tx, ledger.MovementInput{
				ProductID:  line.ProductID,
				Type:       entity.MovementTypeIN,
				Quantity:   line.Quantity,
				LocationID: line.LocationID,
				Reason:     entity.ReasonOrderCancelled,
				Reference:  order.ID,
				ActorID:    actorID,
			}); err != nil {
				return fmt.Errorf("compensación producto %s: %w", line.ProductID, err)
			}
		}
		return e.transition(ctx, tx, order, entity.OrderStatusCancelled)
	})
	if err != nil {
		return nil, e.fail(span, err, "cancelación rechazada", orderID)
	}
	e.log.Info().Str("order_id", orderID).Str("actor_id", actorID).Msg("orden cancelada")
	return order, nil
}

// CompleteOrder marca la orden como completada; no cambia cantidades.
func (e *Engine) CompleteOrder(ctx context.Context, orderID, actorID string) (*entity.Order, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	ctx, span := tracer.Start(ctx, "fulfillment.complete_order")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order *entity.Order
	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(entity.OrderStatusCompleted) {
			return fmt.Errorf("%w: no se puede completar una orden %s", domain.ErrInvalidOrderState, order.Status)
		}
		return e.transition(ctx, tx, order, entity.OrderStatusCompleted)
	})
	if err != nil {
		return nil, e.fail(span, err, "completado rechazado", orderID)
	}
	e.log.Info().Str("order_id", orderID).Str("actor_id", actorID).Msg("orden completada")
	return order, nil
}

// ReturnOrderLines registra devoluciones de una orden completada como entradas (IN).
// Cada cantidad devuelta no puede superar lo pendiente de devolver en la línea.
func (e *Engine) ReturnOrderLines(ctx context.Context, orderID string, in ReturnInput) (*entity.Order, error) {
	if in.ActorID == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la devolución no tiene líneas", domain.ErrValidation)
	}
	ctx, span := tracer.Start(ctx, "fulfillment.return_order_lines")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order *entity.Order
	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusCompleted {
			return fmt.Errorf("%w: solo se aceptan devoluciones de órdenes completadas", domain.ErrInvalidOrderState)
		}
		byID := make(map[string]*entity.OrderLine, len(order.Lines))
		for i := range order.Lines {
			byID[order.Lines[i].ID] = &order.Lines[i]
		}
		for _, r := range in.Lines {
			line, ok := byID[r.LineID]
			if !ok {
				return fmt.Errorf("%w: línea %s", domain.ErrNotFound, r.LineID)
			}
			if r.Quantity <= 0 || r.Quantity > line.Quantity-line.ReturnedQuantity {
				return fmt.Errorf("%w: devolución de %d excede lo pendiente (%d) en la línea %s",
					domain.ErrValidation, r.Quantity, line.Quantity-line.ReturnedQuantity, r.LineID)
			}
			if _, err := e.ledger.Apply(ctx, tx, ledger.MovementInput{
				ProductID:  line.ProductID,
				Type:       entity.MovementTypeIN,
				Quantity:   r.Quantity,
				LocationID: line.LocationID,
				Reason:     entity.ReasonOrderReturn,
				Reference:  order.ID,
				ActorID:    in.ActorID,
			}); err != nil {
				return err
			}
			line.ReturnedQuantity += r.Quantity
			if err := tx.Orders.UpdateLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(span, err, "devolución rechazada", orderID)
	}
	e.log.Info().Str("order_id", orderID).Str("actor_id", in.ActorID).Int("lines", len(in.Lines)).Msg("devolución registrada")
	return order, nil
}

// GetOrder obtiene una orden con sus líneas.
func (e *Engine) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	order, err := e.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
	}
	return order, nil
}

func (e *Engine) transition(ctx context.Context, tx *ledger.Tx, order *entity.Order, to entity.OrderStatus) error {
	if !order.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidOrderState, order.Status, to)
	}
	now := e.clock.Now().UTC()
	if err := tx.Orders.UpdateStatus(ctx, order.ID, to, now); err != nil {
		return err
	}
	order.Status = to
	order.UpdatedAt = now
	return nil
}

func (e *Engine) fail(span trace.Span, err error, msg, orderID string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ev := e.log.Error()
	if domain.IsBusinessError(err) {
		ev = e.log.Info()
	}
	ev.Err(err).Str("order_id", orderID).Msg(msg)
	return err
}

func lockOrder(ctx context.Context, tx *ledger.Tx, id string) (*entity.Order, error) {
	order, err := tx.Orders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
	}
	sortLines(order.Lines)
	return order, nil
}

// mergeLines valida las líneas, suma las repetidas (producto, ubicación) y las ordena por
// producto: todas las transacciones de órdenes bloquean productos en el mismo orden.
func mergeLines(in CreateOrderInput) ([]LineInput, error) {
	if in.Reference == "" {
		return nil, fmt.Errorf("%w: reference requerido", domain.ErrValidation)
	}
	if in.ActorID == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la orden no tiene líneas", domain.ErrValidation)
	}
	type key struct{ product, location string }
	merged := make(map[key]int64, len(in.Lines))
	var order []key
	for i, li := range in.Lines {
		if li.ProductID == "" {
			return nil, fmt.Errorf("%w: línea %d sin product_id", domain.ErrValidation, i+1)
		}
		if li.Quantity <= 0 {
			return nil, fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrValidation, i+1)
		}
		k := key{li.ProductID, li.LocationID}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] += li.Quantity
	}
	out := make([]LineInput, 0, len(order))
	for _, k := range order {
		out = append(out, LineInput{ProductID: k.product, LocationID: k.location, Quantity: merged[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}

func sortLines(lines []entity.OrderLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].LocationID < lines[j].LocationID
	})
}
