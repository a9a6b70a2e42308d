// Package transfer mueve stock entre dos ubicaciones como un único movimiento TRANSFER atómico.
package transfer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

var tracer = otel.Tracer("github.com/jhoicas/stockledger-api/internal/application/transfer")

// Input datos de un traslado.
type Input struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Reason         string
	Reference      string
	ActorID        string
}

// Result movimiento registrado y cantidades resultantes en origen y destino.
type Result struct {
	Movement       *entity.StockMovement
	FromStockAfter int64
	ToStockAfter   int64
}

// Engine motor de traslados; delega la escritura en el ledger.
type Engine struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewEngine construye el motor de traslados.
func NewEngine(l *ledger.Ledger, log zerolog.Logger) *Engine {
	return &Engine{ledger: l, log: log}
}

// TransferStock descuenta en origen y suma en destino en una sola transacción.
// La disponibilidad se verifica bajo el bloqueo de fila; no hay reintento automático.
func (e *Engine) TransferStock(ctx context.Context, in Input) (*Result, error) {
	if in.FromLocationID != "" && in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrSameLocation
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser un entero positivo", domain.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "transfer.transfer_stock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("location.from", in.FromLocationID),
		attribute.String("location.to", in.ToLocationID),
		attribute.Int64("movement.quantity", in.Quantity),
	)

	var applied *ledger.Applied
	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		var err error
		applied, err = e.ledger.Apply(ctx, tx, ledger.MovementInput{
			ProductID:      in.ProductID,
			Type:           entity.MovementTypeTRANSFER,
			Quantity:       in.Quantity,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			Reason:         in.Reason,
			Reference:      in.Reference,
			ActorID:        in.ActorID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Info().Err(err).
			Str("product_id", in.ProductID).
			Str("from_location_id", in.FromLocationID).
			Str("to_location_id", in.ToLocationID).
			Msg("traslado rechazado")
		return nil, err
	}

	e.log.Info().
		Str("movement_id", applied.Movement.ID).
		Str("product_id", in.ProductID).
		Int64("quantity", in.Quantity).
		Str("actor_id", in.ActorID).
		Msg("traslado registrado")
	return &Result{
		Movement:       applied.Movement,
		FromStockAfter: applied.StockAfter[in.FromLocationID],
		ToStockAfter:   applied.StockAfter[in.ToLocationID],
	}, nil
}
