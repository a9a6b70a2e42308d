package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// MovementInput entrada de ApplyMovement.
// Para IN/OUT/ADJUSTMENT: LocationID (o To/From según el tipo); en modo single puede omitirse.
// Para TRANSFER: FromLocationID y ToLocationID.
// ADJUSTMENT usa TargetQuantity (cantidad absoluta deseada) en lugar de Quantity.
type MovementInput struct {
	ProductID      string
	Type           entity.MovementType
	Quantity       int64
	LocationID     string
	FromLocationID string
	ToLocationID   string
	TargetQuantity *int64
	UnitCost       *decimal.Decimal
	Reason         string
	Reference      string
	ActorID        string
}

// normalize valida la forma de la entrada y resuelve las ubicaciones según tipo y modo.
// No hace IO: cualquier error aquí ocurre antes de abrir la transacción.
func (l *Ledger) normalize(in MovementInput) (MovementInput, error) {
	if in.ProductID == "" {
		return in, fmt.Errorf("%w: product_id requerido", domain.ErrValidation)
	}
	if in.ActorID == "" {
		return in, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if !in.Type.Valid() {
		return in, fmt.Errorf("%w: tipo de movimiento %q desconocido", domain.ErrValidation, in.Type)
	}
	if in.UnitCost != nil {
		if in.Type != entity.MovementTypeIN {
			return in, fmt.Errorf("%w: unit_cost solo aplica a entradas", domain.ErrValidation)
		}
		if in.UnitCost.IsNegative() {
			return in, fmt.Errorf("%w: unit_cost negativo", domain.ErrValidation)
		}
	}

	switch in.Type {
	case entity.MovementTypeADJUSTMENT:
		if in.TargetQuantity == nil {
			return in, fmt.Errorf("%w: target_quantity requerido para ADJUSTMENT", domain.ErrValidation)
		}
		if *in.TargetQuantity < 0 {
			return in, fmt.Errorf("%w: target_quantity negativo", domain.ErrValidation)
		}
	default:
		if in.TargetQuantity != nil {
			return in, fmt.Errorf("%w: target_quantity solo aplica a ADJUSTMENT", domain.ErrValidation)
		}
		if in.Quantity <= 0 {
			return in, fmt.Errorf("%w: la cantidad debe ser un entero positivo", domain.ErrValidation)
		}
	}

	if in.Type == entity.MovementTypeTRANSFER {
		if l.opts.SingleLocation {
			return in, fmt.Errorf("%w: TRANSFER no disponible en modo de una sola ubicación", domain.ErrConfiguration)
		}
		if in.FromLocationID == "" || in.ToLocationID == "" {
			return in, fmt.Errorf("%w: TRANSFER requiere from_location_id y to_location_id", domain.ErrValidation)
		}
		if in.FromLocationID == in.ToLocationID {
			return in, domain.ErrSameLocation
		}
		in.LocationID = ""
		return in, nil
	}

	loc := in.LocationID
	if loc == "" {
		if in.Type == entity.MovementTypeOUT {
			loc = in.FromLocationID
		} else {
			loc = in.ToLocationID
		}
	}
	if l.opts.SingleLocation {
		if loc == "" {
			loc = l.opts.DefaultLocationID
		}
		if loc != l.opts.DefaultLocationID {
			return in, fmt.Errorf("%w: modo single solo admite la ubicación %s", domain.ErrConfiguration, l.opts.DefaultLocationID)
		}
	}
	if loc == "" {
		return in, fmt.Errorf("%w: location_id requerido", domain.ErrValidation)
	}
	in.LocationID = loc
	in.FromLocationID, in.ToLocationID = "", ""
	if in.Type == entity.MovementTypeOUT {
		in.FromLocationID = loc
	} else {
		in.ToLocationID = loc
	}
	return in, nil
}

// locationIDs ubicaciones afectadas en orden ascendente (orden fijo de bloqueo).
func (in MovementInput) locationIDs() []string {
	switch {
	case in.FromLocationID != "" && in.ToLocationID != "":
		if in.FromLocationID < in.ToLocationID {
			return []string{in.FromLocationID, in.ToLocationID}
		}
		return []string{in.ToLocationID, in.FromLocationID}
	case in.FromLocationID != "":
		return []string{in.FromLocationID}
	default:
		return []string{in.ToLocationID}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
