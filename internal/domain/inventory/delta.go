package inventory

import (
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// LocationDelta cambio de cantidad que un movimiento produce en una ubicación.
type LocationDelta struct {
	LocationID string
	Delta      int64
}

// Deltas devuelve los cambios por ubicación de un movimiento registrado, ordenados por ubicación.
// Es la única definición del efecto de cada tipo sobre la proyección; la usan tanto la
// escritura del ledger como la reconstrucción (Replay).
func Deltas(m *entity.StockMovement) []LocationDelta {
	var out []LocationDelta
	switch m.Type {
	case entity.MovementTypeIN, entity.MovementTypeADJUSTMENT:
		if m.ToLocationID != nil {
			out = append(out, LocationDelta{LocationID: *m.ToLocationID, Delta: m.Quantity})
		}
	case entity.MovementTypeOUT:
		if m.FromLocationID != nil {
			out = append(out, LocationDelta{LocationID: *m.FromLocationID, Delta: -m.Quantity})
		}
	case entity.MovementTypeTRANSFER:
		if m.FromLocationID != nil {
			out = append(out, LocationDelta{LocationID: *m.FromLocationID, Delta: -m.Quantity})
		}
		if m.ToLocationID != nil {
			out = append(out, LocationDelta{LocationID: *m.ToLocationID, Delta: m.Quantity})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

// NetDelta cambio neto sobre la cantidad agregada del producto (TRANSFER es neutro).
func NetDelta(m *entity.StockMovement) int64 {
	var net int64
	for _, d := range Deltas(m) {
		net += d.Delta
	}
	return net
}
