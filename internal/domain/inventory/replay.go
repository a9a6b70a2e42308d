package inventory

import (
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ReplayResult estado reconstruido a partir del ledger desde cero.
type ReplayResult struct {
	ByLocation map[string]int64
	Aggregate  int64
	// NegativeAt lista los IDs de movimientos tras los cuales alguna ubicación quedó negativa.
	NegativeAt []string
}

// Replay aplica los movimientos (en orden cronológico ascendente) sobre un estado vacío.
func Replay(movements []*entity.StockMovement) ReplayResult {
	res := ReplayResult{ByLocation: make(map[string]int64)}
	for _, m := range movements {
		negative := false
		for _, d := range Deltas(m) {
			res.ByLocation[d.LocationID] += d.Delta
			res.Aggregate += d.Delta
			if res.ByLocation[d.LocationID] < 0 {
				negative = true
			}
		}
		if negative {
			res.NegativeAt = append(res.NegativeAt, m.ID)
		}
	}
	return res
}
