package analytics

import (
	"math"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// Window ventana móvil de días que termina en AsOf.
type Window struct {
	AsOf time.Time
	Days int
}

// Start instante de inicio: medianoche UTC del primer día de la ventana.
func (w Window) Start() time.Time {
	day := startOfDay(w.AsOf)
	return day.AddDate(0, 0, -(w.Days - 1))
}

// Contains indica si t cae dentro de la ventana.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && !t.After(w.AsOf)
}

// ScopeDelta efecto de un movimiento sobre el alcance indicado.
// locationID vacío = alcance global (cantidad agregada, los traslados son neutros).
func ScopeDelta(m *entity.StockMovement, locationID string) int64 {
	if locationID == "" {
		return inventory.NetDelta(m)
	}
	var d int64
	for _, ld := range inventory.Deltas(m) {
		if ld.LocationID == locationID {
			d += ld.Delta
		}
	}
	return d
}

// OutboundUnits unidades que salieron (OUT) en la ventana, descontando las
// devoluciones compensatorias por cancelación de orden.
func OutboundUnits(movements []*entity.StockMovement, locationID string, w Window) int64 {
	var units int64
	for _, m := range movements {
		if !w.Contains(m.CreatedAt) {
			continue
		}
		switch {
		case m.Type == entity.MovementTypeOUT:
			if locationID == "" || (m.FromLocationID != nil && *m.FromLocationID == locationID) {
				units += m.Quantity
			}
		case m.IsOrderCompensation():
			if locationID == "" || (m.ToLocationID != nil && *m.ToLocationID == locationID) {
				units -= m.Quantity
			}
		}
	}
	if units < 0 {
		return 0
	}
	return units
}

// AverageStock promedio de los niveles de cierre diarios de la ventana, reconstruidos
// hacia atrás desde la cantidad actual de la proyección.
func AverageStock(current int64, movements []*entity.StockMovement, locationID string, w Window) float64 {
	if w.Days <= 0 {
		return float64(current)
	}
	var total float64
	for d := 0; d < w.Days; d++ {
		closing := w.Start().AddDate(0, 0, d+1)
		if closing.After(w.AsOf) {
			closing = w.AsOf
		}
		level := current
		for _, m := range movements {
			if m.CreatedAt.After(closing) && !m.CreatedAt.After(w.AsOf) {
				level -= ScopeDelta(m, locationID)
			}
		}
		if level < 0 {
			level = 0
		}
		total += float64(level)
	}
	return total / float64(w.Days)
}

// TurnoverRate unidades despachadas ÷ stock promedio; desconocido si el promedio es cero.
func TurnoverRate(outbound int64, averageStock float64) Estimate {
	if averageStock <= 0 {
		return Unknown()
	}
	return KnownValue(float64(outbound) / averageStock)
}

// DaysUntilStockout stock actual ÷ tasa diaria de salida; desconocido si la tasa es cero.
func DaysUntilStockout(current, outbound int64, days int) Estimate {
	if days <= 0 || outbound <= 0 {
		return Unknown()
	}
	rate := float64(outbound) / float64(days)
	return KnownValue(float64(current) / rate)
}

// IsLowStock stock actual <= umbral de reorden.
func IsLowStock(current, threshold int64) bool {
	return current <= threshold
}

// SuggestedOrderQty cantidad sugerida para volver al stock ideal (umbral × 1.5).
func SuggestedOrderQty(current, threshold int64) int64 {
	ideal := int64(math.Ceil(float64(threshold) * 1.5))
	if s := ideal - current; s > 0 {
		return s
	}
	return 0
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
