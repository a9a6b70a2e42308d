package analytics

import (
	"math"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// MonthlyTotal unidades despachadas en un mes calendario (UTC).
type MonthlyTotal struct {
	Month time.Time
	Units int64
}

// ForecastPoint estimado puntual con banda de ancho fijo.
type ForecastPoint struct {
	Month    time.Time
	Estimate float64
	Lower    float64
	Upper    float64
}

// HistoryStart primer mes del historial usado para el pronóstico.
func HistoryStart(asOf time.Time, months int) time.Time {
	return startOfMonth(asOf).AddDate(0, -months, 0)
}

// MonthlyTotals agrega las salidas netas por mes para los `months` meses completos
// anteriores al mes de asOf. Los meses sin movimiento aparecen con cero.
func MonthlyTotals(movements []*entity.StockMovement, asOf time.Time, months int) []MonthlyTotal {
	if months <= 0 {
		return nil
	}
	first := HistoryStart(asOf, months)
	totals := make([]MonthlyTotal, months)
	for i := range totals {
		totals[i].Month = first.AddDate(0, i, 0)
	}
	for _, m := range movements {
		var sign int64
		switch {
		case m.Type == entity.MovementTypeOUT:
			sign = 1
		case m.IsOrderCompensation():
			sign = -1
		default:
			continue
		}
		idx := monthIndex(first, m.CreatedAt)
		if idx < 0 || idx >= months {
			continue
		}
		totals[idx].Units += sign * m.Quantity
	}
	for i := range totals {
		if totals[i].Units < 0 {
			totals[i].Units = 0
		}
	}
	return totals
}

// LinearTrend ajuste por mínimos cuadrados y = a + b·x con x = 0..n-1.
func LinearTrend(ys []float64) (intercept, slope float64) {
	n := float64(len(ys))
	switch len(ys) {
	case 0:
		return 0, 0
	case 1:
		return ys[0], 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}

// Forecast proyecta `periods` meses a partir del mes siguiente al último del historial.
// La banda es ± band × promedio mensual histórico, constante en todo el horizonte.
func Forecast(history []MonthlyTotal, periods int, band float64) []ForecastPoint {
	if periods <= 0 {
		return nil
	}
	ys := make([]float64, len(history))
	var mean float64
	for i, h := range history {
		ys[i] = float64(h.Units)
		mean += ys[i]
	}
	if len(ys) > 0 {
		mean /= float64(len(ys))
	}
	a, b := LinearTrend(ys)
	halfWidth := math.Abs(band) * mean

	var next time.Time
	if len(history) > 0 {
		next = history[len(history)-1].Month.AddDate(0, 1, 0)
	}
	points := make([]ForecastPoint, 0, periods)
	for k := 0; k < periods; k++ {
		x := float64(len(ys) + k)
		est := math.Max(0, a+b*x)
		points = append(points, ForecastPoint{
			Month:    next.AddDate(0, k, 0),
			Estimate: round4(est),
			Lower:    round4(math.Max(0, est-halfWidth)),
			Upper:    round4(est + halfWidth),
		})
	}
	return points
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthIndex(first, t time.Time) int {
	t = t.UTC()
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}
