// Package analytics contiene los casos de uso de analítica de inventario: rotación,
// días hasta quiebre, alertas de reorden y pronóstico de demanda.
//
// Fuente de datos: AnalyticsRepository (consultas read-only). Nunca abre transacciones
// de escritura ni bloquea filas del ledger.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	domainanalytics "github.com/jhoicas/stockledger-api/internal/domain/analytics"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Límites del horizonte de pronóstico.
const (
	DefaultForecastPeriods = 3
	MaxForecastPeriods     = 24
)

// Reader operaciones de consulta (las implementan Engine y CachedEngine).
type Reader interface {
	GetInventoryAnalytics(ctx context.Context, q Query) (*dto.InventoryAnalyticsResponse, error)
	GetStockAlerts(ctx context.Context) (*dto.StockAlertsResponse, error)
	GetForecast(ctx context.Context, q ForecastQuery) (*dto.ForecastResponse, error)
}

// Query alcance del reporte de inventario; LocationID vacío = todas las ubicaciones.
type Query struct {
	LocationID string
}

// ForecastQuery parámetros del pronóstico; ProductID vacío = demanda total.
type ForecastQuery struct {
	Periods   int
	ProductID string
}

// Options ventanas y banda configurables.
type Options struct {
	TurnoverWindowDays    int
	StockoutWindowDays    int
	ForecastHistoryMonths int
	ForecastBand          float64
	SingleLocation        bool
}

// Engine calcula la analítica sobre instantáneas del ledger.
type Engine struct {
	repo      repository.AnalyticsRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	clock     clockwork.Clock
	log       zerolog.Logger
	opts      Options
}

var _ Reader = (*Engine)(nil)

// NewEngine construye el motor. clock puede ser nil.
func NewEngine(
	repo repository.AnalyticsRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	clock clockwork.Clock,
	log zerolog.Logger,
	opts Options,
) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{repo: repo, products: products, locations: locations, clock: clock, log: log, opts: opts}
}

// GetInventoryAnalytics métricas por producto en el alcance indicado.
//
// Dos lecturas en paralelo:
//  1. ListStockLevels(alcance)          → cantidad actual, umbral y costo
//  2. ListMovementsSince(inicio ventana) → salidas y reconstrucción de niveles diarios
func (e *Engine) GetInventoryAnalytics(ctx context.Context, q Query) (*dto.InventoryAnalyticsResponse, error) {
	if q.LocationID != "" {
		if e.opts.SingleLocation {
			return nil, fmt.Errorf("%w: location_id no aplica en modo de una sola ubicación", domain.ErrConfiguration)
		}
		loc, err := e.locations.GetByID(ctx, q.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, q.LocationID)
		}
	}

	asOf := e.clock.Now().UTC()
	turnover := domainanalytics.Window{AsOf: asOf, Days: e.opts.TurnoverWindowDays}
	stockout := domainanalytics.Window{AsOf: asOf, Days: e.opts.StockoutWindowDays}
	since := turnover.Start()
	if stockout.Start().Before(since) {
		since = stockout.Start()
	}

	var (
		levels    []repository.StockLevel
		movements []*entity.StockMovement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		levels, err = e.repo.ListStockLevels(gctx, q.LocationID)
		return err
	})
	g.Go(func() error {
		var err error
		movements, err = e.repo.ListMovementsSince(gctx, since, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analítica de inventario: %w", err)
	}

	byProduct := groupByProduct(movements)
	sortLevels(levels)

	out := &dto.InventoryAnalyticsResponse{
		AsOf:               asOf,
		LocationID:         q.LocationID,
		TurnoverWindowDays: turnover.Days,
		StockoutWindowDays: stockout.Days,
		Products:           make([]dto.ProductAnalyticsDTO, 0, len(levels)),
		Totals:             dto.InventoryTotalsDTO{Value: decimal.Zero},
	}
	for _, lv := range levels {
		ms := byProduct[lv.ProductID]
		outbound := domainanalytics.OutboundUnits(ms, q.LocationID, turnover)
		avg := domainanalytics.AverageStock(lv.Quantity, ms, q.LocationID, turnover)
		stockoutOut := domainanalytics.OutboundUnits(ms, q.LocationID, stockout)
		value := lv.Cost.Mul(decimal.NewFromInt(lv.Quantity)).Round(2)
		low := domainanalytics.IsLowStock(lv.Quantity, lv.ReorderThreshold)

		out.Products = append(out.Products, dto.ProductAnalyticsDTO{
			ProductID:         lv.ProductID,
			SKU:               lv.SKU,
			ProductName:       lv.ProductName,
			CategoryID:        lv.CategoryID,
			Quantity:          lv.Quantity,
			ReorderThreshold:  lv.ReorderThreshold,
			IsLowStock:        low,
			OutboundUnits:     outbound,
			AverageStock:      domainanalytics.KnownValue(avg).Value,
			TurnoverRate:      domainanalytics.TurnoverRate(outbound, avg),
			DaysUntilStockout: domainanalytics.DaysUntilStockout(lv.Quantity, stockoutOut, stockout.Days),
			UnitCost:          lv.Cost,
			StockValue:        value,
		})
		out.Totals.Products++
		out.Totals.Units += lv.Quantity
		out.Totals.Value = out.Totals.Value.Add(value)
		if low {
			out.Totals.LowStock++
		}
		if lv.Quantity == 0 {
			out.Totals.OutOfStock++
		}
	}
	return out, nil
}

// GetStockAlerts productos con cantidad agregada en o bajo su umbral, del mayor al menor déficit.
func (e *Engine) GetStockAlerts(ctx context.Context) (*dto.StockAlertsResponse, error) {
	asOf := e.clock.Now().UTC()
	levels, err := e.repo.ListStockLevels(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("alertas de stock: %w", err)
	}

	alerts := make([]dto.StockAlertDTO, 0)
	for _, lv := range levels {
		if !domainanalytics.IsLowStock(lv.Quantity, lv.ReorderThreshold) {
			continue
		}
		severity := dto.AlertSeverityLow
		if lv.Quantity == 0 {
			severity = dto.AlertSeverityOutOfStock
		}
		suggested := domainanalytics.SuggestedOrderQty(lv.Quantity, lv.ReorderThreshold)
		alerts = append(alerts, dto.StockAlertDTO{
			ProductID:          lv.ProductID,
			SKU:                lv.SKU,
			ProductName:        lv.ProductName,
			Quantity:           lv.Quantity,
			ReorderThreshold:   lv.ReorderThreshold,
			Deficit:            lv.ReorderThreshold - lv.Quantity,
			Severity:           severity,
			SuggestedOrderQty:  suggested,
			EstimatedOrderCost: lv.Cost.Mul(decimal.NewFromInt(suggested)).Round(2),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Deficit != alerts[j].Deficit {
			return alerts[i].Deficit > alerts[j].Deficit
		}
		return alerts[i].SKU < alerts[j].SKU
	})
	return &dto.StockAlertsResponse{AsOf: asOf, Alerts: alerts}, nil
}

// GetForecast proyecta la demanda mensual con una recta de mínimos cuadrados sobre los
// últimos meses completos y una banda de ancho fijo.
func (e *Engine) GetForecast(ctx context.Context, q ForecastQuery) (*dto.ForecastResponse, error) {
	if q.Periods == 0 {
		q.Periods = DefaultForecastPeriods
	}
	if q.Periods < 1 || q.Periods > MaxForecastPeriods {
		return nil, fmt.Errorf("%w: periods debe estar entre 1 y %d", domain.ErrValidation, MaxForecastPeriods)
	}
	if q.ProductID != "" {
		p, err := e.products.GetByID(ctx, q.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, q.ProductID)
		}
	}

	asOf := e.clock.Now().UTC()
	months := e.opts.ForecastHistoryMonths
	movements, err := e.repo.ListMovementsSince(ctx, domainanalytics.HistoryStart(asOf, months), q.ProductID)
	if err != nil {
		return nil, fmt.Errorf("pronóstico: %w", err)
	}

	history := domainanalytics.MonthlyTotals(movements, asOf, months)
	points := domainanalytics.Forecast(history, q.Periods, e.opts.ForecastBand)

	out := &dto.ForecastResponse{
		AsOf:          asOf,
		ProductID:     q.ProductID,
		HistoryMonths: months,
		Band:          e.opts.ForecastBand,
		History:       make([]dto.MonthlyUnitsDTO, 0, len(history)),
		Points:        make([]dto.ForecastPointDTO, 0, len(points)),
	}
	for _, h := range history {
		out.History = append(out.History, dto.MonthlyUnitsDTO{Month: h.Month.Format(monthLayout), Units: h.Units})
	}
	for _, p := range points {
		out.Points = append(out.Points, dto.ForecastPointDTO{
			Month:    p.Month.Format(monthLayout),
			Estimate: p.Estimate,
			Lower:    p.Lower,
			Upper:    p.Upper,
		})
	}
	return out, nil
}

const monthLayout = "2006-01"

func groupByProduct(movements []*entity.StockMovement) map[string][]*entity.StockMovement {
	out := make(map[string][]*entity.StockMovement)
	for _, m := range movements {
		out[m.ProductID] = append(out[m.ProductID], m)
	}
	return out
}

func sortLevels(levels []repository.StockLevel) {
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].SKU < levels[j].SKU })
}

// asOfKey formato usado en logs del refresco.
func asOfKey(t time.Time) string { return t.UTC().Format(time.RFC3339) }
