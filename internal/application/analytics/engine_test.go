package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/analytics"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

var start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

var defaultOpts = analytics.Options{
	TurnoverWindowDays:    30,
	StockoutWindowDays:    30,
	ForecastHistoryMonths: 6,
	ForecastBand:          0.1,
}

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	clock  clockwork.FakeClock
	engine *analytics.Engine
}

// setup deja tres productos:
//
//	SKU-A  umbral 2,  sin stock
//	SKU-B  umbral 5,  20 entradas y 10 salidas (costo 2)
//	SKU-C  umbral 10, 8 entradas (costo 4)
func setup(t *testing.T, opts analytics.Options) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	clock := clockwork.NewFakeClockAt(start)

	products := []entity.Product{
		{ID: "p2", SKU: "SKU-A", Name: "Arandela", ReorderThreshold: 2},
		{ID: "p1", SKU: "SKU-B", Name: "Broca", ReorderThreshold: 5},
		{ID: "p3", SKU: "SKU-C", Name: "Clavo", ReorderThreshold: 10},
	}
	for i := range products {
		p := products[i]
		p.CreatedAt, p.UpdatedAt = start, start
		require.NoError(t, repos.Products.Create(ctx, &p))
	}
	require.NoError(t, repos.Locations.Create(ctx, &entity.Location{ID: "A", Name: "A", IsActive: true, CreatedAt: start, UpdatedAt: start}))

	l := ledger.New(store, repos, nil, clock, zerolog.Nop(), ledger.Options{})
	two, four := decimal.NewFromInt(2), decimal.NewFromInt(4)
	steps := []ledger.MovementInput{
		{ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 20, UnitCost: &two},
		{ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 10},
		{ProductID: "p3", Type: entity.MovementTypeIN, Quantity: 8, UnitCost: &four},
	}
	for _, s := range steps {
		s.LocationID, s.ActorID = "A", "u1"
		_, err := l.ApplyMovement(ctx, s)
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}

	return &fixture{
		store:  store,
		ledger: l,
		clock:  clock,
		engine: analytics.NewEngine(store.Analytics(), repos.Products, repos.Locations, clock, zerolog.Nop(), opts),
	}
}

func TestGetInventoryAnalytics_MetricasPorProducto(t *testing.T) {
	f := setup(t, defaultOpts)

	rep, err := f.engine.GetInventoryAnalytics(context.Background(), analytics.Query{})
	require.NoError(t, err)
	require.Len(t, rep.Products, 3)
	assert.Equal(t, "SKU-A", rep.Products[0].SKU)
	assert.Equal(t, "SKU-B", rep.Products[1].SKU)
	assert.Equal(t, "SKU-C", rep.Products[2].SKU)

	empty := rep.Products[0]
	assert.Equal(t, int64(0), empty.Quantity)
	assert.True(t, empty.IsLowStock)
	assert.False(t, empty.TurnoverRate.Known, "sin stock promedio la rotación es desconocida")
	assert.False(t, empty.DaysUntilStockout.Known, "sin salidas el quiebre es desconocido")

	broca := rep.Products[1]
	assert.Equal(t, int64(10), broca.Quantity)
	assert.Equal(t, int64(10), broca.OutboundUnits)
	assert.False(t, broca.IsLowStock)
	require.True(t, broca.DaysUntilStockout.Known)
	assert.InDelta(t, 30.0, broca.DaysUntilStockout.Value, 0.0001)
	assert.True(t, broca.TurnoverRate.Known)
	assert.True(t, decimal.NewFromInt(20).Equal(broca.StockValue))

	assert.Equal(t, 3, rep.Totals.Products)
	assert.Equal(t, int64(18), rep.Totals.Units)
	assert.Equal(t, 2, rep.Totals.LowStock)
	assert.Equal(t, 1, rep.Totals.OutOfStock)
	assert.True(t, decimal.NewFromInt(52).Equal(rep.Totals.Value), "valor %s", rep.Totals.Value)
}

func TestGetInventoryAnalytics_AlcancePorUbicacion(t *testing.T) {
	f := setup(t, defaultOpts)
	ctx := context.Background()

	rep, err := f.engine.GetInventoryAnalytics(ctx, analytics.Query{LocationID: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", rep.LocationID)
	assert.Equal(t, int64(18), rep.Totals.Units)

	_, err = f.engine.GetInventoryAnalytics(ctx, analytics.Query{LocationID: "Z"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	single := defaultOpts
	single.SingleLocation = true
	f = setup(t, single)
	_, err = f.engine.GetInventoryAnalytics(ctx, analytics.Query{LocationID: "A"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGetStockAlerts_OrdenPorDeficit(t *testing.T) {
	f := setup(t, defaultOpts)

	res, err := f.engine.GetStockAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Alerts, 2)

	first, second := res.Alerts[0], res.Alerts[1]
	assert.Equal(t, "SKU-A", first.SKU, "a igual déficit se ordena por SKU")
	assert.Equal(t, dto.AlertSeverityOutOfStock, first.Severity)
	assert.Equal(t, int64(3), first.SuggestedOrderQty)

	assert.Equal(t, "SKU-C", second.SKU)
	assert.Equal(t, dto.AlertSeverityLow, second.Severity)
	assert.Equal(t, int64(2), second.Deficit)
	assert.Equal(t, int64(7), second.SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(28).Equal(second.EstimatedOrderCost))
}

func TestGetForecast_ValidacionYHorizonte(t *testing.T) {
	f := setup(t, defaultOpts)
	ctx := context.Background()

	res, err := f.engine.GetForecast(ctx, analytics.ForecastQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Points, analytics.DefaultForecastPeriods)
	assert.Len(t, res.History, defaultOpts.ForecastHistoryMonths)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.LessOrEqual(t, p.Lower, p.Estimate)
		assert.GreaterOrEqual(t, p.Upper, p.Estimate)
	}

	res, err = f.engine.GetForecast(ctx, analytics.ForecastQuery{Periods: 12, ProductID: "p1"})
	require.NoError(t, err)
	assert.Len(t, res.Points, 12)
	assert.Equal(t, "p1", res.ProductID)

	_, err = f.engine.GetForecast(ctx, analytics.ForecastQuery{Periods: analytics.MaxForecastPeriods + 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.GetForecast(ctx, analytics.ForecastQuery{Periods: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.GetForecast(ctx, analytics.ForecastQuery{ProductID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func productBySKU(t *testing.T, rep *dto.InventoryAnalyticsResponse, sku string) dto.ProductAnalyticsDTO {
	t.Helper()
	for _, p := range rep.Products {
		if p.SKU == sku {
			return p
		}
	}
	require.Failf(t, "producto ausente", "sku %s", sku)
	return dto.ProductAnalyticsDTO{}
}

func TestEscenario_SalidaDejaBajoUmbralYSobregiroNoCambiaNada(t *testing.T) {
	f := setup(t, defaultOpts)
	ctx := context.Background()
	require.NoError(t, f.store.Repos().Products.Create(ctx, &entity.Product{
		ID: "p4", SKU: "SKU-D", Name: "Destornillador", ReorderThreshold: 5, CreatedAt: start, UpdatedAt: start,
	}))
	move := func(typ entity.MovementType, qty int64) error {
		_, err := f.ledger.ApplyMovement(ctx, ledger.MovementInput{ProductID: "p4", Type: typ, Quantity: qty, LocationID: "A", ActorID: "u1"})
		f.clock.Advance(time.Hour)
		return err
	}
	require.NoError(t, move(entity.MovementTypeIN, 10))

	require.NoError(t, move(entity.MovementTypeOUT, 6))
	rep, err := f.engine.GetInventoryAnalytics(ctx, analytics.Query{})
	require.NoError(t, err)
	d := productBySKU(t, rep, "SKU-D")
	assert.Equal(t, int64(4), d.Quantity)
	assert.True(t, d.IsLowStock)
	assert.Equal(t, int64(6), d.OutboundUnits)

	err = move(entity.MovementTypeOUT, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rep, err = f.engine.GetInventoryAnalytics(ctx, analytics.Query{})
	require.NoError(t, err)
	d = productBySKU(t, rep, "SKU-D")
	assert.Equal(t, int64(4), d.Quantity, "el sobregiro no deja rastro")
	assert.Equal(t, int64(6), d.OutboundUnits)

	alerts, err := f.engine.GetStockAlerts(ctx)
	require.NoError(t, err)
	var found bool
	for _, a := range alerts.Alerts {
		if a.SKU == "SKU-D" {
			found = true
			assert.Equal(t, dto.AlertSeverityLow, a.Severity)
			assert.Equal(t, int64(1), a.Deficit)
		}
	}
	assert.True(t, found, "SKU-D debe alertar")

	report, err := f.ledger.VerifyProduct(ctx, "p4")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.Movements)
}

func TestGetInventoryAnalytics_EntradaManualNoSeHacePasarPorCancelacion(t *testing.T) {
	f := setup(t, defaultOpts)
	ctx := context.Background()

	_, err := f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 10, LocationID: "A", ActorID: "u1",
		Reason: entity.ReasonOrderCancelled,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	rep, err := f.engine.GetInventoryAnalytics(ctx, analytics.Query{})
	require.NoError(t, err)
	b := productBySKU(t, rep, "SKU-B")
	assert.Equal(t, int64(10), b.OutboundUnits)
	assert.Equal(t, int64(10), b.Quantity)
}
