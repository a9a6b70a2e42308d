package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/analytics"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
)

func restock(t *testing.T, f *fixture, productID string, qty int64) {
	t.Helper()
	_, err := f.ledger.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID: productID, Type: entity.MovementTypeIN, Quantity: qty, LocationID: "A", ActorID: "u1",
	})
	require.NoError(t, err)
}

func TestCachedEngine_SirveDesdeCacheHastaQueExpira(t *testing.T) {
	f := setup(t, defaultOpts)
	mem := cache.NewMemory(f.clock)
	cached := analytics.NewCachedEngine(f.engine, mem, time.Minute, zerolog.Nop())
	ctx := context.Background()

	res, err := cached.GetStockAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, res.Alerts, 2)

	restock(t, f, "p2", 10)

	res, err = cached.GetStockAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Alerts, 2, "dentro del TTL se sirve la entrada guardada")

	f.clock.Advance(2 * time.Minute)
	res, err = cached.GetStockAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "SKU-C", res.Alerts[0].SKU)
}

func TestCachedEngine_EventoInvalida(t *testing.T) {
	f := setup(t, defaultOpts)
	mem := cache.NewMemory(f.clock)
	cached := analytics.NewCachedEngine(f.engine, mem, time.Hour, zerolog.Nop())
	ctx := context.Background()

	rep, err := cached.GetInventoryAnalytics(ctx, analytics.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(18), rep.Totals.Units)
	_, err = cached.GetForecast(ctx, analytics.ForecastQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	restock(t, f, "p2", 10)
	require.NoError(t, cached.InvalidateOnEvent(ctx, entity.StockEvent{ProductID: "p2", MovementID: "m1"}))
	assert.Equal(t, 0, mem.Len())

	rep, err = cached.GetInventoryAnalytics(ctx, analytics.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(28), rep.Totals.Units)
	assert.True(t, rep.Products[1].DaysUntilStockout.Known, "los estimados sobreviven a la caché")
}

func TestCachedEngine_RefreshEscribeEntradasGlobales(t *testing.T) {
	f := setup(t, defaultOpts)
	mem := cache.NewMemory(f.clock)
	cached := analytics.NewCachedEngine(f.engine, mem, time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, cached.Refresh(ctx))
	assert.Equal(t, 2, mem.Len())

	b, ok, err := mem.Get(ctx, analytics.KeyPrefix+"alerts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(b), "SKU-C")

	require.NoError(t, cached.Invalidate(ctx))
	assert.Equal(t, 0, mem.Len())
}
