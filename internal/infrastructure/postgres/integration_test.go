package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/stockledger-api/internal/application/fulfillment"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
)

// setupDB levanta PostgreSQL en un contenedor y aplica el esquema.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("stock_ledger_test"),
		tcPostgres.WithUsername("ledger"),
		tcPostgres.WithPassword("ledger"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "el esquema es idempotente")
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool) *ledger.Ledger {
	t.Helper()
	ctx := context.Background()
	repos := postgres.Repos(pool)
	for _, p := range []*entity.Product{
		{ID: "p1", SKU: "SKU-1", Name: "Tornillo", ReorderThreshold: 5},
		{ID: "p2", SKU: "SKU-2", Name: "Tuerca"},
	} {
		require.NoError(t, repos.Products.Create(ctx, p))
	}
	for _, id := range []string{"A", "B"} {
		require.NoError(t, repos.Locations.Create(ctx, &entity.Location{ID: id, Name: "Bodega " + id, IsActive: true}))
	}
	return ledger.New(postgres.NewTxRunner(pool), repos, nil, nil, zerolog.Nop(), ledger.Options{})
}

func TestPostgres_LedgerFlujoCompleto(t *testing.T) {
	pool := setupDB(t)
	l := seed(t, pool)
	ctx := context.Background()
	cost := decimal.RequireFromString("2.5")

	steps := []ledger.MovementInput{
		{ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 10, LocationID: "A", UnitCost: &cost},
		{ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 3, LocationID: "A"},
		{ProductID: "p1", Type: entity.MovementTypeTRANSFER, Quantity: 4, FromLocationID: "A", ToLocationID: "B"},
	}
	for _, s := range steps {
		s.ActorID = "u1"
		_, err := l.ApplyMovement(ctx, s)
		require.NoError(t, err)
	}
	_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 4, LocationID: "A", ActorID: "u1"})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	items, err := l.GetLocationStock(ctx, "B")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(4), items[0].Quantity)

	p, err := postgres.Repos(pool).Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.AggregateQuantity)
	assert.True(t, cost.Equal(p.Cost))

	report, err := l.VerifyProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, report.Consistent, "mismatches: %+v", report.Mismatches)
	assert.Equal(t, 3, report.Movements)

	page, err := l.GetStockMovements(ctx, "p1", ledger.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, entity.MovementTypeTRANSFER, page.Items[0].Type)
	require.NotNil(t, page.NextOffset)
}

func TestPostgres_SalidasConcurrentesConBloqueoDeFila(t *testing.T) {
	pool := setupDB(t)
	l := seed(t, pool)
	ctx := context.Background()
	_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 10, LocationID: "A", ActorID: "u1"})
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 1, LocationID: "A", ActorID: "u1"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, rejected)

	report, err := l.VerifyProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(0), report.Aggregate)
}

func TestPostgres_OrdenTodoONadaYCancelacion(t *testing.T) {
	pool := setupDB(t)
	l := seed(t, pool)
	ctx := context.Background()
	for id, qty := range map[string]int64{"p1": 5, "p2": 1} {
		_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: id, Type: entity.MovementTypeIN, Quantity: qty, LocationID: "A", ActorID: "u1"})
		require.NoError(t, err)
	}
	repos := postgres.Repos(pool)
	engine := fulfillment.NewEngine(l, repos.Orders, nil, zerolog.Nop())

	_, err := engine.CreateOrder(ctx, fulfillment.CreateOrderInput{Reference: "ORD-1", ActorID: "u1", Lines: []fulfillment.LineInput{
		{ProductID: "p1", LocationID: "A", Quantity: 2},
		{ProductID: "p2", LocationID: "A", Quantity: 2},
	}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	s, err := repos.Stock.Get(ctx, "p1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Quantity)

	order, err := engine.CreateOrder(ctx, fulfillment.CreateOrderInput{Reference: "ORD-1", ActorID: "u1", Lines: []fulfillment.LineInput{
		{ProductID: "p1", LocationID: "A", Quantity: 2},
	}})
	require.NoError(t, err)
	_, err = engine.CreateOrder(ctx, fulfillment.CreateOrderInput{Reference: "ORD-1", ActorID: "u1", Lines: []fulfillment.LineInput{
		{ProductID: "p1", LocationID: "A", Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	cancelled, err := engine.CancelOrder(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	s, err = repos.Stock.Get(ctx, "p1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Quantity)

	got, err := engine.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, got.Status)
	require.Len(t, got.Lines, 1)
	assert.NotEmpty(t, got.Lines[0].MovementID)
}

func TestPostgres_DesactivarUbicacionConStock(t *testing.T) {
	pool := setupDB(t)
	l := seed(t, pool)
	ctx := context.Background()
	_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 1, LocationID: "B", ActorID: "u1"})
	require.NoError(t, err)

	uc := usecase.NewLocationUseCase(postgres.Repos(pool).Locations, postgres.NewTxRunner(pool), nil, "")
	_, err = uc.Deactivate(ctx, "B")
	require.ErrorIs(t, err, domain.ErrLocationHasStock)
	loc, err := uc.Deactivate(ctx, "A")
	require.NoError(t, err)
	assert.False(t, loc.IsActive)

	levels, err := postgres.NewAnalyticsRepository(pool).ListStockLevels(ctx, "B")
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, int64(1), levels[0].Quantity)
	assert.Equal(t, int64(0), levels[1].Quantity)
}
