package fulfillment_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/fulfillment"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

const actor = "u1"

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	engine *fulfillment.Engine
}

// setup crea p1 (10 en A) y p2 (3 en A).
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, CreatedAt: t0, UpdatedAt: t0}))
	}
	require.NoError(t, repos.Locations.Create(ctx, &entity.Location{ID: "A", Name: "A", IsActive: true, CreatedAt: t0, UpdatedAt: t0}))

	clock := clockwork.NewFakeClockAt(t0)
	l := ledger.New(store, repos, nil, clock, zerolog.Nop(), ledger.Options{})
	for id, qty := range map[string]int64{"p1": 10, "p2": 3} {
		_, err := l.ApplyMovement(ctx, ledger.MovementInput{
			ProductID: id, Type: entity.MovementTypeIN, Quantity: qty, LocationID: "A", ActorID: actor,
		})
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)
	return &fixture{store: store, ledger: l, engine: fulfillment.NewEngine(l, repos.Orders, clock, zerolog.Nop())}
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	s, err := f.store.Repos().Stock.Get(context.Background(), productID, "A")
	require.NoError(t, err)
	return s.Quantity
}

func (f *fixture) movements(t *testing.T, productID string) []*entity.StockMovement {
	t.Helper()
	list, err := f.store.Repos().Movements.ListForReplay(context.Background(), productID)
	require.NoError(t, err)
	return list
}

func (f *fixture) createOrder(t *testing.T, ref string, lines ...fulfillment.LineInput) *entity.Order {
	t.Helper()
	order, err := f.engine.CreateOrder(context.Background(), fulfillment.CreateOrderInput{Reference: ref, ActorID: actor, Lines: lines})
	require.NoError(t, err)
	return order
}

func TestCreateOrder_ReservaStockPorLinea(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "ORD-1",
		fulfillment.LineInput{ProductID: "p2", LocationID: "A", Quantity: 1},
		fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 2},
		fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 3},
	)
	assert.Equal(t, entity.OrderStatusStockReserved, order.Status)
	require.Len(t, order.Lines, 2, "líneas repetidas se fusionan")
	assert.Equal(t, "p1", order.Lines[0].ProductID)
	assert.Equal(t, int64(5), order.Lines[0].Quantity)
	assert.NotEmpty(t, order.Lines[0].MovementID)

	assert.Equal(t, int64(5), f.stock(t, "p1"))
	assert.Equal(t, int64(2), f.stock(t, "p2"))

	mv := f.movements(t, "p1")
	last := mv[len(mv)-1]
	assert.Equal(t, entity.MovementTypeOUT, last.Type)
	assert.Equal(t, entity.ReasonOrder, last.Reason)
	assert.Equal(t, order.ID, last.Reference)

	got, err := f.engine.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Reference, got.Reference)
	assert.Len(t, got.Lines, 2)
}

func TestCreateOrder_TodoONada(t *testing.T) {
	f := setup(t)

	_, err := f.engine.CreateOrder(context.Background(), fulfillment.CreateOrderInput{
		Reference: "ORD-1",
		ActorID:   actor,
		Lines: []fulfillment.LineInput{
			{ProductID: "p1", LocationID: "A", Quantity: 2},
			{ProductID: "p2", LocationID: "A", Quantity: 4},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(10), f.stock(t, "p1"), "la primera línea no deja rastro")
	assert.Equal(t, int64(3), f.stock(t, "p2"))
	assert.Len(t, f.movements(t, "p1"), 1)
	order, err := f.store.Repos().Orders.GetByReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestCreateOrder_ReferenciaDuplicadaYValidaciones(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createOrder(t, "ORD-1", fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 1})

	_, err := f.engine.CreateOrder(ctx, fulfillment.CreateOrderInput{
		Reference: "ORD-1", ActorID: actor, Lines: []fulfillment.LineInput{{ProductID: "p1", LocationID: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, int64(9), f.stock(t, "p1"))

	_, err = f.engine.CreateOrder(ctx, fulfillment.CreateOrderInput{Reference: "ORD-2", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreateOrder(ctx, fulfillment.CreateOrderInput{
		Reference: "ORD-2", ActorID: actor, Lines: []fulfillment.LineInput{{ProductID: "p1", LocationID: "A"}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreateOrder(ctx, fulfillment.CreateOrderInput{
		Reference: "ORD-2", Lines: []fulfillment.LineInput{{ProductID: "p1", LocationID: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelOrder_CompensaSinTocarSalidas(t *testing.T) {
	f := setup(t)
	order := f.createOrder(t, "ORD-1", fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 4})
	before := f.movements(t, "p1")

	cancelled, err := f.engine.CancelOrder(context.Background(), order.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(10), f.stock(t, "p1"))

	after := f.movements(t, "p1")
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)], "las salidas originales no cambian")
	comp := after[len(after)-1]
	assert.Equal(t, entity.MovementTypeIN, comp.Type)
	assert.Equal(t, int64(4), comp.Quantity)
	assert.True(t, comp.IsOrderCompensation())

	_, err = f.engine.CancelOrder(context.Background(), order.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState, "cancelar dos veces")
	_, err = f.engine.CompleteOrder(context.Background(), order.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
	assert.Equal(t, int64(10), f.stock(t, "p1"))
}

func TestCompleteOrder_EsTerminal(t *testing.T) {
	f := setup(t)
	order := f.createOrder(t, "ORD-1", fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 4})

	done, err := f.engine.CompleteOrder(context.Background(), order.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, done.Status)
	assert.Equal(t, int64(6), f.stock(t, "p1"), "completar no cambia cantidades")

	_, err = f.engine.CancelOrder(context.Background(), order.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
	_, err = f.engine.CompleteOrder(context.Background(), "nope", actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReturnOrderLines_AcotadoALoPendiente(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	order := f.createOrder(t, "ORD-1", fulfillment.LineInput{ProductID: "p1", LocationID: "A", Quantity: 4})
	lineID := order.Lines[0].ID

	_, err := f.engine.ReturnOrderLines(ctx, order.ID, fulfillment.ReturnInput{ActorID: actor, Lines: []fulfillment.ReturnLine{{LineID: lineID, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState, "solo órdenes completadas")

	_, err = f.engine.CompleteOrder(ctx, order.ID, actor)
	require.NoError(t, err)

	got, err := f.engine.ReturnOrderLines(ctx, order.ID, fulfillment.ReturnInput{ActorID: actor, Lines: []fulfillment.ReturnLine{{LineID: lineID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Lines[0].ReturnedQuantity)
	assert.Equal(t, int64(9), f.stock(t, "p1"))

	_, err = f.engine.ReturnOrderLines(ctx, order.ID, fulfillment.ReturnInput{ActorID: actor, Lines: []fulfillment.ReturnLine{{LineID: lineID, Quantity: 2}}})
	assert.ErrorIs(t, err, domain.ErrValidation, "excede lo pendiente")
	_, err = f.engine.ReturnOrderLines(ctx, order.ID, fulfillment.ReturnInput{ActorID: actor, Lines: []fulfillment.ReturnLine{{LineID: "otra", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(9), f.stock(t, "p1"))

	mv := f.movements(t, "p1")
	assert.Equal(t, entity.ReasonOrderReturn, mv[len(mv)-1].Reason)
}
