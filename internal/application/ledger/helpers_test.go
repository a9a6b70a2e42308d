package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

const actor = "user-1"

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// recorder Notifier que guarda los eventos recibidos.
type recorder struct {
	mu     sync.Mutex
	events []entity.StockEvent
}

func (r *recorder) Notify(events ...entity.StockEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) all() []entity.StockEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.StockEvent(nil), r.events...)
}

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	clock  clockwork.FakeClock
	events *recorder
}

func newFixture(t *testing.T, opts ledger.Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(t0)
	rec := &recorder{}
	l := ledger.New(store, store.Repos(), rec, clock, zerolog.Nop(), opts)
	return &fixture{store: store, ledger: l, clock: clock, events: rec}
}

func (f *fixture) addProduct(t *testing.T, id, sku string) {
	t.Helper()
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID:        id,
		SKU:       sku,
		Name:      "Producto " + sku,
		Price:     decimal.NewFromInt(10),
		CreatedAt: t0,
		UpdatedAt: t0,
	}))
}

func (f *fixture) addLocation(t *testing.T, id string, active bool) {
	t.Helper()
	require.NoError(t, f.store.Repos().Locations.Create(context.Background(), &entity.Location{
		ID:        id,
		Name:      "Ubicación " + id,
		IsActive:  active,
		CreatedAt: t0,
		UpdatedAt: t0,
	}))
}

func (f *fixture) apply(t *testing.T, in ledger.MovementInput) *entity.StockMovement {
	t.Helper()
	if in.ActorID == "" {
		in.ActorID = actor
	}
	m, err := f.ledger.ApplyMovement(context.Background(), in)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return m
}

func (f *fixture) stock(t *testing.T, productID, locationID string) int64 {
	t.Helper()
	s, err := f.store.Repos().Stock.Get(context.Background(), productID, locationID)
	require.NoError(t, err)
	return s.Quantity
}

func (f *fixture) aggregate(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.AggregateQuantity
}

func in(product, location string, qty int64) ledger.MovementInput {
	return ledger.MovementInput{ProductID: product, Type: entity.MovementTypeIN, Quantity: qty, LocationID: location}
}

func out(product, location string, qty int64) ledger.MovementInput {
	return ledger.MovementInput{ProductID: product, Type: entity.MovementTypeOUT, Quantity: qty, LocationID: location}
}

func adjust(product, location string, target int64) ledger.MovementInput {
	return ledger.MovementInput{ProductID: product, Type: entity.MovementTypeADJUSTMENT, TargetQuantity: &target, LocationID: location}
}

func transfer(product, from, to string, qty int64) ledger.MovementInput {
	return ledger.MovementInput{ProductID: product, Type: entity.MovementTypeTRANSFER, Quantity: qty, FromLocationID: from, ToLocationID: to}
}

// replayHook repositorio de movimientos que ejecuta hook justo después de listar el historial.
type replayHook struct {
	repository.StockMovementRepository
	hook func()
}

func (r replayHook) ListForReplay(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	items, err := r.StockMovementRepository.ListForReplay(ctx, productID)
	r.hook()
	return items, err
}

func withReplayHook(repos repository.TxRepos, hook func()) repository.TxRepos {
	repos.Movements = replayHook{StockMovementRepository: repos.Movements, hook: hook}
	return repos
}

// hookedRunner TxRunner sobre el almacén en memoria cuyas transacciones ven withReplayHook.
type hookedRunner struct {
	store *memory.Store
	hook  func()
}

func (h hookedRunner) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	return h.store.Run(ctx, func(tx repository.TxRepos) error {
		return fn(withReplayHook(tx, h.hook))
	})
}
