// Package memory implementa los puertos de persistencia en memoria del proceso.
// Cada transacción trabaja sobre una copia del estado y la publica al confirmar;
// las transacciones se serializan, lo que equivale a bloquear todas las filas.
// Pensado para desarrollo (STORE_DRIVER=memory) y pruebas.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type stockKey struct {
	productID  string
	locationID string
}

type state struct {
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	stock     map[stockKey]*entity.ProductStock
	movements []*entity.StockMovement // orden de inserción
	orders    map[string]*entity.Order
}

func newState() *state {
	return &state{
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
		stock:     make(map[stockKey]*entity.ProductStock),
		orders:    make(map[string]*entity.Order),
	}
}

// clone copia profunda; los movimientos son inmutables y se comparten.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.locations {
		l := *v
		c.locations[k] = &l
	}
	for k, v := range s.stock {
		st := *v
		c.stock[k] = &st
	}
	c.movements = append(make([]*entity.StockMovement, 0, len(s.movements)+4), s.movements...)
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	return c
}

// Store almacén en memoria.
type Store struct {
	sem chan struct{} // una transacción a la vez
	mu  sync.RWMutex  // protege cur
	cur *state
}

var _ ledger.TxRunner = (*Store)(nil)

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{sem: make(chan struct{}, 1), cur: newState()}
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Run implementa ledger.TxRunner. Esperar el turno respeta ctx; si ctx vence antes de
// publicar, la copia se descarta.
func (s *Store) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	return s.atomically(ctx, func(work *state) error { return fn(s.repos(work)) })
}

func (s *Store) atomically(ctx context.Context, fn func(work *state) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	work := s.current().clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = work
	s.mu.Unlock()
	return nil
}

// Repos devuelve repositorios fuera de transacción: lecturas sobre el último estado confirmado
// y escrituras como transacciones de una sola operación.
func (s *Store) Repos() repository.TxRepos {
	return s.repos(nil)
}

// Analytics devuelve el puerto de lecturas de analítica.
func (s *Store) Analytics() repository.AnalyticsRepository {
	return &analyticsRepo{base{store: s}}
}

func (s *Store) repos(tx *state) repository.TxRepos {
	b := base{store: s, tx: tx}
	return repository.TxRepos{
		Products:  &productRepo{b},
		Locations: &locationRepo{b},
		Stock:     &stockRepo{b},
		Movements: &movementRepo{b},
		Orders:    &orderRepo{b},
	}
}

// base resuelve el estado sobre el que opera un repositorio.
type base struct {
	store *Store
	tx    *state
}

func (b base) read() *state {
	if b.tx != nil {
		return b.tx
	}
	return b.store.current()
}

func (b base) write(ctx context.Context, fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.atomically(ctx, fn)
}

func copyOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Lines = append([]entity.OrderLine(nil), o.Lines...)
	return &c
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
}
