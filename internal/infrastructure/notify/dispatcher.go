// Package notify entrega los eventos de stock confirmados a los sumideros configurados
// (websocket, RabbitMQ, Kafka, invalidación de caché). La entrega es asíncrona y de mejor
// esfuerzo: una falla se registra y nunca llega al llamador del ledger.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Sink destino de eventos.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev entity.StockEvent) error
}

// FuncSink adapta una función a Sink.
type FuncSink struct {
	SinkName string
	Fn       func(ctx context.Context, ev entity.StockEvent) error
}

// Name implementa Sink.
func (f FuncSink) Name() string { return f.SinkName }

// Publish implementa Sink.
func (f FuncSink) Publish(ctx context.Context, ev entity.StockEvent) error { return f.Fn(ctx, ev) }

const defaultSinkTimeout = 5 * time.Second

// Dispatcher cola acotada con un único worker que reparte cada evento a todos los sumideros
// en orden de llegada.
type Dispatcher struct {
	sinks       []Sink
	queue       chan entity.StockEvent
	log         zerolog.Logger
	sinkTimeout time.Duration

	mu        sync.RWMutex // protege closed frente a Notify concurrentes
	closed    bool
	startOnce sync.Once
	done      chan struct{}
}

var _ ledger.Notifier = (*Dispatcher)(nil)

// NewDispatcher construye el despachador con una cola de `buffer` eventos.
func NewDispatcher(buffer int, log zerolog.Logger, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		sinks:       sinks,
		queue:       make(chan entity.StockEvent, buffer),
		log:         log,
		sinkTimeout: defaultSinkTimeout,
		done:        make(chan struct{}),
	}
}

// AddSink registra un sumidero. Debe llamarse antes de Start.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Notify encola los eventos sin bloquear; si la cola está llena el evento se descarta con un warn.
func (d *Dispatcher) Notify(events ...entity.StockEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	for _, ev := range events {
		select {
		case d.queue <- ev:
		default:
			d.log.Warn().
				Str("product_id", ev.ProductID).
				Str("location_id", ev.LocationID).
				Str("movement_id", ev.MovementID).
				Msg("cola de notificaciones llena, evento descartado")
		}
	}
}

// Start lanza el worker. Termina al cancelar ctx (tras vaciar la cola) o al llamar Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go d.run(ctx)
	})
}

// Stop cierra la cola y espera a que el worker entregue lo pendiente.
// Los eventos notificados después de Stop se descartan.
func (d *Dispatcher) Stop() {
	d.Start(context.Background())
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	d.log.Info().Int("sinks", len(d.sinks)).Msg("notify: started")
	for {
		select {
		case ev, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.drain()
			d.log.Info().Msg("notify: shutting down")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(context.Background(), ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev entity.StockEvent) {
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sinkTimeout)
		err := s.Publish(sctx, ev)
		cancel()
		if err != nil {
			d.log.Warn().Err(err).
				Str("sink", s.Name()).
				Str("product_id", ev.ProductID).
				Str("movement_id", ev.MovementID).
				Msg("notify: entrega fallida")
		}
	}
}
