package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type recordingSink struct {
	mu     sync.Mutex
	events []entity.StockEvent
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, ev entity.StockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) received() []entity.StockEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StockEvent(nil), s.events...)
}

func event(id string) entity.StockEvent {
	return entity.StockEvent{ProductID: "p1", LocationID: "A", MovementID: id, OldQuantity: 0, NewQuantity: 1}
}

func TestDispatcher_EntregaEnOrdenATodosLosSumideros(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	d := NewDispatcher(16, zerolog.Nop(), first)
	d.AddSink(second)
	d.Start(context.Background())

	d.Notify(event("m1"), event("m2"))
	d.Notify(event("m3"))
	d.Stop()

	for _, s := range []*recordingSink{first, second} {
		got := s.received()
		require.Len(t, got, 3)
		assert.Equal(t, "m1", got[0].MovementID)
		assert.Equal(t, "m3", got[2].MovementID)
	}
}

func TestDispatcher_ColaLlenaNoBloquea(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	d := NewDispatcher(1, zerolog.New(&buf), sink)

	done := make(chan struct{})
	go func() {
		d.Notify(event("m1"), event("m2"), event("m3"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify bloqueó con la cola llena")
	}

	d.Stop()
	assert.Len(t, sink.received(), 1)
	assert.Contains(t, buf.String(), "evento descartado")
}

func TestDispatcher_FallaDeSumideroSeRegistra(t *testing.T) {
	var buf bytes.Buffer
	failing := FuncSink{SinkName: "broker", Fn: func(context.Context, entity.StockEvent) error {
		return errors.New("broker caído")
	}}
	sink := &recordingSink{}
	d := NewDispatcher(4, zerolog.New(&buf), failing, sink)
	d.Start(context.Background())

	d.Notify(event("m1"))
	d.Stop()

	assert.Len(t, sink.received(), 1, "los demás sumideros reciben el evento")
	assert.Contains(t, buf.String(), "broker caído")
	assert.Contains(t, buf.String(), `"sink":"broker"`)
}

func TestDispatcher_StopEsIdempotente(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, zerolog.Nop(), sink)
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	d.Notify(event("tarde"))
	assert.Empty(t, sink.received())
}

func TestDispatcher_CancelarContextoVaciaLaCola(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(8, zerolog.Nop(), sink)
	d.Notify(event("m1"), event("m2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Stop()

	assert.Len(t, sink.received(), 2)
}

func TestDispatcher_SenalDeApagadoNoCortaLaEntregaHastaStop(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(8, zerolog.Nop(), sink)

	signalCtx, cancel := context.WithCancel(context.Background())
	d.Start(context.WithoutCancel(signalCtx))

	d.Notify(event("m1"))
	cancel()
	// Peticiones en curso que confirman durante el apagado del servidor.
	time.Sleep(20 * time.Millisecond)
	d.Notify(event("m2"), event("m3"))
	d.Stop()

	got := sink.received()
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[2].MovementID)
}
