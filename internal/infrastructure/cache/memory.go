// Package cache implementa los backends de la caché de analítica.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jhoicas/stockledger-api/internal/application/analytics"
)

var _ analytics.Cache = (*Memory)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory caché en proceso con expiración por entrada.
type Memory struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]entry
}

// NewMemory construye la caché. clock puede ser nil.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{clock: clock, entries: make(map[string]entry)}
}

// Get devuelve el valor si existe y no expiró; las entradas vencidas se eliminan.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set guarda value por ttl. Un ttl no positivo no guarda nada.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

// DeletePrefix elimina todas las claves con el prefijo.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len número de entradas guardadas (incluye vencidas aún no purgadas).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
