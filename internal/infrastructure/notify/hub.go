package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Hub difunde los eventos de stock a los clientes websocket conectados.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     zerolog.Logger
}

// NewHub construye el hub vacío.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{}), log: log}
}

// Name implementa Sink.
func (h *Hub) Name() string { return "websocket" }

// Publish implementa Sink: envía el evento en JSON a todos los clientes; los que fallan se desconectan.
func (h *Hub) Publish(_ context.Context, ev entity.StockEvent) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

// Clients número de clientes conectados.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler atiende una conexión websocket hasta que el cliente se desconecta.
func (h *Hub) Handler(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Int("clients", h.Clients()).Msg("ws: cliente conectado")

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			_ = c.Close()
		}
		h.mu.Unlock()
	}()
	for {
		// Solo se lee para detectar el cierre.
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
