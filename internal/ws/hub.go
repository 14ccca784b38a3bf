// Package ws pushes readings, liveness changes, and alerts to connected
// dashboard clients over WebSocket. Presentation only: nothing here feeds
// back into alerting decisions.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Envelope is the wire format for every hub broadcast.
type Envelope struct {
	Type    string `json:"type"` // "reading", "status", "alert"
	Payload any    `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	logger zerolog.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub with no connected clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start launches the hub loop in a separate goroutine.
func (h *Hub) Start() error {
	if h.ctx != nil {
		return errors.New("websocket hub is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.run()
	}()

	h.logger.Info().Msg("WebSocket hub started")
	return nil
}

// Stop shuts down the hub loop and disconnects all clients.
func (h *Hub) Stop() error {
	if h.ctx == nil {
		return errors.New("websocket hub is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.logger.Info().Msg("WebSocket hub stopped")
	return nil
}

func (h *Hub) run() {
	defer func() {
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().Str("remote", client.conn.RemoteAddr().String()).Msg("WebSocket client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug().Str("remote", client.conn.RemoteAddr().String()).Msg("WebSocket client unregistered")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client is blocked or gone; evict it.
					h.logger.Warn().Str("remote", client.conn.RemoteAddr().String()).Msg("WebSocket client send buffer full, removing")
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// Broadcast sends an envelope of the given type to all connected clients.
// Marshalling failures are logged and dropped; a push miss must never
// disturb the evaluation path.
func (h *Hub) Broadcast(messageType string, payload any) {
	message, err := json.Marshal(Envelope{Type: messageType, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("type", messageType).Msg("Failed to marshal broadcast message")
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Str("type", messageType).Msg("Broadcast channel full, dropping message")
	}
}
