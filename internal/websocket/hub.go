// Package websocket implements the broadcast channel: a fan-out hub pushing
// mutation events to every connected overlay client.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luisgbr1el/vitalboard/internal/domain"
	"github.com/luisgbr1el/vitalboard/internal/metrics"
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	event string
	data  []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdGetClientCount struct {
	replyCh chan int
}

func (cmdGetClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub fans events out to all connected clients. All state is owned by the
// single run goroutine; every interaction goes through the command channel.
// Delivery is fire-and-forget with no ordering guarantee across clients; a
// client whose send buffer is full is evicted.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
	maxConn int
}

// NewHub creates and starts a hub. maxClients caps concurrent connections;
// zero means no cap.
func NewHub(maxClients int) *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*clientWriter),
		maxConn: maxClients,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdGetClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if h.maxConn > 0 && len(h.clients) >= h.maxConn {
		slog.Warn("Rejecting overlay client: max connections reached", "max", h.maxConn)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max connections (%d) reached", h.maxConn)
		return
	}

	h.clients[c.conn] = newClientWriter(c.conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Overlay client registered", "clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Overlay client unregistered", "clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	metrics.HubEventsTotal.WithLabelValues(c.event).Inc()

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- c.data:
			// sent successfully
		default:
			// client is slow, mark for removal
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow overlay client")
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}

// --- Public API ---

// Register adds a connection. Returns an error when the connection cap is
// reached; the connection is closed by the hub in that case.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdGetClientCount{replyCh: replyCh}
	return <-replyCh
}

// Stop shuts down the hub, closing all client connections.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}

func (h *Hub) broadcast(event string, data any) {
	payload, err := json.Marshal(domain.Event{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "event", event, "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{event: event, data: payload}
}

// BroadcastCharacters pushes the full character list to every client.
func (h *Hub) BroadcastCharacters(characters []domain.Character) {
	h.broadcast(domain.EventCharactersUpdated, characters)
}

// BroadcastCharacter pushes a single-record update to every client.
func (h *Hub) BroadcastCharacter(id string, character domain.Character) {
	h.broadcast(domain.EventCharacterUpdated, domain.CharacterUpdatedPayload{ID: id, Character: character})
}

// BroadcastSettings pushes the merged settings document to every client.
func (h *Hub) BroadcastSettings(settings domain.Settings) {
	h.broadcast(domain.EventSettingsUpdated, settings)
}
