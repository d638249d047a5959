package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/metrics"
	"sensor-alert-service/internal/models"
)

// EventReceiveAlert is the event name dashboards listen for.
const EventReceiveAlert = "ReceiveAlert"

// ErrTooManySubscribers is returned when the hub is at capacity.
var ErrTooManySubscribers = errors.New("too many websocket subscribers")

// Event is the frame pushed to every subscriber.
type Event struct {
	Event string       `json:"event"`
	Data  models.Alert `json:"data"`
}

// Hub manages the set of connected dashboard subscribers.
type Hub struct {
	connections  map[*websocket.Conn]struct{}
	mutex        sync.Mutex
	max          int
	writeTimeout time.Duration
	logger       *logging.Logger
}

func NewHub(maxConnections int, logger *logging.Logger) *Hub {
	return &Hub{
		connections:  make(map[*websocket.Conn]struct{}),
		max:          maxConnections,
		writeTimeout: 5 * time.Second,
		logger:       logger,
	}
}

func (h *Hub) Name() string { return "websocket" }

// Add registers a connection.
func (h *Hub) Add(conn *websocket.Conn) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.max > 0 && len(h.connections) >= h.max {
		h.logger.Warnf("Max websocket connections reached (%d)", h.max)
		return ErrTooManySubscribers
	}
	h.connections[conn] = struct{}{}
	metrics.WebSocketSubscribers.Set(float64(len(h.connections)))
	h.logger.Infof("Added websocket subscriber %s (total: %d)", conn.RemoteAddr(), len(h.connections))
	return nil
}

// Remove unregisters and closes a connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	_ = conn.Close()
	metrics.WebSocketSubscribers.Set(float64(len(h.connections)))
	h.logger.Infof("Removed websocket subscriber %s (remaining: %d)", conn.RemoteAddr(), len(h.connections))
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections)
}

// Serve registers conn and blocks until the peer goes away. Inbound frames are
// discarded; reading keeps control frames flowing.
func (h *Hub) Serve(conn *websocket.Conn) error {
	if err := h.Add(conn); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber limit reached")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return err
	}
	defer h.Remove(conn)

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return nil
		}
	}
}

// Send broadcasts the alert to every subscriber. Delivery is best effort.
func (h *Hub) Send(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(Event{Event: EventReceiveAlert, Data: alert})
	if err != nil {
		return fmt.Errorf("failed to encode alert %d: %w", alert.ID, err)
	}
	h.Broadcast(payload)
	return nil
}

// Broadcast writes message to all subscribers and drops the ones that fail.
// It returns how many subscribers received it.
func (h *Hub) Broadcast(message []byte) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delivered := 0
	for conn := range h.connections {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warnf("Failed to send websocket message to %s: %v", conn.RemoteAddr(), err)
			h.removeLocked(conn)
			continue
		}
		delivered++
	}
	return delivered
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		h.removeLocked(conn)
	}
}
