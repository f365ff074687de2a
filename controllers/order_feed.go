package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"

	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
	feedBuffer     = 16
)

// OrderEvent is pushed to every connected admin dashboard.
type OrderEvent struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

// OrderFeed fans order events out to admin websocket connections. Slow
// clients are dropped rather than blocking order handling.
type OrderFeed struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[chan []byte]struct{}
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[chan []byte]struct{}),
	}
}

// Publish queues the event for every subscriber. It never blocks.
func (f *OrderFeed) Publish(eventType string, order *models.Order) {
	if f == nil {
		return
	}
	data, err := json.Marshal(OrderEvent{Type: eventType, Order: order})
	if err != nil {
		slog.Error("Failed to encode order event", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.clients {
		select {
		case ch <- data:
		default:
			delete(f.clients, ch)
			close(ch)
		}
	}
}

func (f *OrderFeed) subscribe() chan []byte {
	ch := make(chan []byte, feedBuffer)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *OrderFeed) unsubscribe(ch chan []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[ch]; ok {
		delete(f.clients, ch)
		close(ch)
	}
}

// Subscribers reports the number of connected clients.
func (f *OrderFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Subscribe upgrades GET /api/admin/orders/feed (Admin only)
func (f *OrderFeed) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	// reader: only needed to notice the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case data, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
