package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"merchant-onboarding/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub pushes admin notifications to connected websocket clients.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.RWMutex
}

// NewHub returns a hub with a buffered broadcast queue.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run writes queued messages to every client until ctx is done. Clients
// that fail a write are dropped.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.mutex.RLock()
			var failed []*websocket.Conn
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range failed {
				h.RemoveClient(client)
			}
		}
	}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mutex.Unlock()
}

// BroadcastMessage queues message for every client. A full queue drops it.
func (h *Hub) BroadcastMessage(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("⚠️ Notification queue full, dropping message")
	}
}

// Notify implements the notifier of the submission pipeline and the admin
// service.
func (h *Hub) Notify(n store.Notification) {
	msg, err := json.Marshal(gin.H{"type": "notification", "notification": n})
	if err != nil {
		log.Printf("⚠️ Failed to encode notification %s: %v", n.ID, err)
		return
	}
	h.BroadcastMessage(msg)
}

func (h *Hub) ClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// serveWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}
	h.AddClient(conn)
	log.Printf("🔌 Admin client connected (%d total)", h.ClientsCount())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.RemoveClient(conn)
}
