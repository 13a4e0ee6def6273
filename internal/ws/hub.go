package ws

import (
	"encoding/json"
	"log"
	"sync"

	"go-catalog-stock/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// StockEvent is pushed to every connected client whenever the catalog or a
// product's stock changes.
type StockEvent struct {
	Type    string         `json:"type"`
	Action  string         `json:"action"`
	Product *model.Product `json:"product,omitempty"`
	Message string         `json:"message,omitempty"`
}

const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionStockSold      = "stock_sold"
	ActionStockRestocked = "stock_restocked"
)

type Hub struct {
	clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Events     chan StockEvent
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Events:     make(chan StockEvent, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case event := <-h.Events:
			msg, err := json.Marshal(event)
			if err != nil {
				log.Println("WS marshal error:", err)
				continue
			}
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
