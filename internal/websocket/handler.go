package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"rag-chat-be/internal/service"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, svc service.IRagService) {
	client := &Client{
		Hub:  hub,
		Conn: c,
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBufferSize),
		svc:  svc,
		gone: make(chan struct{}),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
