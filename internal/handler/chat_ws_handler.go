package handler

import (
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/service"
	internalWS "rag-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ChatWsHandler struct {
	ragService service.IRagService
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewChatWsHandler(ragService service.IRagService, hub *internalWS.Hub, log logger.ILogger) *ChatWsHandler {
	return &ChatWsHandler{
		ragService: ragService,
		hub:        hub,
		logger:     log,
	}
}

// ServeWs upgrades the request and hands the connection to the chat hub.
func (h *ChatWsHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatWsHandler", "Starting WebSocket session", map[string]interface{}{"remote": conn.RemoteAddr().String()})
			internalWS.ServeWs(h.hub, conn, h.ragService)
			h.logger.Info("ChatWsHandler", "WebSocket session ended", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *ChatWsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/chat", h.ServeWs)
}
