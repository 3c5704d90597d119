package controller

import (
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
}

type chatController struct {
	ragService service.IRagService
}

func NewChatController(ragService service.IRagService) IChatController {
	return &chatController{
		ragService: ragService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("session", c.CreateSession)
	h.Post("message", c.SendMessage)
	h.Get("history/:sessionId", c.GetHistory)
	h.Delete("session/:sessionId", c.ClearSession)
	h.Get("sessions", c.GetAllSessions)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	sessionID := c.ragService.CreateSession(ctx.UserContext())

	res := dto.CreateSessionResponse{
		SessionId: sessionID,
		Message:   "Session created",
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

// SendMessage runs the full query pipeline synchronously. Streaming delivery
// is only available over the websocket endpoint.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	sessionID := req.SessionId
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := c.ragService.ProcessQuery(ctx.UserContext(), sessionID, req.Message)
	if err != nil {
		return err
	}

	res := dto.SendMessageResponse{
		SessionId: sessionID,
		Response:  result.Answer,
		Sources:   result.Sources,
		Timestamp: time.Now().UTC(),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success process message", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	history, err := c.ragService.GetSessionHistory(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	res := dto.GetHistoryResponse{
		SessionId: sessionID,
		History:   history,
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) ClearSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	if err := c.ragService.ClearSession(ctx.UserContext(), sessionID); err != nil {
		return err
	}

	res := dto.ClearSessionResponse{
		SessionId: sessionID,
		Message:   "Session cleared",
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear session", res))
}

func (c *chatController) GetAllSessions(ctx *fiber.Ctx) error {
	sessions, err := c.ragService.ListSessions(ctx.UserContext())
	if err != nil {
		return err
	}

	res := dto.GetAllSessionsResponse{
		Sessions: sessions,
		Count:    len(sessions),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}
