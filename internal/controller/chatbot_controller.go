package controller

import (
	"context"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/serverutils"
	"flowershop-chat-be/internal/service"
	ws "flowershop-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router, chatLimiter fiber.Handler)
	SendChat(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	hub     *ws.Hub
	baseCtx context.Context
}

// NewChatbotController serves /ws/chat only when hub is non-nil. baseCtx
// bounds the lifetime of websocket turns.
func NewChatbotController(baseCtx context.Context, service service.IChatbotService, hub *ws.Hub) IChatbotController {
	return &chatbotController{service: service, hub: hub, baseCtx: baseCtx}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router, chatLimiter fiber.Handler) {
	if chatLimiter != nil {
		r.Post("/chat", chatLimiter, c.SendChat)
	} else {
		r.Post("/chat", c.SendChat)
	}

	h := r.Group("/api/chat/v1")
	h.Get("/history", c.GetChatHistory)

	if c.hub != nil {
		r.Use("/ws/chat", func(ctx *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(ctx) {
				ctx.Locals("sessionId", ctx.Query("sessionId"))
				return ctx.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		r.Get("/ws/chat", websocket.New(c.serveWs))
	}
}

// SendChat answers with the bare {"content","role"} object, not the envelope.
func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatbotController) GetChatHistory(ctx *fiber.Ctx) error {
	res, err := c.service.GetChatHistory(ctx.UserContext(), ctx.Query("sessionId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatbotController) serveWs(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("sessionId").(string)
	ws.ServeWs(c.baseCtx, c.hub, conn, sessionID, c.service.SendChat)
}
