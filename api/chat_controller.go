package api

import (
	"github.com/gofiber/fiber/v2"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	"github.com/tanpawarit/link-companion-assistant/pkg/errx"
)

type ChatController struct {
	chat Chatter
}

func NewChatController(chat Chatter) *ChatController {
	return &ChatController{chat: chat}
}

func (c *ChatController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Post("/chat", c.Chat)
}

func (c *ChatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// Chat accepts an empty message; the pipeline decides what to do with it.
func (c *ChatController) Chat(ctx *fiber.Ctx) error {
	var req contractx.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errx.BadRequest(err)
	}

	resp, err := c.chat.Chat(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(resp)
}
