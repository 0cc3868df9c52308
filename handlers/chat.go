package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(r fiber.Router, svc Services) {
	r.Post("/chat", func(c *fiber.Ctx) error {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		reply, err := svc.Chat.Chat(c.UserContext(), ch.ID, req.Message)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(reply)
	})

	r.Get("/chat/history", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		turns, err := svc.Chat.History(c.UserContext(), ch.ID, c.QueryInt("limit", 0))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(turns)
	})
}
