package handlers

import (
	"aura-growth/middleware"
	"aura-growth/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCharacterRoutes(r fiber.Router, svc Services) {
	r.Post("/character", func(c *fiber.Ctx) error {
		var in services.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		in.ExternalUserID = middleware.UserID(c)
		ch, err := svc.Characters.Register(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	})

	r.Get("/character", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ch)
	})

	r.Patch("/character/settings", func(c *fiber.Ctx) error {
		var in services.SettingsInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		updated, err := svc.Characters.UpdateSettings(c.UserContext(), ch.ID, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(updated)
	})

	r.Get("/character/export", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		archive, err := svc.Characters.Export(c.UserContext(), ch.ID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(archive)
	})

	r.Delete("/character", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		if err := svc.Characters.Delete(c.UserContext(), ch.ID); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/effects", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		effects, err := svc.Effects.ActiveEffects(c.UserContext(), ch.ID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(effects)
	})

	r.Post("/effects", func(c *fiber.Ctx) error {
		var in services.EffectInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		e, err := svc.Effects.Create(c.UserContext(), ch.ID, in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})
}
