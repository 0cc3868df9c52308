package handlers

import (
	"aura-growth/services"

	"github.com/gofiber/fiber/v2"
)

func SetupHabitRoutes(r fiber.Router, svc Services) {
	r.Get("/habits", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		habits, err := svc.Habits.ListHabits(c.UserContext(), ch.ID, c.QueryBool("active", false))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(habits)
	})

	r.Post("/habits", func(c *fiber.Ctx) error {
		var in services.HabitInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		h, err := svc.Habits.CreateHabit(c.UserContext(), ch.ID, in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(h)
	})

	r.Post("/habits/:id/complete", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		h, err := svc.Habits.GetHabit(c.UserContext(), ch.ID, c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		out, err := svc.Rewards.CompleteHabitToday(c.UserContext(), h.ID)
		if err != nil {
			return fail(c, err)
		}
		resp := fiber.Map{"success": out.Completed, "habit": out.Habit}
		if !out.Completed {
			resp["message"] = "Habit already completed today"
		}
		return c.JSON(resp)
	})
}
