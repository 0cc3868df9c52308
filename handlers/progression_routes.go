// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(r fiber.Router, svc Services) {
	r.Get("/dashboard", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		ctx := c.UserContext()

		snap, err := svc.Progression.Snapshot(ctx, ch.ID)
		if err != nil {
			return fail(c, err)
		}
		open := false
		dailies, err := svc.Quests.ListQuests(ctx, ch.ID, questFilter(&open, "daily", 5))
		if err != nil {
			return fail(c, err)
		}
		habits, err := svc.Habits.ListHabits(ctx, ch.ID, true)
		if err != nil {
			return fail(c, err)
		}
		if len(habits) > 3 {
			habits = habits[:3]
		}
		effects, err := svc.Effects.ActiveEffects(ctx, ch.ID)
		if err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{
			"character":      ch,
			"progress":       snap,
			"daily_quests":   dailies,
			"active_habits":  habits,
			"active_effects": effects,
		})
	})

	r.Get("/character/progress", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		snap, err := svc.Progression.Snapshot(c.UserContext(), ch.ID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(snap)
	})

	r.Get("/character/activity", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		report, err := svc.Progression.Activity(c.UserContext(), ch.ID, limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(report)
	})

	r.Post("/character/xp", func(c *fiber.Ctx) error {
		type Req struct {
			XP     int    `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.Reason == "" {
			req.Reason = "manual grant"
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		updated, res, err := svc.Progression.AwardXP(c.UserContext(), ch.ID, req.XP, req.Reason)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"message":       "XP granted successfully",
			"xp":            res.XPGained,
			"levels_gained": res.LevelUp.LevelsGained,
			"level":         updated.Level,
		})
	})
}
