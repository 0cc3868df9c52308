package handlers

import (
	"fmt"
	"strconv"

	"aura-growth/models"
	"aura-growth/services"

	"github.com/gofiber/fiber/v2"
)

func questFilter(completed *bool, questType string, limit int) services.QuestFilter {
	return services.QuestFilter{Completed: completed, Type: models.QuestType(questType), Limit: limit}
}

func SetupQuestRoutes(r fiber.Router, svc Services) {
	r.Get("/quests", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		var completed *bool
		if v := c.Query("completed"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return badRequest(c, "completed must be true or false", err)
			}
			completed = &b
		}
		limit, _ := strconv.Atoi(c.Query("limit", "0"))
		quests, err := svc.Quests.ListQuests(c.UserContext(), ch.ID, questFilter(completed, c.Query("type"), limit))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(quests)
	})

	r.Post("/quests/generate", func(c *fiber.Ctx) error {
		var req struct {
			Count int `json:"count"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid JSON", err)
			}
		}
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		quests, err := svc.Quests.GenerateDailyQuests(c.UserContext(), ch.ID, req.Count)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":     true,
			"message":     fmt.Sprintf("Generated %d new quests!", len(quests)),
			"quest_count": len(quests),
			"quests":      quests,
		})
	})

	r.Post("/quests/:id/complete", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		q, err := svc.Quests.GetQuest(c.UserContext(), ch.ID, c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		if q.Completed {
			return c.JSON(fiber.Map{
				"success":           false,
				"message":           "Quest already completed",
				"already_completed": true,
			})
		}
		if q.IsExpired(svc.Quests.Clock.Now(), ch.Location()) {
			return c.JSON(fiber.Map{
				"success": false,
				"message": "Quest has expired",
				"expired": true,
			})
		}

		out, err := svc.Rewards.CompleteQuest(c.UserContext(), q.ID)
		if err != nil {
			return fail(c, err)
		}
		if !out.Completed {
			return c.JSON(fiber.Map{
				"success":           false,
				"message":           "Quest already completed",
				"already_completed": true,
			})
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"xp_gained":     out.Reward.XPGained,
			"stat_gains":    out.Reward.StatGains,
			"new_level":     out.Character.Level,
			"levels_gained": out.Reward.LevelUp.LevelsGained,
			"message":       fmt.Sprintf("Quest completed! +%d XP", out.Reward.XPGained),
			"quest_title":   out.Quest.Title,
		})
	})
}
