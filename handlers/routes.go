package handlers

import (
	"aura-growth/middleware"
	"aura-growth/models"
	"aura-growth/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer calls.
type Services struct {
	Characters  *services.CharacterService
	Progression *services.ProgressionService
	Rewards     *services.RewardService
	Quests      *services.QuestService
	Habits      *services.HabitService
	Chat        *services.ChatService
	Effects     *services.StatusEffectService
}

// Setup mounts every route. All of them require the gateway's user context.
func Setup(app *fiber.App, svc Services, log *zap.Logger) {
	secured := app.Group("/", middleware.UserContext(log))

	SetupCharacterRoutes(secured, svc)
	SetupProgressionRoutes(secured, svc)
	SetupQuestRoutes(secured, svc)
	SetupHabitRoutes(secured, svc)
	SetupChatRoutes(secured, svc)
	SetupEventRoutes(secured, svc, log)
}

// currentCharacter loads the caller's character.
func currentCharacter(c *fiber.Ctx, svc Services) (*models.Character, error) {
	return svc.Characters.GetByExternalUser(c.UserContext(), middleware.UserID(c))
}
