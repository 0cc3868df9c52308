package workers

import (
	"context"
	"errors"
	"time"

	"aura-growth/services"

	"go.uber.org/zap"
)

// Deferrer runs fn once after delay.
type Deferrer interface {
	Defer(name string, delay time.Duration, fn func(context.Context)) error
}

// Onboarding does the slow AI work for a freshly registered character in the
// background so registration returns immediately.
type Onboarding struct {
	Characters *services.CharacterService
	Quests     *services.QuestService
	Jobs       Deferrer
	Delay      time.Duration
	Log        *zap.Logger
}

// Schedule queues character enhancement and AI quest generation.
func (o *Onboarding) Schedule(characterID string, in services.RegisterInput) {
	jobs := []struct {
		name string
		fn   func(context.Context)
	}{
		{"enhance-character:" + characterID, func(ctx context.Context) { o.EnhanceCharacter(ctx, characterID, in) }},
		{"generate-ai-quests:" + characterID, func(ctx context.Context) { o.GenerateAIQuests(ctx, characterID) }},
	}
	for _, j := range jobs {
		if err := o.Jobs.Defer(j.name, o.Delay, j.fn); err != nil {
			o.Log.Warn("⚠️ failed to schedule onboarding job", zap.String("job", j.name), zap.Error(err))
		}
	}
}

// EnhanceCharacter personalises the character. A character deleted in the
// meantime is skipped silently.
func (o *Onboarding) EnhanceCharacter(ctx context.Context, characterID string, in services.RegisterInput) {
	err := o.Characters.Enhance(ctx, characterID, in)
	switch {
	case errors.Is(err, services.ErrNotFound):
		o.Log.Debug("character gone before enhancement", zap.String("character_id", characterID))
	case err != nil:
		o.Log.Error("❌ character enhancement failed", zap.String("character_id", characterID), zap.Error(err))
	default:
		o.Log.Info("✨ character enhanced", zap.String("character_id", characterID))
	}
}

// GenerateAIQuests replaces the starter quests with AI generated ones.
func (o *Onboarding) GenerateAIQuests(ctx context.Context, characterID string) {
	quests, err := o.Quests.ReplaceFallbackQuests(ctx, characterID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		o.Log.Debug("character gone before quest generation", zap.String("character_id", characterID))
	case err != nil:
		o.Log.Error("❌ AI quest generation failed", zap.String("character_id", characterID), zap.Error(err))
	default:
		o.Log.Info("📜 AI quests generated", zap.String("character_id", characterID), zap.Int("count", len(quests)))
	}
}
