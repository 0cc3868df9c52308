package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	chatTokens          = 500
	DefaultHistoryLimit = 50
)

type ChatService struct {
	DB      *gorm.DB
	Clock   clockwork.Clock
	Log     *zap.Logger
	AI      TextGenerator
	Actions *ActionService
}

func NewChatService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger, ai TextGenerator, actions *ActionService) *ChatService {
	return &ChatService{DB: db, Clock: clock, Log: log, AI: ai, Actions: actions}
}

// ChatReply is what the user sees after sending a message.
type ChatReply struct {
	Response   string          `json:"response"`
	ActionData map[string]any  `json:"action_data"`
	Analysis   MessageAnalysis `json:"analysis"`
	Suggested  *RewardEstimate `json:"suggested_reward,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RewardEstimate is the reward a reported activity would earn as a
// medium-difficulty quest.
type RewardEstimate struct {
	XP    int          `json:"xp"`
	Stats models.Stats `json:"stats"`
}

func estimateReward(a MessageAnalysis) *RewardEstimate {
	if !a.LikelyCompletion {
		return nil
	}
	xp, stats := CalculateStatGains(a.ActivityType, models.DifficultyMedium)
	return &RewardEstimate{XP: xp, Stats: stats.Normalized()}
}

// Chat sends message to the character's mentor, applies whatever the reply
// proposes and records both turns.
func (s *ChatService) Chat(ctx context.Context, characterID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var c models.Character
	if err := s.DB.WithContext(ctx).Where("id = ?", characterID).First(&c).Error; err != nil {
		return nil, notFound(err, "character", characterID)
	}

	sentAt := s.Clock.Now()
	raw := s.AI.Generate(ctx, chatPrompt(&c, message), chatTokens)
	actions := s.Actions.ApplyAIAction(ctx, c.ID, raw)
	cleaned := CleanAIResponse(raw)

	repliedAt := s.Clock.Now()
	if !repliedAt.After(sentAt) {
		// keep turn order stable when both turns share a timestamp
		repliedAt = sentAt.Add(time.Microsecond)
	}

	turns := []models.AIResponse{
		{
			CharacterID: c.ID,
			Role:        models.RoleUser,
			Content:     message,
			CreatedAt:   sentAt,
		},
		{
			CharacterID:     c.ID,
			Role:            models.RoleAssistant,
			Content:         cleaned,
			TriggeredAction: triggeredAction(actions),
			ActionData:      datatypes.JSONMap(actions),
			CreatedAt:       repliedAt,
		},
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&turns).Error; err != nil {
			return fmt.Errorf("save chat turns: %w", err)
		}
		if err := tx.Model(&models.Character{}).Where("id = ?", c.ID).
			Update("last_active_at", repliedAt).Error; err != nil {
			return fmt.Errorf("touch character: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Debug("💬 mentor replied",
		zap.String("character_id", c.ID),
		zap.String("triggered_action", turns[1].TriggeredAction))

	analysis := AnalyzeUserMessage(message)
	return &ChatReply{
		Response:   cleaned,
		ActionData: actions,
		Analysis:   analysis,
		Suggested:  estimateReward(analysis),
		Timestamp:  repliedAt,
	}, nil
}

// History returns up to limit of the most recent turns, oldest first.
func (s *ChatService) History(ctx context.Context, characterID string, limit int) ([]models.AIResponse, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var turns []models.AIResponse
	if err := s.DB.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("created_at DESC").Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func triggeredAction(actions map[string]any) string {
	switch {
	case actions["stat_gains"] != nil || actions["xp"] != nil:
		return "stat_update"
	case actions["habit_created"] != nil:
		return "habit_created"
	case actions["quest_created"] != nil:
		return "quest_created"
	}
	return ""
}

func chatPrompt(c *models.Character, message string) string {
	st := c.Stats.Normalized()
	return fmt.Sprintf(`%s

You are an RPG mentor for %s, a Level %d %s.
Current stats: STR:%d INT:%d CHR:%d END:%d LCK:%d

User said: %q

Parse for actions like:
- Quest completion ("I finished my workout", "completed reading")
- New habit requests ("I want to start meditating daily")
- Progress updates ("I'm feeling motivated", "struggled today")

When the user earned a reward, mention it as "+N STR" (or INT, CHR, END, LCK) and "+N XP".
Keep your response conversational and engaging, without JSON code blocks.`,
		PersonalityPrompt(c.AIPersonality),
		c.Name, c.Level, c.CharacterClass,
		st[models.StatStrength], st[models.StatIntelligence], st[models.StatCharisma],
		st[models.StatEndurance], st[models.StatLuck],
		message)
}
