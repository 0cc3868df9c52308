// services/reward_service.go
package services

import (
	"context"
	"fmt"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RewardService applies quest and habit completions to characters.
type RewardService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	Log   *zap.Logger
}

func NewRewardService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger) *RewardService {
	return &RewardService{DB: db, Clock: clock, Log: log}
}

type QuestOutcome struct {
	Completed bool              `json:"success"`
	Quest     *models.Quest     `json:"quest"`
	Character *models.Character `json:"-"`
	Reward    *RewardResult     `json:"-"`
}

// CompleteQuest marks the quest completed and grants its rewards in one
// transaction. A quest that is already completed yields Completed=false and
// no mutation.
func (s *RewardService) CompleteQuest(ctx context.Context, questID string) (*QuestOutcome, error) {
	out := &QuestOutcome{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quest
		if err := tx.Where("id = ?", questID).First(&q).Error; err != nil {
			return notFound(err, "quest", questID)
		}
		out.Quest = &q
		if q.Completed {
			return nil
		}

		c, err := lockCharacter(tx, q.CharacterID)
		if err != nil {
			return err
		}

		// The conditional flip is the at-most-once guard: a concurrent
		// completion that got here first leaves nothing to update.
		now := s.Clock.Now()
		flip := tx.Model(&models.Quest{}).
			Where("id = ? AND completed = ?", q.ID, false).
			Updates(map[string]any{"completed": true, "completed_at": now})
		if flip.Error != nil {
			return fmt.Errorf("mark quest %s completed: %w", q.ID, flip.Error)
		}
		if flip.RowsAffected == 0 {
			q.Completed = true
			return nil
		}
		q.Completed = true
		q.CompletedAt = &now

		res, err := applyReward(c, q.RewardXP, q.RewardStats)
		if err != nil {
			return err
		}
		c.LastActiveAt = now
		if err := saveCharacter(tx, c); err != nil {
			return err
		}
		if err := writeLog(tx, c.ID, models.ActionQuestCompleted, "Completed quest: "+q.Title, res); err != nil {
			return err
		}

		out.Completed = true
		out.Character = c
		out.Reward = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Completed {
		s.Log.Info("✅ quest completed",
			zap.String("quest_id", questID),
			zap.String("character_id", out.Character.ID),
			zap.Int("xp", out.Reward.XPGained),
			zap.Int("level", out.Character.Level))
	} else {
		s.Log.Debug("quest already completed", zap.String("quest_id", questID))
	}
	return out, nil
}

type HabitOutcome struct {
	Completed bool          `json:"success"`
	Habit     *models.Habit `json:"habit"`
}

// CompleteHabitToday credits the habit for the current calendar day of its
// character. A second call on the same day yields Completed=false.
func (s *RewardService) CompleteHabitToday(ctx context.Context, habitID string) (*HabitOutcome, error) {
	out := &HabitOutcome{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Habit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", habitID).
			First(&h).Error; err != nil {
			return notFound(err, "habit", habitID)
		}
		out.Habit = &h

		var c models.Character
		if err := tx.Where("id = ?", h.CharacterID).First(&c).Error; err != nil {
			return notFound(err, "character", h.CharacterID)
		}

		prevCompletions := h.TotalCompletions
		if !h.CompleteToday(s.Clock.Now(), c.Location()) {
			return nil
		}

		upd := tx.Model(&models.Habit{}).
			Where("id = ? AND total_completions = ?", h.ID, prevCompletions).
			Updates(map[string]any{
				"streak_count":      h.StreakCount,
				"total_completions": h.TotalCompletions,
				"last_completed":    *h.LastCompleted,
			})
		if upd.Error != nil {
			return fmt.Errorf("update habit %s: %w", h.ID, upd.Error)
		}
		if upd.RowsAffected == 0 {
			return nil
		}

		desc := fmt.Sprintf("Completed habit: %s (streak %d)", h.Name, h.StreakCount)
		snap := &RewardResult{StatsBefore: c.Stats.Clone(), StatsAfter: c.Stats.Clone()}
		if err := writeLog(tx, c.ID, models.ActionHabitCompleted, desc, snap); err != nil {
			return err
		}
		out.Completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !out.Completed {
		// reload so callers see persisted counters, not the rejected in-memory attempt
		var h models.Habit
		if err := s.DB.WithContext(ctx).Where("id = ?", habitID).First(&h).Error; err == nil {
			out.Habit = &h
		}
	}
	return out, nil
}
