package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestType string

const (
	QuestTypeDaily     QuestType = "daily"
	QuestTypeHabit     QuestType = "habit"
	QuestTypeChallenge QuestType = "challenge"
	QuestTypeBonus     QuestType = "bonus"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyEpic   Difficulty = "epic"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyEpic:
		return true
	}
	return false
}

// Quest is a one-time task. Rewards are applied at most once, guarded by Completed.
type Quest struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	CharacterID string     `gorm:"index;not null;size:36" json:"character_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	QuestType   QuestType  `gorm:"size:20;default:daily;index" json:"quest_type"`
	Difficulty  Difficulty `gorm:"size:20;default:medium" json:"difficulty"`

	RewardXP    int   `json:"reward_xp"`
	RewardStats Stats `gorm:"serializer:json;type:text" json:"reward_stats"`

	Completed   bool       `gorm:"default:false;index" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	GeneratedByAI bool   `gorm:"default:false" json:"generated_by_ai"`
	AIContext     string `gorm:"type:text" json:"ai_context,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (q *Quest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.RewardStats == nil {
		q.RewardStats = Stats{}
	}
	return nil
}

// IsExpired reports whether a daily quest's due date lies before today in loc.
func (q *Quest) IsExpired(now time.Time, loc *time.Location) bool {
	if q.QuestType != QuestTypeDaily || q.DueDate == nil {
		return false
	}
	return DaysBetween(*q.DueDate, now, loc) > 0
}
