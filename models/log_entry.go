package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionQuestCompleted  ActionType = "quest_completed"
	ActionHabitCompleted  ActionType = "habit_completed"
	ActionStatChange      ActionType = "stat_change"
	ActionLevelUp         ActionType = "level_up"
	ActionChatInteraction ActionType = "chat_interaction"
)

// LogEntry is the append-only audit trail of changes to a character.
type LogEntry struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	CharacterID       string     `gorm:"index;not null;size:36" json:"character_id"`
	ActionType        ActionType `gorm:"size:30;not null" json:"action_type"`
	ActionDescription string     `gorm:"type:text" json:"action_description"`

	StatsBefore Stats `gorm:"serializer:json;type:text" json:"stats_before"`
	StatsAfter  Stats `gorm:"serializer:json;type:text" json:"stats_after"`
	XPGained    int   `gorm:"default:0" json:"xp_gained"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (l *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate keeps entries write-once.
func (l *LogEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrLogEntryImmutable
}
