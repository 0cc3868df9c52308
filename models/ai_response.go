package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// AIResponse is one turn of mentor chat history.
type AIResponse struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	CharacterID string   `gorm:"index;not null;size:36" json:"character_id"`
	Role        ChatRole `gorm:"size:10;not null" json:"role"`
	Content     string   `gorm:"type:text" json:"content"`
	TokensUsed  int      `gorm:"default:0" json:"tokens_used"`

	TriggeredAction string            `gorm:"size:100" json:"triggered_action,omitempty"` // e.g. "stat_update", "habit_created"
	ActionData      datatypes.JSONMap `json:"action_data,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

func (r *AIResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
