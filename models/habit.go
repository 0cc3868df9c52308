package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HabitFrequency string

const (
	FrequencyDaily  HabitFrequency = "daily"
	FrequencyWeekly HabitFrequency = "weekly"
	FrequencyCustom HabitFrequency = "custom"
)

func (f HabitFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

type Habit struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CharacterID string         `gorm:"index;not null;size:36" json:"character_id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Frequency   HabitFrequency `gorm:"size:20;default:daily" json:"frequency"`

	Active           bool       `json:"active"`
	StreakCount      int        `gorm:"default:0" json:"streak_count"`
	TotalCompletions int        `gorm:"default:0" json:"total_completions"`
	LastCompleted    *time.Time `json:"last_completed,omitempty"`

	CreatedFromChat bool `gorm:"default:false" json:"created_from_chat"`
	AISuggested     bool `gorm:"default:false" json:"ai_suggested"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// CompleteToday credits one completion for the calendar day of now in loc.
// It returns false, leaving h untouched, when today was already credited.
func (h *Habit) CompleteToday(now time.Time, loc *time.Location) bool {
	if h.LastCompleted != nil {
		switch DaysBetween(*h.LastCompleted, now, loc) {
		case 0:
			return false
		case 1:
			h.StreakCount++
		default:
			h.StreakCount = 1
		}
	} else {
		h.StreakCount = 1
	}

	completed := now
	h.LastCompleted = &completed
	h.TotalCompletions++
	return true
}

// DaysBetween counts calendar days from a to b, both taken as dates in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// StartOfTomorrow is midnight of the next calendar day in loc.
func StartOfTomorrow(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
