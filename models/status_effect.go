package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EffectType string

const (
	EffectBuff    EffectType = "buff"
	EffectDebuff  EffectType = "debuff"
	EffectNeutral EffectType = "neutral"
)

const DefaultEffectDurationHours = 24

// StatusEffect is a time-boxed stat modifier. Expiry is derived from ExpiresAt
// on read; nothing sweeps expired rows.
type StatusEffect struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	CharacterID   string     `gorm:"index;not null;size:36" json:"character_id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	EffectType    EffectType `gorm:"size:10;default:neutral" json:"effect_type"`
	DurationHours int        `gorm:"default:24" json:"duration_hours"`
	ExpiresAt     time.Time  `gorm:"index" json:"expires_at"`

	// Modifiers are percentages, e.g. {"strength": 10} is +10% strength.
	Modifiers map[Stat]float64 `gorm:"serializer:json;type:text" json:"modifiers"`
	Active    bool             `json:"active"`

	CreatedAt time.Time `json:"created_at"`
}

// SetExpiry fixes ExpiresAt from DurationHours when it was not supplied.
func (e *StatusEffect) SetExpiry(now time.Time) {
	if e.DurationHours <= 0 {
		e.DurationHours = DefaultEffectDurationHours
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = now.Add(time.Duration(e.DurationHours) * time.Hour)
	}
}

func (e *StatusEffect) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// InEffect reports whether the effect should modify stats at now.
func (e *StatusEffect) InEffect(now time.Time) bool {
	return e.Active && !e.IsExpired(now)
}

func (e *StatusEffect) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := tx.NowFunc()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.SetExpiry(now)
	return nil
}

// EffectiveStats applies the percentage modifiers of every effect in force at
// now to base. Results are truncated toward zero.
func EffectiveStats(base Stats, effects []StatusEffect, now time.Time) Stats {
	pct := make(map[Stat]float64, len(AllStats))
	for i := range effects {
		if !effects[i].InEffect(now) {
			continue
		}
		for st, m := range effects[i].Modifiers {
			pct[st] += m
		}
	}

	out := base.Clone()
	for _, st := range AllStats {
		if pct[st] == 0 {
			continue
		}
		out[st] = int(float64(out[st]) * (1 + pct[st]/100))
	}
	return out
}
