package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StatusEffectService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	Log   *zap.Logger
}

func NewStatusEffectService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger) *StatusEffectService {
	return &StatusEffectService{DB: db, Clock: clock, Log: log}
}

type EffectInput struct {
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	EffectType    models.EffectType       `json:"effect_type"`
	DurationHours int                     `json:"duration_hours"`
	ExpiresAt     *time.Time              `json:"expires_at"`
	Modifiers     map[models.Stat]float64 `json:"modifiers"`
}

// Create applies a new effect to the character. An explicit ExpiresAt wins;
// otherwise expiry is DurationHours (default 24) from the service clock.
// With ExpiresAt and no duration, the duration is the hours until expiry,
// rounded up.
func (s *StatusEffectService) Create(ctx context.Context, characterID string, in EffectInput) (*models.StatusEffect, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("effect name is required: %w", ErrInvalidInput)
	}
	kind := in.EffectType
	if kind == "" {
		kind = models.EffectNeutral
	}
	switch kind {
	case models.EffectBuff, models.EffectDebuff, models.EffectNeutral:
	default:
		return nil, fmt.Errorf("effect type %q: %w", in.EffectType, ErrInvalidInput)
	}
	if in.DurationHours < 0 {
		return nil, fmt.Errorf("negative duration: %w", ErrInvalidInput)
	}
	now := s.Clock.Now()
	duration := in.DurationHours
	var expiresAt time.Time
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(now) {
			return nil, fmt.Errorf("expires_at must be in the future: %w", ErrInvalidInput)
		}
		expiresAt = in.ExpiresAt.UTC()
		if duration == 0 {
			duration = int(math.Ceil(expiresAt.Sub(now).Hours()))
		}
	}
	mods := make(map[models.Stat]float64, len(in.Modifiers))
	for st, v := range in.Modifiers {
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown stat %q: %w", st, ErrInvalidInput)
		}
		mods[st] = v
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Character{}).Where("id = ?", characterID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check character: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("character %s: %w", characterID, ErrNotFound)
	}

	e := &models.StatusEffect{
		CharacterID:   characterID,
		Name:          name,
		Description:   in.Description,
		EffectType:    kind,
		DurationHours: duration,
		ExpiresAt:     expiresAt,
		Modifiers:     mods,
		Active:        true,
	}
	e.SetExpiry(now)
	if err := s.DB.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("create status effect: %w", err)
	}
	s.Log.Info("✨ status effect applied",
		zap.String("character_id", characterID),
		zap.String("effect", e.Name),
		zap.Time("expires_at", e.ExpiresAt))
	return e, nil
}

// ActiveEffects lists the effects that are active and not yet past expiry.
func (s *StatusEffectService) ActiveEffects(ctx context.Context, characterID string) ([]models.StatusEffect, error) {
	var effects []models.StatusEffect
	if err := s.DB.WithContext(ctx).
		Where("character_id = ? AND active = ? AND expires_at >= ?", characterID, true, s.Clock.Now()).
		Order("expires_at ASC").
		Find(&effects).Error; err != nil {
		return nil, fmt.Errorf("load status effects: %w", err)
	}
	return effects, nil
}
