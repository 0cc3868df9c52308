package services

import (
	"context"
	"testing"
	"time"

	"aura-growth/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEffects_Lifecycle(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewStatusEffectService(e.db, e.clock, e.log)
	ctx := context.Background()

	short, err := svc.Create(ctx, c.ID, EffectInput{Name: "Caffeinated", DurationHours: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EffectNeutral, short.EffectType)
	assert.True(t, short.ExpiresAt.Equal(testStart.Add(2*time.Hour)))

	long, err := svc.Create(ctx, c.ID, EffectInput{Name: "Well Rested", EffectType: models.EffectBuff})
	require.NoError(t, err)
	assert.Equal(t, 24, long.DurationHours)

	active, err := svc.ActiveEffects(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Caffeinated", active[0].Name)

	e.clock.Advance(3 * time.Hour)
	active, err = svc.ActiveEffects(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Well Rested", active[0].Name)
	assert.False(t, active[0].IsExpired(e.clock.Now()))
}

func TestStatusEffects_Validation(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewStatusEffectService(e.db, e.clock, e.log)
	ctx := context.Background()

	_, err := svc.Create(ctx, c.ID, EffectInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, c.ID, EffectInput{Name: "x", EffectType: "curse"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, c.ID, EffectInput{Name: "x", Modifiers: map[models.Stat]float64{"wisdom": 5}})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, "ghost", EffectInput{Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusEffects_ExplicitExpiry(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewStatusEffectService(e.db, e.clock, e.log)
	ctx := context.Background()

	at := testStart.Add(90 * time.Minute)
	eff, err := svc.Create(ctx, c.ID, EffectInput{Name: "Focus", ExpiresAt: &at})
	require.NoError(t, err)
	assert.True(t, eff.ExpiresAt.Equal(at))
	assert.Equal(t, 2, eff.DurationHours)

	later := testStart.Add(5 * time.Hour)
	eff, err = svc.Create(ctx, c.ID, EffectInput{Name: "Pinned", DurationHours: 48, ExpiresAt: &later})
	require.NoError(t, err)
	assert.True(t, eff.ExpiresAt.Equal(later))
	assert.Equal(t, 48, eff.DurationHours)

	var stored models.StatusEffect
	require.NoError(t, e.db.Where("id = ?", eff.ID).First(&stored).Error)
	assert.True(t, stored.ExpiresAt.Equal(later))

	past := testStart.Add(-time.Minute)
	_, err = svc.Create(ctx, c.ID, EffectInput{Name: "Stale", ExpiresAt: &past})
	require.ErrorIs(t, err, ErrInvalidInput)
}
