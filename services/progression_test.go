package services

import (
	"context"
	"math"
	"testing"
	"time"

	"aura-growth/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardXP_CascadesLevels(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewProgressionService(e.db, e.clock, e.log)

	updated, res, err := svc.AwardXP(context.Background(), c.ID, 25000, "test")
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Level)
	assert.Equal(t, 3000, updated.TotalXP)
	assert.Equal(t, 14400, updated.XPToNextLevel)
	assert.Equal(t, 2, res.LevelUp.LevelsGained)
	for _, st := range models.AllStats {
		assert.Equal(t, 12, updated.Stats[st], st)
	}

	stored := e.reload(t, c)
	assert.Equal(t, 3, stored.Level)
	assert.Equal(t, 3000, stored.TotalXP)

	logs := e.logs(t, c.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionStatChange, logs[0].ActionType)
	assert.Equal(t, 25000, logs[0].XPGained)
	assert.Equal(t, 10, logs[0].StatsBefore[models.StatLuck])
	assert.Equal(t, 12, logs[0].StatsAfter[models.StatLuck])
}

func TestAwardXP_RejectsNegative(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewProgressionService(e.db, e.clock, e.log)

	_, _, err := svc.AwardXP(context.Background(), c.ID, -5, "oops")
	require.ErrorIs(t, err, models.ErrNegativeXP)

	stored := e.reload(t, c)
	assert.Equal(t, 0, stored.TotalXP)
	assert.Empty(t, e.logs(t, c.ID))
}

func TestAwardXP_RejectsOversizedGrant(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewProgressionService(e.db, e.clock, e.log)

	_, _, err := svc.AwardXP(context.Background(), c.ID, math.MaxInt-5, "overflow")
	require.ErrorIs(t, err, models.ErrRewardTooLarge)

	stored := e.reload(t, c)
	assert.Equal(t, 0, stored.TotalXP)
	assert.Equal(t, 1, stored.Level)
	assert.Empty(t, e.logs(t, c.ID))
}

func TestApplyReward_RejectsStatOverflowBeforeMutating(t *testing.T) {
	c := models.NewCharacter("u", "ayla")
	c.Stats[models.StatLuck] = math.MaxInt

	_, err := applyReward(c, 50, models.Stats{models.StatLuck: 1})
	require.ErrorIs(t, err, models.ErrRewardTooLarge)
	assert.Equal(t, 0, c.TotalXP)
	assert.Equal(t, math.MaxInt, c.Stats[models.StatLuck])
}

func TestAwardXP_MissingCharacter(t *testing.T) {
	e := newEnv(t)
	svc := NewProgressionService(e.db, e.clock, e.log)

	_, _, err := svc.AwardXP(context.Background(), "nope", 10, "test")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshot_AppliesActiveEffects(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	effects := NewStatusEffectService(e.db, e.clock, e.log)
	svc := NewProgressionService(e.db, e.clock, e.log)
	ctx := context.Background()

	_, err := effects.Create(ctx, c.ID, EffectInput{
		Name:       "Focus",
		EffectType: models.EffectBuff,
		Modifiers:  map[models.Stat]float64{models.StatStrength: 10},
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Stats[models.StatStrength])
	assert.Equal(t, 11, snap.Effective[models.StatStrength])
	assert.Equal(t, 10, snap.Effective[models.StatLuck])
	assert.Equal(t, 50, snap.TotalStats)

	e.clock.Advance(25 * time.Hour)
	snap, err = svc.Snapshot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Effective[models.StatStrength])
}

func TestActivity_CompletionRate(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	e.seedQuest(t, c, models.Quest{Title: "one"})
	e.seedQuest(t, c, models.Quest{Title: "two"})
	q := e.seedQuest(t, c, models.Quest{Title: "three", RewardXP: 5})
	e.seedQuest(t, c, models.Quest{Title: "four"})

	_, err := NewRewardService(e.db, e.clock, e.log).CompleteQuest(context.Background(), q.ID)
	require.NoError(t, err)

	report, err := NewProgressionService(e.db, e.clock, e.log).Activity(context.Background(), c.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, report.TotalQuests)
	assert.EqualValues(t, 1, report.CompletedQuests)
	assert.InDelta(t, 25.0, report.CompletionRate, 0.001)
	require.Len(t, report.RecentLogs, 1)
}

func TestLogsAfter_StartsFromLatest(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewProgressionService(e.db, e.clock, e.log)
	ctx := context.Background()

	_, _, err := svc.AwardXP(ctx, c.ID, 5, "before subscribe")
	require.NoError(t, err)

	entries, cursor, err := svc.LogsAfter(ctx, c.ID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	e.clock.Advance(time.Second)
	_, _, err = svc.AwardXP(ctx, c.ID, 7, "after subscribe")
	require.NoError(t, err)

	entries, next, err := svc.LogsAfter(ctx, c.ID, cursor)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].XPGained)
	assert.True(t, next.After(cursor))
}
