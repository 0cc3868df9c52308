package services

import (
	"context"
	"testing"

	"aura-growth/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAIAction_StatAndXPMarkers(t *testing.T) {
	p := ParseAIAction("You gained +2 STR and +15 XP!")
	assert.Equal(t, models.Stats{models.StatStrength: 2}, p.StatGains)
	assert.Equal(t, 15, p.XP)
	assert.Empty(t, p.HabitName)
	assert.Empty(t, p.QuestTitle)
	assert.True(t, p.HasMutations())
}

func TestParseAIAction_FirstMarkerWins(t *testing.T) {
	p := ParseAIAction("+1 int for reading, and another +3 INT later. +5 exp")
	assert.Equal(t, 1, p.StatGains[models.StatIntelligence])
	assert.Equal(t, 5, p.XP)
}

func TestParseAIAction_HabitAndQuest(t *testing.T) {
	p := ParseAIAction("Let's start a habit called \"drink water\".\nTry this challenge: \"read 10 pages\"")
	assert.Equal(t, "Drink Water", p.HabitName)
	assert.Equal(t, "Read 10 Pages", p.QuestTitle)
}

func TestParseAIAction_JSONObject(t *testing.T) {
	p := ParseAIAction(`Sure! {"mood": "proud", "streak": 3} keep it up`)
	assert.Equal(t, "proud", p.JSON["mood"])
	assert.Equal(t, float64(3), p.JSON["streak"])
	assert.False(t, p.HasMutations())
}

func TestParseAIAction_Nothing(t *testing.T) {
	p := ParseAIAction("Keep going, hero.")
	assert.False(t, p.HasMutations())
	assert.Nil(t, p.JSON)
}

func TestParseAIAction_IgnoresOversizedMarkers(t *testing.T) {
	p := ParseAIAction("+9223372036854775807 XP and +9223372036854775807 STR, +1001 LCK")
	assert.Zero(t, p.XP)
	assert.Empty(t, p.StatGains)
	assert.False(t, p.HasMutations())

	p = ParseAIAction("+1000 LCK +1000000 XP")
	assert.Equal(t, models.MaxStatGrant, p.StatGains[models.StatLuck])
	assert.Equal(t, models.MaxXPGrant, p.XP)
}

func TestApplyAIAction_OversizedMarkersChangeNothing(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewActionService(e.db, e.clock, e.log)

	got := svc.ApplyAIAction(context.Background(), c.ID, "+9223372036854775807 XP and +9223372036854775807 STR")
	assert.Empty(t, got)

	stored := e.reload(t, c)
	assert.Equal(t, 10, stored.Stats[models.StatStrength])
	assert.Equal(t, 0, stored.TotalXP)
	assert.Empty(t, e.logs(t, c.ID))
}

func TestApplyAIAction_AppliesRewards(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewActionService(e.db, e.clock, e.log)

	got := svc.ApplyAIAction(context.Background(), c.ID, "You gained +2 STR and +15 XP!")
	assert.Equal(t, map[string]any{
		"stat_gains": map[string]int{"strength": 2},
		"xp":         15,
	}, got)

	stored := e.reload(t, c)
	assert.Equal(t, 12, stored.Stats[models.StatStrength])
	assert.Equal(t, 15, stored.TotalXP)

	logs := e.logs(t, c.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionChatInteraction, logs[0].ActionType)
	assert.Equal(t, "AI interaction: +2 strength +15 XP", logs[0].ActionDescription)
	assert.Equal(t, 15, logs[0].XPGained)
}

func TestApplyAIAction_CreatesHabitAndQuest(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	svc := NewActionService(e.db, e.clock, e.log)
	text := "Let's start a habit called \"drink water\".\nTry this challenge: \"read 10 pages\""

	got := svc.ApplyAIAction(context.Background(), c.ID, text)
	assert.Equal(t, "Drink Water", got["habit_created"])
	assert.Equal(t, "Read 10 Pages", got["quest_created"])

	var habits []models.Habit
	require.NoError(t, e.db.Where("character_id = ?", c.ID).Find(&habits).Error)
	require.Len(t, habits, 1)
	assert.True(t, habits[0].Active)
	assert.True(t, habits[0].CreatedFromChat)
	assert.True(t, habits[0].AISuggested)

	var quests []models.Quest
	require.NoError(t, e.db.Where("character_id = ?", c.ID).Find(&quests).Error)
	require.Len(t, quests, 1)
	assert.Equal(t, models.QuestTypeHabit, quests[0].QuestType)
	assert.Equal(t, models.DifficultyMedium, quests[0].Difficulty)
	assert.Equal(t, 15, quests[0].RewardXP)
	assert.Equal(t, 1, quests[0].RewardStats[models.StatIntelligence])
	assert.True(t, quests[0].GeneratedByAI)

	// a second suggestion of the same habit is not duplicated; the quest is
	again := svc.ApplyAIAction(context.Background(), c.ID, text)
	assert.NotContains(t, again, "habit_created")
	assert.Equal(t, "Read 10 Pages", again["quest_created"])

	var habitCount, questCount int64
	require.NoError(t, e.db.Model(&models.Habit{}).Where("character_id = ?", c.ID).Count(&habitCount).Error)
	require.NoError(t, e.db.Model(&models.Quest{}).Where("character_id = ?", c.ID).Count(&questCount).Error)
	assert.EqualValues(t, 1, habitCount)
	assert.EqualValues(t, 2, questCount)
	assert.Len(t, e.logs(t, c.ID), 2)
}

func TestApplyAIAction_SimilarHabitMatchesPrefix(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")
	seedHabit(t, e, c, "Morning Meditation Practice")
	svc := NewActionService(e.db, e.clock, e.log)

	got := svc.ApplyAIAction(context.Background(), c.ID, `add a habit: "morning meditation"`)
	assert.NotContains(t, got, "habit_created")
}

func TestApplyAIAction_FailureKeepsJSONKeys(t *testing.T) {
	e := newEnv(t)
	svc := NewActionService(e.db, e.clock, e.log)

	got := svc.ApplyAIAction(context.Background(), "ghost", `{"mood": "happy"} +2 STR`)
	assert.Equal(t, map[string]any{"mood": "happy"}, got)
}

func TestCleanAIResponse(t *testing.T) {
	raw := "Great job! **Keep going**\n```json\n{\"a\": 1}\n```\nSee you"
	assert.Equal(t, "Great job! Keep going\n\nSee you", CleanAIResponse(raw))

	assert.Equal(t, "Nice work", CleanAIResponse(`Nice work {"xp": 10}`))
	assert.Equal(t, "", CleanAIResponse("   "))
}
