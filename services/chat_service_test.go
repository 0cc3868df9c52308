package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aura-growth/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChat(e *env) *ChatService {
	return NewChatService(e.db, e.clock, e.log, e.ai, NewActionService(e.db, e.clock, e.log))
}

func TestChat_AppliesActionsAndRecordsTurns(t *testing.T) {
	e := newEnv(t, "**Well done**, young one! +1 INT +10 XP")
	c := e.seedCharacter(t, "ayla")
	svc := newChat(e)
	ctx := context.Background()

	reply, err := svc.Chat(ctx, c.ID, "  I finished reading a book  ")
	require.NoError(t, err)
	assert.Equal(t, "Well done young one! +1 INT +10 XP", reply.Response)
	assert.Equal(t, 10, reply.ActionData["xp"])
	assert.True(t, reply.Analysis.LikelyCompletion)
	require.NotNil(t, reply.Suggested)
	assert.Equal(t, 15, reply.Suggested.XP)
	assert.Equal(t, 2, reply.Suggested.Stats[models.StatIntelligence])
	assert.Equal(t, 1, reply.Suggested.Stats[models.StatLuck])
	assert.Equal(t, models.StatIntelligence, reply.Analysis.ActivityType)

	stored := e.reload(t, c)
	assert.Equal(t, 11, stored.Stats[models.StatIntelligence])
	assert.Equal(t, 10, stored.TotalXP)

	history, err := svc.History(ctx, c.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "I finished reading a book", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "stat_update", history[1].TriggeredAction)
	// JSON columns decode numbers as json.Number
	assert.Equal(t, json.Number("10"), history[1].ActionData["xp"])

	require.Len(t, e.ai.prompts, 1)
	assert.Contains(t, e.ai.prompts[0], "ancient, wise sage")
	assert.Contains(t, e.ai.prompts[0], "I finished reading a book")
}

func TestChat_EmptyMessage(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")

	_, err := newChat(e).Chat(context.Background(), c.ID, "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, e.ai.prompts)
}

func TestChat_FallbackReplyMutatesNothing(t *testing.T) {
	e := newEnv(t)
	c := e.seedCharacter(t, "ayla")

	reply, err := newChat(e).Chat(context.Background(), c.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "I'm having trouble connecting right now. Keep pushing forward on your journey!", reply.Response)
	assert.Empty(t, reply.ActionData)
	assert.Nil(t, reply.Suggested)
	assert.Empty(t, e.logs(t, c.ID))
}

func TestHistory_LimitKeepsNewest(t *testing.T) {
	e := newEnv(t, "one", "two")
	c := e.seedCharacter(t, "ayla")
	svc := newChat(e)
	ctx := context.Background()

	_, err := svc.Chat(ctx, c.ID, "first")
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	_, err = svc.Chat(ctx, c.ID, "second")
	require.NoError(t, err)

	history, err := svc.History(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
}

func TestPersonalityPrompt_DefaultsToMentor(t *testing.T) {
	assert.Equal(t, PersonalityPrompt(models.PersonalityMentor), PersonalityPrompt("pirate"))
	assert.Contains(t, PersonalityPrompt(models.PersonalitySensei), "young one")
}
