package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aura-growth/models"
	"aura-growth/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// newTestDB opens a file-backed SQLite database with the full schema. A
// single connection keeps concurrent transactions serialized.
func newTestDB(t *testing.T, clock clockwork.Clock) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "aura.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return clock.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, utils.Migrate(db))
	return db
}

// fakeAI replays canned replies in order, then falls back.
type fakeAI struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (f *fakeAI) Generate(_ context.Context, prompt string, _ int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.replies) == 0 {
		return FallbackReply
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r
}

type env struct {
	db    *gorm.DB
	clock *clockwork.FakeClock
	ai    *fakeAI
	log   *zap.Logger
}

func newEnv(t *testing.T, replies ...string) *env {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testStart)
	return &env{
		db:    newTestDB(t, clock),
		clock: clock,
		ai:    &fakeAI{replies: replies},
		log:   zap.NewNop(),
	}
}

func (e *env) seedCharacter(t *testing.T, name string) *models.Character {
	t.Helper()
	c := models.NewCharacter("user-"+name, name)
	c.LastActiveAt = e.clock.Now()
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *env) seedQuest(t *testing.T, c *models.Character, q models.Quest) *models.Quest {
	t.Helper()
	q.CharacterID = c.ID
	if q.Title == "" {
		q.Title = "Read a chapter"
	}
	if q.QuestType == "" {
		q.QuestType = models.QuestTypeDaily
	}
	if q.Difficulty == "" {
		q.Difficulty = models.DifficultyEasy
	}
	require.NoError(t, e.db.Create(&q).Error)
	return &q
}

func (e *env) reload(t *testing.T, c *models.Character) *models.Character {
	t.Helper()
	var out models.Character
	require.NoError(t, e.db.Where("id = ?", c.ID).First(&out).Error)
	return &out
}

func (e *env) logs(t *testing.T, characterID string) []models.LogEntry {
	t.Helper()
	var out []models.LogEntry
	require.NoError(t, e.db.Where("character_id = ?", characterID).Order("created_at ASC").Find(&out).Error)
	return out
}
