package workers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aura-growth/services"
	"aura-growth/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T, clock clockwork.Clock) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "workers.db") + "?_busy_timeout=5000"
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

type scriptedAI struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scriptedAI) Generate(context.Context, string, int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.replies) == 0 {
		return services.FallbackReply
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r
}

// immediate runs deferred jobs synchronously and records their names.
type immediate struct {
	names []string
}

func (d *immediate) Defer(name string, _ time.Duration, fn func(context.Context)) error {
	d.names = append(d.names, name)
	fn(context.Background())
	return nil
}

type fixture struct {
	db         *gorm.DB
	clock      *clockwork.FakeClock
	ai         *scriptedAI
	quests     *services.QuestService
	characters *services.CharacterService
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testStart)
	db := newTestDB(t, clock)
	ai := &scriptedAI{replies: replies}
	log := zap.NewNop()
	quests := services.NewQuestService(db, clock, log, ai)
	return &fixture{
		db:         db,
		clock:      clock,
		ai:         ai,
		quests:     quests,
		characters: services.NewCharacterService(db, clock, log, ai, quests),
	}
}

const threeQuestReply = `[
  {"title": "Stretch", "difficulty": "easy", "reward_xp": 10, "reward_endurance": 1},
  {"title": "Call a Friend", "difficulty": "easy", "reward_xp": 12, "reward_charisma": 2},
  {"title": "Study Hour", "difficulty": "medium", "reward_xp": 20, "reward_intelligence": 2}
]`

const fiveQuestReply = `[
  {"title": "Stretch", "difficulty": "easy", "reward_xp": 10},
  {"title": "Call a Friend", "difficulty": "easy", "reward_xp": 12},
  {"title": "Study Hour", "difficulty": "medium", "reward_xp": 20},
  {"title": "Hill Sprints", "difficulty": "hard", "reward_xp": 30},
  {"title": "Journal", "difficulty": "easy", "reward_xp": 10}
]`
