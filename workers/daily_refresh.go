package workers

import (
	"context"
	"time"

	"aura-growth/services"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MinOpenDailies is the number of open daily quests below which a character
// is topped up.
const MinOpenDailies = 3

// DailyRefresh tops up daily quests for recently active characters.
type DailyRefresh struct {
	Characters   *services.CharacterService
	Quests       *services.QuestService
	Clock        clockwork.Clock
	Log          *zap.Logger
	ActiveWindow time.Duration
	Count        int
}

// Run refreshes every eligible character and returns how many quests it
// created. One character failing does not stop the others.
func (d *DailyRefresh) Run(ctx context.Context) int {
	cutoff := d.Clock.Now().Add(-d.ActiveWindow)
	characters, err := d.Characters.ActiveSince(ctx, cutoff)
	if err != nil {
		d.Log.Error("❌ daily refresh: list characters", zap.Error(err))
		return 0
	}

	created := 0
	for i := range characters {
		if ctx.Err() != nil {
			break
		}
		c := &characters[i]
		open, err := d.Quests.OpenDailyCount(ctx, c)
		if err != nil {
			d.Log.Warn("daily refresh: count quests", zap.String("character_id", c.ID), zap.Error(err))
			continue
		}
		if open >= MinOpenDailies {
			continue
		}
		quests, err := d.Quests.GenerateDailyQuests(ctx, c.ID, d.Count)
		if err != nil {
			d.Log.Warn("daily refresh: generate quests", zap.String("character_id", c.ID), zap.Error(err))
			continue
		}
		created += len(quests)
	}

	d.Log.Info("🔁 daily quests refreshed",
		zap.Int("characters", len(characters)),
		zap.Int("quests_created", created))
	return created
}
