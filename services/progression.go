package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressionService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	Log   *zap.Logger
}

func NewProgressionService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger) *ProgressionService {
	return &ProgressionService{DB: db, Clock: clock, Log: log}
}

// RewardResult is what one application of a reward vector did to a character.
type RewardResult struct {
	XPGained    int            `json:"xp_gained"`
	StatGains   models.Stats   `json:"stat_gains"`
	LevelUp     models.LevelUp `json:"-"`
	StatsBefore models.Stats   `json:"-"`
	StatsAfter  models.Stats   `json:"-"`
}

// lockCharacter loads the character row for update. Concurrent writers to the
// same character serialize here; other characters are unaffected.
func lockCharacter(tx *gorm.DB, characterID string) (*models.Character, error) {
	var c models.Character
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", characterID).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "character", characterID)
	}
	if c.Stats == nil {
		c.Stats = models.UniformStats(models.DefaultStatValue)
	}
	return &c, nil
}

// applyReward is the single mutation primitive for XP and flat stat gains.
// XP runs through the level-up cascade; stats are added directly. The
// character is not saved; callers persist it once.
func applyReward(c *models.Character, xp int, stats models.Stats) (*RewardResult, error) {
	res := &RewardResult{StatsBefore: c.Stats.Clone()}
	if err := c.Stats.CheckGrant(stats); err != nil {
		return nil, err
	}

	lu, err := models.AddExperience(c, xp)
	if err != nil {
		return nil, err
	}
	c.Stats.Add(stats)

	res.XPGained = xp
	res.StatGains = stats.Normalized()
	res.LevelUp = lu
	res.StatsAfter = c.Stats.Clone()
	return res, nil
}

func saveCharacter(tx *gorm.DB, c *models.Character) error {
	if err := tx.Save(c).Error; err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	return nil
}

func writeLog(tx *gorm.DB, characterID string, action models.ActionType, description string, res *RewardResult) error {
	entry := &models.LogEntry{
		CharacterID:       characterID,
		ActionType:        action,
		ActionDescription: description,
	}
	if res != nil {
		entry.StatsBefore = res.StatsBefore
		entry.StatsAfter = res.StatsAfter
		entry.XPGained = res.XPGained
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}

// describeGains renders "+2 strength, +1 luck" in canonical stat order.
func describeGains(stats models.Stats) string {
	var parts []string
	for _, st := range models.AllStats {
		if v := stats.Get(st); v != 0 {
			parts = append(parts, fmt.Sprintf("%+d %s", v, st))
		}
	}
	return strings.Join(parts, ", ")
}

// AwardXP grants XP to a character outside of quest completion (admin grants,
// onboarding bonuses) and records a stat_change entry.
func (s *ProgressionService) AwardXP(ctx context.Context, characterID string, xp int, reason string) (*models.Character, *RewardResult, error) {
	var (
		updated *models.Character
		result  *RewardResult
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockCharacter(tx, characterID)
		if err != nil {
			return err
		}
		res, err := applyReward(c, xp, nil)
		if err != nil {
			return err
		}
		if err := saveCharacter(tx, c); err != nil {
			return err
		}
		desc := fmt.Sprintf("+%d XP (%s)", xp, reason)
		if err := writeLog(tx, c.ID, models.ActionStatChange, desc, res); err != nil {
			return err
		}
		updated, result = c, res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.Log.Info("🎮 XP awarded",
		zap.String("character_id", characterID),
		zap.Int("xp", xp),
		zap.Int("level", updated.Level),
		zap.Int("levels_gained", result.LevelUp.LevelsGained),
		zap.String("reason", reason))
	return updated, result, nil
}

// ProgressSnapshot is the compact stat view polled by the dashboard.
type ProgressSnapshot struct {
	Level         int          `json:"level"`
	TotalXP       int          `json:"total_xp"`
	XPToNextLevel int          `json:"xp_to_next_level"`
	XPProgress    float64      `json:"xp_progress"`
	Stats         models.Stats `json:"stats"`
	Effective     models.Stats `json:"effective_stats"`
	TotalStats    int          `json:"total_stats"`
}

// Snapshot returns the character's progression with active status effects applied.
func (s *ProgressionService) Snapshot(ctx context.Context, characterID string) (*ProgressSnapshot, error) {
	var c models.Character
	if err := s.DB.WithContext(ctx).Where("id = ?", characterID).First(&c).Error; err != nil {
		return nil, notFound(err, "character", characterID)
	}

	var effects []models.StatusEffect
	now := s.Clock.Now()
	if err := s.DB.WithContext(ctx).
		Where("character_id = ? AND active = ? AND expires_at >= ?", characterID, true, now).
		Find(&effects).Error; err != nil {
		return nil, fmt.Errorf("load status effects: %w", err)
	}

	stats := c.Stats.Normalized()
	return &ProgressSnapshot{
		Level:         c.Level,
		TotalXP:       c.TotalXP,
		XPToNextLevel: c.XPToNextLevel,
		XPProgress:    c.XPProgress(),
		Stats:         stats,
		Effective:     models.EffectiveStats(stats, effects, now),
		TotalStats:    stats.Total(),
	}, nil
}

// ActivityReport summarises recent progress for the stats page.
type ActivityReport struct {
	RecentLogs      []models.LogEntry `json:"recent_logs"`
	TotalQuests     int64             `json:"total_quests"`
	CompletedQuests int64             `json:"completed_quests"`
	CompletionRate  float64           `json:"completion_rate"`
}

// Activity returns the latest log entries, newest first, and the quest
// completion rate as a percentage.
func (s *ProgressionService) Activity(ctx context.Context, characterID string, limit int) (*ActivityReport, error) {
	if limit <= 0 {
		limit = 20
	}
	db := s.DB.WithContext(ctx)
	r := &ActivityReport{}
	if err := db.Where("character_id = ?", characterID).
		Order("created_at DESC").Limit(limit).
		Find(&r.RecentLogs).Error; err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}
	if err := db.Model(&models.Quest{}).Where("character_id = ?", characterID).Count(&r.TotalQuests).Error; err != nil {
		return nil, fmt.Errorf("count quests: %w", err)
	}
	if err := db.Model(&models.Quest{}).Where("character_id = ? AND completed = ?", characterID, true).
		Count(&r.CompletedQuests).Error; err != nil {
		return nil, fmt.Errorf("count completed quests: %w", err)
	}
	if r.TotalQuests > 0 {
		r.CompletionRate = float64(r.CompletedQuests) / float64(r.TotalQuests) * 100
	}
	return r, nil
}

// LogsAfter returns the character's log entries created after cursor, oldest
// first. A zero cursor starts from the most recent entry so a new subscriber
// only sees what happens next.
func (s *ProgressionService) LogsAfter(ctx context.Context, characterID string, cursor time.Time) ([]models.LogEntry, time.Time, error) {
	db := s.DB.WithContext(ctx)
	if cursor.IsZero() {
		var latest models.LogEntry
		err := db.Where("character_id = ?", characterID).Order("created_at DESC").First(&latest).Error
		switch {
		case err == nil:
			return nil, latest.CreatedAt, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, s.Clock.Now(), nil
		default:
			return nil, cursor, fmt.Errorf("load latest log entry: %w", err)
		}
	}

	var entries []models.LogEntry
	if err := db.Where("character_id = ? AND created_at > ?", characterID, cursor).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, cursor, fmt.Errorf("load log entries: %w", err)
	}
	if len(entries) > 0 {
		cursor = entries[len(entries)-1].CreatedAt
	}
	return entries, cursor, nil
}
