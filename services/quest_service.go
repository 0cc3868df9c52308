package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultDailyQuestCount = 5
	defaultQuestXP         = 15
	defaultQuestTitle      = "Daily Challenge"
	defaultQuestDesc       = "Complete this challenge to grow stronger."
	questGenerationTokens  = 1000
)

// QuestDraft is a quest before it is bound to a character and persisted.
type QuestDraft struct {
	Title       string
	Description string
	Difficulty  models.Difficulty
	RewardXP    int
	RewardStats models.Stats
	FromAI      bool
}

// fallbackQuests is served whenever AI generation fails.
var fallbackQuests = []QuestDraft{
	{
		Title:       "Knowledge Seeker",
		Description: "Read for 30 minutes or learn something new today.",
		Difficulty:  models.DifficultyEasy,
		RewardXP:    15,
		RewardStats: models.Stats{models.StatIntelligence: 2, models.StatEndurance: 1},
	},
	{
		Title:       "Physical Challenge",
		Description: "Do some form of exercise for at least 20 minutes.",
		Difficulty:  models.DifficultyMedium,
		RewardXP:    20,
		RewardStats: models.Stats{models.StatStrength: 2, models.StatEndurance: 2},
	},
	{
		Title:       "Social Connection",
		Description: "Have a meaningful conversation or help someone today.",
		Difficulty:  models.DifficultyEasy,
		RewardXP:    12,
		RewardStats: models.Stats{models.StatCharisma: 2, models.StatLuck: 1},
	},
	{
		Title:       "Mindful Moment",
		Description: "Practice mindfulness, meditation, or reflection for 10 minutes.",
		Difficulty:  models.DifficultyEasy,
		RewardXP:    10,
		RewardStats: models.Stats{models.StatEndurance: 1, models.StatIntelligence: 1},
	},
	{
		Title:       "Creative Expression",
		Description: "Create something - write, draw, code, or make something with your hands.",
		Difficulty:  models.DifficultyMedium,
		RewardXP:    18,
		RewardStats: models.Stats{models.StatCharisma: 1, models.StatIntelligence: 1, models.StatLuck: 1},
	},
}

// FallbackQuests returns a fresh copy of the canned quest table.
func FallbackQuests() []QuestDraft {
	out := make([]QuestDraft, len(fallbackQuests))
	for i, q := range fallbackQuests {
		q.RewardStats = q.RewardStats.Normalized()
		out[i] = q
	}
	return out
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseQuestDrafts turns an AI reply into exactly count drafts. ok is false
// when the reply holds no usable JSON array; callers then use FallbackQuests.
func ParseQuestDrafts(reply string, count int) (drafts []QuestDraft, ok bool) {
	if count <= 0 {
		count = DefaultDailyQuestCount
	}
	raw := jsonArrayPattern.FindString(reply)
	if raw == "" {
		return nil, false
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}

	for _, item := range items {
		if len(drafts) == count {
			break
		}
		drafts = append(drafts, draftFromMap(item))
	}

	// short replies are topped up from the canned table
	fallback := FallbackQuests()
	for i := 0; len(drafts) < count; i++ {
		drafts = append(drafts, fallback[i%len(fallback)])
	}
	return drafts, true
}

func draftFromMap(m map[string]any) QuestDraft {
	d := QuestDraft{
		Title:       stringField(m, "title", defaultQuestTitle),
		Description: stringField(m, "description", defaultQuestDesc),
		Difficulty:  models.Difficulty(strings.ToLower(stringField(m, "difficulty", string(models.DifficultyMedium)))),
		RewardXP:    min(intField(m, "reward_xp", defaultQuestXP), models.MaxXPGrant),
		RewardStats: models.Stats{},
		FromAI:      true,
	}
	if !d.Difficulty.IsValid() {
		d.Difficulty = models.DifficultyMedium
	}
	for _, st := range models.AllStats {
		d.RewardStats[st] = min(intField(m, "reward_"+string(st), 0), models.MaxStatGrant)
	}
	return d
}

func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

// intField reads a non-negative integer, substituting def for missing or
// non-numeric values. Callers clamp the upper end.
func intField(m map[string]any, key string, def int) int {
	var n int
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		n = int(math.Min(v, math.MaxInt32))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n < 0 {
		return 0
	}
	return n
}

// QuestService generates and lists quests.
type QuestService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	Log   *zap.Logger
	AI    TextGenerator
}

func NewQuestService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger, ai TextGenerator) *QuestService {
	return &QuestService{DB: db, Clock: clock, Log: log, AI: ai}
}

// GenerateDailyQuests creates count daily quests due tomorrow. When the AI
// reply cannot be used the five canned quests are created instead,
// whatever count was asked for.
func (s *QuestService) GenerateDailyQuests(ctx context.Context, characterID string, count int) ([]models.Quest, error) {
	c, drafts, err := s.draftsFor(ctx, characterID, count)
	if err != nil {
		return nil, err
	}

	var quests []models.Quest
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		quests, err = s.persistDrafts(tx, c, drafts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quests, nil
}

// ReplaceFallbackQuests swaps the character's open canned daily quests for a
// freshly generated AI set.
func (s *QuestService) ReplaceFallbackQuests(ctx context.Context, characterID string) ([]models.Quest, error) {
	c, drafts, err := s.draftsFor(ctx, characterID, DefaultDailyQuestCount)
	if err != nil {
		return nil, err
	}

	var quests []models.Quest
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ? AND completed = ? AND generated_by_ai = ? AND quest_type = ?",
			c.ID, false, false, models.QuestTypeDaily).
			Delete(&models.Quest{}).Error; err != nil {
			return fmt.Errorf("delete fallback quests: %w", err)
		}
		var err error
		quests, err = s.persistDrafts(tx, c, drafts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quests, nil
}

func (s *QuestService) draftsFor(ctx context.Context, characterID string, count int) (*models.Character, []QuestDraft, error) {
	if count <= 0 {
		count = DefaultDailyQuestCount
	}
	var c models.Character
	if err := s.DB.WithContext(ctx).Where("id = ?", characterID).First(&c).Error; err != nil {
		return nil, nil, notFound(err, "character", characterID)
	}

	prompt, err := s.questPrompt(ctx, &c, count)
	if err != nil {
		return nil, nil, err
	}

	reply := s.AI.Generate(ctx, prompt, questGenerationTokens)
	drafts, ok := ParseQuestDrafts(reply, count)
	if !ok {
		s.Log.Warn("quest generation fell back to canned quests",
			zap.String("character_id", c.ID),
			zap.Int("requested", count))
		drafts = FallbackQuests()
	}
	return &c, drafts, nil
}

func (s *QuestService) persistDrafts(tx *gorm.DB, c *models.Character, drafts []QuestDraft) ([]models.Quest, error) {
	due := models.StartOfTomorrow(s.Clock.Now(), c.Location()).UTC()
	quests := make([]models.Quest, 0, len(drafts))
	for _, d := range drafts {
		dueDate := due
		quests = append(quests, models.Quest{
			CharacterID:   c.ID,
			Title:         d.Title,
			Description:   d.Description,
			QuestType:     models.QuestTypeDaily,
			Difficulty:    d.Difficulty,
			RewardXP:      d.RewardXP,
			RewardStats:   d.RewardStats.Normalized(),
			DueDate:       &dueDate,
			GeneratedByAI: d.FromAI,
		})
	}
	if len(quests) == 0 {
		return quests, nil
	}
	if err := tx.Create(&quests).Error; err != nil {
		return nil, fmt.Errorf("create quests: %w", err)
	}
	return quests, nil
}

func (s *QuestService) questPrompt(ctx context.Context, c *models.Character, count int) (string, error) {
	var logs []models.LogEntry
	if err := s.DB.WithContext(ctx).
		Where("character_id = ?", c.ID).
		Order("created_at DESC").Limit(3).
		Find(&logs).Error; err != nil {
		return "", fmt.Errorf("load recent activity: %w", err)
	}
	var done []models.Quest
	if err := s.DB.WithContext(ctx).
		Where("character_id = ? AND completed = ?", c.ID, true).
		Order("completed_at DESC").Limit(3).
		Find(&done).Error; err != nil {
		return "", fmt.Errorf("load completed quests: %w", err)
	}

	activity := make([]string, 0, len(logs))
	for _, l := range logs {
		activity = append(activity, l.ActionDescription)
	}
	completions := make([]string, 0, len(done))
	for _, q := range done {
		completions = append(completions, q.Title)
	}

	st := c.Stats.Normalized()
	return fmt.Sprintf(`Generate %d daily quests for %s, Level %d %s.

Current stats: STR:%d INT:%d CHR:%d END:%d LCK:%d

Recent activity: %s
Recent completions: %s

Create varied quests that:
1. Match their current level and interests
2. Focus on different stats (STR for physical, INT for learning, etc.)
3. Are achievable in one day
4. Provide appropriate XP rewards (10-50 based on difficulty)

Return JSON array:
[
    {
        "title": "Quest Title",
        "description": "Detailed description",
        "difficulty": "easy|medium|hard",
        "reward_xp": 15,
        "reward_strength": 0,
        "reward_intelligence": 2,
        "reward_charisma": 0,
        "reward_endurance": 1,
        "reward_luck": 0
    }
]`,
		count, c.Name, c.Level, c.CharacterClass,
		st[models.StatStrength], st[models.StatIntelligence], st[models.StatCharisma],
		st[models.StatEndurance], st[models.StatLuck],
		strings.Join(activity, "; "), strings.Join(completions, "; ")), nil
}

// QuestFilter narrows ListQuests.
type QuestFilter struct {
	Completed *bool
	Type      models.QuestType
	Limit     int
}

func (s *QuestService) ListQuests(ctx context.Context, characterID string, f QuestFilter) ([]models.Quest, error) {
	q := s.DB.WithContext(ctx).Where("character_id = ?", characterID)
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	if f.Type != "" {
		q = q.Where("quest_type = ?", f.Type)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var quests []models.Quest
	if err := q.Order("created_at DESC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return quests, nil
}

// GetQuest loads a quest owned by characterID.
func (s *QuestService) GetQuest(ctx context.Context, characterID, questID string) (*models.Quest, error) {
	var q models.Quest
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND character_id = ?", questID, characterID).
		First(&q).Error; err != nil {
		return nil, notFound(err, "quest", questID)
	}
	return &q, nil
}

// OpenDailyCount counts uncompleted daily quests due today or later.
func (s *QuestService) OpenDailyCount(ctx context.Context, c *models.Character) (int64, error) {
	now := s.Clock.Now()
	loc := c.Location()
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()

	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Quest{}).
		Where("character_id = ? AND quest_type = ? AND completed = ? AND due_date >= ?",
			c.ID, models.QuestTypeDaily, false, today).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count open daily quests: %w", err)
	}
	return n, nil
}
