package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"aura-growth/models"
	"aura-growth/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	jsonObjectPattern = regexp.MustCompile(`\{[^}]*\}`)
	xpPattern         = regexp.MustCompile(`\+(\d+)\s+(?:xp|exp)`)
	statPatterns      = buildStatPatterns()

	// first match wins, in order
	habitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`habit.*?[":]\s*"([^"]+)"`),
		regexp.MustCompile(`habit.*?called\s+"([^"]+)"`),
		regexp.MustCompile(`mark\s+"([^"]+)"\s+in.*?quest`),
		regexp.MustCompile(`add.*?habit.*?[":]\s*"([^"]+)"`),
	}
	questPatterns = []*regexp.Regexp{
		regexp.MustCompile(`quest.*?[":]\s*"([^"]+)"`),
		regexp.MustCompile(`challenge.*?[":]\s*"([^"]+)"`),
	}
)

func buildStatPatterns() map[models.Stat]*regexp.Regexp {
	out := make(map[models.Stat]*regexp.Regexp, len(models.AllStats))
	for _, st := range models.AllStats {
		out[st] = regexp.MustCompile(`\+(\d+)\s+` + st.Abbreviation())
	}
	return out
}

// Reward granted by quests the mentor suggests in chat.
const (
	chatQuestXP           = 15
	chatQuestIntelligence = 1
	chatQuestDescription  = "Complete this challenge as suggested by your AI mentor."
)

// ProposedActions is what a mentor reply asks the game to do.
type ProposedActions struct {
	JSON       map[string]any
	StatGains  models.Stats
	XP         int
	HabitName  string
	QuestTitle string
}

// HasMutations reports whether applying p would change game state.
func (p ProposedActions) HasMutations() bool {
	return len(p.StatGains) > 0 || p.XP > 0 || p.HabitName != "" || p.QuestTitle != ""
}

// ParseAIAction extracts proposed effects from a mentor reply. It has no side
// effects and never fails; anything it cannot read is skipped.
func ParseAIAction(text string) ProposedActions {
	p := ProposedActions{StatGains: models.Stats{}}

	if raw := jsonObjectPattern.FindString(text); raw != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			p.JSON = obj
		}
	}

	lower := strings.ToLower(text)
	for _, st := range models.AllStats {
		m := statPatterns[st].FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n <= models.MaxStatGrant {
			p.StatGains[st] = n
		}
	}

	if m := xpPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= models.MaxXPGrant {
			p.XP = n
		}
	}

	p.HabitName = firstCapture(habitPatterns, lower)
	p.QuestTitle = firstCapture(questPatterns, lower)
	return p
}

func firstCapture(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return utils.TitleCase(m[1])
		}
	}
	return ""
}

// ActionService applies parsed mentor actions to a character.
type ActionService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	Log   *zap.Logger
}

func NewActionService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger) *ActionService {
	return &ActionService{DB: db, Clock: clock, Log: log}
}

// ApplyAIAction parses text and applies its effects to the character in one
// transaction. It never returns an error: on failure the problem is logged
// and only the JSON-sourced keys are returned.
func (s *ActionService) ApplyAIAction(ctx context.Context, characterID, text string) (action map[string]any) {
	action = map[string]any{}
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("action parsing panicked",
				zap.String("character_id", characterID),
				zap.Any("panic", r))
		}
	}()

	p := ParseAIAction(text)
	for k, v := range p.JSON {
		action[k] = v
	}
	if !p.HasMutations() {
		return action
	}

	applied, err := s.apply(ctx, characterID, p)
	if err != nil {
		s.Log.Warn("failed to apply mentor actions",
			zap.String("character_id", characterID),
			zap.Error(err))
		return action
	}
	for k, v := range applied {
		action[k] = v
	}
	return action
}

func (s *ActionService) apply(ctx context.Context, characterID string, p ProposedActions) (map[string]any, error) {
	applied := map[string]any{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockCharacter(tx, characterID)
		if err != nil {
			return err
		}

		res := &RewardResult{StatsBefore: c.Stats.Clone(), StatsAfter: c.Stats.Clone()}
		if len(p.StatGains) > 0 || p.XP > 0 {
			res, err = applyReward(c, p.XP, p.StatGains)
			if err != nil {
				return err
			}
			if err := saveCharacter(tx, c); err != nil {
				return err
			}
		}

		if p.HabitName != "" {
			exists, err := similarHabitExists(tx, c.ID, p.HabitName)
			if err != nil {
				return err
			}
			if !exists {
				h := &models.Habit{
					CharacterID:     c.ID,
					Name:            p.HabitName,
					Frequency:       models.FrequencyDaily,
					Active:          true,
					CreatedFromChat: true,
					AISuggested:     true,
				}
				if err := tx.Create(h).Error; err != nil {
					return fmt.Errorf("create habit from chat: %w", err)
				}
				applied["habit_created"] = p.HabitName
			}
		}

		if p.QuestTitle != "" {
			due := models.StartOfTomorrow(s.Clock.Now(), c.Location()).UTC()
			q := &models.Quest{
				CharacterID:   c.ID,
				Title:         p.QuestTitle,
				Description:   chatQuestDescription,
				QuestType:     models.QuestTypeHabit,
				Difficulty:    models.DifficultyMedium,
				RewardXP:      chatQuestXP,
				RewardStats:   models.Stats{models.StatIntelligence: chatQuestIntelligence}.Normalized(),
				DueDate:       &due,
				GeneratedByAI: true,
			}
			if err := tx.Create(q).Error; err != nil {
				return fmt.Errorf("create quest from chat: %w", err)
			}
			applied["quest_created"] = p.QuestTitle
		}

		if len(p.StatGains) > 0 {
			gains := make(map[string]int, len(p.StatGains))
			for st, v := range p.StatGains {
				gains[string(st)] = v
			}
			applied["stat_gains"] = gains
		}
		if p.XP > 0 {
			applied["xp"] = p.XP
		}
		if len(applied) == 0 {
			return nil
		}
		return writeLog(tx, c.ID, models.ActionChatInteraction, describeChatInteraction(p, applied), res)
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func describeChatInteraction(p ProposedActions, applied map[string]any) string {
	parts := []string{"AI interaction:"}
	if gains := describeGains(p.StatGains); gains != "" {
		parts = append(parts, gains)
	}
	if p.XP > 0 {
		parts = append(parts, fmt.Sprintf("+%d XP", p.XP))
	}
	if name, ok := applied["habit_created"].(string); ok {
		parts = append(parts, fmt.Sprintf("new habit %q", name))
	}
	if title, ok := applied["quest_created"].(string); ok {
		parts = append(parts, fmt.Sprintf("new quest %q", title))
	}
	return strings.Join(parts, " ")
}

var (
	jsonFencePattern  = regexp.MustCompile("(?is)```json.*?```")
	anyFencePattern   = regexp.MustCompile("(?s)```.*?```")
	flatObjectPattern = regexp.MustCompile(`(?s)\{[^{}]*\}`)
	jsonPairPattern   = regexp.MustCompile(`"[^"]*":\s*[^,}]*[,}]?`)
	jsonPunctPattern  = regexp.MustCompile(`[{}\[\]",:]`)
	boldPattern       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
	hspacePattern     = regexp.MustCompile(`[ \t]+`)
	lineTrimPattern   = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
)

// CleanAIResponse strips code blocks, JSON fragments and bold markers from a
// mentor reply so it can be shown to the user.
func CleanAIResponse(text string) string {
	text = jsonFencePattern.ReplaceAllString(text, "")
	text = anyFencePattern.ReplaceAllString(text, "")
	text = flatObjectPattern.ReplaceAllString(text, "")
	text = jsonPairPattern.ReplaceAllString(text, "")
	text = jsonPunctPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	text = hspacePattern.ReplaceAllString(text, " ")
	text = lineTrimPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
