package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"aura-growth/models"
	"aura-growth/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	registrationTokens = 500
	enhancementTokens  = 600
	maxStatAdjustment  = 3
)

// fallbackStartingStats are used when the AI cannot design a character.
var fallbackStartingStats = models.Stats{
	models.StatStrength:     12,
	models.StatIntelligence: 12,
	models.StatCharisma:     11,
	models.StatEndurance:    11,
	models.StatLuck:         14,
}

var jsonBlobPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Onboarder schedules the post-registration AI work for a new character.
type Onboarder interface {
	Schedule(characterID string, in RegisterInput)
}

// Archiver stores a JSON document under key.
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type CharacterService struct {
	DB        *gorm.DB
	Clock     clockwork.Clock
	Log       *zap.Logger
	AI        TextGenerator
	Quests    *QuestService
	Onboarder Onboarder
	Archive   Archiver
}

func NewCharacterService(db *gorm.DB, clock clockwork.Clock, log *zap.Logger, ai TextGenerator, quests *QuestService) *CharacterService {
	return &CharacterService{DB: db, Clock: clock, Log: log, AI: ai, Quests: quests}
}

type RegisterInput struct {
	ExternalUserID string             `json:"-"`
	Name           string             `json:"name"`
	Role           string             `json:"role"`
	Interests      []string           `json:"interests"`
	Goal           string             `json:"goal"`
	Avatar         models.Avatar      `json:"avatar"`
	Personality    models.Personality `json:"ai_personality"`
	Timezone       string             `json:"timezone"`
}

type characterDesign struct {
	Class   string       `json:"class"`
	Stats   models.Stats `json:"stats"`
	Message string       `json:"message"`
}

// Register creates the character with its welcome message and a starter set
// of quests, then hands it to the Onboarder for AI enhancement.
func (s *CharacterService) Register(ctx context.Context, in RegisterInput) (*models.Character, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.ExternalUserID == "" || in.Name == "" {
		return nil, fmt.Errorf("user id and name are required: %w", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = "student"
	}
	if in.Avatar != "" && !in.Avatar.IsValid() {
		return nil, fmt.Errorf("avatar %q: %w", in.Avatar, ErrInvalidSetting)
	}
	if in.Personality != "" && !in.Personality.IsValid() {
		return nil, fmt.Errorf("personality %q: %w", in.Personality, ErrInvalidSetting)
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, fmt.Errorf("timezone %q: %w", in.Timezone, ErrInvalidSetting)
		}
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Character{}).
		Where("external_user_id = ?", in.ExternalUserID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check existing character: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyRegistered
	}

	design := s.designCharacter(ctx, in)

	c := models.NewCharacter(in.ExternalUserID, in.Name)
	c.Handle = utils.Handle(in.Name)
	c.CharacterClass = design.Class
	c.Stats = design.Stats
	c.LastActiveAt = s.Clock.Now()
	if in.Avatar != "" {
		c.Avatar = in.Avatar
	}
	if in.Personality != "" {
		c.AIPersonality = in.Personality
	}
	if in.Timezone != "" {
		c.Timezone = in.Timezone
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create character: %w", err)
		}
		welcome := &models.AIResponse{
			CharacterID: c.ID,
			Role:        models.RoleAssistant,
			Content:     design.Message,
		}
		if err := tx.Create(welcome).Error; err != nil {
			return fmt.Errorf("create welcome message: %w", err)
		}
		_, err := s.Quests.persistDrafts(tx, c, FallbackQuests())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("🧙 character registered",
		zap.String("character_id", c.ID),
		zap.String("external_user_id", c.ExternalUserID),
		zap.String("class", c.CharacterClass))

	if s.Onboarder != nil {
		s.Onboarder.Schedule(c.ID, in)
	}
	return c, nil
}

func (s *CharacterService) designCharacter(ctx context.Context, in RegisterInput) characterDesign {
	prompt := fmt.Sprintf(`Analyze this new RPG player:
Name: %s
Role: %s
Interests: %s
Goal: %s

Create a character profile with:
1. A cool RPG class name (like "Scholar of Focus", "Warrior of Discipline")
2. Starting stat bonuses (distribute 10 extra points among STR, INT, CHR, END, LCK)
3. Brief welcome message in character

Return JSON: {"class": "class_name", "stats": {"strength": 12, "intelligence": 15, ...}, "message": "welcome_text"}`,
		in.Name, in.Role, strings.Join(in.Interests, ", "), in.Goal)

	fallback := characterDesign{
		Class:   models.DefaultCharacterClass,
		Stats:   fallbackStartingStats.Clone(),
		Message: fmt.Sprintf("Welcome, %s! Your journey begins now.", in.Name),
	}

	raw := jsonBlobPattern.FindString(s.AI.Generate(ctx, prompt, registrationTokens))
	if raw == "" {
		return fallback
	}
	var d characterDesign
	if err := json.Unmarshal([]byte(raw), &d); err != nil || d.Stats == nil {
		s.Log.Debug("character design unusable, using defaults", zap.Error(err))
		return fallback
	}

	stats := models.UniformStats(models.DefaultStatValue)
	for _, st := range models.AllStats {
		if v, ok := d.Stats[st]; ok && v >= 0 && v <= models.MaxStatGrant {
			stats[st] = v
		}
	}
	d.Stats = stats
	if strings.TrimSpace(d.Class) == "" {
		d.Class = models.DefaultCharacterClass
	}
	if strings.TrimSpace(d.Message) == "" {
		d.Message = fmt.Sprintf("Welcome to Aura Growth, %s!", in.Name)
	}
	return d
}

// Enhance asks the AI for a personalised class, small stat adjustments and a
// new welcome message. Only integer adjustments between 0 and 3 are applied.
func (s *CharacterService) Enhance(ctx context.Context, characterID string, in RegisterInput) error {
	c, err := s.Get(ctx, characterID)
	if err != nil {
		return err
	}

	st := c.Stats.Normalized()
	interests := "General improvement"
	if len(in.Interests) > 0 {
		interests = strings.Join(in.Interests, ", ")
	}
	prompt := fmt.Sprintf(`Analyze this new RPG player and enhance their character:
Name: %s
Role: %s
Interests: %s
Goal: %s

Current class: %s
Current stats: STR:%d INT:%d CHR:%d END:%d LCK:%d

Create an enhanced character profile with:
1. A cooler, more personalized RPG class name based on their interests
2. Slight stat adjustments (+1-3 points total) that match their role and interests
3. A personalized welcome message in character

Return JSON: {"class": "Enhanced Class Name", "stat_adjustments": {"strength": 1, "intelligence": 2, ...}, "message": "personalized welcome"}`,
		c.Name, in.Role, interests, in.Goal, c.CharacterClass,
		st[models.StatStrength], st[models.StatIntelligence], st[models.StatCharisma],
		st[models.StatEndurance], st[models.StatLuck])

	reply := s.AI.Generate(ctx, prompt, enhancementTokens)

	var enhanced struct {
		Class           string                 `json:"class"`
		StatAdjustments map[string]json.Number `json:"stat_adjustments"`
		Message         string                 `json:"message"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(jsonBlobPattern.FindString(reply))))
	dec.UseNumber()
	if err := dec.Decode(&enhanced); err != nil {
		s.Log.Debug("enhancement reply unusable", zap.String("character_id", c.ID), zap.Error(err))
		msg := fmt.Sprintf("Your %s character has been enhanced! Ready for your adventure?", c.CharacterClass)
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return upsertWelcome(tx, c.ID, msg, s.Clock.Now())
		})
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockCharacter(tx, c.ID)
		if err != nil {
			return err
		}
		if cls := strings.TrimSpace(enhanced.Class); cls != "" {
			locked.CharacterClass = cls
		}
		locked.Stats.Add(statAdjustments(enhanced.StatAdjustments))
		if err := saveCharacter(tx, locked); err != nil {
			return err
		}
		msg := enhanced.Message
		if strings.TrimSpace(msg) == "" {
			msg = fmt.Sprintf("Your character has been enhanced! Welcome, %s!", locked.CharacterClass)
		}
		return upsertWelcome(tx, locked.ID, msg, s.Clock.Now())
	})
}

// statAdjustments keeps integer bonuses in [0, 3] for known stats.
func statAdjustments(raw map[string]json.Number) models.Stats {
	out := models.Stats{}
	for k, n := range raw {
		st := models.Stat(k)
		if !st.IsValid() {
			continue
		}
		v, err := n.Int64()
		if err != nil || v < 0 || v > maxStatAdjustment {
			continue
		}
		out[st] = int(v)
	}
	return out
}

// upsertWelcome rewrites the character's first assistant message, creating it
// if none exists.
func upsertWelcome(tx *gorm.DB, characterID, content string, now time.Time) error {
	var msg models.AIResponse
	err := tx.Where("character_id = ? AND role = ?", characterID, models.RoleAssistant).
		Order("created_at ASC").First(&msg).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		msg = models.AIResponse{CharacterID: characterID, Role: models.RoleAssistant, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("create welcome message: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load welcome message: %w", err)
	}
	if err := tx.Model(&msg).Updates(map[string]any{"content": content, "created_at": now}).Error; err != nil {
		return fmt.Errorf("update welcome message: %w", err)
	}
	return nil
}

func (s *CharacterService) Get(ctx context.Context, characterID string) (*models.Character, error) {
	var c models.Character
	if err := s.DB.WithContext(ctx).Where("id = ?", characterID).First(&c).Error; err != nil {
		return nil, notFound(err, "character", characterID)
	}
	return &c, nil
}

func (s *CharacterService) GetByExternalUser(ctx context.Context, externalUserID string) (*models.Character, error) {
	var c models.Character
	if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&c).Error; err != nil {
		return nil, notFound(err, "character for user", externalUserID)
	}
	return &c, nil
}

// SettingsInput holds the user-editable fields; nil fields are left unchanged.
type SettingsInput struct {
	Name        *string             `json:"name"`
	Avatar      *models.Avatar      `json:"avatar"`
	Personality *models.Personality `json:"ai_personality"`
	Timezone    *string             `json:"timezone"`
}

func (s *CharacterService) UpdateSettings(ctx context.Context, characterID string, in SettingsInput) (*models.Character, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", ErrInvalidSetting)
		}
		updates["name"] = name
		updates["handle"] = utils.Handle(name)
	}
	if in.Avatar != nil {
		if !in.Avatar.IsValid() {
			return nil, fmt.Errorf("avatar %q: %w", *in.Avatar, ErrInvalidSetting)
		}
		updates["avatar"] = *in.Avatar
	}
	if in.Personality != nil {
		if !in.Personality.IsValid() {
			return nil, fmt.Errorf("personality %q: %w", *in.Personality, ErrInvalidSetting)
		}
		updates["ai_personality"] = *in.Personality
	}
	if in.Timezone != nil {
		if _, err := time.LoadLocation(*in.Timezone); err != nil || *in.Timezone == "" {
			return nil, fmt.Errorf("timezone %q: %w", *in.Timezone, ErrInvalidSetting)
		}
		updates["timezone"] = *in.Timezone
	}

	c, err := s.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return c, nil
	}
	if err := s.DB.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.Get(ctx, characterID)
}

// CharacterArchive is the full export of a character and everything it owns.
type CharacterArchive struct {
	Character     models.Character      `json:"character"`
	Quests        []models.Quest        `json:"quests"`
	Habits        []models.Habit        `json:"habits"`
	Logs          []models.LogEntry     `json:"logs"`
	Chat          []models.AIResponse   `json:"chat"`
	StatusEffects []models.StatusEffect `json:"status_effects"`
	ExportedAt    time.Time             `json:"exported_at"`
}

func (s *CharacterService) Export(ctx context.Context, characterID string) (*CharacterArchive, error) {
	c, err := s.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}
	a := &CharacterArchive{Character: *c, ExportedAt: s.Clock.Now()}
	db := s.DB.WithContext(ctx)
	loads := []struct {
		what string
		dest any
	}{
		{"quests", &a.Quests},
		{"habits", &a.Habits},
		{"logs", &a.Logs},
		{"chat", &a.Chat},
		{"status effects", &a.StatusEffects},
	}
	for _, l := range loads {
		if err := db.Where("character_id = ?", c.ID).Order("created_at ASC").Find(l.dest).Error; err != nil {
			return nil, fmt.Errorf("export %s: %w", l.what, err)
		}
	}
	return a, nil
}

// Delete removes the character and every row it owns in one transaction.
// When an Archive is configured the export is uploaded first; a failed
// upload leaves the character in place.
func (s *CharacterService) Delete(ctx context.Context, characterID string) error {
	if s.Archive != nil {
		a, err := s.Export(ctx, characterID)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("characters/%s/%d.json", characterID, a.ExportedAt.Unix())
		if err := s.Archive.PutJSON(ctx, key, a); err != nil {
			return fmt.Errorf("archive character %s: %w", characterID, err)
		}
		s.Log.Info("📦 character archived", zap.String("character_id", characterID), zap.String("key", key))
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []any{
			&models.Quest{}, &models.Habit{}, &models.LogEntry{},
			&models.AIResponse{}, &models.StatusEffect{},
		}
		for _, m := range owned {
			if err := tx.Where("character_id = ?", characterID).Delete(m).Error; err != nil {
				return fmt.Errorf("delete owned rows: %w", err)
			}
		}
		res := tx.Where("id = ?", characterID).Delete(&models.Character{})
		if res.Error != nil {
			return fmt.Errorf("delete character: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("character %s: %w", characterID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Log.Info("🗑️ character deleted", zap.String("character_id", characterID))
	return nil
}

// ActiveSince lists characters seen at or after cutoff.
func (s *CharacterService) ActiveSince(ctx context.Context, cutoff time.Time) ([]models.Character, error) {
	var out []models.Character
	if err := s.DB.WithContext(ctx).Where("last_active_at >= ?", cutoff).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list active characters: %w", err)
	}
	return out, nil
}
