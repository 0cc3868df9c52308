package services

import (
	"context"
	"fmt"
	"strings"

	"aura-growth/models"
	"aura-growth/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// habitMatchPrefix is how many leading characters of a name identify an existing habit.
const habitMatchPrefix = 10

type HabitService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewHabitService(db *gorm.DB, log *zap.Logger) *HabitService {
	return &HabitService{DB: db, Log: log}
}

type HabitInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Frequency   models.HabitFrequency `json:"frequency"`
}

func (s *HabitService) CreateHabit(ctx context.Context, characterID string, in HabitInput) (*models.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("habit name is required: %w", ErrInvalidInput)
	}
	freq := in.Frequency
	if freq == "" {
		freq = models.FrequencyDaily
	}
	if !freq.IsValid() {
		return nil, fmt.Errorf("frequency %q: %w", in.Frequency, ErrInvalidInput)
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Character{}).Where("id = ?", characterID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check character: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("character %s: %w", characterID, ErrNotFound)
	}

	h := &models.Habit{
		CharacterID: characterID,
		Name:        name,
		Description: in.Description,
		Frequency:   freq,
		Active:      true,
	}
	if err := s.DB.WithContext(ctx).Create(h).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (s *HabitService) ListHabits(ctx context.Context, characterID string, activeOnly bool) ([]models.Habit, error) {
	q := s.DB.WithContext(ctx).Where("character_id = ?", characterID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var habits []models.Habit
	if err := q.Order("created_at DESC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

func (s *HabitService) GetHabit(ctx context.Context, characterID, habitID string) (*models.Habit, error) {
	var h models.Habit
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND character_id = ?", habitID, characterID).
		First(&h).Error; err != nil {
		return nil, notFound(err, "habit", habitID)
	}
	return &h, nil
}

// similarHabitExists reports whether the character has a habit whose name
// contains the first ten characters of name, ignoring case.
func similarHabitExists(tx *gorm.DB, characterID, name string) (bool, error) {
	needle := "%" + escapeLike(strings.ToLower(utils.Prefix(name, habitMatchPrefix))) + "%"
	var n int64
	err := tx.Model(&models.Habit{}).
		Where("character_id = ? AND LOWER(name) LIKE ? ESCAPE '\\'", characterID, needle).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check existing habits: %w", err)
	}
	return n > 0, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
