package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultStatValue      = 10
	DefaultXPToNextLevel  = 10000
	DefaultCharacterClass = "Novice Adventurer"
	DefaultTimezone       = "UTC"
)

type Avatar string

const (
	AvatarScholar  Avatar = "scholar"
	AvatarWarrior  Avatar = "warrior"
	AvatarMage     Avatar = "mage"
	AvatarRogue    Avatar = "rogue"
	AvatarArtist   Avatar = "artist"
	AvatarExplorer Avatar = "explorer"
)

func (a Avatar) IsValid() bool {
	switch a {
	case AvatarScholar, AvatarWarrior, AvatarMage, AvatarRogue, AvatarArtist, AvatarExplorer:
		return true
	}
	return false
}

// Personality selects the voice of the AI mentor.
type Personality string

const (
	PersonalitySensei Personality = "sensei"
	PersonalityBuddy  Personality = "buddy"
	PersonalityRogue  Personality = "rogue"
	PersonalityMentor Personality = "mentor"
)

func (p Personality) IsValid() bool {
	switch p {
	case PersonalitySensei, PersonalityBuddy, PersonalityRogue, PersonalityMentor:
		return true
	}
	return false
}

// Character is the aggregate root of a user's game state.
type Character struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // identity forwarded by the gateway

	Name           string      `gorm:"not null" json:"name"`
	Handle         string      `gorm:"index" json:"handle"`
	Avatar         Avatar      `gorm:"size:20;default:scholar" json:"avatar"`
	CharacterClass string      `gorm:"size:100" json:"character_class"`
	AIPersonality  Personality `gorm:"size:20;default:mentor" json:"ai_personality"`
	Timezone       string      `gorm:"size:50;default:UTC" json:"timezone"`

	Level         int   `gorm:"not null;default:1" json:"level"`
	TotalXP       int   `gorm:"not null;default:0" json:"total_xp"`
	XPToNextLevel int   `gorm:"not null;default:10000" json:"xp_to_next_level"`
	Stats         Stats `gorm:"serializer:json;type:text" json:"stats"`

	LastActiveAt time.Time `json:"last_active_at"`
	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewCharacter returns a level 1 character with default stats.
func NewCharacter(externalUserID, name string) *Character {
	return &Character{
		ExternalUserID: externalUserID,
		Name:           name,
		Avatar:         AvatarScholar,
		CharacterClass: DefaultCharacterClass,
		AIPersonality:  PersonalityMentor,
		Timezone:       DefaultTimezone,
		Level:          1,
		XPToNextLevel:  DefaultXPToNextLevel,
		Stats:          UniformStats(DefaultStatValue),
	}
}

func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Stats == nil {
		c.Stats = UniformStats(DefaultStatValue)
	}
	if c.Level < 1 {
		c.Level = 1
	}
	if c.XPToNextLevel <= 0 {
		c.XPToNextLevel = DefaultXPToNextLevel
	}
	return nil
}

// Location resolves the character's timezone, falling back to UTC.
func (c *Character) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// XPProgress is the percentage of the way to the next level.
func (c *Character) XPProgress() float64 {
	if c.XPToNextLevel <= 0 {
		return 0
	}
	return float64(c.TotalXP) / float64(c.XPToNextLevel) * 100
}
