package utils

import (
	"fmt"

	"aura-growth/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to Postgres. gorm timestamps follow clock.
func OpenDatabase(dsn string, clock clockwork.Clock) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: clock.Now,
		Logger:  logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the engine owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Character{},
		&models.Quest{},
		&models.Habit{},
		&models.LogEntry{},
		&models.AIResponse{},
		&models.StatusEffect{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
