package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrInvalidSetting = errors.New("invalid setting")
	ErrInvalidInput   = errors.New("invalid input")
)

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

var ErrAlreadyRegistered = errors.New("character already registered")
