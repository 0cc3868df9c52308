package models

import "errors"

var (
	ErrNegativeXP        = errors.New("xp amount must not be negative")
	ErrRewardTooLarge    = errors.New("reward exceeds the allowed maximum")
	ErrLogEntryImmutable = errors.New("log entries are write-once")
)
