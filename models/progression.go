package models

import "math"

// The XP threshold grows by 1.2x (truncated) on each level-up. Integer math
// keeps large thresholds exact.
const (
	levelGrowthNum = 6
	levelGrowthDen = 5
)

// LevelUpStatBonus is granted to every stat on each level-up.
const LevelUpStatBonus = 1

// Upper bounds for a single grant. Larger values are rejected with
// ErrRewardTooLarge so counters never wrap.
const (
	MaxXPGrant   = 1_000_000
	MaxStatGrant = 1_000
)

// LevelUp describes the outcome of one AddExperience call.
type LevelUp struct {
	LevelBefore  int
	LevelAfter   int
	LevelsGained int
}

// AddExperience grants amount XP and runs the level-up cascade in memory.
// The caller persists the character once afterwards.
func AddExperience(c *Character, amount int) (LevelUp, error) {
	res := LevelUp{LevelBefore: c.Level, LevelAfter: c.Level}
	if amount < 0 {
		return res, ErrNegativeXP
	}
	if amount > MaxXPGrant || c.TotalXP > math.MaxInt-amount {
		return res, ErrRewardTooLarge
	}
	if c.Stats == nil {
		c.Stats = UniformStats(DefaultStatValue)
	}
	if c.XPToNextLevel <= 0 {
		c.XPToNextLevel = DefaultXPToNextLevel
	}

	c.TotalXP += amount
	for c.TotalXP >= c.XPToNextLevel {
		levelUp(c)
	}

	res.LevelAfter = c.Level
	res.LevelsGained = c.Level - res.LevelBefore
	return res, nil
}

func levelUp(c *Character) {
	c.Level++
	c.TotalXP -= c.XPToNextLevel
	c.XPToNextLevel = c.XPToNextLevel * levelGrowthNum / levelGrowthDen
	c.Stats.Add(UniformStats(LevelUpStatBonus))
}
