package models

import (
	"math"
	"strings"
)

// Stat names one of the five character attributes.
type Stat string

const (
	StatStrength     Stat = "strength"
	StatIntelligence Stat = "intelligence"
	StatCharisma     Stat = "charisma"
	StatEndurance    Stat = "endurance"
	StatLuck         Stat = "luck"
)

// AllStats is the canonical stat order used for display and logging.
var AllStats = []Stat{StatStrength, StatIntelligence, StatCharisma, StatEndurance, StatLuck}

// statAbbreviations are the short markers used in mentor replies ("+2 STR").
var statAbbreviations = map[Stat]string{
	StatStrength:     "str",
	StatIntelligence: "int",
	StatCharisma:     "chr",
	StatEndurance:    "end",
	StatLuck:         "lck",
}

// Abbreviation returns the lowercase three-letter marker for the stat.
func (s Stat) Abbreviation() string {
	return statAbbreviations[s]
}

func (s Stat) IsValid() bool {
	_, ok := statAbbreviations[s]
	return ok
}

// ParseStat accepts either the full name or the abbreviation, case-insensitively.
func ParseStat(input string) (Stat, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, st := range AllStats {
		if in == string(st) || in == st.Abbreviation() {
			return st, true
		}
	}
	return "", false
}

// Stats is the stat vector of a character or a reward.
type Stats map[Stat]int

// UniformStats returns a vector with every stat set to v.
func UniformStats(v int) Stats {
	out := make(Stats, len(AllStats))
	for _, st := range AllStats {
		out[st] = v
	}
	return out
}

func (s Stats) Get(st Stat) int {
	if s == nil {
		return 0
	}
	return s[st]
}

// Add vector-adds delta into s. Unknown stat keys in delta are ignored.
func (s Stats) Add(delta Stats) {
	for st, v := range delta {
		if !st.IsValid() {
			continue
		}
		s[st] += v
	}
}

func (s Stats) Clone() Stats {
	out := make(Stats, len(AllStats))
	for _, st := range AllStats {
		out[st] = s.Get(st)
	}
	return out
}

// Normalized returns a copy holding exactly the five known stats.
func (s Stats) Normalized() Stats {
	return s.Clone()
}

func (s Stats) Total() int {
	total := 0
	for _, st := range AllStats {
		total += s.Get(st)
	}
	return total
}

// IsZero reports whether every stat delta is zero.
// CheckGrant reports ErrRewardTooLarge when delta holds a value above
// MaxStatGrant or one that would overflow the matching stat in s.
func (s Stats) CheckGrant(delta Stats) error {
	for st, v := range delta {
		if !st.IsValid() {
			continue
		}
		if v > MaxStatGrant || (v > 0 && s.Get(st) > math.MaxInt-v) {
			return ErrRewardTooLarge
		}
	}
	return nil
}

func (s Stats) IsZero() bool {
	for _, st := range AllStats {
		if s.Get(st) != 0 {
			return false
		}
	}
	return true
}
