package services

import (
	"regexp"

	"aura-growth/models"
	"aura-growth/utils"
)

var completionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(completed|finished|done with|accomplished)`),
	regexp.MustCompile(`(did|went to|attended)`),
	regexp.MustCompile(`(read|studied|learned)`),
	regexp.MustCompile(`(exercised|worked out|ran|walked)`),
	regexp.MustCompile(`(meditated|practiced|wrote)`),
}

// checked in order; the first hit decides the stat
var activityPatterns = []struct {
	re   *regexp.Regexp
	stat models.Stat
}{
	{regexp.MustCompile(`read|study|learn|book|article`), models.StatIntelligence},
	{regexp.MustCompile(`exercise|workout|gym|run|walk|sport`), models.StatStrength},
	{regexp.MustCompile(`meditat|mindful|reflect|yoga`), models.StatEndurance},
	{regexp.MustCompile(`social|talk|meet|call|friend`), models.StatCharisma},
	{regexp.MustCompile(`creat|write|draw|art|music`), models.StatLuck},
}

// MessageAnalysis is a heuristic read of a user chat message.
type MessageAnalysis struct {
	LikelyCompletion bool        `json:"likely_completion"`
	ActivityType     models.Stat `json:"activity_type,omitempty"`
	Confidence       float64     `json:"confidence"`
}

// AnalyzeUserMessage guesses whether message reports a finished activity and
// which stat that activity trains.
func AnalyzeUserMessage(message string) MessageAnalysis {
	lower := utils.Fold(message)
	for _, re := range completionPatterns {
		if re.MatchString(lower) {
			return MessageAnalysis{
				LikelyCompletion: true,
				ActivityType:     ActivityStat(lower),
				Confidence:       0.8,
			}
		}
	}
	return MessageAnalysis{}
}

// ActivityStat maps an activity description to the stat it trains.
// Unrecognised activities train endurance.
func ActivityStat(text string) models.Stat {
	lower := utils.Fold(text)
	for _, p := range activityPatterns {
		if p.re.MatchString(lower) {
			return p.stat
		}
	}
	return models.StatEndurance
}

type gainTier struct{ xp, primary, secondary int }

var gainTiers = map[models.Difficulty]gainTier{
	models.DifficultyEasy:   {xp: 10, primary: 1, secondary: 0},
	models.DifficultyMedium: {xp: 15, primary: 2, secondary: 1},
	models.DifficultyHard:   {xp: 25, primary: 3, secondary: 1},
}

var secondaryStat = map[models.Stat]models.Stat{
	models.StatStrength:     models.StatEndurance,
	models.StatIntelligence: models.StatLuck,
	models.StatCharisma:     models.StatLuck,
	models.StatEndurance:    models.StatStrength,
	models.StatLuck:         models.StatCharisma,
}

// CalculateStatGains returns the XP and stat reward for an activity of the
// given difficulty. Unknown difficulties count as medium, unknown
// activities as endurance.
func CalculateStatGains(activity models.Stat, difficulty models.Difficulty) (int, models.Stats) {
	tier, ok := gainTiers[difficulty]
	if !ok {
		tier = gainTiers[models.DifficultyMedium]
	}
	if !activity.IsValid() {
		activity = models.StatEndurance
	}
	gains := models.Stats{activity: tier.primary}
	gains[secondaryStat[activity]] += tier.secondary
	return tier.xp, gains
}
