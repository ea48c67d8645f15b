package rewards

import (
	"math"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
)

// Calculator maps submission attributes to a reward Bundle. It is pure:
// no shared state, no I/O, safe for unlimited concurrent use.
type Calculator struct {
	config *Config
}

func NewCalculator(config *Config) *Calculator {
	return &Calculator{config: config}
}

// Calculate validates the input and produces the full Bundle. It never
// returns a partially computed bundle: any attribute outside its domain
// fails before anything is derived.
func (c *Calculator) Calculate(in Input) (*Bundle, error) {
	levels, err := c.baseLevels(in)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Levels:          levels,
		Coins:           levels * c.config.CoinsPerLevel,
		GardenPoints:    levels * c.config.GardenPointsPerLevel,
		MissionProgress: levels,
		BossDamage:      levels * c.config.BossDamagePerLevel,
	}

	// Gifts transfer a fraction of the levels to the recipient; the
	// submitter gains none directly. Everything derived above still uses
	// the full value since coins, garden points, mission progress and
	// boss damage measure community contribution, not personal growth.
	if in.IsGift {
		bundle.GiftLevels = levels / c.config.GiftLevelDivisor
	}

	return bundle, nil
}

func (c *Calculator) baseLevels(in Input) (int64, error) {
	switch in.Type {
	case models.SubmissionTypeWriting:
		return c.writingLevels(in)
	case models.SubmissionTypeArt:
		return c.artLevels(in)
	case models.SubmissionTypeReference:
		return c.external(c.config.ReferenceLevels, in.External), nil
	case models.SubmissionTypePrompt:
		return c.external(c.config.PromptLevels, in.External), nil
	default:
		return 0, errs.Validationf("type", "unknown submission type %q", in.Type)
	}
}

func (c *Calculator) writingLevels(in Input) (int64, error) {
	if in.WordCount <= 0 {
		return 0, errs.Validation("word_count", "must be positive")
	}
	if !validModifier(in.DifficultyModifier) {
		return 0, errs.Validationf("difficulty_modifier", "%v is not one of 1, 1.5, 2", in.DifficultyModifier)
	}

	// The external rate is applied to the raw word-derived value before
	// the difficulty modifier.
	base := float64(in.WordCount / c.config.WordsPerLevel)
	if in.External {
		base *= c.config.ExternalRate
	}
	return int64(math.Floor(base * in.DifficultyModifier)), nil
}

func (c *Calculator) artLevels(in Input) (int64, error) {
	// A manual override replaces the tier value entirely.
	if in.ManualOverride != 0 {
		if in.ManualOverride < 0 {
			return 0, errs.Validation("manual_override", "must be positive")
		}
		return in.ManualOverride, nil
	}

	tierLevels, ok := c.config.ArtTierLevels[in.ArtTier]
	if !ok {
		return 0, errs.Validationf("art_tier", "unknown tier %q", in.ArtTier)
	}
	return c.external(tierLevels, in.External), nil
}

func (c *Calculator) external(levels int64, external bool) int64 {
	if !external {
		return levels
	}
	return int64(math.Floor(float64(levels) * c.config.ExternalRate))
}

func validModifier(m float64) bool {
	return m == 1 || m == 1.5 || m == 2
}
