package rewards

// Config holds the conversion constants the calculator runs on. All of
// the derived values (coins, garden points, boss damage) are linear in
// levels so season totals stay reproducible.
type Config struct {
	// Levels granted per art tier. Manual overrides bypass this table.
	ArtTierLevels map[string]int64

	// Fixed level grants for the non-scaling submission types.
	ReferenceLevels int64
	PromptLevels    int64

	// Words needed per level before the difficulty modifier.
	WordsPerLevel int

	// Linear conversion constants.
	CoinsPerLevel        int64
	GardenPointsPerLevel int64
	BossDamagePerLevel   int64

	// Divisor applied to a gift's levels before crediting the recipient.
	GiftLevelDivisor int64

	// Rate applied to external submissions before anything else.
	ExternalRate float64
}

func NewDefaultConfig() *Config {
	return &Config{
		ArtTierLevels: map[string]int64{
			"sketch":     2,
			"sketch_set": 6,
			"line_art":   6,
			"rendered":   10,
			"polished":   14,
		},
		ReferenceLevels:      2,
		PromptLevels:         1,
		WordsPerLevel:        100,
		CoinsPerLevel:        50,
		GardenPointsPerLevel: 2,
		BossDamagePerLevel:   10,
		GiftLevelDivisor:     5,
		ExternalRate:         0.5,
	}
}
