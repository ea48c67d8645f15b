package rewards

// Bundle is the full set of deltas derived from one submission. It is
// computed once and never mutated afterwards.
type Bundle struct {
	Levels          int64
	GiftLevels      int64
	Coins           int64
	GardenPoints    int64
	MissionProgress int64
	BossDamage      int64
}

// Input carries the validated attributes of a submission that the
// calculator needs. It deliberately mirrors the intake shape rather than
// the storage model so the calculator stays free of persistence concerns.
type Input struct {
	Type               string
	WordCount          int
	DifficultyModifier float64
	ArtTier            string
	ManualOverride     int64
	External           bool
	IsGift             bool
}
