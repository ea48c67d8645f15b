package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Submission type constants
const (
	SubmissionTypeWriting   = "writing"
	SubmissionTypeArt       = "art"
	SubmissionTypeReference = "reference"
	SubmissionTypePrompt    = "prompt"
)

// Art tier constants, lowest to highest
const (
	ArtTierSketch    = "sketch"
	ArtTierSketchSet = "sketch_set"
	ArtTierLineArt   = "line_art"
	ArtTierRendered  = "rendered"
	ArtTierPolished  = "polished"
)

// Distribution step markers recorded on the submission row so a retried
// Process call re-applies only the steps that did not land.
const (
	StepLevels  = "levels"
	StepMonster = "monster_levels"
	StepCoins   = "coins"
	StepMission = "mission"
	StepBoss    = "boss"
	StepGarden  = "garden"
)

// SubmissionAttributes carries the type-specific inputs a submission was
// graded on. Only the fields relevant to the submission type are set.
type SubmissionAttributes struct {
	WordCount          int     `json:"word_count,omitempty"`
	DifficultyModifier float64 `json:"difficulty_modifier,omitempty"`
	ArtTier            string  `json:"art_tier,omitempty"`
	ManualOverride     int     `json:"manual_override,omitempty"`
	TaggedMonsterID    string  `json:"tagged_monster_id,omitempty"`
	ArtworkURL         string  `json:"artwork_url,omitempty"`
}

type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID              int64                `bun:"id,pk,autoincrement"`
	SubmissionID    string               `bun:"submission_id,notnull,unique"`
	Type            string               `bun:"type,notnull"`
	TrainerID       string               `bun:"trainer_id,notnull"`
	IsGift          bool                 `bun:"is_gift,notnull,default:false"`
	GiftRecipientID string               `bun:"gift_recipient_id,nullzero"`
	External        bool                 `bun:"external,notnull,default:false"`
	Attributes      SubmissionAttributes `bun:"attributes,type:jsonb"`
	Processed       bool                 `bun:"processed,notnull,default:false"`
	AppliedSteps    map[string]bool      `bun:"applied_steps,type:jsonb"`
	CreatedAt       time.Time            `bun:"created_at,notnull"`
	ProcessedAt     *time.Time           `bun:"processed_at"`
}

// StepApplied reports whether a distribution step already landed for this
// submission during a previous (possibly failed) Process call.
func (s *Submission) StepApplied(step string) bool {
	return s.AppliedSteps[step]
}

// MarkStep records a completed distribution step.
func (s *Submission) MarkStep(step string) {
	if s.AppliedSteps == nil {
		s.AppliedSteps = make(map[string]bool)
	}
	s.AppliedSteps[step] = true
}
