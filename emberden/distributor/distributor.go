package distributor

import (
	"context"
	"log/slog"
	"time"

	"github.com/emberden/emberden/emberden/boss"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/missions"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/rewards"
	"github.com/emberden/emberden/emberden/utils"
)

// Outcome is what Process hands back for display: the computed bundle
// plus the flags the presentation layer needs for messaging.
type Outcome struct {
	Bundle           *rewards.Bundle
	AppliedLevels    int64
	CappedLevels     int64
	NewLevel         int
	BossDefeated     bool
	MissionCompleted bool
}

// Distributor fans one submission's rewards out across the progression
// ledger, mission tracker and boss encounter, exactly once per submission
// id. Each step is recorded on the submission row as it lands, so a
// retried Process call after a storage failure re-derives the identical
// bundle and re-applies only the steps that are missing. The submission
// is marked processed last.
type Distributor struct {
	submissions repositories.SubmissionRepository
	monsters    repositories.MonsterRepository
	calculator  *rewards.Calculator
	ledger      *progression.Ledger
	tracker     *missions.Tracker
	encounter   *boss.Encounter
	locks       *utils.KeyMutex
}

func New(
	submissions repositories.SubmissionRepository,
	monsters repositories.MonsterRepository,
	calculator *rewards.Calculator,
	ledger *progression.Ledger,
	tracker *missions.Tracker,
	encounter *boss.Encounter,
) *Distributor {
	return &Distributor{
		submissions: submissions,
		monsters:    monsters,
		calculator:  calculator,
		ledger:      ledger,
		tracker:     tracker,
		encounter:   encounter,
		locks:       utils.NewKeyMutex(),
	}
}

// Process distributes the rewards for one submission. A submission that
// is already processed is rejected with a conflict; only StorageError
// failures are worth retrying, and a retry is safe because of the step
// ledger. Distribution is serialized per submitting trainer, which also
// serializes duplicate Process calls for one submission.
func (d *Distributor) Process(ctx context.Context, submissionID string) (*Outcome, error) {
	sub, err := d.submissions.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	d.locks.Lock(sub.TrainerID)
	defer d.locks.Unlock(sub.TrainerID)

	// Re-read under the lock so a duplicate racing this call observes
	// the processed flag.
	sub, err = d.submissions.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Processed {
		return nil, errs.Conflict("submission already processed")
	}

	bundle, err := d.calculator.Calculate(rewards.Input{
		Type:               sub.Type,
		WordCount:          sub.Attributes.WordCount,
		DifficultyModifier: sub.Attributes.DifficultyModifier,
		ArtTier:            sub.Attributes.ArtTier,
		ManualOverride:     int64(sub.Attributes.ManualOverride),
		External:           sub.External,
		IsGift:             sub.IsGift,
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Bundle: bundle}

	if err := d.applyLevels(ctx, sub, bundle, outcome); err != nil {
		return nil, err
	}
	if err := d.applyMonsterLevels(ctx, sub, bundle); err != nil {
		return nil, err
	}
	if err := d.applyCoins(ctx, sub, bundle); err != nil {
		return nil, err
	}
	if err := d.applyMissionProgress(ctx, sub, bundle, outcome); err != nil {
		return nil, err
	}
	if err := d.applyBossDamage(ctx, sub, bundle, outcome); err != nil {
		return nil, err
	}
	if err := d.applyGardenPoints(ctx, sub, bundle); err != nil {
		return nil, err
	}

	now := time.Now()
	sub.Processed = true
	sub.ProcessedAt = &now
	if err := d.submissions.Update(ctx, sub); err != nil {
		return nil, err
	}

	slog.Info("Submission processed",
		slog.String("type", "game"),
		slog.String("submission_id", submissionID),
		slog.String("trainer_id", sub.TrainerID),
		slog.Int64("levels", bundle.Levels),
		slog.Int64("coins", bundle.Coins),
	)
	return outcome, nil
}

// applyLevels credits the submitter, or the gift recipient at the gift
// rate. Levels lost to the cap are surfaced on the outcome.
func (d *Distributor) applyLevels(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle, outcome *Outcome) error {
	if sub.StepApplied(models.StepLevels) {
		return nil
	}

	target, levels := sub.TrainerID, bundle.Levels
	if sub.IsGift {
		target, levels = sub.GiftRecipientID, bundle.GiftLevels
	}

	if levels > 0 {
		result, err := d.ledger.ApplyTrainerLevels(ctx, target, levels)
		if err != nil {
			return err
		}
		outcome.AppliedLevels = result.AppliedLevels
		outcome.CappedLevels = result.CappedLevels
		outcome.NewLevel = result.NewLevel
	}
	return d.markStep(ctx, sub, models.StepLevels)
}

// applyMonsterLevels handles art submissions that tag a monster: the
// monster levels alongside its trainer.
func (d *Distributor) applyMonsterLevels(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle) error {
	if sub.StepApplied(models.StepMonster) {
		return nil
	}
	if sub.Type == models.SubmissionTypeArt && sub.Attributes.TaggedMonsterID != "" && bundle.Levels > 0 {
		if _, err := d.ledger.ApplyMonsterLevels(ctx, sub.Attributes.TaggedMonsterID, bundle.Levels); err != nil {
			return err
		}
	}
	return d.markStep(ctx, sub, models.StepMonster)
}

func (d *Distributor) applyCoins(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle) error {
	if sub.StepApplied(models.StepCoins) {
		return nil
	}
	if err := d.ledger.AddCoins(ctx, sub.TrainerID, bundle.Coins); err != nil {
		return err
	}
	return d.markStep(ctx, sub, models.StepCoins)
}

func (d *Distributor) applyMissionProgress(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle, outcome *Outcome) error {
	if sub.StepApplied(models.StepMission) {
		return nil
	}

	delta := missions.Delta{
		WordCount:   sub.Attributes.WordCount,
		Submissions: 1,
		Damage:      bundle.BossDamage,
		GardenPts:   bundle.GardenPoints,
		Tags:        d.collectionTags(ctx, sub),
	}
	result, err := d.tracker.ApplyProgress(ctx, sub.TrainerID, sub.Type, delta)
	if err != nil {
		return err
	}
	outcome.MissionCompleted = result.Completed
	return d.markStep(ctx, sub, models.StepMission)
}

func (d *Distributor) applyBossDamage(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle, outcome *Outcome) error {
	if sub.StepApplied(models.StepBoss) {
		return nil
	}

	if bundle.BossDamage > 0 {
		current, err := d.encounter.Current(ctx)
		if err != nil {
			return err
		}
		if current != nil {
			result, err := d.encounter.ApplyDamage(ctx, current.BossID, sub.TrainerID, bundle.BossDamage, time.Now())
			switch {
			case errs.IsConflict(err):
				// Another trainer's hit defeated the boss between our
				// read and our attack; nothing to apply.
			case err != nil:
				return err
			default:
				outcome.BossDefeated = result.Defeated
			}
		}
	}
	return d.markStep(ctx, sub, models.StepBoss)
}

func (d *Distributor) applyGardenPoints(ctx context.Context, sub *models.Submission, bundle *rewards.Bundle) error {
	if sub.StepApplied(models.StepGarden) {
		return nil
	}
	if err := d.ledger.AddGardenPoints(ctx, sub.TrainerID, bundle.GardenPoints); err != nil {
		return err
	}
	return d.markStep(ctx, sub, models.StepGarden)
}

// collectionTags resolves the tagged monster's species and type tags for
// collection missions. A lookup failure only costs mission tags, so it is
// logged and swallowed rather than failing the whole distribution.
func (d *Distributor) collectionTags(ctx context.Context, sub *models.Submission) []string {
	if sub.Attributes.TaggedMonsterID == "" {
		return nil
	}
	monster, err := d.monsters.GetByMonsterID(ctx, sub.Attributes.TaggedMonsterID)
	if err != nil {
		slog.Warn("Tagged monster lookup failed",
			slog.String("type", "game"),
			slog.String("monster_id", sub.Attributes.TaggedMonsterID),
			slog.Any("error", err),
		)
		return nil
	}
	tags := append([]string{monster.Species}, monster.Types...)
	return tags
}

func (d *Distributor) markStep(ctx context.Context, sub *models.Submission, step string) error {
	sub.MarkStep(step)
	return d.submissions.Update(ctx, sub)
}
