package missions

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/utils"
)

// Delta carries everything a submission can feed into mission progress.
// The tracker picks the channels that match the active mission's type and
// ignores the rest.
type Delta struct {
	WordCount   int
	Submissions int
	Damage      int64
	GardenPts   int64
	Tags        []string
}

// ProgressResult reports what ApplyProgress did.
type ProgressResult struct {
	Advanced  bool
	Completed bool // true only on the call that completed the mission
	Progress  models.MissionProgress
}

// Tracker owns the per-trainer single-active-mission state machine:
// NONE -> ACTIVE -> COMPLETED -> NONE, with ACTIVE -> NONE on abandon.
// Per-trainer operations serialize on a keyed mutex so progress stays
// monotonic under concurrent submissions from the same trainer.
type Tracker struct {
	missions repositories.MissionRepository
	ledger   *progression.Ledger
	locks    *utils.KeyMutex
}

func NewTracker(missions repositories.MissionRepository, ledger *progression.Ledger) *Tracker {
	return &Tracker{
		missions: missions,
		ledger:   ledger,
		locks:    utils.NewKeyMutex(),
	}
}

// StartMission activates a mission for the trainer. A live unclaimed row
// is a conflict; a claimed leftover row is swept so the next mission can
// begin.
func (t *Tracker) StartMission(ctx context.Context, trainerID, missionID string) (*models.ActiveMission, error) {
	t.locks.Lock(trainerID)
	defer t.locks.Unlock(trainerID)

	existing, err := t.missions.GetActive(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Claimed {
			return nil, errs.Conflict("a mission is already active")
		}
		if _, err := t.missions.DeleteActive(ctx, trainerID); err != nil {
			return nil, err
		}
	}

	def, err := t.missions.GetDefinition(ctx, missionID)
	if err != nil {
		return nil, err
	}

	active := &models.ActiveMission{
		TrainerID:  trainerID,
		MissionID:  def.MissionID,
		Progress:   models.MissionProgress{},
		StartedAt:  time.Now(),
		Definition: def,
	}
	if err := t.missions.CreateActive(ctx, active); err != nil {
		return nil, err
	}

	slog.Info("Mission started",
		slog.String("type", "game"),
		slog.String("trainer_id", trainerID),
		slog.String("mission_id", missionID),
	)
	return active, nil
}

// ApplyProgress advances the trainer's active mission by whatever part of
// the delta matches its type. Having no active mission, or one of a
// non-matching type, is a no-op rather than an error: most submissions
// simply have no mission to feed.
func (t *Tracker) ApplyProgress(ctx context.Context, trainerID, submissionType string, delta Delta) (*ProgressResult, error) {
	t.locks.Lock(trainerID)
	defer t.locks.Unlock(trainerID)

	active, err := t.missions.GetActive(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if active == nil || active.Definition == nil || active.Completed {
		return &ProgressResult{}, nil
	}

	def := active.Definition
	if !t.advance(active, def, submissionType, delta) {
		return &ProgressResult{Progress: active.Progress}, nil
	}

	result := &ProgressResult{Advanced: true}
	if active.Satisfies(def) {
		now := time.Now()
		active.Completed = true
		active.CompletedAt = &now
		result.Completed = true
	}

	if err := t.missions.UpdateActive(ctx, active); err != nil {
		return nil, err
	}
	result.Progress = active.Progress

	if result.Completed {
		slog.Info("Mission completed",
			slog.String("type", "game"),
			slog.String("trainer_id", trainerID),
			slog.String("mission_id", active.MissionID),
		)
	}
	return result, nil
}

// advance mutates the progress counters in place and reports whether
// anything changed. Counters clamp at their targets; the collected tag
// set only grows.
func (t *Tracker) advance(active *models.ActiveMission, def *models.MissionDefinition, submissionType string, delta Delta) bool {
	p := &active.Progress
	targets := def.Targets
	changed := false

	switch def.Type {
	case models.MissionTypeWriting:
		if submissionType != models.SubmissionTypeWriting {
			return false
		}
		changed = addClampedInt(&p.WordCount, delta.WordCount, targets.WordCount) || changed
		changed = addClampedInt(&p.Submissions, delta.Submissions, targets.Submissions) || changed
	case models.MissionTypeArt:
		if submissionType != models.SubmissionTypeArt {
			return false
		}
		changed = addClampedInt(&p.Submissions, delta.Submissions, targets.Submissions) || changed
	case models.MissionTypeTask, models.MissionTypeHabit:
		// Task and habit missions count contributions of any type.
		changed = addClampedInt(&p.Submissions, delta.Submissions, targets.Submissions) || changed
	case models.MissionTypeGarden:
		changed = addClampedInt64(&p.GardenPts, delta.GardenPts, targets.GardenPts) || changed
	case models.MissionTypeBoss:
		changed = addClampedInt64(&p.Damage, delta.Damage, targets.Damage) || changed
	case models.MissionTypeCollection:
		for _, tag := range delta.Tags {
			if tag == "" || active.HasCollected(tag) {
				continue
			}
			p.Collected = append(p.Collected, tag)
			changed = true
		}
	}
	return changed
}

// ClaimReward grants the completion reward, scaled by difficulty, exactly
// once. A repeat claim returns the same scaled reward without granting
// again.
func (t *Tracker) ClaimReward(ctx context.Context, trainerID string) (*models.MissionReward, error) {
	t.locks.Lock(trainerID)
	defer t.locks.Unlock(trainerID)

	active, err := t.missions.GetActive(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if active == nil || active.Definition == nil {
		return nil, errs.NotFound("active mission", trainerID)
	}
	if !active.Completed {
		return nil, errs.Conflict("mission is not completed")
	}

	reward := scaleReward(active.Definition)
	if active.Claimed {
		return reward, nil
	}

	if reward.Levels > 0 {
		if _, err := t.ledger.ApplyTrainerLevels(ctx, trainerID, int64(reward.Levels)); err != nil {
			return nil, err
		}
	}
	if err := t.ledger.AddCoins(ctx, trainerID, reward.Coins); err != nil {
		return nil, err
	}
	if err := t.ledger.AddGardenPoints(ctx, trainerID, reward.GardenPoints); err != nil {
		return nil, err
	}

	now := time.Now()
	active.Claimed = true
	active.ClaimedAt = &now
	if err := t.missions.UpdateActive(ctx, active); err != nil {
		return nil, err
	}

	slog.Info("Mission reward claimed",
		slog.String("type", "game"),
		slog.String("trainer_id", trainerID),
		slog.String("mission_id", active.MissionID),
		slog.Int("levels", reward.Levels),
		slog.Int64("coins", reward.Coins),
	)
	return reward, nil
}

// AbandonMission drops the trainer's active mission with no reward.
func (t *Tracker) AbandonMission(ctx context.Context, trainerID string) error {
	t.locks.Lock(trainerID)
	defer t.locks.Unlock(trainerID)

	found, err := t.missions.DeleteActive(ctx, trainerID)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound("active mission", trainerID)
	}
	return nil
}

// GetActive returns the trainer's active mission with its definition
// loaded, or (nil, nil) when there is none.
func (t *Tracker) GetActive(ctx context.Context, trainerID string) (*models.ActiveMission, error) {
	return t.missions.GetActive(ctx, trainerID)
}

func scaleReward(def *models.MissionDefinition) *models.MissionReward {
	m := def.DifficultyMultiplier()
	return &models.MissionReward{
		Levels:       int(math.Floor(float64(def.Reward.Levels) * m)),
		Coins:        int64(math.Floor(float64(def.Reward.Coins) * m)),
		GardenPoints: int64(math.Floor(float64(def.Reward.GardenPoints) * m)),
	}
}

func addClampedInt(counter *int, delta, target int) bool {
	if delta <= 0 || (target > 0 && *counter >= target) {
		return false
	}
	*counter += delta
	if target > 0 && *counter > target {
		*counter = target
	}
	return true
}

func addClampedInt64(counter *int64, delta, target int64) bool {
	if delta <= 0 || (target > 0 && *counter >= target) {
		return false
	}
	*counter += delta
	if target > 0 && *counter > target {
		*counter = target
	}
	return true
}
