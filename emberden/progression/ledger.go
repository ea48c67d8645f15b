package progression

import (
	"context"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/utils"
)

// Result reports what a level application actually did. CappedLevels is
// the portion that could not land because the entity was at or near the
// level cap.
type Result struct {
	AppliedLevels int64
	CappedLevels  int64
	NewLevel      int
}

// Ledger is the single writer for trainer and monster progression. All
// level mutation goes through here so the cap/overflow arithmetic stays
// sound: concurrent applications for the same entity serialize on a
// per-entity mutex.
type Ledger struct {
	trainers repositories.TrainerRepository
	monsters repositories.MonsterRepository
	locks    *utils.KeyMutex
}

func NewLedger(trainers repositories.TrainerRepository, monsters repositories.MonsterRepository) *Ledger {
	return &Ledger{
		trainers: trainers,
		monsters: monsters,
		locks:    utils.NewKeyMutex(),
	}
}

// ApplyTrainerLevels raises a trainer's level by up to levels, clamped at
// the cap. Levels lost to the cap are reported, never silently dropped.
func (l *Ledger) ApplyTrainerLevels(ctx context.Context, trainerID string, levels int64) (*Result, error) {
	if levels < 0 {
		return nil, errs.Validation("levels", "must not be negative")
	}

	key := "trainer:" + trainerID
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	trainer, err := l.trainers.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	result := capLevels(trainer.Level, levels)
	if result.AppliedLevels > 0 {
		if err := l.trainers.SetLevel(ctx, trainerID, result.NewLevel); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ApplyMonsterLevels is ApplyTrainerLevels for a monster entity.
func (l *Ledger) ApplyMonsterLevels(ctx context.Context, monsterID string, levels int64) (*Result, error) {
	if levels < 0 {
		return nil, errs.Validation("levels", "must not be negative")
	}

	key := "monster:" + monsterID
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	monster, err := l.monsters.GetByMonsterID(ctx, monsterID)
	if err != nil {
		return nil, err
	}

	result := capLevels(monster.Level, levels)
	if result.AppliedLevels > 0 {
		if err := l.monsters.SetLevel(ctx, monsterID, result.NewLevel); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// AddCoins credits currency in full. Capping throttles levels only, never
// coins.
func (l *Ledger) AddCoins(ctx context.Context, trainerID string, amount int64) error {
	if amount < 0 {
		return errs.Validation("amount", "must not be negative")
	}
	if amount == 0 {
		return nil
	}
	return l.trainers.AddCoins(ctx, trainerID, amount)
}

// AddGardenPoints credits the per-trainer garden accumulator.
func (l *Ledger) AddGardenPoints(ctx context.Context, trainerID string, points int64) error {
	if points < 0 {
		return errs.Validation("points", "must not be negative")
	}
	if points == 0 {
		return nil
	}
	return l.trainers.AddGardenPoints(ctx, trainerID, points)
}

func capLevels(current int, levels int64) *Result {
	newLevel := current + int(levels)
	if newLevel > models.MaxLevel {
		newLevel = models.MaxLevel
	}
	applied := int64(newLevel - current)
	return &Result{
		AppliedLevels: applied,
		CappedLevels:  levels - applied,
		NewLevel:      newLevel,
	}
}
