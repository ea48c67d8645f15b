package boss

import (
	"context"
	"log/slog"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/utils"
)

// DamageResult reports the outcome of one damage application.
type DamageResult struct {
	AppliedDamage int64
	CurrentHealth int64
	Defeated      bool // true only on the killing hit
}

// ContributionInfo is one trainer's standing against a boss.
type ContributionInfo struct {
	DamageDealt            int64
	AttackCount            int
	ContributionPercentage float64
	Rank                   int
	TotalParticipants      int
}

// Encounter owns the shared health pool and contribution ledger for boss
// fights. Health and contributions for one boss are mutated by every
// trainer fighting it, so all writes serialize on a per-boss mutex; the
// defeat transition happens under the same lock as the killing hit.
type Encounter struct {
	bosses repositories.BossRepository
	ledger *progression.Ledger
	config *RewardConfig
	locks  *utils.KeyMutex
}

func NewEncounter(bosses repositories.BossRepository, ledger *progression.Ledger, config *RewardConfig) *Encounter {
	return &Encounter{
		bosses: bosses,
		ledger: ledger,
		config: config,
		locks:  utils.NewKeyMutex(),
	}
}

// Spawn creates a new active boss. Only one boss may be active at a time;
// the partial unique index on status backs this up at the storage layer.
func (e *Encounter) Spawn(ctx context.Context, bossID, name string, maxHealth int64) (*models.Boss, error) {
	if maxHealth <= 0 {
		return nil, errs.Validation("max_health", "must be positive")
	}

	current, err := e.bosses.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, errs.Conflictf("boss %s is still active", current.BossID)
	}

	boss := &models.Boss{
		BossID:        bossID,
		Name:          name,
		MaxHealth:     maxHealth,
		CurrentHealth: maxHealth,
		Status:        models.BossStatusActive,
		StartedAt:     time.Now(),
	}
	if err := e.bosses.Create(ctx, boss); err != nil {
		return nil, err
	}

	slog.Info("Boss spawned",
		slog.String("type", "game"),
		slog.String("boss_id", bossID),
		slog.Int64("max_health", maxHealth),
	)
	return boss, nil
}

// Current returns the active boss, or (nil, nil) when none is up.
func (e *Encounter) Current(ctx context.Context) (*models.Boss, error) {
	return e.bosses.GetCurrent(ctx)
}

// ApplyDamage lands a hit. Damage is clamped to the remaining health so
// the ledger invariant holds: recorded contributions always sum to
// maxHealth - currentHealth. The hit that empties the pool flips the boss
// to defeated in the same operation.
func (e *Encounter) ApplyDamage(ctx context.Context, bossID, trainerID string, rawDamage int64, at time.Time) (*DamageResult, error) {
	if rawDamage < 0 {
		return nil, errs.Validation("damage", "must not be negative")
	}

	e.locks.Lock(bossID)
	defer e.locks.Unlock(bossID)

	boss, err := e.bosses.GetByBossID(ctx, bossID)
	if err != nil {
		return nil, err
	}
	if boss.Status == models.BossStatusDefeated {
		return nil, errs.Conflict("boss already defeated")
	}

	applied := rawDamage
	if applied > boss.CurrentHealth {
		applied = boss.CurrentHealth
	}

	contribution, err := e.bosses.GetContribution(ctx, bossID, trainerID)
	if err != nil {
		return nil, err
	}
	if contribution == nil {
		contribution = &models.BossContribution{
			BossID:        bossID,
			TrainerID:     trainerID,
			FirstAttackAt: at,
		}
	}
	contribution.DamageDealt += applied
	contribution.AttackCount++
	if err := e.bosses.UpsertContribution(ctx, contribution); err != nil {
		return nil, err
	}

	boss.CurrentHealth -= applied
	defeated := boss.CurrentHealth == 0
	if defeated {
		boss.Status = models.BossStatusDefeated
		boss.DefeatedAt = &at
	}
	if err := e.bosses.Update(ctx, boss); err != nil {
		return nil, err
	}

	if defeated {
		slog.Info("Boss defeated",
			slog.String("type", "game"),
			slog.String("boss_id", bossID),
			slog.String("finishing_trainer", trainerID),
		)
	}

	return &DamageResult{
		AppliedDamage: applied,
		CurrentHealth: boss.CurrentHealth,
		Defeated:      defeated,
	}, nil
}

// GetLeaderboard returns contributions ranked by damage dealt, earliest
// first attacker winning exact ties.
func (e *Encounter) GetLeaderboard(ctx context.Context, bossID string) ([]*models.BossContribution, error) {
	if _, err := e.bosses.GetByBossID(ctx, bossID); err != nil {
		return nil, err
	}
	return e.bosses.GetContributions(ctx, bossID)
}

// GetContribution returns one trainer's damage, attack count, share of
// the boss's max health, and leaderboard rank.
func (e *Encounter) GetContribution(ctx context.Context, bossID, trainerID string) (*ContributionInfo, error) {
	boss, err := e.bosses.GetByBossID(ctx, bossID)
	if err != nil {
		return nil, err
	}

	contributions, err := e.bosses.GetContributions(ctx, bossID)
	if err != nil {
		return nil, err
	}

	for i, c := range contributions {
		if c.TrainerID == trainerID {
			return &ContributionInfo{
				DamageDealt:            c.DamageDealt,
				AttackCount:            c.AttackCount,
				ContributionPercentage: percentage(c.DamageDealt, boss.MaxHealth),
				Rank:                   i + 1,
				TotalParticipants:      len(contributions),
			}, nil
		}
	}
	return nil, errs.NotFound("boss contribution", trainerID)
}

// ClaimRewards grants a trainer's defeat reward at most once per boss.
// The reward scales with the trainer's contribution percentage.
func (e *Encounter) ClaimRewards(ctx context.Context, bossID, trainerID string) (*models.BossRewardClaim, error) {
	e.locks.Lock(bossID)
	defer e.locks.Unlock(bossID)

	boss, err := e.bosses.GetByBossID(ctx, bossID)
	if err != nil {
		return nil, err
	}
	if boss.Status != models.BossStatusDefeated {
		return nil, errs.Conflict("boss is not defeated yet")
	}

	existing, err := e.bosses.GetClaim(ctx, bossID, trainerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("boss reward already claimed")
	}

	info, err := e.GetContribution(ctx, bossID, trainerID)
	if err != nil {
		return nil, err
	}

	claim := &models.BossRewardClaim{
		BossID:       bossID,
		TrainerID:    trainerID,
		Tier:         models.RewardTierFor(info.ContributionPercentage),
		Coins:        e.config.CoinsFor(info.ContributionPercentage),
		Contribution: info.ContributionPercentage,
	}
	if err := e.bosses.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}
	if err := e.ledger.AddCoins(ctx, trainerID, claim.Coins); err != nil {
		return nil, err
	}

	slog.Info("Boss reward claimed",
		slog.String("type", "game"),
		slog.String("boss_id", bossID),
		slog.String("trainer_id", trainerID),
		slog.String("tier", claim.Tier),
		slog.Int64("coins", claim.Coins),
	)
	return claim, nil
}

func percentage(damage, maxHealth int64) float64 {
	if maxHealth <= 0 {
		return 0
	}
	return float64(damage) / float64(maxHealth) * 100
}
