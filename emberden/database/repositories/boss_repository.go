package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/uptrace/bun"
)

type BossRepository interface {
	Create(ctx context.Context, boss *models.Boss) error
	GetByBossID(ctx context.Context, bossID string) (*models.Boss, error)
	// GetCurrent returns (nil, nil) when no boss is active.
	GetCurrent(ctx context.Context) (*models.Boss, error)
	GetLatestDefeated(ctx context.Context) (*models.Boss, error)
	Update(ctx context.Context, boss *models.Boss) error

	GetContribution(ctx context.Context, bossID, trainerID string) (*models.BossContribution, error)
	GetContributions(ctx context.Context, bossID string) ([]*models.BossContribution, error)
	UpsertContribution(ctx context.Context, contribution *models.BossContribution) error

	GetClaim(ctx context.Context, bossID, trainerID string) (*models.BossRewardClaim, error)
	CreateClaim(ctx context.Context, claim *models.BossRewardClaim) error
}

type bossRepository struct {
	db *bun.DB
}

func NewBossRepository(db *bun.DB) BossRepository {
	return &bossRepository{db: db}
}

func (r *bossRepository) Create(ctx context.Context, boss *models.Boss) error {
	if boss.StartedAt.IsZero() {
		boss.StartedAt = time.Now()
	}
	if _, err := r.db.NewInsert().Model(boss).Exec(ctx); err != nil {
		return errs.Storage("boss insert", err)
	}
	return nil
}

func (r *bossRepository) GetByBossID(ctx context.Context, bossID string) (*models.Boss, error) {
	boss := new(models.Boss)
	err := r.db.NewSelect().
		Model(boss).
		Where("boss_id = ?", bossID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("boss", bossID)
		}
		return nil, errs.Storage("boss select", err)
	}

	return boss, nil
}

func (r *bossRepository) GetCurrent(ctx context.Context) (*models.Boss, error) {
	boss := new(models.Boss)
	err := r.db.NewSelect().
		Model(boss).
		Where("status = ?", models.BossStatusActive).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("current boss select", err)
	}

	return boss, nil
}

func (r *bossRepository) GetLatestDefeated(ctx context.Context) (*models.Boss, error) {
	boss := new(models.Boss)
	err := r.db.NewSelect().
		Model(boss).
		Where("status = ?", models.BossStatusDefeated).
		Order("defeated_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("boss", "latest defeated")
		}
		return nil, errs.Storage("latest defeated boss select", err)
	}

	return boss, nil
}

func (r *bossRepository) Update(ctx context.Context, boss *models.Boss) error {
	_, err := r.db.NewUpdate().
		Model(boss).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errs.Storage("boss update", err)
	}
	return nil
}

func (r *bossRepository) GetContribution(ctx context.Context, bossID, trainerID string) (*models.BossContribution, error) {
	contribution := new(models.BossContribution)
	err := r.db.NewSelect().
		Model(contribution).
		Where("boss_id = ? AND trainer_id = ?", bossID, trainerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("boss contribution select", err)
	}

	return contribution, nil
}

func (r *bossRepository) GetContributions(ctx context.Context, bossID string) ([]*models.BossContribution, error) {
	var contributions []*models.BossContribution
	err := r.db.NewSelect().
		Model(&contributions).
		Where("boss_id = ?", bossID).
		Order("damage_dealt DESC", "first_attack_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("boss contributions select", err)
	}
	return contributions, nil
}

func (r *bossRepository) UpsertContribution(ctx context.Context, contribution *models.BossContribution) error {
	contribution.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(contribution).
		On("CONFLICT (boss_id, trainer_id) DO UPDATE").
		Set("damage_dealt = EXCLUDED.damage_dealt").
		Set("attack_count = EXCLUDED.attack_count").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errs.Storage("boss contribution upsert", err)
	}
	return nil
}

func (r *bossRepository) GetClaim(ctx context.Context, bossID, trainerID string) (*models.BossRewardClaim, error) {
	claim := new(models.BossRewardClaim)
	err := r.db.NewSelect().
		Model(claim).
		Where("boss_id = ? AND trainer_id = ?", bossID, trainerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("boss claim select", err)
	}

	return claim, nil
}

func (r *bossRepository) CreateClaim(ctx context.Context, claim *models.BossRewardClaim) error {
	claim.ClaimedAt = time.Now()
	if _, err := r.db.NewInsert().Model(claim).Exec(ctx); err != nil {
		return errs.Storage("boss claim insert", err)
	}
	return nil
}
