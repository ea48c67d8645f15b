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

type MonsterRepository interface {
	Create(ctx context.Context, monster *models.Monster) error
	GetByMonsterID(ctx context.Context, monsterID string) (*models.Monster, error)
	GetByTrainerID(ctx context.Context, trainerID string) ([]*models.Monster, error)
	SetLevel(ctx context.Context, monsterID string, level int) error
	AddCoins(ctx context.Context, monsterID string, amount int64) error
}

type monsterRepository struct {
	db *bun.DB
}

func NewMonsterRepository(db *bun.DB) MonsterRepository {
	return &monsterRepository{db: db}
}

func (r *monsterRepository) Create(ctx context.Context, monster *models.Monster) error {
	monster.CreatedAt = time.Now()
	monster.UpdatedAt = time.Now()
	if _, err := r.db.NewInsert().Model(monster).Exec(ctx); err != nil {
		return errs.Storage("monster insert", err)
	}
	return nil
}

func (r *monsterRepository) GetByMonsterID(ctx context.Context, monsterID string) (*models.Monster, error) {
	monster := new(models.Monster)
	err := r.db.NewSelect().
		Model(monster).
		Where("monster_id = ?", monsterID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("monster", monsterID)
		}
		return nil, errs.Storage("monster select", err)
	}

	return monster, nil
}

func (r *monsterRepository) GetByTrainerID(ctx context.Context, trainerID string) ([]*models.Monster, error) {
	var monsters []*models.Monster
	err := r.db.NewSelect().
		Model(&monsters).
		Where("trainer_id = ?", trainerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("monster select by trainer", err)
	}
	return monsters, nil
}

func (r *monsterRepository) SetLevel(ctx context.Context, monsterID string, level int) error {
	res, err := r.db.NewUpdate().
		Model((*models.Monster)(nil)).
		Set("level = ?", level).
		Set("updated_at = ?", time.Now()).
		Where("monster_id = ?", monsterID).
		Exec(ctx)
	if err != nil {
		return errs.Storage("monster level update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("monster", monsterID)
	}
	return nil
}

func (r *monsterRepository) AddCoins(ctx context.Context, monsterID string, amount int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.Monster)(nil)).
		Set("coins = coins + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("monster_id = ?", monsterID).
		Exec(ctx)
	if err != nil {
		return errs.Storage("monster coin update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("monster", monsterID)
	}
	return nil
}
