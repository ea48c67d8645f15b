package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/uptrace/bun"
)

type TrainerRepository interface {
	Create(ctx context.Context, trainer *models.Trainer) error
	GetByTrainerID(ctx context.Context, trainerID string) (*models.Trainer, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Trainer, error)
	SetLevel(ctx context.Context, trainerID string, level int) error
	AddCoins(ctx context.Context, trainerID string, amount int64) error
	AddGardenPoints(ctx context.Context, trainerID string, amount int64) error
	GetAll(ctx context.Context) ([]*models.Trainer, error)
}

type trainerRepository struct {
	db *bun.DB
}

func NewTrainerRepository(db *bun.DB) TrainerRepository {
	return &trainerRepository{db: db}
}

func (r *trainerRepository) Create(ctx context.Context, trainer *models.Trainer) error {
	trainer.CreatedAt = time.Now()
	trainer.UpdatedAt = time.Now()
	if _, err := r.db.NewInsert().Model(trainer).Exec(ctx); err != nil {
		return errs.Storage("trainer insert", err)
	}
	return nil
}

func (r *trainerRepository) GetByTrainerID(ctx context.Context, trainerID string) (*models.Trainer, error) {
	trainer := new(models.Trainer)
	err := r.db.NewSelect().
		Model(trainer).
		Where("trainer_id = ?", trainerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("trainer", trainerID)
		}
		slog.Error("Database error when getting trainer",
			slog.String("type", "db"),
			slog.String("operation", "GetByTrainerID"),
			slog.String("trainer_id", trainerID),
			slog.Any("error", err))
		return nil, errs.Storage("trainer select", err)
	}

	return trainer, nil
}

func (r *trainerRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Trainer, error) {
	var trainers []*models.Trainer
	err := r.db.NewSelect().
		Model(&trainers).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("trainer select by owner", err)
	}
	return trainers, nil
}

func (r *trainerRepository) SetLevel(ctx context.Context, trainerID string, level int) error {
	res, err := r.db.NewUpdate().
		Model((*models.Trainer)(nil)).
		Set("level = ?", level).
		Set("updated_at = ?", time.Now()).
		Where("trainer_id = ?", trainerID).
		Exec(ctx)
	if err != nil {
		return errs.Storage("trainer level update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("trainer", trainerID)
	}
	return nil
}

func (r *trainerRepository) AddCoins(ctx context.Context, trainerID string, amount int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.Trainer)(nil)).
		Set("coins = coins + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("trainer_id = ?", trainerID).
		Exec(ctx)
	if err != nil {
		return errs.Storage("trainer coin update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("trainer", trainerID)
	}
	return nil
}

func (r *trainerRepository) AddGardenPoints(ctx context.Context, trainerID string, amount int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.Trainer)(nil)).
		Set("garden_points = garden_points + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("trainer_id = ?", trainerID).
		Exec(ctx)
	if err != nil {
		return errs.Storage("trainer garden update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("trainer", trainerID)
	}
	return nil
}

func (r *trainerRepository) GetAll(ctx context.Context) ([]*models.Trainer, error) {
	var trainers []*models.Trainer
	err := r.db.NewSelect().
		Model(&trainers).
		Order("level DESC", "coins DESC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("trainer select all", err)
	}
	return trainers, nil
}
