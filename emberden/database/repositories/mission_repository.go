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

type MissionRepository interface {
	// Definitions
	GetDefinition(ctx context.Context, missionID string) (*models.MissionDefinition, error)
	GetAllDefinitions(ctx context.Context) ([]*models.MissionDefinition, error)
	CreateDefinition(ctx context.Context, def *models.MissionDefinition) error

	// Active missions. GetActive returns (nil, nil) when the trainer has no
	// live row, so callers can treat "no mission" as a normal state.
	GetActive(ctx context.Context, trainerID string) (*models.ActiveMission, error)
	CreateActive(ctx context.Context, active *models.ActiveMission) error
	UpdateActive(ctx context.Context, active *models.ActiveMission) error
	DeleteActive(ctx context.Context, trainerID string) (bool, error)
}

type missionRepository struct {
	db *bun.DB
}

func NewMissionRepository(db *bun.DB) MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) GetDefinition(ctx context.Context, missionID string) (*models.MissionDefinition, error) {
	def := new(models.MissionDefinition)
	err := r.db.NewSelect().
		Model(def).
		Where("mission_id = ?", missionID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("mission", missionID)
		}
		return nil, errs.Storage("mission definition select", err)
	}

	return def, nil
}

func (r *missionRepository) GetAllDefinitions(ctx context.Context) ([]*models.MissionDefinition, error) {
	var defs []*models.MissionDefinition
	err := r.db.NewSelect().
		Model(&defs).
		Order("type ASC", "difficulty ASC", "mission_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("mission definition select all", err)
	}
	return defs, nil
}

func (r *missionRepository) CreateDefinition(ctx context.Context, def *models.MissionDefinition) error {
	def.CreatedAt = time.Now()
	def.UpdatedAt = time.Now()
	if _, err := r.db.NewInsert().Model(def).Exec(ctx); err != nil {
		return errs.Storage("mission definition insert", err)
	}
	return nil
}

func (r *missionRepository) GetActive(ctx context.Context, trainerID string) (*models.ActiveMission, error) {
	active := new(models.ActiveMission)
	err := r.db.NewSelect().
		Model(active).
		Relation("Definition").
		Where("am.trainer_id = ?", trainerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("active mission select", err)
	}

	return active, nil
}

func (r *missionRepository) CreateActive(ctx context.Context, active *models.ActiveMission) error {
	active.CreatedAt = time.Now()
	active.UpdatedAt = time.Now()
	if active.StartedAt.IsZero() {
		active.StartedAt = time.Now()
	}
	if _, err := r.db.NewInsert().Model(active).Exec(ctx); err != nil {
		return errs.Storage("active mission insert", err)
	}
	return nil
}

func (r *missionRepository) UpdateActive(ctx context.Context, active *models.ActiveMission) error {
	active.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(active).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errs.Storage("active mission update", err)
	}
	return nil
}

func (r *missionRepository) DeleteActive(ctx context.Context, trainerID string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*models.ActiveMission)(nil)).
		Where("trainer_id = ?", trainerID).
		Exec(ctx)
	if err != nil {
		return false, errs.Storage("active mission delete", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
