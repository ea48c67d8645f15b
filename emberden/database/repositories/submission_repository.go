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

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	GetRecentByTrainer(ctx context.Context, trainerID string, limit int) ([]*models.Submission, error)
}

type submissionRepository struct {
	db *bun.DB
}

func NewSubmissionRepository(db *bun.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	submission.CreatedAt = time.Now()
	if _, err := r.db.NewInsert().Model(submission).Exec(ctx); err != nil {
		return errs.Storage("submission insert", err)
	}
	return nil
}

func (r *submissionRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission := new(models.Submission)
	err := r.db.NewSelect().
		Model(submission).
		Where("submission_id = ?", submissionID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("submission", submissionID)
		}
		return nil, errs.Storage("submission select", err)
	}

	return submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	_, err := r.db.NewUpdate().
		Model(submission).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errs.Storage("submission update", err)
	}
	return nil
}

func (r *submissionRepository) GetRecentByTrainer(ctx context.Context, trainerID string, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.NewSelect().
		Model(&submissions).
		Where("trainer_id = ?", trainerID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errs.Storage("submission select recent", err)
	}
	return submissions, nil
}
