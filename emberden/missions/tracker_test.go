package missions

import (
	"context"
	"testing"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/progression"
)

type fakeMissionRepo struct {
	defs   map[string]*models.MissionDefinition
	active map[string]*models.ActiveMission
}

func newFakeMissionRepo(defs ...*models.MissionDefinition) *fakeMissionRepo {
	repo := &fakeMissionRepo{
		defs:   make(map[string]*models.MissionDefinition),
		active: make(map[string]*models.ActiveMission),
	}
	for _, d := range defs {
		repo.defs[d.MissionID] = d
	}
	return repo
}

func (r *fakeMissionRepo) GetDefinition(_ context.Context, missionID string) (*models.MissionDefinition, error) {
	def, ok := r.defs[missionID]
	if !ok {
		return nil, errs.NotFound("mission", missionID)
	}
	return def, nil
}

func (r *fakeMissionRepo) GetAllDefinitions(_ context.Context) ([]*models.MissionDefinition, error) {
	var out []*models.MissionDefinition
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeMissionRepo) CreateDefinition(_ context.Context, def *models.MissionDefinition) error {
	r.defs[def.MissionID] = def
	return nil
}

func (r *fakeMissionRepo) GetActive(_ context.Context, trainerID string) (*models.ActiveMission, error) {
	active, ok := r.active[trainerID]
	if !ok {
		return nil, nil
	}
	active.Definition = r.defs[active.MissionID]
	return active, nil
}

func (r *fakeMissionRepo) CreateActive(_ context.Context, active *models.ActiveMission) error {
	if _, exists := r.active[active.TrainerID]; exists {
		return errs.Conflict("active mission already exists")
	}
	r.active[active.TrainerID] = active
	return nil
}

func (r *fakeMissionRepo) UpdateActive(_ context.Context, active *models.ActiveMission) error {
	r.active[active.TrainerID] = active
	return nil
}

func (r *fakeMissionRepo) DeleteActive(_ context.Context, trainerID string) (bool, error) {
	_, ok := r.active[trainerID]
	delete(r.active, trainerID)
	return ok, nil
}

type trackerTrainerRepo struct {
	trainers map[string]*models.Trainer
}

func (r *trackerTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	r.trainers[trainer.TrainerID] = trainer
	return nil
}

func (r *trackerTrainerRepo) GetByTrainerID(_ context.Context, trainerID string) (*models.Trainer, error) {
	trainer, ok := r.trainers[trainerID]
	if !ok {
		return nil, errs.NotFound("trainer", trainerID)
	}
	return trainer, nil
}

func (r *trackerTrainerRepo) GetByOwnerID(_ context.Context, _ string) ([]*models.Trainer, error) {
	return nil, nil
}

func (r *trackerTrainerRepo) SetLevel(_ context.Context, trainerID string, level int) error {
	r.trainers[trainerID].Level = level
	return nil
}

func (r *trackerTrainerRepo) AddCoins(_ context.Context, trainerID string, amount int64) error {
	r.trainers[trainerID].Coins += amount
	return nil
}

func (r *trackerTrainerRepo) AddGardenPoints(_ context.Context, trainerID string, amount int64) error {
	r.trainers[trainerID].GardenPoints += amount
	return nil
}

func (r *trackerTrainerRepo) GetAll(_ context.Context) ([]*models.Trainer, error) {
	return nil, nil
}

type trackerMonsterRepo struct{}

func (trackerMonsterRepo) Create(_ context.Context, _ *models.Monster) error { return nil }
func (trackerMonsterRepo) GetByMonsterID(_ context.Context, id string) (*models.Monster, error) {
	return nil, errs.NotFound("monster", id)
}
func (trackerMonsterRepo) GetByTrainerID(_ context.Context, _ string) ([]*models.Monster, error) {
	return nil, nil
}
func (trackerMonsterRepo) SetLevel(_ context.Context, _ string, _ int) error   { return nil }
func (trackerMonsterRepo) AddCoins(_ context.Context, _ string, _ int64) error { return nil }

func newTestTracker(defs ...*models.MissionDefinition) (*Tracker, *fakeMissionRepo, *trackerTrainerRepo) {
	repo := newFakeMissionRepo(defs...)
	trainers := &trackerTrainerRepo{trainers: map[string]*models.Trainer{
		"tr_1": {TrainerID: "tr_1", Level: 10},
	}}
	ledger := progression.NewLedger(trainers, trackerMonsterRepo{})
	return NewTracker(repo, ledger), repo, trainers
}

func writingMission() *models.MissionDefinition {
	return &models.MissionDefinition{
		MissionID:  "m_write",
		Name:       "Wordsmith",
		Type:       models.MissionTypeWriting,
		Difficulty: models.DifficultyNormal,
		Targets:    models.MissionTargets{WordCount: 1000},
		Reward:     models.MissionReward{Levels: 2, Coins: 100, GardenPoints: 10},
	}
}

func TestTracker_StartMission(t *testing.T) {
	tracker, _, _ := newTestTracker(writingMission())
	ctx := context.Background()

	active, err := tracker.StartMission(ctx, "tr_1", "m_write")
	if err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}
	if active.MissionID != "m_write" || active.Completed || active.Claimed {
		t.Errorf("StartMission() = %+v, want fresh active mission", active)
	}

	// A second mission while the first is live is rejected.
	if _, err := tracker.StartMission(ctx, "tr_1", "m_write"); !errs.IsConflict(err) {
		t.Errorf("second StartMission() error = %v, want conflict", err)
	}
}

func TestTracker_StartMission_UnknownDefinition(t *testing.T) {
	tracker, _, _ := newTestTracker()
	if _, err := tracker.StartMission(context.Background(), "tr_1", "m_missing"); !errs.IsNotFound(err) {
		t.Errorf("StartMission() error = %v, want not found", err)
	}
}

func TestTracker_StartMission_SweepsClaimedLeftover(t *testing.T) {
	tracker, repo, _ := newTestTracker(writingMission())
	ctx := context.Background()

	repo.active["tr_1"] = &models.ActiveMission{
		TrainerID: "tr_1",
		MissionID: "m_write",
		Completed: true,
		Claimed:   true,
	}

	active, err := tracker.StartMission(ctx, "tr_1", "m_write")
	if err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}
	if active.Completed || active.Claimed || active.Progress.WordCount != 0 {
		t.Errorf("StartMission() = %+v, want a reset mission", active)
	}
}

func TestTracker_ApplyProgress(t *testing.T) {
	tracker, _, _ := newTestTracker(writingMission())
	ctx := context.Background()

	if _, err := tracker.StartMission(ctx, "tr_1", "m_write"); err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}

	got, err := tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeWriting, Delta{WordCount: 600, Submissions: 1})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if !got.Advanced || got.Completed || got.Progress.WordCount != 600 {
		t.Errorf("ApplyProgress() = %+v, want advanced with 600 words", got)
	}

	// Non-matching submission type is a no-op.
	got, err = tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeArt, Delta{Submissions: 1})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if got.Advanced {
		t.Errorf("art submission advanced a writing mission")
	}

	// Overshoot clamps at the target and completes.
	got, err = tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeWriting, Delta{WordCount: 900, Submissions: 1})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if !got.Completed || got.Progress.WordCount != 1000 {
		t.Errorf("ApplyProgress() = %+v, want completed at clamped 1000 words", got)
	}

	// Further progress after completion is a no-op.
	got, err = tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeWriting, Delta{WordCount: 200})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if got.Advanced || got.Completed {
		t.Errorf("ApplyProgress() after completion = %+v, want no-op", got)
	}
}

func TestTracker_ApplyProgress_NoActiveMission(t *testing.T) {
	tracker, _, _ := newTestTracker()
	got, err := tracker.ApplyProgress(context.Background(), "tr_1", models.SubmissionTypeWriting, Delta{WordCount: 500})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if got.Advanced || got.Completed {
		t.Errorf("ApplyProgress() without a mission = %+v, want no-op", got)
	}
}

func TestTracker_ApplyProgress_Collection(t *testing.T) {
	def := &models.MissionDefinition{
		MissionID:  "m_collect",
		Name:       "Menagerie",
		Type:       models.MissionTypeCollection,
		Difficulty: models.DifficultyHard,
		Targets:    models.MissionTargets{TagSets: [][]string{{"fire", "water"}}},
		Reward:     models.MissionReward{Coins: 50},
	}
	tracker, _, _ := newTestTracker(def)
	ctx := context.Background()

	if _, err := tracker.StartMission(ctx, "tr_1", "m_collect"); err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}

	got, err := tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeArt, Delta{Tags: []string{"fire", "fire", ""}})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if !got.Advanced || got.Completed || len(got.Progress.Collected) != 1 {
		t.Errorf("ApplyProgress() = %+v, want one collected tag", got)
	}

	// Repeating an already collected tag does not advance.
	got, err = tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeArt, Delta{Tags: []string{"fire"}})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if got.Advanced {
		t.Errorf("duplicate tag advanced the mission")
	}

	got, err = tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeArt, Delta{Tags: []string{"water"}})
	if err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	if !got.Completed {
		t.Errorf("ApplyProgress() = %+v, want completed once the set is covered", got)
	}
}

func TestTracker_ClaimReward(t *testing.T) {
	tracker, repo, trainers := newTestTracker(writingMission())
	ctx := context.Background()

	if _, err := tracker.StartMission(ctx, "tr_1", "m_write"); err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}

	// Claiming an incomplete mission is rejected.
	if _, err := tracker.ClaimReward(ctx, "tr_1"); !errs.IsConflict(err) {
		t.Errorf("ClaimReward() on incomplete mission error = %v, want conflict", err)
	}

	if _, err := tracker.ApplyProgress(ctx, "tr_1", models.SubmissionTypeWriting, Delta{WordCount: 1000}); err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}

	reward, err := tracker.ClaimReward(ctx, "tr_1")
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}
	// Normal difficulty multiplies the reward template by 1.5.
	if reward.Levels != 3 || reward.Coins != 150 || reward.GardenPoints != 15 {
		t.Errorf("ClaimReward() = %+v, want levels=3 coins=150 garden=15", reward)
	}

	trainer := trainers.trainers["tr_1"]
	if trainer.Level != 13 || trainer.Coins != 150 || trainer.GardenPoints != 15 {
		t.Errorf("trainer after claim = %+v, want level=13 coins=150 garden=15", trainer)
	}

	// A repeat claim returns the same reward without granting again.
	again, err := tracker.ClaimReward(ctx, "tr_1")
	if err != nil {
		t.Fatalf("repeat ClaimReward() error = %v", err)
	}
	if again.Coins != reward.Coins {
		t.Errorf("repeat ClaimReward() = %+v, want %+v", again, reward)
	}
	if trainer.Coins != 150 {
		t.Errorf("coins after repeat claim = %d, want 150", trainer.Coins)
	}

	// The claimed row is swept by the next start.
	if _, err := tracker.StartMission(ctx, "tr_1", "m_write"); err != nil {
		t.Fatalf("StartMission() after claim error = %v", err)
	}
	if repo.active["tr_1"].Claimed {
		t.Errorf("new mission inherited the claimed flag")
	}
}

func TestTracker_AbandonMission(t *testing.T) {
	tracker, _, _ := newTestTracker(writingMission())
	ctx := context.Background()

	if err := tracker.AbandonMission(ctx, "tr_1"); !errs.IsNotFound(err) {
		t.Errorf("AbandonMission() without a mission error = %v, want not found", err)
	}

	if _, err := tracker.StartMission(ctx, "tr_1", "m_write"); err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}
	if err := tracker.AbandonMission(ctx, "tr_1"); err != nil {
		t.Fatalf("AbandonMission() error = %v", err)
	}

	active, err := tracker.GetActive(ctx, "tr_1")
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if active != nil {
		t.Errorf("GetActive() after abandon = %+v, want nil", active)
	}
}
