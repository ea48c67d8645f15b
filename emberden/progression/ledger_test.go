package progression

import (
	"context"
	"sync"
	"testing"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
)

type fakeTrainerRepo struct {
	trainers map[string]*models.Trainer
}

func newFakeTrainerRepo(trainers ...*models.Trainer) *fakeTrainerRepo {
	repo := &fakeTrainerRepo{trainers: make(map[string]*models.Trainer)}
	for _, t := range trainers {
		repo.trainers[t.TrainerID] = t
	}
	return repo
}

func (r *fakeTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	r.trainers[trainer.TrainerID] = trainer
	return nil
}

func (r *fakeTrainerRepo) GetByTrainerID(_ context.Context, trainerID string) (*models.Trainer, error) {
	trainer, ok := r.trainers[trainerID]
	if !ok {
		return nil, errs.NotFound("trainer", trainerID)
	}
	return trainer, nil
}

func (r *fakeTrainerRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*models.Trainer, error) {
	var out []*models.Trainer
	for _, t := range r.trainers {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTrainerRepo) SetLevel(_ context.Context, trainerID string, level int) error {
	trainer, ok := r.trainers[trainerID]
	if !ok {
		return errs.NotFound("trainer", trainerID)
	}
	trainer.Level = level
	return nil
}

func (r *fakeTrainerRepo) AddCoins(_ context.Context, trainerID string, amount int64) error {
	trainer, ok := r.trainers[trainerID]
	if !ok {
		return errs.NotFound("trainer", trainerID)
	}
	trainer.Coins += amount
	return nil
}

func (r *fakeTrainerRepo) AddGardenPoints(_ context.Context, trainerID string, amount int64) error {
	trainer, ok := r.trainers[trainerID]
	if !ok {
		return errs.NotFound("trainer", trainerID)
	}
	trainer.GardenPoints += amount
	return nil
}

func (r *fakeTrainerRepo) GetAll(_ context.Context) ([]*models.Trainer, error) {
	var out []*models.Trainer
	for _, t := range r.trainers {
		out = append(out, t)
	}
	return out, nil
}

type fakeMonsterRepo struct {
	monsters map[string]*models.Monster
}

func newFakeMonsterRepo(monsters ...*models.Monster) *fakeMonsterRepo {
	repo := &fakeMonsterRepo{monsters: make(map[string]*models.Monster)}
	for _, m := range monsters {
		repo.monsters[m.MonsterID] = m
	}
	return repo
}

func (r *fakeMonsterRepo) Create(_ context.Context, monster *models.Monster) error {
	r.monsters[monster.MonsterID] = monster
	return nil
}

func (r *fakeMonsterRepo) GetByMonsterID(_ context.Context, monsterID string) (*models.Monster, error) {
	monster, ok := r.monsters[monsterID]
	if !ok {
		return nil, errs.NotFound("monster", monsterID)
	}
	return monster, nil
}

func (r *fakeMonsterRepo) GetByTrainerID(_ context.Context, trainerID string) ([]*models.Monster, error) {
	var out []*models.Monster
	for _, m := range r.monsters {
		if m.TrainerID == trainerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMonsterRepo) SetLevel(_ context.Context, monsterID string, level int) error {
	monster, ok := r.monsters[monsterID]
	if !ok {
		return errs.NotFound("monster", monsterID)
	}
	monster.Level = level
	return nil
}

func (r *fakeMonsterRepo) AddCoins(_ context.Context, monsterID string, amount int64) error {
	monster, ok := r.monsters[monsterID]
	if !ok {
		return errs.NotFound("monster", monsterID)
	}
	monster.Coins += amount
	return nil
}

func TestLedger_ApplyTrainerLevels(t *testing.T) {
	tests := []struct {
		name        string
		startLevel  int
		levels      int64
		wantApplied int64
		wantCapped  int64
		wantLevel   int
	}{
		{
			name:        "normal gain",
			startLevel:  10,
			levels:      7,
			wantApplied: 7,
			wantCapped:  0,
			wantLevel:   17,
		},
		{
			name:        "partial cap",
			startLevel:  95,
			levels:      10,
			wantApplied: 5,
			wantCapped:  5,
			wantLevel:   100,
		},
		{
			name:        "already at cap",
			startLevel:  100,
			levels:      3,
			wantApplied: 0,
			wantCapped:  3,
			wantLevel:   100,
		},
		{
			name:        "zero levels",
			startLevel:  40,
			levels:      0,
			wantApplied: 0,
			wantCapped:  0,
			wantLevel:   40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainers := newFakeTrainerRepo(&models.Trainer{TrainerID: "tr_1", Level: tt.startLevel})
			ledger := NewLedger(trainers, newFakeMonsterRepo())

			got, err := ledger.ApplyTrainerLevels(context.Background(), "tr_1", tt.levels)
			if err != nil {
				t.Fatalf("ApplyTrainerLevels() error = %v", err)
			}
			if got.AppliedLevels != tt.wantApplied || got.CappedLevels != tt.wantCapped || got.NewLevel != tt.wantLevel {
				t.Errorf("ApplyTrainerLevels() = %+v, want applied=%d capped=%d level=%d",
					got, tt.wantApplied, tt.wantCapped, tt.wantLevel)
			}
			if trainers.trainers["tr_1"].Level != tt.wantLevel {
				t.Errorf("stored level = %d, want %d", trainers.trainers["tr_1"].Level, tt.wantLevel)
			}
			if got.AppliedLevels+got.CappedLevels != tt.levels {
				t.Errorf("applied+capped = %d, want %d", got.AppliedLevels+got.CappedLevels, tt.levels)
			}
		})
	}
}

func TestLedger_ConcurrentTrainerLevels(t *testing.T) {
	trainers := newFakeTrainerRepo(&models.Trainer{TrainerID: "tr_1", Level: 95})
	ledger := NewLedger(trainers, newFakeMonsterRepo())

	// Ten racing single-level gains against 5 remaining headroom: the
	// cap splits them 5 applied / 5 capped however they interleave.
	const callers = 10
	results := make(chan *Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ledger.ApplyTrainerLevels(context.Background(), "tr_1", 1)
			if err != nil {
				t.Errorf("ApplyTrainerLevels() error = %v", err)
				return
			}
			results <- got
		}()
	}
	wg.Wait()
	close(results)

	var applied, capped int64
	for got := range results {
		applied += got.AppliedLevels
		capped += got.CappedLevels
	}
	if applied != 5 || capped != 5 {
		t.Errorf("applied = %d, capped = %d, want 5 and 5", applied, capped)
	}
	if trainers.trainers["tr_1"].Level != models.MaxLevel {
		t.Errorf("stored level = %d, want %d", trainers.trainers["tr_1"].Level, models.MaxLevel)
	}
}

func TestLedger_ApplyTrainerLevels_Negative(t *testing.T) {
	ledger := NewLedger(newFakeTrainerRepo(), newFakeMonsterRepo())
	if _, err := ledger.ApplyTrainerLevels(context.Background(), "tr_1", -1); !errs.IsValidation(err) {
		t.Errorf("ApplyTrainerLevels(-1) error = %v, want validation error", err)
	}
}

func TestLedger_ApplyTrainerLevels_Missing(t *testing.T) {
	ledger := NewLedger(newFakeTrainerRepo(), newFakeMonsterRepo())
	if _, err := ledger.ApplyTrainerLevels(context.Background(), "tr_missing", 5); !errs.IsNotFound(err) {
		t.Errorf("ApplyTrainerLevels() error = %v, want not found", err)
	}
}

func TestLedger_ApplyMonsterLevels(t *testing.T) {
	monsters := newFakeMonsterRepo(&models.Monster{MonsterID: "mon_1", Level: 98})
	ledger := NewLedger(newFakeTrainerRepo(), monsters)

	got, err := ledger.ApplyMonsterLevels(context.Background(), "mon_1", 6)
	if err != nil {
		t.Fatalf("ApplyMonsterLevels() error = %v", err)
	}
	if got.AppliedLevels != 2 || got.CappedLevels != 4 || got.NewLevel != models.MaxLevel {
		t.Errorf("ApplyMonsterLevels() = %+v, want applied=2 capped=4 level=%d", got, models.MaxLevel)
	}
}

func TestLedger_AddCoins(t *testing.T) {
	trainers := newFakeTrainerRepo(&models.Trainer{TrainerID: "tr_1", Level: 100, Coins: 25})
	ledger := NewLedger(trainers, newFakeMonsterRepo())

	// Coins land in full even when the trainer is capped.
	if err := ledger.AddCoins(context.Background(), "tr_1", 500); err != nil {
		t.Fatalf("AddCoins() error = %v", err)
	}
	if got := trainers.trainers["tr_1"].Coins; got != 525 {
		t.Errorf("coins = %d, want 525", got)
	}

	if err := ledger.AddCoins(context.Background(), "tr_1", -5); !errs.IsValidation(err) {
		t.Errorf("AddCoins(-5) error = %v, want validation error", err)
	}
	if err := ledger.AddCoins(context.Background(), "tr_1", 0); err != nil {
		t.Errorf("AddCoins(0) error = %v, want nil", err)
	}
}

func TestLedger_AddGardenPoints(t *testing.T) {
	trainers := newFakeTrainerRepo(&models.Trainer{TrainerID: "tr_1"})
	ledger := NewLedger(trainers, newFakeMonsterRepo())

	if err := ledger.AddGardenPoints(context.Background(), "tr_1", 40); err != nil {
		t.Fatalf("AddGardenPoints() error = %v", err)
	}
	if got := trainers.trainers["tr_1"].GardenPoints; got != 40 {
		t.Errorf("garden points = %d, want 40", got)
	}
	if err := ledger.AddGardenPoints(context.Background(), "tr_1", -1); !errs.IsValidation(err) {
		t.Errorf("AddGardenPoints(-1) error = %v, want validation error", err)
	}
}
