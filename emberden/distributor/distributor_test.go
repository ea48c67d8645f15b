package distributor

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/emberden/emberden/emberden/boss"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/missions"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/rewards"
)

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*models.Submission

	// failAtUpdate aborts the nth Update call with a storage error to
	// simulate a mid-distribution crash. Zero disables it.
	failAtUpdate int
	updateCalls  int
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[sub.SubmissionID] = sub
	return nil
}

func (r *fakeSubmissionRepo) GetBySubmissionID(_ context.Context, submissionID string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[submissionID]
	if !ok {
		return nil, errs.NotFound("submission", submissionID)
	}
	return sub, nil
}

func (r *fakeSubmissionRepo) Update(_ context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failAtUpdate > 0 && r.updateCalls == r.failAtUpdate {
		return errs.Storage("submission update", context.DeadlineExceeded)
	}
	r.submissions[sub.SubmissionID] = sub
	return nil
}

func (r *fakeSubmissionRepo) GetRecentByTrainer(_ context.Context, _ string, _ int) ([]*models.Submission, error) {
	return nil, nil
}

type fakeTrainerRepo struct {
	trainers map[string]*models.Trainer
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

func (r *fakeTrainerRepo) GetByOwnerID(_ context.Context, _ string) ([]*models.Trainer, error) {
	return nil, nil
}

func (r *fakeTrainerRepo) SetLevel(_ context.Context, trainerID string, level int) error {
	r.trainers[trainerID].Level = level
	return nil
}

func (r *fakeTrainerRepo) AddCoins(_ context.Context, trainerID string, amount int64) error {
	r.trainers[trainerID].Coins += amount
	return nil
}

func (r *fakeTrainerRepo) AddGardenPoints(_ context.Context, trainerID string, amount int64) error {
	r.trainers[trainerID].GardenPoints += amount
	return nil
}

func (r *fakeTrainerRepo) GetAll(_ context.Context) ([]*models.Trainer, error) { return nil, nil }

type fakeMonsterRepo struct {
	monsters map[string]*models.Monster
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

func (r *fakeMonsterRepo) GetByTrainerID(_ context.Context, _ string) ([]*models.Monster, error) {
	return nil, nil
}

func (r *fakeMonsterRepo) SetLevel(_ context.Context, monsterID string, level int) error {
	r.monsters[monsterID].Level = level
	return nil
}

func (r *fakeMonsterRepo) AddCoins(_ context.Context, monsterID string, amount int64) error {
	r.monsters[monsterID].Coins += amount
	return nil
}

type fakeMissionRepo struct {
	defs   map[string]*models.MissionDefinition
	active map[string]*models.ActiveMission
}

func (r *fakeMissionRepo) GetDefinition(_ context.Context, missionID string) (*models.MissionDefinition, error) {
	def, ok := r.defs[missionID]
	if !ok {
		return nil, errs.NotFound("mission", missionID)
	}
	return def, nil
}

func (r *fakeMissionRepo) GetAllDefinitions(_ context.Context) ([]*models.MissionDefinition, error) {
	return nil, nil
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

type fakeBossRepo struct {
	bosses        map[string]*models.Boss
	contributions map[string]*models.BossContribution
}

func (r *fakeBossRepo) Create(_ context.Context, b *models.Boss) error {
	r.bosses[b.BossID] = b
	return nil
}

func (r *fakeBossRepo) GetByBossID(_ context.Context, bossID string) (*models.Boss, error) {
	b, ok := r.bosses[bossID]
	if !ok {
		return nil, errs.NotFound("boss", bossID)
	}
	return b, nil
}

func (r *fakeBossRepo) GetCurrent(_ context.Context) (*models.Boss, error) {
	for _, b := range r.bosses {
		if b.Status == models.BossStatusActive {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBossRepo) GetLatestDefeated(_ context.Context) (*models.Boss, error) {
	return nil, errs.NotFound("boss", "latest defeated")
}

func (r *fakeBossRepo) Update(_ context.Context, b *models.Boss) error {
	r.bosses[b.BossID] = b
	return nil
}

func (r *fakeBossRepo) GetContribution(_ context.Context, bossID, trainerID string) (*models.BossContribution, error) {
	return r.contributions[bossID+"|"+trainerID], nil
}

func (r *fakeBossRepo) GetContributions(_ context.Context, bossID string) ([]*models.BossContribution, error) {
	var out []*models.BossContribution
	for _, c := range r.contributions {
		if c.BossID == bossID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DamageDealt > out[j].DamageDealt })
	return out, nil
}

func (r *fakeBossRepo) UpsertContribution(_ context.Context, c *models.BossContribution) error {
	r.contributions[c.BossID+"|"+c.TrainerID] = c
	return nil
}

func (r *fakeBossRepo) GetClaim(_ context.Context, _, _ string) (*models.BossRewardClaim, error) {
	return nil, nil
}

func (r *fakeBossRepo) CreateClaim(_ context.Context, _ *models.BossRewardClaim) error { return nil }

type fixture struct {
	distributor *Distributor
	submissions *fakeSubmissionRepo
	trainers    *fakeTrainerRepo
	monsters    *fakeMonsterRepo
	missions    *fakeMissionRepo
	bossRepo    *fakeBossRepo
	encounter   *boss.Encounter
	tracker     *missions.Tracker
}

func newFixture() *fixture {
	submissions := &fakeSubmissionRepo{submissions: make(map[string]*models.Submission)}
	trainers := &fakeTrainerRepo{trainers: map[string]*models.Trainer{
		"tr_1": {TrainerID: "tr_1", Level: 10},
		"tr_2": {TrainerID: "tr_2", Level: 20},
	}}
	monsters := &fakeMonsterRepo{monsters: map[string]*models.Monster{
		"mon_1": {MonsterID: "mon_1", TrainerID: "tr_1", Species: "salamander", Types: []string{"fire"}, Level: 5},
	}}
	missionRepo := &fakeMissionRepo{
		defs:   make(map[string]*models.MissionDefinition),
		active: make(map[string]*models.ActiveMission),
	}
	bossRepo := &fakeBossRepo{
		bosses:        make(map[string]*models.Boss),
		contributions: make(map[string]*models.BossContribution),
	}

	calculator := rewards.NewCalculator(rewards.NewDefaultConfig())
	ledger := progression.NewLedger(trainers, monsters)
	tracker := missions.NewTracker(missionRepo, ledger)
	encounter := boss.NewEncounter(bossRepo, ledger, boss.NewDefaultRewardConfig())

	return &fixture{
		distributor: New(submissions, monsters, calculator, ledger, tracker, encounter),
		submissions: submissions,
		trainers:    trainers,
		monsters:    monsters,
		missions:    missionRepo,
		bossRepo:    bossRepo,
		encounter:   encounter,
		tracker:     tracker,
	}
}

func writingSubmission(id string) *models.Submission {
	return &models.Submission{
		SubmissionID: id,
		Type:         models.SubmissionTypeWriting,
		TrainerID:    "tr_1",
		Attributes: models.SubmissionAttributes{
			WordCount:          1000,
			DifficultyModifier: 2,
		},
		CreatedAt: time.Now(),
	}
}

func TestDistributor_Process(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.submissions.submissions["sub_1"] = writingSubmission("sub_1")
	if _, err := f.encounter.Spawn(ctx, "boss_1", "Cinder Wyrm", 10000); err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	outcome, err := f.distributor.Process(ctx, "sub_1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 1000 words at modifier 2 is 20 levels.
	if outcome.Bundle.Levels != 20 || outcome.AppliedLevels != 20 || outcome.NewLevel != 30 {
		t.Errorf("outcome = %+v, want 20 levels applied up to 30", outcome)
	}

	trainer := f.trainers.trainers["tr_1"]
	if trainer.Level != 30 || trainer.Coins != 1000 || trainer.GardenPoints != 40 {
		t.Errorf("trainer = %+v, want level=30 coins=1000 garden=40", trainer)
	}

	b := f.bossRepo.bosses["boss_1"]
	if b.CurrentHealth != 10000-200 {
		t.Errorf("boss health = %d, want %d", b.CurrentHealth, 10000-200)
	}

	sub := f.submissions.submissions["sub_1"]
	if !sub.Processed || sub.ProcessedAt == nil {
		t.Errorf("submission not marked processed: %+v", sub)
	}
}

func TestDistributor_Process_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.submissions.submissions["sub_1"] = writingSubmission("sub_1")
	if _, err := f.distributor.Process(ctx, "sub_1"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	coinsAfterFirst := f.trainers.trainers["tr_1"].Coins
	levelAfterFirst := f.trainers.trainers["tr_1"].Level

	if _, err := f.distributor.Process(ctx, "sub_1"); !errs.IsConflict(err) {
		t.Fatalf("second Process() error = %v, want conflict", err)
	}
	if f.trainers.trainers["tr_1"].Coins != coinsAfterFirst || f.trainers.trainers["tr_1"].Level != levelAfterFirst {
		t.Errorf("second Process() mutated the trainer")
	}
}

func TestDistributor_Process_ConcurrentDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.submissions.submissions["sub_1"] = writingSubmission("sub_1")

	const callers = 4
	errc := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.distributor.Process(ctx, "sub_1")
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)

	var applied, conflicts int
	for err := range errc {
		switch {
		case err == nil:
			applied++
		case errs.IsConflict(err):
			conflicts++
		default:
			t.Errorf("Process() error = %v", err)
		}
	}
	if applied != 1 || conflicts != callers-1 {
		t.Errorf("applied = %d, conflicts = %d, want 1 and %d", applied, conflicts, callers-1)
	}
	if got := f.trainers.trainers["tr_1"].Level; got != 30 {
		t.Errorf("trainer level = %d, want 30", got)
	}
	if got := f.trainers.trainers["tr_1"].Coins; got != 1000 {
		t.Errorf("trainer coins = %d, want 1000", got)
	}
}

func TestDistributor_Process_RetryAppliesOnlyMissingSteps(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.submissions.submissions["sub_1"] = writingSubmission("sub_1")

	// Abort on the third persisted step (coins), after the coins have
	// already been credited.
	f.submissions.failAtUpdate = 3
	if _, err := f.distributor.Process(ctx, "sub_1"); !errs.IsRetryable(err) {
		t.Fatalf("Process() error = %v, want retryable storage error", err)
	}
	f.submissions.failAtUpdate = 0

	outcome, err := f.distributor.Process(ctx, "sub_1")
	if err != nil {
		t.Fatalf("retried Process() error = %v", err)
	}
	if outcome.Bundle.Levels != 20 {
		t.Errorf("retried bundle levels = %d, want 20", outcome.Bundle.Levels)
	}

	trainer := f.trainers.trainers["tr_1"]
	if trainer.Level != 30 {
		t.Errorf("trainer level = %d, want 30 (levels must not double-apply)", trainer.Level)
	}
	if trainer.Coins != 1000 {
		t.Errorf("trainer coins = %d, want 1000 (coins must not double-apply)", trainer.Coins)
	}
	if trainer.GardenPoints != 40 {
		t.Errorf("trainer garden points = %d, want 40", trainer.GardenPoints)
	}
	if !f.submissions.submissions["sub_1"].Processed {
		t.Errorf("submission not marked processed after retry")
	}
}

func TestDistributor_Process_GiftRouting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sub := writingSubmission("sub_1")
	sub.IsGift = true
	sub.GiftRecipientID = "tr_2"
	f.submissions.submissions["sub_1"] = sub

	outcome, err := f.distributor.Process(ctx, "sub_1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 20 levels gift down to 4 for the recipient; the submitter's level
	// is untouched but community-facing coins still land on them.
	if outcome.Bundle.GiftLevels != 4 {
		t.Errorf("gift levels = %d, want 4", outcome.Bundle.GiftLevels)
	}
	if got := f.trainers.trainers["tr_2"].Level; got != 24 {
		t.Errorf("recipient level = %d, want 24", got)
	}
	if got := f.trainers.trainers["tr_1"].Level; got != 10 {
		t.Errorf("submitter level = %d, want unchanged 10", got)
	}
	if got := f.trainers.trainers["tr_1"].Coins; got != 1000 {
		t.Errorf("submitter coins = %d, want 1000", got)
	}
}

func TestDistributor_Process_ArtTagsMonsterAndMission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.missions.defs["m_collect"] = &models.MissionDefinition{
		MissionID:  "m_collect",
		Type:       models.MissionTypeCollection,
		Difficulty: models.DifficultyEasy,
		Targets:    models.MissionTargets{TagSets: [][]string{{"salamander", "fire"}}},
		Reward:     models.MissionReward{Coins: 100},
	}
	if _, err := f.tracker.StartMission(ctx, "tr_1", "m_collect"); err != nil {
		t.Fatalf("StartMission() error = %v", err)
	}

	f.submissions.submissions["sub_1"] = &models.Submission{
		SubmissionID: "sub_1",
		Type:         models.SubmissionTypeArt,
		TrainerID:    "tr_1",
		Attributes: models.SubmissionAttributes{
			ArtTier:         models.ArtTierRendered,
			TaggedMonsterID: "mon_1",
		},
		CreatedAt: time.Now(),
	}

	outcome, err := f.distributor.Process(ctx, "sub_1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// Rendered art is 10 levels; the tagged monster levels with them.
	if got := f.monsters.monsters["mon_1"].Level; got != 15 {
		t.Errorf("monster level = %d, want 15", got)
	}
	// Species and type tags cover the collection target set.
	if !outcome.MissionCompleted {
		t.Errorf("collection mission not completed by the tagged monster's tags")
	}
}

func TestDistributor_Process_NoActiveBoss(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.submissions.submissions["sub_1"] = writingSubmission("sub_1")
	outcome, err := f.distributor.Process(ctx, "sub_1")
	if err != nil {
		t.Fatalf("Process() without a boss error = %v", err)
	}
	if outcome.BossDefeated {
		t.Errorf("BossDefeated = true with no boss up")
	}
}

func TestDistributor_Process_UnknownSubmission(t *testing.T) {
	f := newFixture()
	if _, err := f.distributor.Process(context.Background(), "sub_missing"); !errs.IsNotFound(err) {
		t.Errorf("Process() error = %v, want not found", err)
	}
}
