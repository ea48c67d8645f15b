package migration

import (
	"reflect"
	"testing"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMigrator_ConvertTrainer(t *testing.T) {
	m := &Migrator{}
	created := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	got := m.convertTrainer(MongoTrainer{
		ID:        primitive.NewObjectID(),
		TrainerID: "tr_legacy",
		OwnerID:   "123456789",
		Name:      "  Ember  ",
		Level:     42,
		Coins:     900,
		Garden:    30,
		CreatedAt: created,
	})

	if got.TrainerID != "tr_legacy" || got.Name != "Ember" || got.Level != 42 {
		t.Errorf("convertTrainer() = %+v, want trimmed name and carried fields", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, created)
	}
}

func TestMigrator_ConvertTrainer_DirtyData(t *testing.T) {
	m := &Migrator{}
	oid := primitive.NewObjectID()

	got := m.convertTrainer(MongoTrainer{
		ID:     oid,
		Level:  400,
		Coins:  -10,
		Garden: -5,
	})

	if got.Level != models.MaxLevel {
		t.Errorf("level = %d, want clamped to %d", got.Level, models.MaxLevel)
	}
	if got.Coins != 0 || got.GardenPoints != 0 {
		t.Errorf("coins/garden = %d/%d, want negative values zeroed", got.Coins, got.GardenPoints)
	}
	if got.TrainerID != oid.Hex() {
		t.Errorf("trainer id = %q, want ObjectID hex fallback %q", got.TrainerID, oid.Hex())
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("created at is zero, want backfilled timestamp")
	}
}

func TestMigrator_ConvertMonster(t *testing.T) {
	m := &Migrator{}

	got := m.convertMonster(MongoMonster{
		ID:        primitive.NewObjectID(),
		MonsterID: "mon_legacy",
		TrainerID: "tr_legacy",
		Name:      "Cinder",
		Species:   " Salamander ",
		Types:     []string{" Fire", "", "FLYING "},
		Level:     0,
		Coins:     12,
	})

	if got.Species != "salamander" {
		t.Errorf("species = %q, want normalized lowercase", got.Species)
	}
	if want := []string{"fire", "flying"}; !reflect.DeepEqual(got.Types, want) {
		t.Errorf("types = %v, want %v", got.Types, want)
	}
	if got.Level != models.MinLevel {
		t.Errorf("level = %d, want raised to %d", got.Level, models.MinLevel)
	}
}
