package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoTrainer is the legacy bot's trainer document shape.
type MongoTrainer struct {
	ID        primitive.ObjectID `bson:"_id"`
	TrainerID string             `bson:"trainerId"`
	OwnerID   string             `bson:"discordId"`
	Name      string             `bson:"name"`
	Level     int                `bson:"level"`
	Coins     int64              `bson:"coins"`
	Garden    int64              `bson:"gardenPoints"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MongoMonster is the legacy bot's monster document shape.
type MongoMonster struct {
	ID        primitive.ObjectID `bson:"_id"`
	MonsterID string             `bson:"monsterId"`
	TrainerID string             `bson:"trainerId"`
	Name      string             `bson:"name"`
	Species   string             `bson:"species"`
	Types     []string           `bson:"types"`
	Level     int                `bson:"level"`
	Coins     int64              `bson:"coins"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// TableStats tracks per-table migration progress.
type TableStats struct {
	Read     int
	Inserted int
	Skipped  int
}

// MigrationStats aggregates the run.
type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
}
