package migration

import (
	"strings"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
)

func (m *Migrator) convertTrainer(mt MongoTrainer) *models.Trainer {
	level := mt.Level
	if level < models.MinLevel {
		level = models.MinLevel
	}
	if level > models.MaxLevel {
		level = models.MaxLevel
	}
	coins := mt.Coins
	if coins < 0 {
		coins = 0
	}
	garden := mt.Garden
	if garden < 0 {
		garden = 0
	}

	createdAt := mt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	trainerID := mt.TrainerID
	if trainerID == "" {
		// Some very old documents predate the trainerId field; the
		// ObjectID hex is stable and unique enough to key on.
		trainerID = mt.ID.Hex()
	}

	return &models.Trainer{
		TrainerID:    trainerID,
		OwnerID:      mt.OwnerID,
		Name:         strings.TrimSpace(mt.Name),
		Level:        level,
		Coins:        coins,
		GardenPoints: garden,
		CreatedAt:    createdAt,
		UpdatedAt:    time.Now(),
	}
}

func (m *Migrator) convertMonster(mm MongoMonster) *models.Monster {
	level := mm.Level
	if level < models.MinLevel {
		level = models.MinLevel
	}
	if level > models.MaxLevel {
		level = models.MaxLevel
	}
	coins := mm.Coins
	if coins < 0 {
		coins = 0
	}

	createdAt := mm.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	monsterID := mm.MonsterID
	if monsterID == "" {
		monsterID = mm.ID.Hex()
	}

	types := make([]string, 0, len(mm.Types))
	for _, t := range mm.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}

	return &models.Monster{
		MonsterID: monsterID,
		TrainerID: mm.TrainerID,
		Name:      strings.TrimSpace(mm.Name),
		Species:   strings.ToLower(strings.TrimSpace(mm.Species)),
		Types:     types,
		Level:     level,
		Coins:     coins,
		CreatedAt: createdAt,
		UpdatedAt: time.Now(),
	}
}
