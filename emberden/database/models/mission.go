package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Mission type constants
const (
	MissionTypeWriting    = "writing"
	MissionTypeArt        = "art"
	MissionTypeTask       = "task"
	MissionTypeHabit      = "habit"
	MissionTypeGarden     = "garden"
	MissionTypeBoss       = "boss"
	MissionTypeCollection = "collection"
)

// Mission difficulty constants
const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
	DifficultyEpic   = "epic"
)

// MissionTargets declares what an active mission must reach to complete.
// Only the fields matching the mission type are consulted.
type MissionTargets struct {
	WordCount   int        `json:"word_count,omitempty"`
	Submissions int        `json:"submissions,omitempty"`
	Damage      int64      `json:"damage,omitempty"`
	GardenPts   int64      `json:"garden_points,omitempty"`
	TagSets     [][]string `json:"tag_sets,omitempty"`
}

// MissionReward is the completion reward template attached to a mission
// definition.
type MissionReward struct {
	Levels       int   `json:"levels"`
	Coins        int64 `json:"coins"`
	GardenPoints int64 `json:"garden_points"`
}

type MissionDefinition struct {
	bun.BaseModel `bun:"table:mission_definitions,alias:md"`

	ID          int64          `bun:"id,pk,autoincrement"`
	MissionID   string         `bun:"mission_id,notnull,unique"`
	Name        string         `bun:"name,notnull"`
	Description string         `bun:"description"`
	Type        string         `bun:"type,notnull"`
	Difficulty  string         `bun:"difficulty,notnull"`
	Targets     MissionTargets `bun:"targets,type:jsonb"`
	Reward      MissionReward  `bun:"reward,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at,notnull"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull"`
}

// DifficultyMultiplier scales the completion reward when it is granted.
func (d *MissionDefinition) DifficultyMultiplier() float64 {
	switch d.Difficulty {
	case DifficultyEasy:
		return 1.0
	case DifficultyNormal:
		return 1.5
	case DifficultyHard:
		return 2.0
	case DifficultyEpic:
		return 3.0
	default:
		return 1.0
	}
}
