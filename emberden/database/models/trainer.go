package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Level bounds shared by trainers and monsters.
const (
	MinLevel = 1
	MaxLevel = 100
)

type Trainer struct {
	bun.BaseModel `bun:"table:trainers,alias:t"`

	ID           int64     `bun:"id,pk,autoincrement"`
	TrainerID    string    `bun:"trainer_id,notnull,unique"`
	OwnerID      string    `bun:"owner_id,notnull"`
	Name         string    `bun:"name,notnull"`
	Level        int       `bun:"level,notnull,default:1"`
	Coins        int64     `bun:"coins,notnull,default:0"`
	GardenPoints int64     `bun:"garden_points,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}
