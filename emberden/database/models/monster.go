package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Monster struct {
	bun.BaseModel `bun:"table:monsters,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	MonsterID string    `bun:"monster_id,notnull,unique"`
	TrainerID string    `bun:"trainer_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Species   string    `bun:"species,notnull"`
	Types     []string  `bun:"types,type:jsonb"`
	Level     int       `bun:"level,notnull,default:1"`
	Coins     int64     `bun:"coins,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
