package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Boss status constants
const (
	BossStatusActive   = "active"
	BossStatusDefeated = "defeated"
)

// Contribution reward tiers by contribution percentage
const (
	RewardTierCommon   = "common"
	RewardTierUncommon = "uncommon"
	RewardTierRare     = "rare"
	RewardTierEpic     = "epic"
)

type Boss struct {
	bun.BaseModel `bun:"table:bosses,alias:b"`

	ID            int64      `bun:"id,pk,autoincrement"`
	BossID        string     `bun:"boss_id,notnull,unique"`
	Name          string     `bun:"name,notnull"`
	Description   string     `bun:"description"`
	ImageURL      string     `bun:"image_url"`
	MaxHealth     int64      `bun:"max_health,notnull"`
	CurrentHealth int64      `bun:"current_health,notnull"`
	Status        string     `bun:"status,notnull,default:'active'"`
	StartedAt     time.Time  `bun:"started_at,notnull"`
	DefeatedAt    *time.Time `bun:"defeated_at"`
}

// BossContribution is one trainer's damage ledger against one boss.
// Unique on (boss_id, trainer_id).
type BossContribution struct {
	bun.BaseModel `bun:"table:boss_contributions,alias:bc"`

	ID            int64     `bun:"id,pk,autoincrement"`
	BossID        string    `bun:"boss_id,notnull"`
	TrainerID     string    `bun:"trainer_id,notnull"`
	DamageDealt   int64     `bun:"damage_dealt,notnull,default:0"`
	AttackCount   int       `bun:"attack_count,notnull,default:0"`
	FirstAttackAt time.Time `bun:"first_attack_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// BossRewardClaim guarantees at-most-once reward granting per trainer per
// encounter. Unique on (boss_id, trainer_id).
type BossRewardClaim struct {
	bun.BaseModel `bun:"table:boss_reward_claims,alias:brc"`

	ID           int64     `bun:"id,pk,autoincrement"`
	BossID       string    `bun:"boss_id,notnull"`
	TrainerID    string    `bun:"trainer_id,notnull"`
	Tier         string    `bun:"tier,notnull"`
	Coins        int64     `bun:"coins,notnull"`
	Contribution float64   `bun:"contribution,notnull"`
	ClaimedAt    time.Time `bun:"claimed_at,notnull"`
}

// RewardTierFor maps a contribution percentage to a reward tier.
func RewardTierFor(contributionPct float64) string {
	switch {
	case contributionPct >= 30:
		return RewardTierEpic
	case contributionPct >= 15:
		return RewardTierRare
	case contributionPct >= 5:
		return RewardTierUncommon
	default:
		return RewardTierCommon
	}
}
