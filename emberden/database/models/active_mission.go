package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MissionProgress holds the typed, monotonically non-decreasing counters for
// one active mission. Counters are clamped at their targets when advanced.
type MissionProgress struct {
	WordCount   int      `json:"word_count,omitempty"`
	Submissions int      `json:"submissions,omitempty"`
	Damage      int64    `json:"damage,omitempty"`
	GardenPts   int64    `json:"garden_points,omitempty"`
	Collected   []string `json:"collected,omitempty"`
}

// ActiveMission is the single live mission row a trainer may hold. The
// unique constraint on trainer_id enforces the one-active-mission rule at
// the storage layer as well.
type ActiveMission struct {
	bun.BaseModel `bun:"table:active_missions,alias:am"`

	ID          int64           `bun:"id,pk,autoincrement"`
	TrainerID   string          `bun:"trainer_id,notnull,unique"`
	MissionID   string          `bun:"mission_id,notnull"`
	Progress    MissionProgress `bun:"progress,type:jsonb"`
	Completed   bool            `bun:"completed,notnull,default:false"`
	Claimed     bool            `bun:"claimed,notnull,default:false"`
	StartedAt   time.Time       `bun:"started_at,notnull"`
	CompletedAt *time.Time      `bun:"completed_at"`
	ClaimedAt   *time.Time      `bun:"claimed_at"`
	CreatedAt   time.Time       `bun:"created_at,notnull"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull"`

	// Relations
	Definition *MissionDefinition `bun:"rel:has-one,join:mission_id=mission_id"`
}

// HasCollected reports whether a collection tag was already recorded.
func (a *ActiveMission) HasCollected(tag string) bool {
	for _, c := range a.Progress.Collected {
		if c == tag {
			return true
		}
	}
	return false
}

// Satisfies reports whether the current progress meets every target metric
// of the definition. For collection missions the collected set must cover
// each target set, not merely reach a count.
func (a *ActiveMission) Satisfies(def *MissionDefinition) bool {
	if def == nil {
		return false
	}
	t := def.Targets

	if t.WordCount > 0 && a.Progress.WordCount < t.WordCount {
		return false
	}
	if t.Submissions > 0 && a.Progress.Submissions < t.Submissions {
		return false
	}
	if t.Damage > 0 && a.Progress.Damage < t.Damage {
		return false
	}
	if t.GardenPts > 0 && a.Progress.GardenPts < t.GardenPts {
		return false
	}
	for _, set := range t.TagSets {
		for _, tag := range set {
			if !a.HasCollected(tag) {
				return false
			}
		}
	}
	return true
}

// ProgressPercentage returns overall progress for display, averaged across
// the metrics the definition actually targets.
func (a *ActiveMission) ProgressPercentage(def *MissionDefinition) float64 {
	if def == nil {
		return 0
	}
	t := def.Targets

	var total, sum float64
	ratio := func(cur, target float64) {
		if target <= 0 {
			return
		}
		r := cur / target
		if r > 1 {
			r = 1
		}
		sum += r
		total++
	}

	ratio(float64(a.Progress.WordCount), float64(t.WordCount))
	ratio(float64(a.Progress.Submissions), float64(t.Submissions))
	ratio(float64(a.Progress.Damage), float64(t.Damage))
	ratio(float64(a.Progress.GardenPts), float64(t.GardenPts))
	if len(t.TagSets) > 0 {
		var want, have float64
		for _, set := range t.TagSets {
			for _, tag := range set {
				want++
				if a.HasCollected(tag) {
					have++
				}
			}
		}
		if want > 0 {
			sum += have / want
			total++
		}
	}

	if total == 0 {
		return 0
	}
	return sum / total * 100
}
