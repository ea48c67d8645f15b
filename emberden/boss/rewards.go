package boss

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/emberden/emberden/emberden/database/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RewardConfig controls how defeat rewards scale with contribution.
type RewardConfig struct {
	// Flat coin grant per reward tier.
	TierCoins map[string]int64

	// Additional coins per whole percentage point of contribution.
	CoinsPerPercent int64

	// Parallelism bound for the defeat preview fan-out.
	PreviewWorkers int64
}

func NewDefaultRewardConfig() *RewardConfig {
	return &RewardConfig{
		TierCoins: map[string]int64{
			models.RewardTierCommon:   100,
			models.RewardTierUncommon: 250,
			models.RewardTierRare:     500,
			models.RewardTierEpic:     1000,
		},
		CoinsPerPercent: 10,
		PreviewWorkers:  8,
	}
}

// CoinsFor converts a contribution percentage into a coin reward: the
// tier's flat grant plus a proportional bonus.
func (c *RewardConfig) CoinsFor(contributionPct float64) int64 {
	tier := models.RewardTierFor(contributionPct)
	return c.TierCoins[tier] + int64(math.Floor(contributionPct))*c.CoinsPerPercent
}

// RewardPreview is what one contributor stands to claim from a defeated
// boss. Previews are computed for the defeat announcement; the actual
// grant still goes through Encounter.ClaimRewards.
type RewardPreview struct {
	TrainerID              string
	Rank                   int
	DamageDealt            int64
	ContributionPercentage float64
	Tier                   string
	Coins                  int64
}

// PreviewRewards computes every contributor's pending reward for a
// defeated boss, fanning the per-trainer work out under a bounded
// semaphore. Results come back in leaderboard order.
func (e *Encounter) PreviewRewards(ctx context.Context, bossID string) ([]*RewardPreview, error) {
	boss, err := e.bosses.GetByBossID(ctx, bossID)
	if err != nil {
		return nil, err
	}
	contributions, err := e.bosses.GetContributions(ctx, bossID)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(e.config.PreviewWorkers)
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	previews := make([]*RewardPreview, 0, len(contributions))

	for i, c := range contributions {
		rank, contribution := i+1, c
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			pct := percentage(contribution.DamageDealt, boss.MaxHealth)
			preview := &RewardPreview{
				TrainerID:              contribution.TrainerID,
				Rank:                   rank,
				DamageDealt:            contribution.DamageDealt,
				ContributionPercentage: pct,
				Tier:                   models.RewardTierFor(pct),
				Coins:                  e.config.CoinsFor(pct),
			}

			mu.Lock()
			previews = append(previews, preview)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(previews, func(i, j int) bool { return previews[i].Rank < previews[j].Rank })
	return previews, nil
}
