package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var Boss = discord.SlashCommandCreate{
	Name:        "boss",
	Description: "The current boss encounter",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "status",
			Description: "Show the current boss and its remaining health",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "leaderboard",
			Description: "Show the damage leaderboard",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "contribution",
			Description: "Show your own standing against the boss",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "claim",
			Description: "Claim your reward from a defeated boss",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "rewards",
			Description: "Preview what every participant would earn",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "spawn",
			Description: "Spawn a new boss (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "boss_id",
					Description: "Unique id for the encounter",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Display name",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "health",
					Description: "Shared health pool",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
	},
}

type BossHandler struct {
	bot *emberden.Bot
}

func NewBossHandler(b *emberden.Bot) *BossHandler {
	return &BossHandler{bot: b}
}

func (h *BossHandler) Register(r handler.Router) {
	r.Route("/boss", func(r handler.Router) {
		r.Command("/status", h.HandleStatus)
		r.Command("/leaderboard", h.HandleLeaderboard)
		r.Command("/contribution", h.HandleContribution)
		r.Command("/claim", h.HandleClaim)
		r.Command("/rewards", h.HandleRewards)
		r.Command("/spawn", h.HandleSpawn)
	})
}

func (h *BossHandler) HandleStatus(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	boss, err := h.bot.Encounter.Current(ctx)
	if err != nil {
		return replyError(e, "Boss", err)
	}
	if boss == nil {
		return e.CreateMessage(discord.MessageCreate{
			Content: "No boss is currently active. The next one stirs soon...",
			Flags:   discord.MessageFlagEphemeral,
		})
	}

	pct := float64(boss.CurrentHealth) / float64(boss.MaxHealth) * 100
	now := time.Now()
	embed := discord.Embed{
		Title:       boss.Name,
		Description: fmt.Sprintf("%s\n\n%s **%d / %d HP** (%.1f%%)", boss.Description, healthBar(pct), boss.CurrentHealth, boss.MaxHealth, pct),
		Color:       config.WarningColor,
		Timestamp:   &now,
	}
	if boss.ImageURL != "" {
		embed.Image = &discord.EmbedResource{URL: boss.ImageURL}
	}
	return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{embed}})
}

func (h *BossHandler) HandleLeaderboard(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	boss, err := h.latestBoss(ctx)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	contributions, err := h.bot.Encounter.GetLeaderboard(ctx, boss.BossID)
	if err != nil {
		return replyError(e, "Boss", err)
	}
	if len(contributions) == 0 {
		return e.CreateMessage(discord.MessageCreate{
			Content: "Nobody has attacked this boss yet.",
			Flags:   discord.MessageFlagEphemeral,
		})
	}

	// Leaderboards that run past one page get paged inline.
	if len(contributions) > config.LeaderboardPageSize {
		totalPages := (len(contributions) + config.LeaderboardPageSize - 1) / config.LeaderboardPageSize
		return h.bot.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * config.LeaderboardPageSize
				end := min(start+config.LeaderboardPageSize, len(contributions))

				var sb strings.Builder
				for i, c := range contributions[start:end] {
					pct := float64(c.DamageDealt) / float64(boss.MaxHealth) * 100
					fmt.Fprintf(&sb, "**%d.** %s — %d damage (%.1f%%)\n", start+i+1, c.TrainerID, c.DamageDealt, pct)
				}
				embed.SetTitle(boss.Name + " — Leaderboard").
					SetDescription(sb.String()).
					SetColor(config.InfoColor)
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}

	if err := e.DeferCreateMessage(false); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	// PNG render first, text fallback when chromedp is unavailable.
	if png, imgErr := h.bot.LeaderboardImages.GenerateBossLeaderboardImage(ctx, boss, contributions); imgErr == nil {
		_, err = e.CreateFollowupMessage(discord.MessageCreate{
			Files: []*discord.File{discord.NewFile("leaderboard.png", "", bytes.NewReader(png))},
		})
		return err
	}

	var sb strings.Builder
	for i, c := range contributions {
		pct := float64(c.DamageDealt) / float64(boss.MaxHealth) * 100
		fmt.Fprintf(&sb, "**%d.** %s — %d damage (%.1f%%)\n", i+1, c.TrainerID, c.DamageDealt, pct)
	}
	_, err = e.CreateFollowupMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       boss.Name + " — Leaderboard",
			Description: sb.String(),
			Color:       config.InfoColor,
		}},
	})
	return err
}

func (h *BossHandler) HandleContribution(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Boss", err)
	}

	boss, err := h.latestBoss(ctx)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	info, err := h.bot.Encounter.GetContribution(ctx, boss.BossID, trainer.TrainerID)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "Your contribution — " + boss.Name,
			Description: fmt.Sprintf(
				"⚔️ **%d damage** over %d attacks\n📊 **%.1f%%** of the boss's health\n🏅 Rank **%d** of %d",
				info.DamageDealt, info.AttackCount, info.ContributionPercentage, info.Rank, info.TotalParticipants),
			Color:     config.InfoColor,
			Timestamp: &now,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

func (h *BossHandler) HandleClaim(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Boss", err)
	}

	boss, err := h.latestBoss(ctx)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	claim, err := h.bot.Encounter.ClaimRewards(ctx, boss.BossID, trainer.TrainerID)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "Boss reward claimed",
			Description: fmt.Sprintf("%s **%s tier** (%.1f%% contribution)\n💰 **%d coins**",
				config.TierEmoji(claim.Tier), claim.Tier, claim.Contribution, claim.Coins),
			Color:     config.SuccessColor,
			Timestamp: &now,
		}},
	})
}

func (h *BossHandler) HandleRewards(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	boss, err := h.latestBoss(ctx)
	if err != nil {
		return replyError(e, "Boss", err)
	}

	previews, err := h.bot.Encounter.PreviewRewards(ctx, boss.BossID)
	if err != nil {
		return replyError(e, "Boss", err)
	}
	if len(previews) == 0 {
		return e.CreateMessage(discord.MessageCreate{
			Content: "Nobody has attacked this boss yet.",
			Flags:   discord.MessageFlagEphemeral,
		})
	}

	var sb strings.Builder
	for _, p := range previews {
		if p.Rank > config.LeaderboardPageSize {
			break
		}
		fmt.Fprintf(&sb, "**%d.** %s — %s %s, %d coins (%.1f%%)\n",
			p.Rank, p.TrainerID, config.TierEmoji(p.Tier), p.Tier, p.Coins, p.ContributionPercentage)
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       boss.Name + " — Reward preview",
			Description: sb.String(),
			Color:       config.InfoColor,
			Timestamp:   &now,
		}},
	})
}

func (h *BossHandler) HandleSpawn(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	data := e.SlashCommandInteractionData()
	boss, err := h.bot.Encounter.Spawn(ctx, data.String("boss_id"), data.String("name"), int64(data.Int("health")))
	if err != nil {
		return replyError(e, "Boss", err)
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "A boss has appeared: " + boss.Name,
			Description: fmt.Sprintf("**%d HP** — every submission now deals damage. Fight together!", boss.MaxHealth),
			Color:       config.WarningColor,
			Timestamp:   &now,
		}},
	})
}

// latestBoss returns the active boss, or the most recently defeated one
// so leaderboard and claim keep working after the kill.
func (h *BossHandler) latestBoss(ctx context.Context) (*models.Boss, error) {
	if boss, err := h.bot.Encounter.Current(ctx); err != nil {
		return nil, err
	} else if boss != nil {
		return boss, nil
	}
	return h.bot.BossRepository.GetLatestDefeated(ctx)
}

func healthBar(pct float64) string {
	const barLength = 12
	filled := int(pct / 100 * barLength)
	if filled > barLength {
		filled = barLength
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	bar.WriteString("]")
	return bar.String()
}
