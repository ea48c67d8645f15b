package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your coins, level and garden points",
}

func BalanceHandler(b *emberden.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()
		defer func() {
			slog.Info("Command completed",
				slog.String("type", "cmd"),
				slog.String("name", "balance"),
				slog.Duration("total_time", time.Since(start)),
			)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		trainer, err := resolveTrainer(ctx, b, e.User().ID.String())
		if err != nil {
			return replyError(e, "Balance", err)
		}

		levelBar := createProgressBar(int64(trainer.Level), models.MaxLevel)
		coinBar := createProgressBar(trainer.Coins, coinMilestone(trainer.Coins))
		gardenBar := createProgressBar(trainer.GardenPoints, gardenMilestone(trainer.GardenPoints))

		description := fmt.Sprintf("```ansi\n"+
			"\x1b[1;36mLevel:\x1b[0m %d\n"+
			"\x1b[0;37m%s\x1b[0m\n"+
			"\n"+
			"\x1b[1;33mCoins:\x1b[0m %d\n"+
			"\x1b[0;37m%s\x1b[0m\n"+
			"\n"+
			"\x1b[1;32mGarden:\x1b[0m %d points\n"+
			"\x1b[0;37m%s\x1b[0m\n"+
			"```",
			trainer.Level,
			levelBar,
			trainer.Coins,
			coinBar,
			trainer.GardenPoints,
			gardenBar,
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 " + trainer.Name,
				Description: description,
				Color:       config.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

// coinMilestone picks the next round coin goal for the progress bar.
func coinMilestone(coins int64) int64 {
	switch {
	case coins < 1000:
		return 1000
	case coins < 10000:
		return 10000
	default:
		return 100000
	}
}

func gardenMilestone(points int64) int64 {
	if points < 500 {
		return 500
	}
	return 5000
}

func createProgressBar(value, milestone int64) string {
	const barLength = 10

	progress := float64(value) / float64(milestone)
	if progress > 1.0 {
		progress = 1.0
	}
	filled := int(progress * float64(barLength))

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar.WriteString("■")
		} else {
			bar.WriteString("□")
		}
	}
	bar.WriteString(fmt.Sprintf("] %.1f%%", progress*100))

	return bar.String()
}
