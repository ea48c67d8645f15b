package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Mission = discord.SlashCommandCreate{
	Name:        "mission",
	Description: "Manage your active mission",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "start",
			Description: "Start a mission",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "mission",
					Description:  "The mission to start",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "status",
			Description: "Show your active mission's progress",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "claim",
			Description: "Claim the reward for a completed mission",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "abandon",
			Description: "Abandon your active mission (no reward)",
		},
	},
}

type MissionHandler struct {
	bot *emberden.Bot
}

func NewMissionHandler(b *emberden.Bot) *MissionHandler {
	return &MissionHandler{bot: b}
}

func (h *MissionHandler) Register(r handler.Router) {
	r.Route("/mission", func(r handler.Router) {
		r.Command("/start", h.HandleStart)
		r.Command("/status", h.HandleStatus)
		r.Command("/claim", h.HandleClaim)
		r.Command("/abandon", h.HandleAbandon)
	})
	r.Autocomplete("/mission", h.HandleAutocomplete)
}

func (h *MissionHandler) HandleStart(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Mission", err)
	}

	missionID := e.SlashCommandInteractionData().String("mission")
	active, err := h.bot.Tracker.StartMission(ctx, trainer.TrainerID, missionID)
	if err != nil {
		return replyError(e, "Mission", err)
	}

	def := active.Definition
	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Mission started: " + def.Name,
			Description: def.Description,
			Color:       config.SuccessColor,
			Fields: []discord.EmbedField{
				{Name: "Type", Value: def.Type, Inline: boolPtr(true)},
				{Name: "Difficulty", Value: def.Difficulty, Inline: boolPtr(true)},
				{Name: "Reward", Value: formatReward(&def.Reward, def.DifficultyMultiplier()), Inline: boolPtr(true)},
			},
			Timestamp: &now,
		}},
	})
}

func (h *MissionHandler) HandleStatus(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Mission", err)
	}

	active, err := h.bot.Tracker.GetActive(ctx, trainer.TrainerID)
	if err != nil {
		return replyError(e, "Mission", err)
	}
	if active == nil || active.Definition == nil {
		return e.CreateMessage(discord.MessageCreate{
			Content: "You have no active mission. Start one with `/mission start`.",
			Flags:   discord.MessageFlagEphemeral,
		})
	}

	def := active.Definition
	pct := active.ProgressPercentage(def)
	started := active.StartedAt

	status := "In progress"
	color := config.InfoColor
	if active.Claimed {
		status = "Reward claimed"
		color = config.EmbedDefaultColor
	} else if active.Completed {
		status = "Completed — claim with `/mission claim`"
		color = config.SuccessColor
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       def.Name,
			Description: fmt.Sprintf("%s\n\n%s **%.0f%%**\n%s", def.Description, progressBar(pct), pct, status),
			Color:       color,
			Fields:      progressFields(active, def),
			Footer:      &discord.EmbedFooter{Text: "Started"},
			Timestamp:   &started,
		}},
	})
}

func (h *MissionHandler) HandleClaim(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Mission", err)
	}

	reward, err := h.bot.Tracker.ClaimReward(ctx, trainer.TrainerID)
	if err != nil {
		return replyError(e, "Mission", err)
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "Mission reward claimed",
			Description: fmt.Sprintf("⬆️ **%d levels**\n💰 **%d coins**\n🌱 **%d garden points**",
				reward.Levels, reward.Coins, reward.GardenPoints),
			Color:     config.SuccessColor,
			Timestamp: &now,
		}},
	})
}

func (h *MissionHandler) HandleAbandon(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Mission", err)
	}

	if err := h.bot.Tracker.AbandonMission(ctx, trainer.TrainerID); err != nil {
		return replyError(e, "Mission", err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Content: "Mission abandoned. No reward was granted.",
		Flags:   discord.MessageFlagEphemeral,
	})
}

func (h *MissionHandler) HandleAutocomplete(e *handler.AutocompleteEvent) error {
	focused := e.Data.Focused()
	if focused.Name != "mission" {
		return nil
	}

	query := ""
	if focused.Value != nil {
		var s string
		if err := json.Unmarshal(focused.Value, &s); err == nil {
			query = strings.TrimSpace(s)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	defs, err := h.bot.SearchService.SearchMissions(ctx, query, config.MaxAutocomplete)
	if err != nil {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}

	choices := make([]discord.AutocompleteChoice, 0, len(defs))
	for _, def := range defs {
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  fmt.Sprintf("%s [%s]", def.Name, def.Difficulty),
			Value: def.MissionID,
		})
	}
	return e.AutocompleteResult(choices)
}

func progressFields(active *models.ActiveMission, def *models.MissionDefinition) []discord.EmbedField {
	t := def.Targets
	p := active.Progress

	var fields []discord.EmbedField
	add := func(name, value string) {
		fields = append(fields, discord.EmbedField{Name: name, Value: value, Inline: boolPtr(true)})
	}

	if t.WordCount > 0 {
		add("Words", fmt.Sprintf("%d / %d", p.WordCount, t.WordCount))
	}
	if t.Submissions > 0 {
		add("Submissions", fmt.Sprintf("%d / %d", p.Submissions, t.Submissions))
	}
	if t.Damage > 0 {
		add("Damage", fmt.Sprintf("%d / %d", p.Damage, t.Damage))
	}
	if t.GardenPts > 0 {
		add("Garden", fmt.Sprintf("%d / %d", p.GardenPts, t.GardenPts))
	}
	if len(t.TagSets) > 0 {
		var want int
		for _, set := range t.TagSets {
			want += len(set)
		}
		add("Collected", fmt.Sprintf("%d / %d", len(p.Collected), want))
	}
	return fields
}

func formatReward(r *models.MissionReward, multiplier float64) string {
	return fmt.Sprintf("%d levels, %d coins (%gx)", r.Levels, r.Coins, multiplier)
}

func progressBar(pct float64) string {
	const barLength = 10
	filled := int(pct / 100 * barLength)
	if filled > barLength {
		filled = barLength
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar.WriteString("■")
		} else {
			bar.WriteString("□")
		}
	}
	bar.WriteString("]")
	return bar.String()
}

func boolPtr(b bool) *bool {
	return &b
}
