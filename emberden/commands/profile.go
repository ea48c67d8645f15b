package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Profile = discord.SlashCommandCreate{
	Name:        "profile",
	Description: "Manage your trainer and their monsters",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "show",
			Description: "Show your trainer profile",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "register",
			Description: "Register a new trainer",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Trainer name",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "adopt",
			Description: "Adopt a new monster",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Monster name",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "species",
					Description: "Monster species",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "types",
					Description: "Comma separated types, e.g. fire,flying",
					Required:    false,
				},
			},
		},
	},
}

type ProfileHandler struct {
	bot *emberden.Bot
}

func NewProfileHandler(b *emberden.Bot) *ProfileHandler {
	return &ProfileHandler{bot: b}
}

func (h *ProfileHandler) Register(r handler.Router) {
	r.Route("/profile", func(r handler.Router) {
		r.Command("/show", h.HandleShow)
		r.Command("/register", h.HandleRegister)
		r.Command("/adopt", h.HandleAdopt)
	})
}

func (h *ProfileHandler) HandleShow(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Profile", err)
	}

	monsters, err := h.bot.MonsterRepository.GetByTrainerID(ctx, trainer.TrainerID)
	if err != nil {
		return replyError(e, "Profile", err)
	}

	var roster strings.Builder
	if len(monsters) == 0 {
		roster.WriteString("*No monsters yet. Use `/profile adopt` to adopt one.*")
	}
	for _, m := range monsters {
		fmt.Fprintf(&roster, "**%s** (%s) — Lv. %d", m.Name, m.Species, m.Level)
		if len(m.Types) > 0 {
			fmt.Fprintf(&roster, " · %s", strings.Join(m.Types, "/"))
		}
		roster.WriteString("\n")
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "Trainer " + trainer.Name,
			Color: config.EmbedDefaultColor,
			Fields: []discord.EmbedField{
				{Name: "Level", Value: fmt.Sprintf("%d / %d", trainer.Level, models.MaxLevel), Inline: boolPtr(true)},
				{Name: "Coins", Value: fmt.Sprintf("💰 %d", trainer.Coins), Inline: boolPtr(true)},
				{Name: "Garden", Value: fmt.Sprintf("🌱 %d points", trainer.GardenPoints), Inline: boolPtr(true)},
				{Name: fmt.Sprintf("Monsters (%d)", len(monsters)), Value: roster.String(), Inline: boolPtr(false)},
			},
			Timestamp: &now,
			Footer:    &discord.EmbedFooter{Text: "Trainer since " + trainer.CreatedAt.Format("Jan 2, 2006")},
		}},
	})
}

func (h *ProfileHandler) HandleRegister(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	ownerID := e.User().ID.String()
	existing, err := h.bot.TrainerRepository.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return replyError(e, "Profile", err)
	}
	if len(existing) > 0 {
		return replyError(e, "Profile", fmt.Errorf("you already have a trainer: %s", existing[0].Name))
	}

	data := e.SlashCommandInteractionData()
	trainer := &models.Trainer{
		TrainerID: newEntityID("tr"),
		OwnerID:   ownerID,
		Name:      data.String("name"),
		Level:     models.MinLevel,
	}
	if err := h.bot.TrainerRepository.Create(ctx, trainer); err != nil {
		return replyError(e, "Profile", err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Welcome to Emberden!",
			Description: fmt.Sprintf("Trainer **%s** registered at level %d.\nSubmit your creative work with `/submit` to start growing.", trainer.Name, trainer.Level),
			Color:       config.SuccessColor,
		}},
	})
}

func (h *ProfileHandler) HandleAdopt(e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainer, err := resolveTrainer(ctx, h.bot, e.User().ID.String())
	if err != nil {
		return replyError(e, "Profile", err)
	}

	data := e.SlashCommandInteractionData()
	monster := &models.Monster{
		MonsterID: newEntityID("mon"),
		TrainerID: trainer.TrainerID,
		Name:      data.String("name"),
		Species:   strings.ToLower(strings.TrimSpace(data.String("species"))),
		Types:     parseTypes(data, "types"),
		Level:     models.MinLevel,
	}
	if err := h.bot.MonsterRepository.Create(ctx, monster); err != nil {
		return replyError(e, "Profile", err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "A new companion!",
			Description: fmt.Sprintf("**%s** the %s joins %s at level %d.\nTag them on art submissions to level them up.", monster.Name, monster.Species, trainer.Name, monster.Level),
			Color:       config.SuccessColor,
		}},
	})
}

func parseTypes(data discord.SlashCommandInteractionData, name string) []string {
	raw, ok := data.OptString(name)
	if !ok {
		return nil
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	return types
}
