package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/distributor"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/emberden/emberden/emberden/services"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Submit = discord.SlashCommandCreate{
	Name:        "submit",
	Description: "Submit creative work for rewards",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "writing",
			Description: "Submit a piece of writing",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "word_count",
					Description: "Word count of the piece",
					Required:    true,
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionFloat{
					Name:        "difficulty",
					Description: "Difficulty modifier",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceFloat{
						{Name: "Standard (1x)", Value: 1},
						{Name: "Challenging (1.5x)", Value: 1.5},
						{Name: "Epic (2x)", Value: 2},
					},
				},
				giftOption(),
				externalOption(),
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "art",
			Description: "Submit a piece of art",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "tier",
					Description: "Finish tier of the piece",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Sketch", Value: models.ArtTierSketch},
						{Name: "Sketch Set", Value: models.ArtTierSketchSet},
						{Name: "Line Art", Value: models.ArtTierLineArt},
						{Name: "Rendered", Value: models.ArtTierRendered},
						{Name: "Polished", Value: models.ArtTierPolished},
					},
				},
				discord.ApplicationCommandOptionString{
					Name:         "monster",
					Description:  "Monster featured in the piece",
					Required:     false,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "url",
					Description: "Link to the artwork",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "override",
					Description: "Manual level override (moderators only)",
					Required:    false,
					MinValue:    intPtr(1),
				},
				giftOption(),
				externalOption(),
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reference",
			Description: "Submit a character reference",
			Options: []discord.ApplicationCommandOption{
				giftOption(),
				externalOption(),
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "prompt",
			Description: "Submit a community prompt",
			Options: []discord.ApplicationCommandOption{
				giftOption(),
				externalOption(),
			},
		},
	},
}

func giftOption() discord.ApplicationCommandOptionString {
	return discord.ApplicationCommandOptionString{
		Name:        "gift_to",
		Description: "Trainer ID to gift the levels to",
		Required:    false,
	}
}

func externalOption() discord.ApplicationCommandOptionBool {
	return discord.ApplicationCommandOptionBool{
		Name:        "external",
		Description: "Work created outside the game loop",
		Required:    false,
	}
}

type SubmitHandler struct {
	bot *emberden.Bot
}

func NewSubmitHandler(b *emberden.Bot) *SubmitHandler {
	return &SubmitHandler{bot: b}
}

func (h *SubmitHandler) Register(r handler.Router) {
	r.Route("/submit", func(r handler.Router) {
		r.Command("/writing", h.HandleStage)
		r.Command("/art", h.HandleStage)
		r.Command("/reference", h.HandleStage)
		r.Command("/prompt", h.HandleStage)
	})
	r.Autocomplete("/submit", h.HandleMonsterAutocomplete)
	r.Component("/submit/confirm", h.HandleConfirm)
	r.Component("/submit/cancel", h.HandleCancel)
}

// HandleStage stages the submission in a wizard session and asks for
// confirmation. Nothing is persisted until the user confirms.
func (h *SubmitHandler) HandleStage(e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	subType := *data.SubCommandName

	userID := e.User().ID.String()

	session, err := h.bot.SessionService.Begin(userID)
	if err != nil {
		if errs.IsConflict(err) {
			return e.CreateMessage(discord.MessageCreate{
				Content: "You already have a submission waiting for confirmation. Confirm or cancel it first.",
				Flags:   discord.MessageFlagEphemeral,
			})
		}
		return replyError(e, "Submission", err)
	}

	session, err = h.bot.SessionService.Update(userID, func(s *services.SubmissionSession) {
		s.Stage = services.StageConfirm
		s.Type = subType
		s.External = data.Bool("external")
		if giftTo, ok := data.OptString("gift_to"); ok {
			s.IsGift = true
			s.GiftTo = giftTo
		}
		switch subType {
		case models.SubmissionTypeWriting:
			s.Attributes.WordCount = data.Int("word_count")
			s.Attributes.DifficultyModifier = data.Float("difficulty")
		case models.SubmissionTypeArt:
			s.Attributes.ArtTier = data.String("tier")
			s.Attributes.TaggedMonsterID, _ = data.OptString("monster")
			s.Attributes.ArtworkURL, _ = data.OptString("url")
			s.Attributes.ManualOverride = data.Int("override")
		}
	})
	if err != nil {
		return replyError(e, "Submission", err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{stagingEmbed(session)},
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.NewSuccessButton("Confirm", "/submit/confirm"),
				discord.NewDangerButton("Cancel", "/submit/cancel"),
			),
		},
		Flags: discord.MessageFlagEphemeral,
	})
}

// HandleConfirm persists the staged submission and runs the distributor.
func (h *SubmitHandler) HandleConfirm(e *handler.ComponentEvent) error {
	userID := e.User().ID.String()

	session, err := h.bot.SessionService.Get(userID)
	if err != nil {
		return replyComponentError(e, "Submission expired", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	trainers, err := h.bot.TrainerRepository.GetByOwnerID(ctx, userID)
	if err != nil || len(trainers) == 0 {
		return e.CreateMessage(discord.MessageCreate{
			Content: "You need a registered trainer before submitting.",
			Flags:   discord.MessageFlagEphemeral,
		})
	}
	trainer := trainers[0]

	sub := &models.Submission{
		SubmissionID:    newSubmissionID(),
		Type:            session.Type,
		TrainerID:       trainer.TrainerID,
		IsGift:          session.IsGift,
		GiftRecipientID: session.GiftTo,
		External:        session.External,
		Attributes:      session.Attributes,
		CreatedAt:       time.Now(),
	}

	// Art links get copied into the archive bucket so the reward record
	// survives the original host. Archive trouble keeps the source URL.
	if sub.Type == models.SubmissionTypeArt && sub.Attributes.ArtworkURL != "" {
		archived, aerr := h.bot.ArchiveService.ArchiveFromURL(ctx, sub.SubmissionID, sub.Attributes.ArtworkURL)
		if aerr != nil {
			slog.Warn("Artwork archive failed, keeping the source URL",
				slog.String("type", "sys"),
				slog.String("submission_id", sub.SubmissionID),
				slog.Any("error", aerr))
		} else {
			sub.Attributes.ArtworkURL = archived
		}
	}

	if err := h.bot.SubmissionRepository.Create(ctx, sub); err != nil {
		return replyComponentError(e, "Submission failed", err)
	}

	outcome, err := h.bot.Distributor.Process(ctx, sub.SubmissionID)
	if err != nil {
		return replyComponentError(e, "Submission failed", err)
	}

	h.bot.SessionService.End(userID)

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{resultEmbed(sub, outcome)},
	})
}

func (h *SubmitHandler) HandleCancel(e *handler.ComponentEvent) error {
	h.bot.SessionService.End(e.User().ID.String())
	return e.CreateMessage(discord.MessageCreate{
		Content: "Submission cancelled.",
		Flags:   discord.MessageFlagEphemeral,
	})
}

// HandleMonsterAutocomplete suggests the user's own monsters for the art
// subcommand.
func (h *SubmitHandler) HandleMonsterAutocomplete(e *handler.AutocompleteEvent) error {
	focused := e.Data.Focused()
	if focused.Name != "monster" {
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

	trainers, err := h.bot.TrainerRepository.GetByOwnerID(ctx, e.User().ID.String())
	if err != nil || len(trainers) == 0 {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}

	monsters, err := h.bot.SearchService.SearchMonsters(ctx, trainers[0].TrainerID, query, config.MaxAutocomplete)
	if err != nil {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}

	choices := make([]discord.AutocompleteChoice, 0, len(monsters))
	for _, m := range monsters {
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  fmt.Sprintf("%s (%s)", m.Name, m.Species),
			Value: m.MonsterID,
		})
	}
	return e.AutocompleteResult(choices)
}

func stagingEmbed(session *services.SubmissionSession) discord.Embed {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Type:** %s\n", session.Type)
	switch session.Type {
	case models.SubmissionTypeWriting:
		fmt.Fprintf(&sb, "**Words:** %d\n**Difficulty:** %gx\n",
			session.Attributes.WordCount, session.Attributes.DifficultyModifier)
	case models.SubmissionTypeArt:
		fmt.Fprintf(&sb, "**Tier:** %s\n", session.Attributes.ArtTier)
		if session.Attributes.TaggedMonsterID != "" {
			fmt.Fprintf(&sb, "**Monster:** %s\n", session.Attributes.TaggedMonsterID)
		}
		if session.Attributes.ManualOverride > 0 {
			fmt.Fprintf(&sb, "**Override:** %d levels\n", session.Attributes.ManualOverride)
		}
	}
	if session.IsGift {
		fmt.Fprintf(&sb, "**Gift to:** %s\n", session.GiftTo)
	}
	if session.External {
		sb.WriteString("**External** (half rate)\n")
	}

	return discord.Embed{
		Title:       "Confirm your submission",
		Description: sb.String(),
		Color:       config.InfoColor,
		Footer:      &discord.EmbedFooter{Text: "This wizard expires after 10 minutes"},
	}
}

func resultEmbed(sub *models.Submission, outcome *distributor.Outcome) discord.Embed {
	bundle := outcome.Bundle

	var sb strings.Builder
	if sub.IsGift {
		fmt.Fprintf(&sb, "🎁 **%d levels** gifted to %s\n", bundle.GiftLevels, sub.GiftRecipientID)
	} else {
		fmt.Fprintf(&sb, "⬆️ **%d levels**", bundle.Levels)
		if outcome.CappedLevels > 0 {
			fmt.Fprintf(&sb, " (%d lost to the level cap, now level %d)", outcome.CappedLevels, outcome.NewLevel)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "💰 **%d coins**\n", bundle.Coins)
	if bundle.GardenPoints > 0 {
		fmt.Fprintf(&sb, "🌱 **%d garden points**\n", bundle.GardenPoints)
	}
	if bundle.BossDamage > 0 {
		fmt.Fprintf(&sb, "⚔️ **%d boss damage**\n", bundle.BossDamage)
	}
	if outcome.BossDefeated {
		sb.WriteString("\n🔥 **Your blow felled the boss!** Rewards are now claimable with `/boss claim`.\n")
	}
	if outcome.MissionCompleted {
		sb.WriteString("\n✅ **Mission complete!** Claim your reward with `/mission claim`.\n")
	}

	now := time.Now()
	return discord.Embed{
		Title:       "Submission rewarded",
		Description: sb.String(),
		Color:       config.SuccessColor,
		Footer:      &discord.EmbedFooter{Text: "ID: " + sub.SubmissionID},
		Timestamp:   &now,
	}
}
