package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

func intPtr(i int) *int {
	return &i
}

// newEntityID mints a unique id with a short type prefix.
func newEntityID(prefix string) string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

func newSubmissionID() string {
	return newEntityID("sub")
}

// resolveTrainer finds the trainer owned by a Discord user. Users own one
// trainer in this community; the earliest row wins if data drift ever
// produces more.
func resolveTrainer(ctx context.Context, b *emberden.Bot, ownerID string) (*models.Trainer, error) {
	trainers, err := b.TrainerRepository.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(trainers) == 0 {
		return nil, errs.NotFound("trainer", ownerID)
	}
	return trainers[0], nil
}

// friendlyError turns the engine's error taxonomy into a short message
// safe to show in an ephemeral reply.
func friendlyError(err error) string {
	switch {
	case errs.IsValidation(err):
		return fmt.Sprintf("That doesn't look right: %v", err)
	case errs.IsNotFound(err):
		return fmt.Sprintf("Not found: %v", err)
	case errs.IsConflict(err):
		return fmt.Sprintf("Can't do that: %v", err)
	default:
		return "Something went wrong on our side. Please try again in a moment."
	}
}

func replyError(e *handler.CommandEvent, title string, err error) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: friendlyError(err),
			Color:       config.ErrorColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

func replyComponentError(e *handler.ComponentEvent, title string, err error) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: friendlyError(err),
			Color:       config.ErrorColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}
