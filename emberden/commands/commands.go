package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Submit,
	Mission,
	Boss,
	Profile,
	Balance,
}
