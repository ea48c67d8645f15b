package config

import "time"

// UI constants
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31

	LeaderboardPageSize = 10
	MaxAutocomplete     = 25
)

// Timeouts
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	SearchTimeout           = 10 * time.Second
	NetworkDialTimeout      = 5 * time.Second
	NetworkKeepAlive        = 30 * time.Second
)

// Submission wizard
const (
	SessionTTL         = 10 * time.Minute
	MaxStagedSessions  = 1000
)

// Reward tier emojis for boss claim embeds
const (
	EmojiTierCommon   = "⚪"
	EmojiTierUncommon = "🟢"
	EmojiTierRare     = "🔵"
	EmojiTierEpic     = "🟣"
)

// TierEmoji returns the display emoji for a boss reward tier.
func TierEmoji(tier string) string {
	switch tier {
	case "uncommon":
		return EmojiTierUncommon
	case "rare":
		return EmojiTierRare
	case "epic":
		return EmojiTierEpic
	default:
		return EmojiTierCommon
	}
}
