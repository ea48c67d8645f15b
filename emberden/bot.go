package emberden

import (
	"context"
	"log/slog"
	"time"

	"github.com/emberden/emberden/emberden/boss"
	"github.com/emberden/emberden/emberden/database"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/distributor"
	"github.com/emberden/emberden/emberden/missions"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/rewards"
	"github.com/emberden/emberden/emberden/services"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	DB        *database.DB

	TrainerRepository    repositories.TrainerRepository
	MonsterRepository    repositories.MonsterRepository
	SubmissionRepository repositories.SubmissionRepository
	MissionRepository    repositories.MissionRepository
	BossRepository       repositories.BossRepository

	Calculator  *rewards.Calculator
	Ledger      *progression.Ledger
	Tracker     *missions.Tracker
	Encounter   *boss.Encounter
	Distributor *distributor.Distributor

	SessionService     *services.SessionService
	SearchService      *services.SearchService
	ArchiveService     *services.ArchiveService
	LeaderboardImages  *services.LeaderboardImageService
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Emberden is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the emberfall"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
