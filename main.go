package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberden/emberden/emberden"
	"github.com/emberden/emberden/emberden/boss"
	"github.com/emberden/emberden/emberden/commands"
	"github.com/emberden/emberden/emberden/config"
	"github.com/emberden/emberden/emberden/database"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/emberden/emberden/emberden/distributor"
	"github.com/emberden/emberden/emberden/handlers"
	"github.com/emberden/emberden/emberden/logger"
	"github.com/emberden/emberden/emberden/missions"
	"github.com/emberden/emberden/emberden/progression"
	"github.com/emberden/emberden/emberden/rewards"
	"github.com/emberden/emberden/emberden/services"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	logger.LogSystem("Starting Emberden Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := emberden.LoadConfig(*path)
	if err != nil {
		logger.LogError("Failed to load configuration", err)
		os.Exit(-1)
	}
	logger.LogSystem("Configuration loaded successfully")

	logger.LogSystem("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		logger.LogError("Database connection failed", err,
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	logger.LogSystem("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	logger.LogSystem("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		logger.LogError("Failed to initialize database schema", err,
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	logger.LogSystem("Database schema initialized successfully")

	defer db.Close()

	b := emberden.New(*cfg, version, commit)
	b.DB = db

	// Repositories
	b.TrainerRepository = repositories.NewTrainerRepository(db.BunDB())
	b.MonsterRepository = repositories.NewMonsterRepository(db.BunDB())
	b.SubmissionRepository = repositories.NewSubmissionRepository(db.BunDB())
	b.MissionRepository = repositories.NewMissionRepository(db.BunDB())
	b.BossRepository = repositories.NewBossRepository(db.BunDB())

	// Reward engine
	b.Calculator = rewards.NewCalculator(rewardConfig(cfg.Game))
	b.Ledger = progression.NewLedger(b.TrainerRepository, b.MonsterRepository)
	b.Tracker = missions.NewTracker(b.MissionRepository, b.Ledger)
	b.Encounter = boss.NewEncounter(b.BossRepository, b.Ledger, boss.NewDefaultRewardConfig())
	b.Distributor = distributor.New(
		b.SubmissionRepository,
		b.MonsterRepository,
		b.Calculator,
		b.Ledger,
		b.Tracker,
		b.Encounter,
	)

	// Services
	b.SessionService = services.NewSessionService(config.MaxStagedSessions, config.SessionTTL)
	b.SessionService.StartCleanupRoutine(context.Background())
	b.SearchService = services.NewSearchService(b.MissionRepository, b.MonsterRepository)
	b.ArchiveService = services.NewArchiveService(
		cfg.Spaces.Key,
		cfg.Spaces.Secret,
		cfg.Spaces.Region,
		cfg.Spaces.Bucket,
		cfg.Spaces.ArchiveRoot,
	)
	b.LeaderboardImages = services.NewLeaderboardImageService()

	h := handler.New()

	commands.NewSubmitHandler(b).Register(h)
	commands.NewMissionHandler(b).Register(h)
	commands.NewBossHandler(b).Register(h)
	commands.NewProfileHandler(b).Register(h)
	h.Command("/balance", handlers.WrapWithLogging("balance", commands.BalanceHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		logger.LogError("Failed to setup bot", err,
			slog.String("component", "bot_setup"))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		logger.LogSystem("Syncing commands", slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			logger.LogError("Failed to sync commands", err,
				slog.String("component", "command_sync"))
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		logger.LogError("Failed to open gateway", err,
			slog.String("component", "gateway"))
		os.Exit(-1)
	}

	logger.LogSystem("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
}

// rewardConfig merges the game section of the config over the engine
// defaults. Zero values keep the default.
func rewardConfig(game emberden.GameConfig) *rewards.Config {
	cfg := rewards.NewDefaultConfig()
	if game.CoinsPerLevel > 0 {
		cfg.CoinsPerLevel = game.CoinsPerLevel
	}
	if game.GardenPointsPerLevel > 0 {
		cfg.GardenPointsPerLevel = game.GardenPointsPerLevel
	}
	if game.BossDamagePerLevel > 0 {
		cfg.BossDamagePerLevel = game.BossDamagePerLevel
	}
	if game.GiftLevelDivisor > 0 {
		cfg.GiftLevelDivisor = int64(game.GiftLevelDivisor)
	}
	if game.ExternalRate > 0 {
		cfg.ExternalRate = game.ExternalRate
	}
	return cfg
}
