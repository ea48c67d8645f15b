package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/emberden/emberden/emberden/database"
	"github.com/emberden/emberden/emberden/migration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	var (
		mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "legacy MongoDB connection URI")
		mongoName = flag.String("mongo-db", "emberden_legacy", "legacy MongoDB database name")
		pgHost    = flag.String("pg-host", "localhost", "Postgres host")
		pgUser    = flag.String("pg-user", "postgres", "Postgres user")
		pgPass    = flag.String("pg-password", "postgres", "Postgres password")
		pgName    = flag.String("pg-db", "emberden", "Postgres database")
		batchSize = flag.Int("batch-size", 500, "insert batch size")
	)
	flag.Parse()

	ctx := context.Background()

	db, err := database.New(ctx, database.DBConfig{
		Host:     *pgHost,
		Port:     5432,
		User:     *pgUser,
		Password: *pgPass,
		Database: *pgName,
		PoolSize: 10,
	})
	if err != nil {
		slog.Error("Failed to connect to Postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		slog.Error("Failed to connect to MongoDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	migrator := migration.NewMigrator(db.BunDB(), client.Database(*mongoName))
	migrator.SetBatchSize(*batchSize)

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Migration completed successfully")
}
