package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrator copies trainer and monster records from the community's old
// MongoDB bot into Postgres. It is a one-shot tool run via cmd/migrate;
// re-runs are safe because inserts skip rows whose natural key already
// exists.
type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int

	collNames map[string]string
	stats     MigrationStats
}

func NewMigrator(pgDB *bun.DB, mongoDB *mongo.Database) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   mongoDB,
		batchSize: 500,
		collNames: map[string]string{
			"trainers": "trainers",
			"monsters": "monsters",
		},
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
	}
}

// SetBatchSize overrides the default insert batch size.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetCollectionName overrides a source collection name.
func (m *Migrator) SetCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) MigrateAll(ctx context.Context) error {
	logProgress("Starting legacy migration")

	if err := m.migrateTrainers(ctx); err != nil {
		return fmt.Errorf("trainer migration failed: %w", err)
	}
	if err := m.migrateMonsters(ctx); err != nil {
		return fmt.Errorf("monster migration failed: %w", err)
	}

	m.logSummary()
	return nil
}

func (m *Migrator) migrateTrainers(ctx context.Context) error {
	stats := m.tableStats("trainers")

	cur, err := m.mongoDB.Collection(m.collNames["trainers"]).Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var batch []*models.Trainer
	for cur.Next(ctx) {
		var mt MongoTrainer
		if err := cur.Decode(&mt); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++
		batch = append(batch, m.convertTrainer(mt))
		if len(batch) >= m.batchSize {
			if err := m.insertTrainers(ctx, batch, stats); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return m.insertTrainers(ctx, batch, stats)
	}
	return nil
}

func (m *Migrator) migrateMonsters(ctx context.Context) error {
	stats := m.tableStats("monsters")

	cur, err := m.mongoDB.Collection(m.collNames["monsters"]).Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var batch []*models.Monster
	for cur.Next(ctx) {
		var mm MongoMonster
		if err := cur.Decode(&mm); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++
		batch = append(batch, m.convertMonster(mm))
		if len(batch) >= m.batchSize {
			if err := m.insertMonsters(ctx, batch, stats); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return m.insertMonsters(ctx, batch, stats)
	}
	return nil
}

func (m *Migrator) insertTrainers(ctx context.Context, batch []*models.Trainer, stats *TableStats) error {
	res, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (trainer_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		stats.Inserted += int(n)
		stats.Skipped += len(batch) - int(n)
	}
	logProgress(fmt.Sprintf("trainers: %d read, %d inserted", stats.Read, stats.Inserted))
	return nil
}

func (m *Migrator) insertMonsters(ctx context.Context, batch []*models.Monster, stats *TableStats) error {
	res, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (monster_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		stats.Inserted += int(n)
		stats.Skipped += len(batch) - int(n)
	}
	logProgress(fmt.Sprintf("monsters: %d read, %d inserted", stats.Read, stats.Inserted))
	return nil
}

func (m *Migrator) tableStats(name string) *TableStats {
	if s, ok := m.stats.Tables[name]; ok {
		return s
	}
	s := &TableStats{}
	m.stats.Tables[name] = s
	return s
}

func (m *Migrator) logSummary() {
	elapsed := time.Since(m.stats.StartTime)
	for name, s := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("table", name),
			slog.Int("read", s.Read),
			slog.Int("inserted", s.Inserted),
			slog.Int("skipped", s.Skipped),
		)
	}
	slog.Info("Legacy migration finished", slog.Duration("elapsed", elapsed))
}

func logProgress(msg string) {
	slog.Info(msg, slog.String("type", "db"))
}
