package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MigrationsCollection records applied migration versions.
const MigrationsCollection = "schema_migrations"

// Migration is one versioned change to the database, typically index
// creation. Versions are applied in lexical order exactly once.
type Migration struct {
	Version string
	Apply   func(ctx context.Context, db *mongo.Database) error
}

type migrationRecord struct {
	Version   string    `bson:"_id"`
	AppliedAt time.Time `bson:"appliedAt"`
}

// RunMigrations applies every migration not yet recorded in
// schema_migrations. Transient failures are retried (3 attempts,
// exponential backoff); command errors are returned immediately.
func RunMigrations(ctx context.Context, db *mongo.Database, migrations []Migration, logger *slog.Logger) error {
	sorted := slices.Clone(migrations)
	slices.SortFunc(sorted, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })

	err := withRetry(ctx, "run migrations", logger, IsTransient, func(ctx context.Context) error {
		return runMigrationsOnce(ctx, db, sorted, logger)
	})
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrationsOnce(ctx context.Context, db *mongo.Database, migrations []Migration, logger *slog.Logger) error {
	records := db.Collection(MigrationsCollection)

	for _, m := range migrations {
		err := records.FindOne(ctx, bson.D{{Key: "_id", Value: m.Version}}).Err()
		switch {
		case err == nil:
			logger.Debug("migration already applied, skipping", slog.String("version", m.Version))
			continue
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("check migration %s: %w", m.Version, err)
		}

		if err := m.Apply(ctx, db); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}

		_, err = records.InsertOne(ctx, migrationRecord{Version: m.Version, AppliedAt: time.Now().UTC()})
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}

		logger.Info("migration applied", slog.String("version", m.Version))
	}
	return nil
}

// CreateIndexes returns a migration body that creates models on collection.
func CreateIndexes(collection string, models ...mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		return nil
	}
}
