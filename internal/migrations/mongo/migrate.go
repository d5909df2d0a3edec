package mongo

import (
	"context"
	"fmt"
	"time"
	bookingsrepository "tourdesk/internal/bookings/repository"
	crewrepository "tourdesk/internal/crew/repository"
	"tourdesk/internal/migrations/mongo/validators"
	notificationsrepository "tourdesk/internal/notifications/repository"
	resourcesrepository "tourdesk/internal/resources/repository"
	utilizationrepository "tourdesk/internal/utilization/repository"
	"tourdesk/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionDef describes one collection and how it is indexed and validated.
type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "resource.id", Value: 1},
			{Key: "window.date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "crew.id", Value: 1},
			{Key: "window.date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "window.date", Value: 1},
			{Key: "window.start", Value: 1},
			{Key: "_id", Value: 1},
		}},
	}

	// Locks left behind by a crashed instance are removed once they expire.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	ResourcesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	}

	ResourceCalendarsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	CrewIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "qualifications", Value: 1}}},
	}

	CrewSchedulesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "crew_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	NotificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipients", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}
)

// Collections maps every collection the service uses to its indexes and
// schema validator.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		bookingsrepository.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		bookingsrepository.LockCollectionName: {
			Indexes: BookingLocksIndexes,
		},
		resourcesrepository.CollectionName: {
			Indexes:   ResourcesIndexes,
			Validator: validators.ResourceValidator,
		},
		resourcesrepository.CalendarCollectionName: {
			Indexes: ResourceCalendarsIndexes,
		},
		crewrepository.CollectionName: {
			Indexes:   CrewIndexes,
			Validator: validators.CrewMemberValidator,
		},
		crewrepository.ScheduleCollectionName: {
			Indexes: CrewSchedulesIndexes,
		},
		notificationsrepository.CollectionName: {
			Indexes: NotificationsIndexes,
		},
		utilizationrepository.CollectionName: {},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	started := time.Now()
	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "duration", time.Since(started))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
