package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	crewerrors "tourdesk/internal/crew/errors"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCrewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCrewRepository(cfg *config.Config) CrewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCrewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCrewRepository) Create(ctx context.Context, member *model.CrewMember) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	member.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, member); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", crewerrors.ErrDuplicateID, member.ID)
		}
		return fmt.Errorf("failed to create crew member: %w", err)
	}
	return nil
}

func (r *mongoCrewRepository) Upsert(ctx context.Context, member *model.CrewMember) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":           member.Name,
			"qualifications": member.Qualifications,
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	if _, err := r.collection.UpdateByID(ctx, member.ID, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert crew member: %w", err)
	}
	return nil
}

func (r *mongoCrewRepository) FindByID(ctx context.Context, id string) (*model.CrewMember, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var member model.CrewMember
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, crewerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find crew member: %w", err)
	}
	return &member, nil
}

func (r *mongoCrewRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.CrewMember, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find crew: %w", err)
	}
	defer cursor.Close(ctx)

	members := make([]*model.CrewMember, 0)
	if err = cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode crew: %w", err)
	}
	return members, nil
}

func (r *mongoCrewRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

type mongoScheduleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		collection: db.Collection(ScheduleCollectionName),
	}
}

func (r *mongoScheduleRepository) FindDay(ctx context.Context, crewID, date string) (*model.CrewDay, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var day model.CrewDay
	err := r.collection.FindOne(ctx, bson.M{"_id": model.CrewDayID(crewID, date)}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find crew schedule: %w", err)
	}
	return &day, nil
}

func (r *mongoScheduleRepository) Put(ctx context.Context, day *model.CrewDay) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	day.ID = model.CrewDayID(day.CrewID, day.Date)
	if len(day.BookingIDs) == 0 {
		if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": day.ID}); err != nil {
			return fmt.Errorf("failed to clear crew schedule: %w", err)
		}
		return nil
	}

	day.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": day.ID}, day, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store crew schedule: %w", err)
	}
	return nil
}
