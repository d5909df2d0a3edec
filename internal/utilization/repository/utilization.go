package repository

import (
	"context"
	"errors"
	"fmt"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db/memory"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Utilization"

type UtilizationRepository interface {
	// FindByDate returns nil without error when no record is stored.
	FindByDate(ctx context.Context, date string) (*model.UtilizationRecord, error)
	// Put replaces the record for its date.
	Put(ctx context.Context, record *model.UtilizationRecord) error
}

type memoryUtilizationRepository struct {
	table *memory.Table[*model.UtilizationRecord]
}

func NewMemoryUtilizationRepository(store *memory.Store) UtilizationRepository {
	return &memoryUtilizationRepository{
		table: memory.NewTable[*model.UtilizationRecord](store),
	}
}

func (r *memoryUtilizationRepository) FindByDate(ctx context.Context, date string) (*model.UtilizationRecord, error) {
	rec, ok := r.table.Get(date)
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (r *memoryUtilizationRepository) Put(ctx context.Context, record *model.UtilizationRecord) error {
	return r.table.Put(ctx, record.Date, cloneRecord(record))
}

func cloneRecord(rec *model.UtilizationRecord) *model.UtilizationRecord {
	c := *rec
	c.ResourceHours = make(map[string]float64, len(rec.ResourceHours))
	for k, v := range rec.ResourceHours {
		c.ResourceHours[k] = v
	}
	c.CrewHours = make(map[string]float64, len(rec.CrewHours))
	for k, v := range rec.CrewHours {
		c.CrewHours[k] = v
	}
	return &c
}

type mongoUtilizationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUtilizationRepository(cfg *config.Config) UtilizationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUtilizationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUtilizationRepository) FindByDate(ctx context.Context, date string) (*model.UtilizationRecord, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var rec model.UtilizationRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": date}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find utilization record: %w", err)
	}
	return &rec, nil
}

func (r *mongoUtilizationRepository) Put(ctx context.Context, record *model.UtilizationRecord) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.Date}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store utilization record: %w", err)
	}
	return nil
}
