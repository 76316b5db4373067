package repository

import (
	"context"
	"ssbprep/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryRepo handles MongoDB operations for per-user assessment history
type HistoryRepo interface {
	Create(ctx context.Context, record *model.HistoryRecord) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.HistoryRecord, error)
}

type historyRepo struct {
	collection *mongo.Collection
}

// NewHistoryRepo creates a new history repository
func NewHistoryRepo(db *mongo.Database) HistoryRepo {
	return &historyRepo{
		collection: db.Collection("assessment_history"),
	}
}

// EnsureHistoryIndexes creates the index history listing relies on
func EnsureHistoryIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("assessment_history").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *historyRepo) Create(ctx context.Context, record *model.HistoryRecord) error {
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

func (r *historyRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []model.HistoryRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
