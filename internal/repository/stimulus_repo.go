package repository

import (
	"context"
	"ssbprep/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StimulusRepo handles MongoDB operations for TAT images and WAT words
type StimulusRepo interface {
	ListImages(ctx context.Context) ([]model.ImageStimulus, error)
	GetImage(ctx context.Context, id string) (*model.ImageStimulus, error)
	ListWords(ctx context.Context) ([]model.WordStimulus, error)

	// Seeding is keyed on imageUrl and word; the count is of newly added stimuli
	UpsertImages(ctx context.Context, images []model.ImageStimulus) (int, error)
	UpsertWords(ctx context.Context, words []model.WordStimulus) (int, error)
}

type stimulusRepo struct {
	images *mongo.Collection
	words  *mongo.Collection
}

// NewStimulusRepo creates a new stimulus repository
func NewStimulusRepo(db *mongo.Database) StimulusRepo {
	return &stimulusRepo{
		images: db.Collection("tat_images"),
		words:  db.Collection("wat_words"),
	}
}

func (r *stimulusRepo) ListImages(ctx context.Context) ([]model.ImageStimulus, error) {
	cursor, err := r.images.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []model.ImageStimulus
	if err = cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *stimulusRepo) GetImage(ctx context.Context, id string) (*model.ImageStimulus, error) {
	var image model.ImageStimulus
	err := r.images.FindOne(ctx, bson.M{"_id": id}).Decode(&image)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *stimulusRepo) ListWords(ctx context.Context) ([]model.WordStimulus, error) {
	cursor, err := r.words.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var words []model.WordStimulus
	if err = cursor.All(ctx, &words); err != nil {
		return nil, err
	}
	return words, nil
}

// EnsureStimulusIndexes makes imageUrl and word unique so reseeding cannot
// duplicate stimuli
func EnsureStimulusIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	if _, err := db.Collection("tat_images").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "imageUrl", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}
	_, err := db.Collection("wat_words").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "word", Value: 1}},
		Options: unique,
	})
	return err
}

// imageUpserts keys each image on its URL; ids and creation times are only
// assigned on first insert
func imageUpserts(images []model.ImageStimulus, now time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(images))
	for _, img := range images {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"imageUrl": img.ImageURL}).
			SetUpdate(bson.M{
				"$set":         bson.M{"themes": img.Themes},
				"$setOnInsert": bson.M{"_id": newID(img.ID), "createdAt": now},
			}).
			SetUpsert(true))
	}
	return models
}

func wordUpserts(words []model.WordStimulus, now time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(words))
	for _, w := range words {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"word": w.Word}).
			SetUpdate(bson.M{
				"$setOnInsert": bson.M{"_id": newID(w.ID), "createdAt": now},
			}).
			SetUpsert(true))
	}
	return models
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return primitive.NewObjectID().Hex()
}

func (r *stimulusRepo) UpsertImages(ctx context.Context, images []model.ImageStimulus) (int, error) {
	if len(images) == 0 {
		return 0, nil
	}
	res, err := r.images.BulkWrite(ctx, imageUpserts(images, time.Now()))
	if err != nil {
		return 0, err
	}
	return int(res.UpsertedCount), nil
}

func (r *stimulusRepo) UpsertWords(ctx context.Context, words []model.WordStimulus) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}
	res, err := r.words.BulkWrite(ctx, wordUpserts(words, time.Now()))
	if err != nil {
		return 0, err
	}
	return int(res.UpsertedCount), nil
}
