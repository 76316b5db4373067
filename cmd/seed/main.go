package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"ssbprep/internal/app"
	"ssbprep/internal/config"
	"ssbprep/internal/logging"
	"ssbprep/internal/model"
	"ssbprep/internal/repository"
	"ssbprep/internal/service"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed stimuli.yaml
var defaultStimuli []byte

type seedFile struct {
	Images []struct {
		URL    string   `yaml:"url"`
		Themes []string `yaml:"themes"`
	} `yaml:"images"`
	Words []string `yaml:"words"`
}

func main() {
	file := flag.String("file", "", "YAML stimulus file (defaults to the built-in set)")
	skipCache := flag.Bool("skip-cache", false, "do not invalidate the Redis pool cache")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	cfg.Logging.FileOutput = false
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	images, words, err := loadSeed(*file)
	if err != nil {
		logger.Fatal("failed to read stimuli", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureStimulusIndexes(ctx, db); err != nil {
		logger.Fatal("failed to create stimulus indexes", zap.Error(err))
	}

	store := app.New(db, rdb, 0)
	stimuli, err := service.NewStimulusService(store.StimulusRepo, store.PoolCache, logger)
	if err != nil {
		logger.Fatal("failed to load fallback words", zap.Error(err))
	}

	n, err := store.StimulusRepo.UpsertImages(ctx, images)
	if err != nil {
		logger.Fatal("failed to upsert images", zap.Error(err))
	}
	logger.Info("seeded TAT images", zap.Int("added", n), zap.Int("total", len(images)))

	n, err = store.StimulusRepo.UpsertWords(ctx, words)
	if err != nil {
		logger.Fatal("failed to upsert words", zap.Error(err))
	}
	logger.Info("seeded WAT words", zap.Int("added", n), zap.Int("total", len(words)))

	if *skipCache {
		return
	}
	if err := stimuli.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate pool cache; new stimuli appear after expiry", zap.Error(err))
	}
}

func loadSeed(path string) ([]model.ImageStimulus, []model.WordStimulus, error) {
	data := defaultStimuli
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		data = b
	}

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse %q: %w", path, err)
	}

	images := make([]model.ImageStimulus, 0, len(doc.Images))
	for _, img := range doc.Images {
		if img.URL == "" {
			continue
		}
		images = append(images, model.ImageStimulus{ImageURL: img.URL, Themes: img.Themes})
	}

	words := make([]model.WordStimulus, 0, len(doc.Words))
	for _, w := range doc.Words {
		if w = strings.ToUpper(strings.TrimSpace(w)); w != "" {
			words = append(words, model.WordStimulus{Word: w})
		}
	}
	return images, words, nil
}
