package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"ssbprep/internal/cache"
	"ssbprep/internal/model"
	"ssbprep/internal/repository"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrImageNotFound = errors.New("image not found")

//go:embed data/fallback_words.yaml
var fallbackWordsYAML []byte

// LoadFallbackWords parses the built-in WAT word list
func LoadFallbackWords() ([]model.WordStimulus, error) {
	var doc struct {
		Words []string `yaml:"words"`
	}
	if err := yaml.Unmarshal(fallbackWordsYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fallback words: %w", err)
	}
	words := make([]model.WordStimulus, 0, len(doc.Words))
	for _, w := range doc.Words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words = append(words, model.WordStimulus{ID: "fallback-" + strings.ToLower(w), Word: w})
	}
	return words, nil
}

// StimulusService serves the TAT image and WAT word pools.
// Reads never fail: images degrade to an empty list, words to the built-in list.
type StimulusService struct {
	repo     repository.StimulusRepo
	cache    cache.PoolCache
	fallback []model.WordStimulus
	log      *zap.Logger
}

// NewStimulusService creates a new stimulus service. repo and cache may be nil.
func NewStimulusService(repo repository.StimulusRepo, poolCache cache.PoolCache, log *zap.Logger) (*StimulusService, error) {
	fallback, err := LoadFallbackWords()
	if err != nil {
		return nil, err
	}
	return &StimulusService{
		repo:     repo,
		cache:    poolCache,
		fallback: fallback,
		log:      log,
	}, nil
}

// ListImages returns the TAT pool, or an empty list when the store is unavailable
func (s *StimulusService) ListImages(ctx context.Context) []model.ImageStimulus {
	if s.cache != nil {
		images, err := s.cache.GetImages(ctx)
		if err != nil {
			s.log.Warn("image pool cache read failed", zap.Error(err))
		} else if len(images) > 0 {
			return images
		}
	}

	if s.repo == nil {
		return []model.ImageStimulus{}
	}
	images, err := s.repo.ListImages(ctx)
	if err != nil {
		s.log.Warn("image pool unavailable", zap.Error(err))
		return []model.ImageStimulus{}
	}
	if len(images) == 0 {
		return []model.ImageStimulus{}
	}

	if s.cache != nil {
		if err := s.cache.SetImages(ctx, images); err != nil {
			s.log.Warn("image pool cache write failed", zap.Error(err))
		}
	}
	return images
}

// ListWords returns the WAT pool and whether it is the built-in fallback list
func (s *StimulusService) ListWords(ctx context.Context) ([]model.WordStimulus, bool) {
	if s.cache != nil {
		words, err := s.cache.GetWords(ctx)
		if err != nil {
			s.log.Warn("word pool cache read failed", zap.Error(err))
		} else if len(words) > 0 {
			return words, false
		}
	}

	var (
		words []model.WordStimulus
		err   error
	)
	if s.repo != nil {
		words, err = s.repo.ListWords(ctx)
	}
	if err != nil || len(words) == 0 {
		s.log.Info("serving fallback word list", zap.Error(err))
		return append([]model.WordStimulus(nil), s.fallback...), true
	}

	if s.cache != nil {
		if err := s.cache.SetWords(ctx, words); err != nil {
			s.log.Warn("word pool cache write failed", zap.Error(err))
		}
	}
	return words, false
}

// Image returns one TAT image with its themes
func (s *StimulusService) Image(ctx context.Context, id string) (*model.ImageStimulus, error) {
	for _, img := range s.ListImages(ctx) {
		if img.ID == id {
			found := img
			return &found, nil
		}
	}
	if s.repo == nil {
		return nil, ErrImageNotFound
	}
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// Pool returns the items a session of type t may draw from
func (s *StimulusService) Pool(ctx context.Context, t model.TestType) []model.Item {
	if t == model.TestTypeTAT {
		images := s.ListImages(ctx)
		items := make([]model.Item, 0, len(images))
		for _, img := range images {
			items = append(items, model.ImageItem(img))
		}
		return items
	}

	words, _ := s.ListWords(ctx)
	items := make([]model.Item, 0, len(words))
	for _, w := range words {
		items = append(items, model.WordItem(w))
	}
	return items
}

// Invalidate drops the cached pools after a reseed
func (s *StimulusService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
