package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"ssbprep/internal/llm"
	"ssbprep/internal/llmjson"
	"ssbprep/internal/model"
	"ssbprep/internal/session"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScorerService scores WAT sentences and TAT stories with the model chain
type ScorerService struct {
	chain       *llm.Chain
	concurrency int
	log         *zap.Logger
}

// NewScorerService creates a new scorer service
func NewScorerService(chain *llm.Chain, concurrency int, log *zap.Logger) *ScorerService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScorerService{
		chain:       chain,
		concurrency: concurrency,
		log:         log,
	}
}

// Evaluate implements session.Scorer
func (s *ScorerService) Evaluate(ctx context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error) {
	switch t {
	case model.TestTypeWAT:
		entries := make([]model.WATEntry, 0, len(responses))
		for _, r := range responses {
			e := model.WATEntry{Response: r.Text}
			if r.Item.Word != nil {
				e.WordID = r.Item.Word.ID
				e.Word = r.Item.Word.Word
			}
			entries = append(entries, e)
		}
		return &model.ScoreReport{TestType: t, WAT: s.ScoreWAT(ctx, entries)}, nil

	case model.TestTypeTAT:
		report, err := s.scoreTATSession(ctx, responses)
		if report == nil {
			return nil, err
		}
		// a partial report travels with its error
		return &model.ScoreReport{TestType: t, TAT: report, Degraded: err != nil}, err
	}
	return nil, fmt.Errorf("unknown test type %q", t)
}

// ScoreWAT scores every sentence independently and aggregates the scorecard.
// It never fails: a sentence the model cannot score gets neutral scores.
func (s *ScorerService) ScoreWAT(ctx context.Context, entries []model.WATEntry) *model.WATReport {
	items := make([]model.WATItemScore, len(entries))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			items[i] = s.scoreSentence(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return model.AggregateWAT(items)
}

func (s *ScorerService) scoreSentence(ctx context.Context, entry model.WATEntry) model.WATItemScore {
	item := model.WATItemScore{
		WordID:   entry.WordID,
		Word:     entry.Word,
		Response: entry.Response,
	}
	neutral := func(reason string, err error) model.WATItemScore {
		s.log.Debug("using neutral WAT scores",
			zap.String("word", entry.Word),
			zap.String("reason", reason),
			zap.Error(err),
		)
		item.Scores = model.NeutralScores()
		item.Fallback = true
		return item
	}

	if strings.TrimSpace(entry.Response) == "" {
		return neutral("empty response", nil)
	}

	text, modelName, err := s.chain.Complete(ctx, buildWATPrompt(entry))
	if err != nil {
		return neutral("model failed", err)
	}

	var raw map[string]interface{}
	if err := llmjson.Extract(text, &raw); err != nil {
		return neutral("unparseable output from "+modelName, err)
	}

	lookup := foldKeys(raw)
	scores := make(map[string]float64, len(model.WATTraits))
	allZero := true
	for _, trait := range model.WATTraits {
		v := clampScore(toScore(lookup[strings.ToLower(trait)]))
		scores[trait] = v
		if v != 0 {
			allZero = false
		}
	}
	if allZero {
		return neutral("all traits zero", nil)
	}

	item.Scores = scores
	return item
}

// tatOutput is the shape the model is asked to return for one story
type tatOutput struct {
	Scores []struct {
		Parameter string      `json:"parameter"`
		Score     interface{} `json:"score"`
		Remark    string      `json:"remark"`
	} `json:"scores"`
	TotalScore interface{} `json:"totalScore"`
	Summary    string      `json:"summary"`
}

// ScoreTAT scores one story against the image's themes. Any unrecoverable
// failure is reported as session.ErrEvaluationFailed.
func (s *ScorerService) ScoreTAT(ctx context.Context, image model.ImageStimulus, story string) (*model.TATStoryScore, error) {
	text, modelName, err := s.chain.Complete(ctx, buildTATPrompt(image, story))
	if err != nil {
		s.log.Warn("TAT scoring call failed", zap.String("image", image.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", session.ErrEvaluationFailed, err)
	}

	var out tatOutput
	if err := llmjson.Extract(text, &out); err != nil {
		s.log.Warn("TAT output unparseable",
			zap.String("image", image.ID),
			zap.String("model", modelName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", session.ErrEvaluationFailed, err)
	}
	if len(out.Scores) == 0 {
		return nil, fmt.Errorf("%w: no parameter scores", session.ErrEvaluationFailed)
	}

	byName := make(map[string]model.ParameterScore, len(out.Scores))
	for _, sc := range out.Scores {
		name := strings.ToLower(strings.TrimSpace(sc.Parameter))
		byName[name] = model.ParameterScore{
			Parameter: sc.Parameter,
			Score:     clampScore(toScore(sc.Score)),
			Remark:    strings.TrimSpace(sc.Remark),
		}
	}

	result := &model.TATStoryScore{
		ImageID: image.ID,
		Story:   story,
		Scores:  make([]model.ParameterScore, 0, len(model.TATParameters)),
		Summary: strings.TrimSpace(out.Summary),
	}
	for _, param := range model.TATParameters {
		ps, ok := byName[strings.ToLower(param)]
		if !ok {
			ps = model.ParameterScore{Remark: "not assessed"}
		}
		ps.Parameter = param
		result.Scores = append(result.Scores, ps)
		result.TotalScore += ps.Score
	}
	return result, nil
}

// scoreTATSession scores every story independently. A story the model could
// not score is replaced by its neutral entry and the report is returned
// marked degraded together with an error wrapping session.ErrEvaluationFailed.
func (s *ScorerService) scoreTATSession(ctx context.Context, responses []model.Response) (*model.TATReport, error) {
	for i, r := range responses {
		if r.Item.Image == nil {
			return nil, fmt.Errorf("%w: response %d has no image", session.ErrEvaluationFailed, i)
		}
	}

	stories := make([]model.TATStoryScore, len(responses))
	failures := make([]error, len(responses))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, r := range responses {
		g.Go(func() error {
			story, err := s.ScoreTAT(ctx, *r.Item.Image, r.Text)
			if err != nil {
				failures[i] = err
				stories[i] = model.NeutralTATStory(r.Item.Image.ID, r.Text)
				return nil
			}
			stories[i] = *story
			return nil
		})
	}
	g.Wait()

	summaries := make([]string, 0, len(stories))
	for _, st := range stories {
		if st.Summary != "" {
			summaries = append(summaries, st.Summary)
		}
	}
	report := &model.TATReport{Stories: stories, Summary: strings.Join(summaries, "\n\n")}

	failed := 0
	for _, err := range failures {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return report, fmt.Errorf("%w: %d of %d stories unscored: %w",
			session.ErrEvaluationFailed, failed, len(stories), errors.Join(failures...))
	}
	return report, nil
}

func foldKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// toScore accepts numbers and numeric strings; anything else is 0
func toScore(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > model.MaxTraitScore {
		return model.MaxTraitScore
	}
	return v
}
