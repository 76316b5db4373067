package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mean is a per-trait average rounded to one decimal place.
// It serializes as a string ("3.0") to keep the trailing zero.
type Mean float64

// RoundMean rounds v to one decimal place
func RoundMean(v float64) Mean {
	return Mean(math.Round(v*10) / 10)
}

func (m Mean) String() string {
	return strconv.FormatFloat(float64(m), 'f', 1, 64)
}

// MarshalJSON implements json.Marshaler
func (m Mean) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both "3.0" and 3.0
func (m *Mean) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid mean %q: %w", s, err)
	}
	*m = RoundMean(v)
	return nil
}

// Scorecard maps trait name to its mean across all items of a session
type Scorecard map[string]Mean

// WATItemScore is the per-sentence breakdown of a WAT report
type WATItemScore struct {
	WordID   string             `json:"wordId,omitempty" bson:"wordId,omitempty"`
	Word     string             `json:"word" bson:"word"`
	Response string             `json:"response" bson:"response"`
	Scores   map[string]float64 `json:"scores" bson:"scores"`
	Fallback bool               `json:"fallback,omitempty" bson:"fallback,omitempty"` // neutral scores substituted
}

// WATReport is the scored result of a WAT attempt
type WATReport struct {
	SentenceWise   []WATItemScore `json:"sentenceWise" bson:"sentenceWise"`
	FinalScorecard Scorecard      `json:"finalScorecard" bson:"finalScorecard"`
	TotalScore     float64        `json:"totalScore" bson:"totalScore"`
	MaxScore       float64        `json:"maxScore" bson:"maxScore"`
	Percentage     float64        `json:"percentage" bson:"percentage"`
}

// ParameterScore is one TAT parameter verdict
type ParameterScore struct {
	Parameter string  `json:"parameter" bson:"parameter"`
	Score     float64 `json:"score" bson:"score"`
	Remark    string  `json:"remark" bson:"remark"`
}

// TATStoryScore is the per-story breakdown of a TAT report
type TATStoryScore struct {
	ImageID    string           `json:"imageId" bson:"imageId"`
	Story      string           `json:"story" bson:"story"`
	Scores     []ParameterScore `json:"scores" bson:"scores"`
	TotalScore float64          `json:"totalScore" bson:"totalScore"`
	Summary    string           `json:"summary" bson:"summary"`
}

// TATReport is the scored result of a TAT attempt
type TATReport struct {
	Stories []TATStoryScore `json:"stories" bson:"stories"`
	Summary string          `json:"summary" bson:"summary"`
}

// ScoreReport is what the scorer hands to whoever renders results
type ScoreReport struct {
	TestType TestType   `json:"testType" bson:"testType"`
	WAT      *WATReport `json:"wat,omitempty" bson:"wat,omitempty"`
	TAT      *TATReport `json:"tat,omitempty" bson:"tat,omitempty"`
	Degraded bool       `json:"degraded,omitempty" bson:"degraded,omitempty"` // neutral report after a scoring failure
}

// Totals returns score, maximum and percentage for history records
func (r *ScoreReport) Totals() (score, total, percentage float64) {
	switch {
	case r.WAT != nil:
		return r.WAT.TotalScore, r.WAT.MaxScore, r.WAT.Percentage
	case r.TAT != nil:
		for _, s := range r.TAT.Stories {
			score += s.TotalScore
		}
		total = float64(len(r.TAT.Stories) * len(TATParameters) * MaxTraitScore)
		if total > 0 {
			percentage = math.Round(score/total*1000) / 10
		}
		return score, total, percentage
	}
	return 0, 0, 0
}

// Feedback returns the human-readable summary line stored with history
func (r *ScoreReport) Feedback() string {
	if r.TAT != nil {
		return r.TAT.Summary
	}
	if r.WAT != nil {
		return fmt.Sprintf("WAT scorecard over %d sentences", len(r.WAT.SentenceWise))
	}
	return ""
}

// NeutralWATReport builds the all-neutral report for the given responses
func NeutralWATReport(responses []Response) *WATReport {
	items := make([]WATItemScore, 0, len(responses))
	for _, r := range responses {
		item := WATItemScore{Response: r.Text, Scores: NeutralScores(), Fallback: true}
		if r.Item.Word != nil {
			item.WordID = r.Item.Word.ID
			item.Word = r.Item.Word.Word
		}
		items = append(items, item)
	}
	return AggregateWAT(items)
}

// AggregateWAT computes the per-trait mean scorecard and totals over items
func AggregateWAT(items []WATItemScore) *WATReport {
	card := make(Scorecard, len(WATTraits))
	var total float64
	for _, trait := range WATTraits {
		var sum float64
		for _, item := range items {
			sum += item.Scores[trait]
		}
		mean := Mean(0)
		if len(items) > 0 {
			mean = RoundMean(sum / float64(len(items)))
		}
		card[trait] = mean
		total += float64(mean)
	}
	total = math.Round(total*10) / 10
	max := float64(len(WATTraits) * MaxTraitScore)
	return &WATReport{
		SentenceWise:   items,
		FinalScorecard: card,
		TotalScore:     total,
		MaxScore:       max,
		Percentage:     math.Round(total/max*1000) / 10,
	}
}

// NeutralTATStory builds the degraded per-story entry used when scoring failed
func NeutralTATStory(imageID, story string) TATStoryScore {
	scores := make([]ParameterScore, 0, len(TATParameters))
	for _, p := range TATParameters {
		scores = append(scores, ParameterScore{Parameter: p, Score: NeutralTraitScore, Remark: "evaluation unavailable"})
	}
	return TATStoryScore{
		ImageID:    imageID,
		Story:      story,
		Scores:     scores,
		TotalScore: float64(len(TATParameters) * NeutralTraitScore),
	}
}

// NeutralReport builds the degraded report a session falls back to when scoring fails
func NeutralReport(t TestType, responses []Response) *ScoreReport {
	if t == TestTypeTAT {
		stories := make([]TATStoryScore, 0, len(responses))
		for _, r := range responses {
			stories = append(stories, NeutralTATStory(r.Item.Ref(), r.Text))
		}
		return &ScoreReport{TestType: t, TAT: &TATReport{Stories: stories}, Degraded: true}
	}
	return &ScoreReport{TestType: TestTypeWAT, WAT: NeutralWATReport(responses), Degraded: true}
}
