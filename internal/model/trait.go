package model

// WATTraits is the ordered trait taxonomy every WAT sentence is scored against
var WATTraits = []string{
	"Reasoning Ability",
	"Practical Intelligence",
	"Social Adaptability",
	"Cooperation",
	"Sense of Responsibility",
	"Initiative",
	"Self-Confidence",
	"Speed of Decision",
	"Ability to Influence the Group",
	"Liveliness",
	"Determination",
	"Courage",
	"Stamina",
	"Integrity",
	"Negative Indicator",
	"Organizing Ability",
}

// TATParameters is the ordered parameter taxonomy every TAT story is scored against
var TATParameters = []string{
	"Effective Intelligence",
	"Reasoning Ability",
	"Organizing Ability",
	"Power of Expression",
	"Social Adaptability",
	"Cooperation",
	"Sense of Responsibility",
	"Initiative",
	"Self-Confidence",
	"Speed of Decision",
	"Ability to Influence the Group",
	"Liveliness",
	"Determination",
	"Courage",
	"Stamina",
	"Emotional Stability",
}

const (
	// MaxTraitScore is the top of the 1-5 scale; 0 means not applicable
	MaxTraitScore = 5

	// NeutralTraitScore replaces a scoring result that could not be produced
	NeutralTraitScore = 3
)

// Taxonomy returns the trait list for a test type
func Taxonomy(t TestType) []string {
	if t == TestTypeTAT {
		return TATParameters
	}
	return WATTraits
}

// NeutralScores returns a fresh map with every WAT trait at the neutral score
func NeutralScores() map[string]float64 {
	scores := make(map[string]float64, len(WATTraits))
	for _, trait := range WATTraits {
		scores[trait] = NeutralTraitScore
	}
	return scores
}
