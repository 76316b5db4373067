// Package session runs one timed TAT or WAT attempt.
//
// State changes only through Next, a pure function of the current state and an
// event. Timers do not touch state; they emit Tick events that the Controller
// feeds through Next like any user action.
package session

import (
	"errors"

	"ssbprep/internal/model"
)

// ErrEvaluationFailed is the message a session carries when scoring failed and
// a neutral report was substituted
var ErrEvaluationFailed = errors.New("evaluation failed")

// Phase is where in its lifecycle a session is
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseViewing    Phase = "viewing"    // TAT only: image shown, no input
	PhaseResponding Phase = "responding" // text input accepted
	PhaseEvaluating Phase = "evaluating" // waiting on the scorer
	PhaseCompleted  Phase = "completed"
)

// Timed reports whether the phase runs a countdown
func (p Phase) Timed() bool {
	return p == PhaseViewing || p == PhaseResponding
}

// Timing holds the countdown windows in seconds
type Timing struct {
	ViewSeconds    int `json:"viewSeconds"`    // TAT picture display
	RespondSeconds int `json:"respondSeconds"` // TAT story writing
	WordSeconds    int `json:"wordSeconds"`    // WAT sentence per word
}

// DefaultTiming returns the standard 5s/60s TAT and 15s WAT windows
func DefaultTiming() Timing {
	return Timing{ViewSeconds: 5, RespondSeconds: 60, WordSeconds: 15}
}

// State is a snapshot of one attempt
type State struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId,omitempty"`
	ExamName  string             `json:"examName,omitempty"`
	TestType  model.TestType     `json:"testType"`
	Timing    Timing             `json:"timing"`
	Phase     Phase              `json:"phase"`
	Items     []model.Item       `json:"items"`
	Index     int                `json:"currentIndex"`
	Remaining int                `json:"remaining"`
	Draft     string             `json:"draft"`
	Responses []model.Response   `json:"responses"`
	Report    *model.ScoreReport `json:"report,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// New returns a session in Setup
func New(id string, t model.TestType, timing Timing) State {
	return State{ID: id, TestType: t, Timing: timing, Phase: PhaseSetup}
}

// Done reports whether the session reached its terminal state
func (s State) Done() bool {
	return s.Phase == PhaseCompleted
}

// Current returns the item being answered and whether it is usable
func (s State) Current() (model.Item, bool) {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return model.Item{}, false
	}
	item := s.Items[s.Index]
	return item, item.Valid()
}

// window is the length of the countdown that elapsed time is measured against
func (s State) window() int {
	if s.TestType == model.TestTypeTAT {
		return s.Timing.RespondSeconds
	}
	return s.Timing.WordSeconds
}
