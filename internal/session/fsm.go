package session

import (
	"ssbprep/internal/model"
)

// Event drives a state transition
type Event interface {
	event()
}

// Start fixes the selected items and enters the first item
type Start struct{ Items []model.Item }

// Tick is one second elapsing on the active countdown
type Tick struct{}

// Input replaces the text typed for the current item
type Input struct{ Text string }

// Submit records the current text early
type Submit struct{}

// Skip records the current text and moves on (WAT)
type Skip struct{}

// Scored delivers the scorer's report
type Scored struct{ Report *model.ScoreReport }

// ScoreFailed reports that the scorer could not produce a full report.
// Partial, when set, keeps whatever items were scored.
type ScoreFailed struct {
	Err     error
	Partial *model.ScoreReport
}

func (Start) event()       {}
func (Tick) event()        {}
func (Input) event()       {}
func (Submit) event()      {}
func (Skip) event()        {}
func (Scored) event()      {}
func (ScoreFailed) event() {}

// Next returns the state that follows s after e. It never panics and never
// mutates s; events that do not apply to the current phase are ignored.
func Next(s State, e Event) State {
	switch ev := e.(type) {
	case Start:
		if s.Phase != PhaseSetup {
			return s
		}
		s.Items = append([]model.Item(nil), ev.Items...)
		s.Responses = nil
		return enter(s, 0)

	case Tick:
		if !s.Phase.Timed() {
			return s
		}
		if _, ok := s.Current(); !ok {
			return evaluate(s)
		}
		s.Remaining--
		if s.Remaining > 0 {
			return s
		}
		if s.Phase == PhaseViewing {
			s.Phase = PhaseResponding
			s.Remaining = s.Timing.RespondSeconds
			return s
		}
		return record(s)

	case Input:
		if s.Phase != PhaseResponding {
			return s
		}
		if _, ok := s.Current(); !ok {
			return evaluate(s)
		}
		s.Draft = ev.Text
		return s

	case Submit:
		if s.Phase != PhaseResponding {
			return s
		}
		return record(s)

	case Skip:
		if s.Phase != PhaseResponding || s.TestType != model.TestTypeWAT {
			return s
		}
		return record(s)

	case Scored:
		if s.Phase != PhaseEvaluating {
			return s
		}
		if ev.Report == nil {
			return degrade(s)
		}
		s.Phase = PhaseCompleted
		s.Report = ev.Report
		return s

	case ScoreFailed:
		if s.Phase != PhaseEvaluating {
			return s
		}
		if ev.Partial != nil {
			s.Phase = PhaseCompleted
			partial := *ev.Partial
			partial.Degraded = true
			s.Report = &partial
			s.Error = ErrEvaluationFailed.Error()
			return s
		}
		return degrade(s)
	}
	return s
}

// enter starts item idx, or evaluation when there is no usable item there
func enter(s State, idx int) State {
	s.Index = idx
	s.Draft = ""
	if _, ok := s.Current(); !ok {
		return evaluate(s)
	}
	if s.TestType == model.TestTypeTAT {
		s.Phase = PhaseViewing
		s.Remaining = s.Timing.ViewSeconds
	} else {
		s.Phase = PhaseResponding
		s.Remaining = s.Timing.WordSeconds
	}
	return s
}

// record stores the draft as the current item's response and advances
func record(s State) State {
	item, ok := s.Current()
	if !ok {
		return evaluate(s)
	}
	remaining := s.Remaining
	if remaining < 0 {
		remaining = 0
	}
	elapsed := s.window() - remaining
	if elapsed < 0 {
		elapsed = 0
	}

	responses := make([]model.Response, len(s.Responses), len(s.Responses)+1)
	copy(responses, s.Responses)
	s.Responses = append(responses, model.Response{
		Item:           item,
		Text:           s.Draft,
		ElapsedSeconds: elapsed,
	})
	return enter(s, s.Index+1)
}

func evaluate(s State) State {
	s.Phase = PhaseEvaluating
	s.Remaining = 0
	s.Draft = ""
	return s
}

func degrade(s State) State {
	s.Phase = PhaseCompleted
	s.Report = model.NeutralReport(s.TestType, s.Responses)
	s.Error = ErrEvaluationFailed.Error()
	return s
}
