package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ssbprep/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock hands out tickers that share one channel the test fires by hand
type manualClock struct {
	c       chan time.Time
	created atomic.Int32
	stopped atomic.Int32
}

func newManualClock() *manualClock {
	return &manualClock{c: make(chan time.Time)}
}

func (m *manualClock) New(time.Duration) Ticker {
	m.created.Add(1)
	return manualTicker{m}
}

func (m *manualClock) Tick() { m.c <- time.Now() }

type manualTicker struct{ m *manualClock }

func (t manualTicker) Chan() <-chan time.Time { return t.m.c }
func (t manualTicker) Stop()                  { t.m.stopped.Add(1) }

type scorerFunc func(ctx context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error)

func (f scorerFunc) Evaluate(ctx context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error) {
	return f(ctx, t, responses)
}

func allThrees(_ context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error) {
	items := make([]model.WATItemScore, 0, len(responses))
	for _, r := range responses {
		items = append(items, model.WATItemScore{Word: r.Item.Word.Word, Response: r.Text, Scores: model.NeutralScores()})
	}
	return &model.ScoreReport{TestType: t, WAT: model.AggregateWAT(items)}, nil
}

// observed collects every state the controller publishes
type observed chan State

func (o observed) observe(s State) { o <- s }

func (o observed) waitFor(t *testing.T, match func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-o:
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for session state")
		}
	}
}

func startController(t *testing.T, testType model.TestType, items []model.Item, scorer Scorer) (*Controller, *manualClock, observed) {
	t.Helper()
	clock := newManualClock()
	obs := make(observed, 256)
	c := NewController(New("s1", testType, DefaultTiming()), scorer, zap.NewNop(),
		WithTicker(clock.New),
		WithObserver(obs.observe),
	)
	require.NoError(t, c.Start(context.Background(), items))
	return c, clock, obs
}

func TestControllerWATHappyPath(t *testing.T) {
	c, _, obs := startController(t, model.TestTypeWAT, wordItems("DUTY", "COURAGE"), scorerFunc(allThrees))

	require.NoError(t, c.Send(Input{Text: "Duty comes first"}))
	require.NoError(t, c.Send(Submit{}))
	require.NoError(t, c.Send(Input{Text: "Courage under fire"}))
	require.NoError(t, c.Send(Submit{}))

	final := obs.waitFor(t, State.Done)
	<-c.Done()

	require.NotNil(t, final.Report)
	require.NotNil(t, final.Report.WAT)
	assert.Len(t, final.Report.WAT.FinalScorecard, 16)
	for trait, mean := range final.Report.WAT.FinalScorecard {
		assert.Equal(t, "3.0", mean.String(), trait)
	}
	assert.Empty(t, final.Error)
}

func TestControllerScorerFailureStillCompletes(t *testing.T) {
	failing := scorerFunc(func(context.Context, model.TestType, []model.Response) (*model.ScoreReport, error) {
		return nil, errors.New("upstream down")
	})
	c, _, obs := startController(t, model.TestTypeWAT, wordItems("DUTY", "COURAGE"), failing)

	require.NoError(t, c.Send(Skip{}))
	require.NoError(t, c.Send(Skip{}))

	final := obs.waitFor(t, State.Done)
	<-c.Done()

	assert.Equal(t, "evaluation failed", final.Error)
	require.NotNil(t, final.Report.WAT)
	for _, mean := range final.Report.WAT.FinalScorecard {
		assert.Equal(t, "3.0", mean.String())
	}
}

func TestControllerTicksDriveTimeout(t *testing.T) {
	c, clock, obs := startController(t, model.TestTypeWAT, wordItems("DUTY"), scorerFunc(allThrees))

	require.NoError(t, c.Send(Input{Text: "Duty comes first"}))
	for i := 0; i < 15; i++ {
		clock.Tick()
	}

	final := obs.waitFor(t, State.Done)
	<-c.Done()

	require.Len(t, final.Responses, 1)
	assert.Equal(t, "Duty comes first", final.Responses[0].Text)
	assert.Equal(t, int32(1), clock.created.Load())
	assert.Equal(t, clock.created.Load(), clock.stopped.Load(), "every ticker is stopped")
}

func TestControllerTATEarlySubmitRearmsTicker(t *testing.T) {
	c, clock, obs := startController(t, model.TestTypeTAT, imageItems(2), scorerFunc(allThreesTAT))

	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	obs.waitFor(t, func(s State) bool { return s.Phase == PhaseResponding })
	for i := 0; i < 15; i++ {
		clock.Tick()
	}
	require.NoError(t, c.Send(Submit{}))

	s := obs.waitFor(t, func(s State) bool { return s.Index == 1 })
	assert.Equal(t, PhaseViewing, s.Phase)
	assert.Equal(t, 5, s.Remaining)
	assert.Equal(t, int32(3), clock.created.Load(), "viewing, responding, next viewing")

	c.Abandon()
}

func allThreesTAT(_ context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error) {
	return model.NeutralReport(t, responses), nil
}

func TestControllerAbandonStopsEverything(t *testing.T) {
	scoring := make(chan struct{})
	blocking := scorerFunc(func(ctx context.Context, t model.TestType, r []model.Response) (*model.ScoreReport, error) {
		close(scoring)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c, clock, _ := startController(t, model.TestTypeWAT, wordItems("DUTY"), blocking)

	require.NoError(t, c.Send(Submit{}))
	<-scoring
	c.Abandon()

	assert.Equal(t, PhaseEvaluating, c.Snapshot().Phase)
	assert.ErrorIs(t, c.Send(Submit{}), ErrClosed)
	assert.Equal(t, clock.created.Load(), clock.stopped.Load())
}

func TestControllerAbandonMidResponding(t *testing.T) {
	var calls atomic.Int32
	counting := scorerFunc(func(ctx context.Context, t model.TestType, r []model.Response) (*model.ScoreReport, error) {
		calls.Add(1)
		return allThrees(ctx, t, r)
	})
	c, _, _ := startController(t, model.TestTypeWAT, wordItems("DUTY", "COURAGE"), counting)

	require.NoError(t, c.Send(Input{Text: "half"}))
	c.Abandon()

	assert.Equal(t, PhaseResponding, c.Snapshot().Phase)
	assert.Zero(t, calls.Load(), "abandoned sessions are never scored")
}

func TestControllerLifecycleErrors(t *testing.T) {
	c := NewController(New("s1", model.TestTypeWAT, DefaultTiming()), scorerFunc(allThrees), zap.NewNop())
	assert.ErrorIs(t, c.Send(Submit{}), ErrNotStarted)
	c.Abandon()

	require.NoError(t, c.Start(context.Background(), wordItems("A")))
	assert.ErrorIs(t, c.Start(context.Background(), wordItems("A")), ErrAlreadyStarted)
	c.Abandon()
}

func TestControllerEmptySelectionScoresImmediately(t *testing.T) {
	c, _, obs := startController(t, model.TestTypeWAT, nil, scorerFunc(allThrees))
	final := obs.waitFor(t, State.Done)
	<-c.Done()
	assert.Empty(t, final.Responses)
}

func TestControllerPartialReportReachesEveryObserver(t *testing.T) {
	partial := scorerFunc(func(ctx context.Context, tt model.TestType, r []model.Response) (*model.ScoreReport, error) {
		report, _ := allThrees(ctx, tt, r)
		report.WAT.SentenceWise[0].Response = "scored"
		return report, ErrEvaluationFailed
	})
	c, _, obs := startController(t, model.TestTypeWAT, wordItems("DUTY"), partial)
	late := make(observed, 256)
	c.Subscribe(late.observe)

	require.NoError(t, c.Send(Submit{}))

	for _, o := range []observed{obs, late} {
		final := o.waitFor(t, State.Done)
		assert.Equal(t, "evaluation failed", final.Error)
		require.NotNil(t, final.Report)
		assert.True(t, final.Report.Degraded)
		assert.Equal(t, "scored", final.Report.WAT.SentenceWise[0].Response)
	}
	<-c.Done()
}
