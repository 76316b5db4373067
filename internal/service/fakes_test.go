package service

import (
	"context"
	"errors"
	"slices"
	"ssbprep/internal/model"
	"ssbprep/internal/session"
	"sync"
)

var errStoreDown = errors.New("connection refused")

type fakeStimulusRepo struct {
	images []model.ImageStimulus
	words  []model.WordStimulus
	err    error
	reads  int
}

func (r *fakeStimulusRepo) ListImages(context.Context) ([]model.ImageStimulus, error) {
	r.reads++
	return r.images, r.err
}

func (r *fakeStimulusRepo) GetImage(_ context.Context, id string) (*model.ImageStimulus, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, img := range r.images {
		if img.ID == id {
			found := img
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeStimulusRepo) ListWords(context.Context) ([]model.WordStimulus, error) {
	r.reads++
	return r.words, r.err
}

func (r *fakeStimulusRepo) UpsertImages(_ context.Context, images []model.ImageStimulus) (int, error) {
	added := 0
	for _, img := range images {
		if !slices.ContainsFunc(r.images, func(have model.ImageStimulus) bool { return have.ImageURL == img.ImageURL }) {
			r.images = append(r.images, img)
			added++
		}
	}
	return added, nil
}

func (r *fakeStimulusRepo) UpsertWords(_ context.Context, words []model.WordStimulus) (int, error) {
	added := 0
	for _, w := range words {
		if !slices.ContainsFunc(r.words, func(have model.WordStimulus) bool { return have.Word == w.Word }) {
			r.words = append(r.words, w)
			added++
		}
	}
	return added, nil
}

type fakePoolCache struct {
	images []model.ImageStimulus
	words  []model.WordStimulus
}

func (c *fakePoolCache) SetImages(_ context.Context, images []model.ImageStimulus) error {
	c.images = images
	return nil
}

func (c *fakePoolCache) GetImages(context.Context) ([]model.ImageStimulus, error) {
	return c.images, nil
}

func (c *fakePoolCache) SetWords(_ context.Context, words []model.WordStimulus) error {
	c.words = words
	return nil
}

func (c *fakePoolCache) GetWords(context.Context) ([]model.WordStimulus, error) {
	return c.words, nil
}

func (c *fakePoolCache) Invalidate(context.Context) error {
	c.images, c.words = nil, nil
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []model.HistoryRecord
	err     error
}

func (r *fakeHistoryRepo) Create(_ context.Context, rec *model.HistoryRecord) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeHistoryRepo) ListByUser(_ context.Context, userID string, _ int64) ([]model.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.HistoryRecord{}
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) saved() []model.HistoryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.HistoryRecord(nil), r.records...)
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[model.TestType]map[string]float64
}

func (l *fakeLeaderboard) Record(_ context.Context, t model.TestType, userID string, pct float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scores == nil {
		l.scores = map[model.TestType]map[string]float64{}
	}
	if l.scores[t] == nil {
		l.scores[t] = map[string]float64{}
	}
	if pct > l.scores[t][userID] {
		l.scores[t][userID] = pct
	}
	return nil
}

func (l *fakeLeaderboard) GetTop(_ context.Context, t model.TestType, _ int) ([]model.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []model.LeaderboardEntry{}
	for user, pct := range l.scores[t] {
		out = append(out, model.LeaderboardEntry{UserID: user, Percentage: pct, Rank: len(out) + 1})
	}
	return out, nil
}

func (l *fakeLeaderboard) GetRank(_ context.Context, t model.TestType, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pct, ok := l.scores[t][userID]
	if !ok {
		return -1, nil
	}
	rank := int64(1)
	for _, other := range l.scores[t] {
		if other > pct {
			rank++
		}
	}
	return rank, nil
}

type recordedBroadcast struct {
	sessionID string
	msgType   string
	payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	sent   []recordedBroadcast
	closed []string
}

func (b *fakeBroadcaster) BroadcastToSession(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, recordedBroadcast{sessionID, msgType, payload})
}

func (b *fakeBroadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, sessionID)
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

type fakeSessionCache struct {
	mu     sync.Mutex
	states map[string]session.State
}

func (c *fakeSessionCache) Set(_ context.Context, st session.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states == nil {
		c.states = map[string]session.State{}
	}
	c.states[st.ID] = st
	return nil
}

func (c *fakeSessionCache) Get(_ context.Context, id string) (*session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (c *fakeSessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, id)
	return nil
}
