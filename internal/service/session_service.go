package service

import (
	"context"
	"errors"
	"ssbprep/internal/cache"
	"ssbprep/internal/model"
	"ssbprep/internal/session"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidTestType = errors.New("testType must be TAT or WAT")
)

// SessionService hosts timed sessions: it owns one controller per session,
// mirrors every state change to the snapshot cache and WebSocket clients,
// and records history when a session completes
type SessionService struct {
	baseCtx     context.Context
	stimuli     *StimulusService
	scorer      session.Scorer
	history     *HistoryService
	cache       cache.SessionCache
	broadcaster Broadcaster
	timing      session.Timing
	opts        []session.Option
	retain      time.Duration
	log         *zap.Logger

	mu        sync.RWMutex
	sessions  map[string]*session.Controller
	completed map[string]time.Time
}

// NewSessionService creates a new session service. Sessions live until
// baseCtx is cancelled or they are abandoned. snapshots may be nil.
func NewSessionService(
	baseCtx context.Context,
	stimuli *StimulusService,
	scorer session.Scorer,
	history *HistoryService,
	snapshots cache.SessionCache,
	timing session.Timing,
	log *zap.Logger,
	opts ...session.Option,
) *SessionService {
	return &SessionService{
		baseCtx:   baseCtx,
		stimuli:   stimuli,
		scorer:    scorer,
		history:   history,
		cache:     snapshots,
		timing:    timing,
		opts:      opts,
		retain:    10 * time.Minute,
		log:       log,
		sessions:  make(map[string]*session.Controller),
		completed: make(map[string]time.Time),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start selects items and begins a new session for userID (empty for anonymous)
func (s *SessionService) Start(ctx context.Context, userID string, req model.StartSessionRequest) (session.State, error) {
	if !req.TestType.Valid() {
		return session.State{}, ErrInvalidTestType
	}
	s.sweep()

	items, err := session.Select(s.stimuli.Pool(ctx, req.TestType), req.Count, nil)
	if err != nil {
		return session.State{}, err
	}

	initial := session.New(uuid.New().String(), req.TestType, s.timing)
	initial.UserID = userID
	initial.ExamName = req.ExamName

	opts := append([]session.Option{session.WithObserver(s.onChange)}, s.opts...)
	ctrl := session.NewController(initial, s.scorer, s.log, opts...)

	s.mu.Lock()
	s.sessions[initial.ID] = ctrl
	s.mu.Unlock()

	if err := ctrl.Start(s.baseCtx, items); err != nil {
		s.remove(initial.ID)
		return session.State{}, err
	}

	s.log.Info("session started",
		zap.String("session", initial.ID),
		zap.String("testType", string(req.TestType)),
		zap.Int("items", len(items)),
		zap.Bool("identified", userID != ""),
	)
	return ctrl.Snapshot(), nil
}

// Get returns the latest snapshot of a session
func (s *SessionService) Get(ctx context.Context, userID, id string) (session.State, error) {
	if ctrl, ok := s.controller(id); ok {
		st := ctrl.Snapshot()
		if !owns(st, userID) {
			return session.State{}, ErrSessionNotFound
		}
		return st, nil
	}

	if s.cache == nil {
		return session.State{}, ErrSessionNotFound
	}
	st, err := s.cache.Get(ctx, id)
	if err != nil {
		return session.State{}, err
	}
	// no controller will ever advance a cached in-flight snapshot
	if st == nil || !st.Done() || !owns(*st, userID) {
		return session.State{}, ErrSessionNotFound
	}
	return *st, nil
}

// SaveDraft replaces the text typed for the current item
func (s *SessionService) SaveDraft(userID, id, text string) error {
	return s.send(userID, id, session.Input{Text: text})
}

// Submit records the current text and advances
func (s *SessionService) Submit(userID, id string) error {
	return s.send(userID, id, session.Submit{})
}

// Skip records the current text and advances (WAT)
func (s *SessionService) Skip(userID, id string) error {
	return s.send(userID, id, session.Skip{})
}

// Abandon stops a session without scoring it
func (s *SessionService) Abandon(ctx context.Context, userID, id string) error {
	ctrl, ok := s.controller(id)
	if !ok || !owns(ctrl.Snapshot(), userID) {
		return ErrSessionNotFound
	}
	ctrl.Abandon()
	s.remove(id)

	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn("failed to drop session snapshot", zap.String("session", id), zap.Error(err))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.CloseSession(id)
	}
	s.log.Info("session abandoned", zap.String("session", id))
	return nil
}

// Shutdown abandons every running session
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	ctrls := make([]*session.Controller, 0, len(s.sessions))
	for _, c := range s.sessions {
		ctrls = append(ctrls, c)
	}
	s.sessions = make(map[string]*session.Controller)
	s.completed = make(map[string]time.Time)
	s.mu.Unlock()

	for _, c := range ctrls {
		c.Abandon()
	}
}

func (s *SessionService) send(userID, id string, ev session.Event) error {
	ctrl, ok := s.controller(id)
	if !ok || !owns(ctrl.Snapshot(), userID) {
		return ErrSessionNotFound
	}
	return ctrl.Send(ev)
}

func (s *SessionService) controller(id string) (*session.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	return c, ok
}

func (s *SessionService) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.completed, id)
	s.mu.Unlock()
}

// sweep drops completed sessions kept around for reads
func (s *SessionService) sweep() {
	cutoff := time.Now().Add(-s.retain)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.completed {
		if at.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.completed, id)
		}
	}
}

// onChange runs on the session's own goroutine for every transition
func (s *SessionService) onChange(st session.State) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(s.baseCtx, 2*time.Second)
		if err := s.cache.Set(ctx, st); err != nil {
			s.log.Debug("session snapshot not cached", zap.String("session", st.ID), zap.Error(err))
		}
		cancel()
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(st.ID, "session_state", st)
	}
	if !st.Done() {
		return
	}

	s.mu.Lock()
	s.completed[st.ID] = time.Now()
	s.mu.Unlock()

	s.log.Info("session completed",
		zap.String("session", st.ID),
		zap.Int("responses", len(st.Responses)),
		zap.String("error", st.Error),
	)
	if s.history != nil {
		s.history.Record(st.UserID, st.ExamName, st.Report)
	}
}

// owns reports whether userID may access st. Anonymous sessions are reachable by id alone.
func owns(st session.State, userID string) bool {
	return st.UserID == "" || st.UserID == userID
}
