package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"form-analyzer/pkg/config"
	"form-analyzer/pkg/models"
	"form-analyzer/pkg/profiles"
	"form-analyzer/pkg/storage"

	"go.uber.org/zap"
)

var ErrManagerStopped = errors.New("pipeline is shutting down")

// Session couples an engine with its feedback dispatcher and the listeners
// attached to it.
type Session struct {
	Info       *models.SessionInfo
	Engine     *Engine
	Dispatcher *Dispatcher

	listeners *broadcastSink
}

// Attach registers ch as a feedback listener under name. Events are try-sent;
// a full channel drops the event for that listener only.
func (s *Session) Attach(name string, ch chan<- models.FeedbackEvent) {
	s.listeners.add(name, ch)
}

func (s *Session) Detach(name string) {
	s.listeners.remove(name)
}

type broadcastSink struct {
	mu   sync.RWMutex
	subs map[string]ChanSink
}

func (b *broadcastSink) add(name string, ch chan<- models.FeedbackEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = ChanSink(ch)
}

func (b *broadcastSink) remove(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, name)
}

// Deliver reports true if at least one listener accepted ev.
func (b *broadcastSink) Deliver(ev models.FeedbackEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ok := false
	for _, s := range b.subs {
		if s.Deliver(ev) {
			ok = true
		}
	}
	return ok
}

// Manager owns the running sessions.
type Manager struct {
	engineCfg   config.EngineConfig
	feedbackCfg config.FeedbackConfig
	store       storage.MemoryStore
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(cfg *config.Config, store storage.MemoryStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		engineCfg:   cfg.Engine,
		feedbackCfg: cfg.Feedback,
		store:       store,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.logger.Info("Pipeline manager started")
	return nil
}

// Stop ends every session and waits for their dispatchers to drain.
func (m *Manager) Stop() {
	m.logger.Info("Pipeline manager stopping")

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.stopSession(s)
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info("Pipeline manager stopped")
}

// CreateSession starts a new engine for the given user and exercise.
func (m *Manager) CreateSession(userID, exerciseID string) (*Session, error) {
	if m.ctx == nil || m.ctx.Err() != nil {
		return nil, ErrManagerStopped
	}

	profile, err := profiles.Get(exerciseID)
	if err != nil {
		return nil, err
	}

	info := models.NewSessionInfo(userID, exerciseID)
	logger := m.logger.With(zap.String("user_id", userID))

	listeners := &broadcastSink{subs: make(map[string]ChanSink)}
	dispatcher := NewDispatcher(m.feedbackCfg.QueueSize, listeners, logger)

	opts := []Option{WithLogger(logger), WithSessionID(info.ID)}
	if m.engineCfg.PhraseSeed != 0 {
		opts = append(opts, WithSelector(NewSeededSelector(m.engineCfg.PhraseSeed)))
	}
	engine := NewEngine(m.engineCfg, dispatcher, opts...)

	if err := m.store.StoreSession(info); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s := &Session{Info: info, Engine: engine, Dispatcher: dispatcher, listeners: listeners}
	dispatcher.Start(m.ctx)
	engine.StartExercise(profile)

	m.mu.Lock()
	m.sessions[info.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session created",
		zap.String("session_id", info.ID), zap.String("exercise", exerciseID))
	return s, nil
}

func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return s, nil
}

// StopSession stops the engine and releases the session. Stopping an unknown
// or already stopped session returns ErrSessionNotFound.
func (m *Manager) StopSession(id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return storage.ErrSessionNotFound
	}
	m.stopSession(s)
	return nil
}

func (m *Manager) stopSession(s *Session) {
	s.Engine.StopExercise()
	s.Dispatcher.Stop()

	if err := m.store.UpdateSessionStatus(s.Info.ID, models.SessionStopped); err != nil {
		m.logger.Warn("Failed to update session status", zap.String("session_id", s.Info.ID), zap.Error(err))
	}

	m.mu.Lock()
	delete(m.sessions, s.Info.ID)
	m.mu.Unlock()

	m.logger.Info("Session stopped", zap.String("session_id", s.Info.ID))
}
