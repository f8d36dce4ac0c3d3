package pipeline

import (
	"strconv"
	"sync"
	"sync/atomic"

	"form-analyzer/pkg/config"
	"form-analyzer/pkg/models"

	"go.uber.org/zap"
)

// FeedbackQueue accepts feedback events without blocking.
type FeedbackQueue interface {
	Push(ev models.FeedbackEvent) error
}

type Option func(*Engine)

func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

func WithSelector(s PhraseSelector) Option { return func(e *Engine) { e.selector = s } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithSessionID(id string) Option { return func(e *Engine) { e.sessionID = id } }

// Engine analyzes one exercise session frame by frame. ProcessFrame must be
// called from a single producer; CurrentData may be called from anywhere.
type Engine struct {
	cfg       config.EngineConfig
	feedback  FeedbackQueue
	clock     Clock
	selector  PhraseSelector
	logger    *zap.Logger
	sessionID string

	mu      sync.Mutex
	profile *models.ExerciseProfile
	history *frameHistory
	form    *formEvaluator
	reps    *repCounter

	snapshot atomic.Pointer[models.Snapshot]
}

func NewEngine(cfg config.EngineConfig, feedback FeedbackQueue, opts ...Option) *Engine {
	e := &Engine{
		cfg:      withDefaults(cfg),
		feedback: feedback,
		clock:    systemClock{},
		selector: NewRotatingSelector(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("session_id", e.sessionID))

	e.history = newFrameHistory(e.cfg.LandmarkCount, e.cfg.MaxHistory)
	e.form = newFormEvaluator(e.cfg.ConfidenceThreshold, e.cfg.VisibilityThreshold,
		e.cfg.CorrectionCooldown, e.cfg.CorrectionHistory, e.selector, e.logger)
	e.reps = newRepCounter()
	e.publishLocked()
	return e
}

func withDefaults(cfg config.EngineConfig) config.EngineConfig {
	def := config.DefaultEngine()
	if cfg.LandmarkCount <= 0 {
		cfg.LandmarkCount = def.LandmarkCount
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.MotionWindow < 2 {
		cfg.MotionWindow = def.MotionWindow
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.VisibilityThreshold <= 0 {
		cfg.VisibilityThreshold = def.VisibilityThreshold
	}
	if cfg.CorrectionCooldown <= 0 {
		cfg.CorrectionCooldown = def.CorrectionCooldown
	}
	if cfg.CorrectionHistory <= 0 {
		cfg.CorrectionHistory = def.CorrectionHistory
	}
	if cfg.ExposedCorrections <= 0 {
		cfg.ExposedCorrections = def.ExposedCorrections
	}
	return cfg
}

// StartExercise binds a copy of profile and resets rep state, correction
// history and the frame history.
func (e *Engine) StartExercise(profile models.ExerciseProfile) {
	p := profile.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.profile = &p
	e.history = newFrameHistory(e.cfg.LandmarkCount, e.cfg.MaxHistory)
	e.form.reset()
	e.reps = newRepCounter()
	e.reps.state.LastTransition = e.clock.Now()

	e.logger.Info("Exercise started", zap.String("exercise", p.ID))
	e.emit(models.FeedbackEvent{
		Kind:     models.FeedbackInstruction,
		Text:     "Starting " + p.Name,
		Priority: models.PriorityMedium,
	})
	e.publishLocked()
}

// StopExercise ends the session. Calling it again is a no-op.
func (e *Engine) StopExercise() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		return
	}
	e.logger.Info("Exercise stopped",
		zap.String("exercise", e.profile.ID), zap.Int("count", e.reps.state.Count))
	e.profile = nil
	e.publishLocked()
}

// ResetRepCount zeroes the count and leaves everything else alone.
func (e *Engine) ResetRepCount() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reps.resetCount()
	e.publishLocked()
}

// ProcessFrame runs one frame through the pipeline. Only malformed frames
// return an error; every other degraded condition is skipped.
func (e *Engine) ProcessFrame(frame models.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(frame.Landmarks) != e.cfg.LandmarkCount {
		err := invalidFrame(len(frame.Landmarks), e.cfg.LandmarkCount)
		e.logger.Warn("Rejected frame", zap.Error(err))
		return err
	}
	if e.profile == nil {
		return nil
	}

	stored, err := e.history.ingest(frame)
	if err != nil {
		return err
	}
	now := e.clock.Now()

	if c, ok := e.form.evaluate(e.profile, stored, now); ok {
		e.logger.Debug("Form correction",
			zap.String("body_part", c.BodyPart),
			zap.String("severity", string(c.Severity)),
			zap.Float64("angle", c.CurrentAngleDeg),
			zap.Float64("target", c.TargetAngleDeg))
		e.emit(models.FeedbackEvent{
			Kind:     models.FeedbackCorrection,
			Text:     c.Message,
			Priority: correctionPriority(c.Severity),
		})
	}

	motion := MotionMagnitude(e.history.recent(e.cfg.MotionWindow))
	switch e.reps.observe(PhaseForMotion(motion), now) {
	case transitionRep:
		e.logger.Debug("Repetition counted", zap.Int("count", e.reps.state.Count))
		e.emit(models.FeedbackEvent{
			Kind:     models.FeedbackCount,
			Text:     strconv.Itoa(e.reps.state.Count),
			Priority: models.PriorityMedium,
		})
	case transitionRest:
		e.emit(models.FeedbackEvent{
			Kind:     models.FeedbackMotivation,
			Text:     e.selector.Select(motivationKey, motivationPhrases),
			Priority: models.PriorityLow,
		})
	}

	e.publishLocked()
	return nil
}

// CurrentData returns the latest published snapshot without waiting on the
// producer.
func (e *Engine) CurrentData() models.Snapshot {
	s := *e.snapshot.Load()
	s.Corrections = append([]models.Correction(nil), s.Corrections...)
	return s
}

// HistoryLen reports how many frames are currently held.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.len()
}

func (e *Engine) emit(ev models.FeedbackEvent) {
	if e.feedback == nil {
		return
	}
	if err := e.feedback.Push(ev); err != nil {
		e.logger.Warn("Feedback event not queued", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func (e *Engine) publishLocked() {
	quality := FormQuality(e.form.recent(e.cfg.CorrectionHistory))
	e.reps.state.FormQuality = quality

	s := &models.Snapshot{
		SessionID:   e.sessionID,
		Active:      e.profile != nil,
		Corrections: e.form.recent(e.cfg.ExposedCorrections),
		RepState:    e.reps.state,
		FormQuality: quality,
	}
	if e.profile != nil {
		s.ExerciseID = e.profile.ID
	}
	e.snapshot.Store(s)
}
