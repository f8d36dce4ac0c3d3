package pipeline

import (
	"math"
	"time"

	"form-analyzer/pkg/models"

	"go.uber.org/zap"
)

// ClassifySeverity maps an angle deviation onto a severity band. It reports
// false when the deviation is within tolerance.
func ClassifySeverity(deviation, tolerance float64) (models.Severity, bool) {
	switch {
	case deviation <= tolerance:
		return "", false
	case deviation <= 1.5*tolerance:
		return models.SeverityMinor, true
	case deviation <= 2.5*tolerance:
		return models.SeverityMajor, true
	default:
		return models.SeverityCritical, true
	}
}

// formEvaluator compares joint angles against profile targets and emits at
// most one correction per cooldown window.
type formEvaluator struct {
	minConfidence float64
	minVisibility float64
	cooldown      time.Duration
	selector      PhraseSelector
	logger        *zap.Logger

	lastCorrection time.Time
	hasLast        bool
	history        *Ring[models.Correction]
}

func newFormEvaluator(minConfidence, minVisibility float64, cooldown time.Duration, historySize int, selector PhraseSelector, logger *zap.Logger) *formEvaluator {
	return &formEvaluator{
		minConfidence: minConfidence,
		minVisibility: minVisibility,
		cooldown:      cooldown,
		selector:      selector,
		logger:        logger,
		history:       NewRing[models.Correction](historySize),
	}
}

func (f *formEvaluator) reset() {
	f.hasLast = false
	f.lastCorrection = time.Time{}
	f.history.Reset()
}

// evaluate returns the correction to emit for this frame, if any.
func (f *formEvaluator) evaluate(profile *models.ExerciseProfile, frame models.Frame, now time.Time) (models.Correction, bool) {
	if frame.Confidence < f.minConfidence {
		f.logger.Debug("Skipping form evaluation, low confidence", zap.Float64("confidence", frame.Confidence))
		return models.Correction{}, false
	}
	if f.hasLast && now.Sub(f.lastCorrection) < f.cooldown {
		return models.Correction{}, false
	}

	var (
		best  models.Correction
		found bool
	)
	for _, group := range profile.TargetMuscleGroups {
		target, ok := profile.TargetAngleDeg[group]
		if !ok {
			continue
		}
		angle, ok := groupAngle(frame, profile.KeyLandmarkIndices[group], f.minVisibility)
		if !ok {
			f.logger.Debug("Skipping muscle group, landmarks not visible", zap.String("group", group))
			continue
		}
		severity, ok := ClassifySeverity(math.Abs(angle-target), profile.ToleranceDeg)
		if !ok {
			continue
		}
		if found && severity.Rank() <= best.Severity.Rank() {
			continue
		}
		best = models.Correction{
			BodyPart:        group,
			CurrentAngleDeg: angle,
			TargetAngleDeg:  target,
			Severity:        severity,
			Confidence:      frame.Confidence,
			Timestamp:       now,
		}
		found = true
	}
	if !found {
		return models.Correction{}, false
	}

	best.Message = f.selector.Select(best.BodyPart, phrasesFor(best.BodyPart))
	f.lastCorrection = now
	f.hasLast = true
	f.history.Push(best)
	return best, true
}

// recent returns up to n most recent corrections, oldest first.
func (f *formEvaluator) recent(n int) []models.Correction { return f.history.Last(n) }

func correctionPriority(s models.Severity) models.Priority {
	if s == models.SeverityMinor {
		return models.PriorityMedium
	}
	return models.PriorityHigh
}
