package pipeline

import (
	"math"
	"sync"
	"time"

	"form-analyzer/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder is a FeedbackQueue that keeps every pushed event.
type recorder struct {
	mu     sync.Mutex
	events []models.FeedbackEvent
}

func (r *recorder) Push(ev models.FeedbackEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kind(k models.FeedbackKind) []models.FeedbackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FeedbackEvent
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func lm(x, y, vis float64) models.Landmark {
	return models.Landmark{X: x, Y: y, Visibility: ptr(vis)}
}

// uniformFrame places every landmark at (x, 0.5) with the given visibility.
func uniformFrame(x, vis float64) models.Frame {
	landmarks := make([]models.Landmark, models.LandmarkCount)
	for i := range landmarks {
		landmarks[i] = lm(x, 0.5, vis)
	}
	return models.Frame{Landmarks: landmarks}
}

// armFrame builds a pose whose left shoulder angle (elbow-shoulder-hip) and
// left arm angle (shoulder-elbow-wrist) equal the given degrees.
func armFrame(shoulderDeg, armDeg, vis float64) models.Frame {
	f := uniformFrame(0.5, vis)
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	shoulder := lm(0.5, 0.5, vis)
	elbow := lm(0.7, 0.5, vis)
	hip := lm(0.5+0.3*math.Cos(rad(shoulderDeg)), 0.5+0.3*math.Sin(rad(shoulderDeg)), vis)
	phi := rad(180 - armDeg)
	wrist := lm(0.7+0.2*math.Cos(phi), 0.5+0.2*math.Sin(phi), vis)

	f.Landmarks[models.LeftShoulder] = shoulder
	f.Landmarks[models.LeftElbow] = elbow
	f.Landmarks[models.LeftHip] = hip
	f.Landmarks[models.LeftWrist] = wrist
	return f
}

func armCircles() models.ExerciseProfile {
	return models.ExerciseProfile{
		ID:                 "arm-circles",
		Name:               "Arm Circles",
		TargetMuscleGroups: []string{"shoulders", "arms"},
		KeyLandmarkIndices: map[string][]int{
			"shoulders": {models.LeftElbow, models.LeftShoulder, models.LeftHip},
			"arms":      {models.LeftShoulder, models.LeftElbow, models.LeftWrist},
		},
		TargetAngleDeg: map[string]float64{"shoulders": 90, "arms": 180},
		ToleranceDeg:   10,
		RepPattern:     models.PatternRotation,
	}
}
