package pipeline

import (
	"time"

	"form-analyzer/pkg/models"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"
)

// Motion magnitude ladder thresholds.
const (
	restBelow      = 0.1
	setupBelow     = 0.3
	executionBelow = 0.7
)

// MotionMagnitude is the mean landmark displacement between consecutive
// frames, averaged over the given frames. Fewer than two frames yield 0.
func MotionMagnitude(frames []models.Frame) float64 {
	if len(frames) < 2 {
		return 0
	}
	steps := make([]float64, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		steps = append(steps, displacement(frames[i-1].Landmarks, frames[i].Landmarks))
	}
	return stat.Mean(steps, nil)
}

func displacement(prev, cur []models.Landmark) float64 {
	n := len(cur)
	if len(prev) < n {
		n = len(prev)
	}
	if n == 0 {
		return 0
	}
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		a := r3.Vector{X: prev[i].X, Y: prev[i].Y, Z: prev[i].Z}
		b := r3.Vector{X: cur[i].X, Y: cur[i].Y, Z: cur[i].Z}
		d[i] = a.Distance(b)
	}
	return stat.Mean(d, nil)
}

// PhaseForMotion maps motion magnitude onto a phase. The ladder is the same
// for every exercise.
func PhaseForMotion(motion float64) models.Phase {
	switch {
	case motion < restBelow:
		return models.PhaseRest
	case motion < setupBelow:
		return models.PhaseSetup
	case motion < executionBelow:
		return models.PhaseExecution
	default:
		return models.PhaseReturn
	}
}

type transition int

const (
	transitionNone transition = iota
	transitionRep
	transitionRest
)

// repCounter tracks the phase and repetition count of a session.
type repCounter struct {
	state models.RepState
}

func newRepCounter() *repCounter {
	return &repCounter{state: models.RepState{Phase: models.PhaseSetup, FormQuality: 100}}
}

// observe applies a newly detected phase and reports which side effect the
// transition carries.
func (c *repCounter) observe(phase models.Phase, now time.Time) transition {
	prev := c.state.Phase
	if phase == prev {
		return transitionNone
	}
	c.state.Phase = phase
	c.state.LastTransition = now
	switch {
	case prev == models.PhaseSetup && phase == models.PhaseExecution:
		c.state.Count++
		return transitionRep
	case prev == models.PhaseReturn && phase == models.PhaseRest:
		return transitionRest
	}
	return transitionNone
}

func (c *repCounter) resetCount() { c.state.Count = 0 }
