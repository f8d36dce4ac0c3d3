package pipeline

import (
	"errors"
	"fmt"
	"math"

	"form-analyzer/pkg/models"

	"gonum.org/v1/gonum/stat"
)

var ErrInvalidFrame = errors.New("invalid frame")

// frameHistory validates incoming frames and keeps the most recent ones.
type frameHistory struct {
	landmarks int
	frames    *Ring[models.Frame]
}

func newFrameHistory(landmarks, capacity int) *frameHistory {
	return &frameHistory{
		landmarks: landmarks,
		frames:    NewRing[models.Frame](capacity),
	}
}

// ingest rejects frames of the wrong shape, computes confidence and stores the
// frame. The stored frame is returned.
func (h *frameHistory) ingest(frame models.Frame) (models.Frame, error) {
	if len(frame.Landmarks) != h.landmarks {
		return models.Frame{}, invalidFrame(len(frame.Landmarks), h.landmarks)
	}

	stored := models.Frame{
		Landmarks:  append([]models.Landmark(nil), frame.Landmarks...),
		Timestamp:  frame.Timestamp,
		Confidence: Confidence(frame.Landmarks),
	}
	h.frames.Push(stored)
	return stored, nil
}

func invalidFrame(got, want int) error {
	return fmt.Errorf("%w: got %d landmarks, want %d", ErrInvalidFrame, got, want)
}

func (h *frameHistory) len() int { return h.frames.Len() }

func (h *frameHistory) recent(n int) []models.Frame { return h.frames.Last(n) }

// Confidence is the mean clamped visibility of the landmarks.
func Confidence(landmarks []models.Landmark) float64 {
	if len(landmarks) == 0 {
		return 0
	}
	vis := make([]float64, len(landmarks))
	for i, l := range landmarks {
		vis[i] = l.Vis()
	}
	c := stat.Mean(vis, nil)
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
