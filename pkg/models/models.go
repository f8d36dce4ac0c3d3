package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// LandmarkCount is the size of the body landmark taxonomy.
const LandmarkCount = 33

// Body landmark indices.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
)

type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Vis returns the landmark visibility clamped to [0,1]; missing or NaN
// visibility is 0.
func (l Landmark) Vis() float64 {
	if l.Visibility == nil {
		return 0
	}
	v := *l.Visibility
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type Frame struct {
	Landmarks  []Landmark `json:"landmarks"`
	Timestamp  int64      `json:"timestamp"`
	Confidence float64    `json:"confidence"`
}

type RepPattern string

const (
	PatternUpDown   RepPattern = "up-down"
	PatternInOut    RepPattern = "in-out"
	PatternRotation RepPattern = "rotation"
	PatternHold     RepPattern = "hold"
)

type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseExecution Phase = "execution"
	PhaseReturn    Phase = "return"
	PhaseRest      Phase = "rest"
)

// LandmarkRange bounds the normalized y position of one landmark during a phase.
type LandmarkRange struct {
	Landmark int     `json:"landmark"`
	MinY     float64 `json:"min_y"`
	MaxY     float64 `json:"max_y"`
}

type ExerciseProfile struct {
	ID                  string                    `json:"id"`
	Name                string                    `json:"name"`
	TargetMuscleGroups  []string                  `json:"target_muscle_groups"`
	KeyLandmarkIndices  map[string][]int          `json:"key_landmark_indices"`
	TargetAngleDeg      map[string]float64        `json:"target_angle_deg"`
	ToleranceDeg        float64                   `json:"tolerance_deg"`
	RepPattern          RepPattern                `json:"rep_pattern"`
	PhaseLandmarkRanges map[Phase][]LandmarkRange `json:"phase_landmark_ranges,omitempty"`
}

// Clone returns a copy of p that shares no slices or maps with it.
func (p ExerciseProfile) Clone() ExerciseProfile {
	c := p
	c.TargetMuscleGroups = append([]string(nil), p.TargetMuscleGroups...)
	c.KeyLandmarkIndices = make(map[string][]int, len(p.KeyLandmarkIndices))
	for k, v := range p.KeyLandmarkIndices {
		c.KeyLandmarkIndices[k] = append([]int(nil), v...)
	}
	c.TargetAngleDeg = make(map[string]float64, len(p.TargetAngleDeg))
	for k, v := range p.TargetAngleDeg {
		c.TargetAngleDeg[k] = v
	}
	if p.PhaseLandmarkRanges != nil {
		c.PhaseLandmarkRanges = make(map[Phase][]LandmarkRange, len(p.PhaseLandmarkRanges))
		for k, v := range p.PhaseLandmarkRanges {
			c.PhaseLandmarkRanges[k] = append([]LandmarkRange(nil), v...)
		}
	}
	return c
}

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityMajor:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

type Correction struct {
	BodyPart        string    `json:"body_part"`
	CurrentAngleDeg float64   `json:"current_angle_deg"`
	TargetAngleDeg  float64   `json:"target_angle_deg"`
	Severity        Severity  `json:"severity"`
	Message         string    `json:"message"`
	Confidence      float64   `json:"confidence"`
	Timestamp       time.Time `json:"timestamp"`
}

type RepState struct {
	Count          int       `json:"count"`
	Phase          Phase     `json:"phase"`
	FormQuality    float64   `json:"form_quality"`
	LastTransition time.Time `json:"last_transition"`
}

type FeedbackKind string

const (
	FeedbackCorrection  FeedbackKind = "correction"
	FeedbackCount       FeedbackKind = "count"
	FeedbackMotivation  FeedbackKind = "motivation"
	FeedbackInstruction FeedbackKind = "instruction"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type FeedbackEvent struct {
	Kind     FeedbackKind `json:"kind"`
	Text     string       `json:"text"`
	Priority Priority     `json:"priority"`
}

// Snapshot is the polled view of a running session.
type Snapshot struct {
	SessionID   string       `json:"session_id,omitempty"`
	ExerciseID  string       `json:"exercise_id,omitempty"`
	Active      bool         `json:"active"`
	Corrections []Correction `json:"corrections"`
	RepState    RepState     `json:"rep_state"`
	FormQuality float64      `json:"form_quality"`
}

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionStopped SessionStatus = "stopped"
)

type SessionInfo struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	ExerciseID string        `json:"exercise_id"`
	StartedAt  time.Time     `json:"started_at"`
	StoppedAt  time.Time     `json:"stopped_at,omitempty"`
	Status     SessionStatus `json:"status"`
}

func NewSessionInfo(userID, exerciseID string) *SessionInfo {
	return &SessionInfo{
		ID:         uuid.New().String(),
		UserID:     userID,
		ExerciseID: exerciseID,
		StartedAt:  time.Now(),
		Status:     SessionActive,
	}
}
