package pipeline

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"form-analyzer/pkg/models"
)

func TestRingEvictsOldestFirst(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	if r.Len() != 3 {
		t.Fatalf("Expected len 3, got %d", r.Len())
	}
	got := r.Last(r.Len())
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Last(Len())[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	last := r.Last(2)
	if len(last) != 2 || last[0] != 4 || last[1] != 5 {
		t.Errorf("Last(2) = %v, want [4 5]", last)
	}
	if r.At(0) != 3 {
		t.Errorf("At(0) = %d, want 3", r.At(0))
	}

	r.Reset()
	if r.Len() != 0 || len(r.Last(10)) != 0 {
		t.Errorf("Expected empty ring after reset, got len %d", r.Len())
	}
}

func TestAngleAt(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 models.Landmark
		want       float64
		ok         bool
	}{
		{"right angle", lm(1, 0, 1), lm(0, 0, 1), lm(0, 1, 1), 90, true},
		{"straight", lm(-1, 0, 1), lm(0, 0, 1), lm(1, 0, 1), 180, true},
		{"below axis", lm(1, 0, 1), lm(0, 0, 1), lm(0, -1, 1), 90, true},
		{"reflex reflected", lm(math.Cos(170*math.Pi/180), math.Sin(170*math.Pi/180), 1), lm(0, 0, 1),
			lm(math.Cos(-170*math.Pi/180), math.Sin(-170*math.Pi/180), 1), 20, true},
		{"acute", lm(1, 0, 1), lm(0, 0, 1), lm(1, 1, 1), 45, true},
		{"hidden point", lm(1, 0, 1), lm(0, 0, 0.4), lm(0, 1, 1), 0, false},
		{"missing visibility", models.Landmark{X: 1}, lm(0, 0, 1), lm(0, 1, 1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AngleAt(tt.p1, tt.p2, tt.p3, 0.5)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("angle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleIgnoresDepth(t *testing.T) {
	a := lm(1, 0, 1)
	a.Z = 5
	got, ok := AngleAt(a, lm(0, 0, 1), lm(0, 1, 1), 0.5)
	if !ok || math.Abs(got-90) > 1e-9 {
		t.Errorf("Expected 90 regardless of z, got %v (%v)", got, ok)
	}
}

func TestAngleRange(t *testing.T) {
	center := lm(0.5, 0.5, 1)
	ref := lm(0.9, 0.5, 1)
	for deg := 0.0; deg < 360; deg += 7.5 {
		r := deg * math.Pi / 180
		p := lm(0.5+0.3*math.Cos(r), 0.5+0.3*math.Sin(r), 1)
		got, ok := AngleAt(ref, center, p, 0.5)
		if !ok || got < 0 || got > 180 {
			t.Errorf("deg %v: angle %v out of [0,180]", deg, got)
		}
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		deviation float64
		want      models.Severity
		ok        bool
	}{
		{0, "", false},
		{10, "", false},
		{10.1, models.SeverityMinor, true},
		{15, models.SeverityMinor, true},
		{15.1, models.SeverityMajor, true},
		{25, models.SeverityMajor, true},
		{25.1, models.SeverityCritical, true},
		{40, models.SeverityCritical, true},
	}
	for _, tt := range tests {
		got, ok := ClassifySeverity(tt.deviation, 10)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ClassifySeverity(%v) = %q,%v want %q,%v", tt.deviation, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormQuality(t *testing.T) {
	mk := func(sev ...models.Severity) []models.Correction {
		out := make([]models.Correction, len(sev))
		for i, s := range sev {
			out[i] = models.Correction{Severity: s}
		}
		return out
	}

	tests := []struct {
		name string
		in   []models.Correction
		want float64
	}{
		{"empty", nil, 100},
		{"single critical", mk(models.SeverityCritical), 50},
		{"mixed", mk(models.SeverityMinor, models.SeverityMajor, models.SeverityCritical), 70},
		{"all major", mk(models.SeverityMajor, models.SeverityMajor), 70},
	}
	for _, tt := range tests {
		got := FormQuality(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: FormQuality = %v, want %v", tt.name, got, tt.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("%s: FormQuality %v out of range", tt.name, got)
		}
	}
}

func TestMotionMagnitude(t *testing.T) {
	if m := MotionMagnitude(nil); m != 0 {
		t.Errorf("Expected 0 for no frames, got %v", m)
	}
	if m := MotionMagnitude([]models.Frame{uniformFrame(0.5, 1)}); m != 0 {
		t.Errorf("Expected 0 for one frame, got %v", m)
	}

	frames := []models.Frame{uniformFrame(0.0, 1), uniformFrame(0.2, 1), uniformFrame(0.8, 1)}
	if m := MotionMagnitude(frames); math.Abs(m-0.4) > 1e-9 {
		t.Errorf("Expected 0.4, got %v", m)
	}

	// Displacement is measured in three dimensions.
	a := uniformFrame(0, 1)
	b := uniformFrame(0, 1)
	for i := range b.Landmarks {
		b.Landmarks[i].X = 0.3
		b.Landmarks[i].Z = 0.4
	}
	if m := MotionMagnitude([]models.Frame{a, b}); math.Abs(m-0.5) > 1e-9 {
		t.Errorf("Expected 0.5, got %v", m)
	}
}

func TestPhaseForMotion(t *testing.T) {
	tests := []struct {
		motion float64
		want   models.Phase
	}{
		{0, models.PhaseRest},
		{0.09, models.PhaseRest},
		{0.1, models.PhaseSetup},
		{0.29, models.PhaseSetup},
		{0.3, models.PhaseExecution},
		{0.69, models.PhaseExecution},
		{0.7, models.PhaseReturn},
		{3, models.PhaseReturn},
	}
	for _, tt := range tests {
		if got := PhaseForMotion(tt.motion); got != tt.want {
			t.Errorf("PhaseForMotion(%v) = %s, want %s", tt.motion, got, tt.want)
		}
	}
}

func TestRepCounterTransitions(t *testing.T) {
	c := newRepCounter()
	now := newFakeClock().Now()

	steps := []struct {
		phase models.Phase
		want  transition
	}{
		{models.PhaseExecution, transitionRep},
		{models.PhaseExecution, transitionNone},
		{models.PhaseReturn, transitionNone},
		{models.PhaseRest, transitionRest},
		{models.PhaseExecution, transitionNone},
		{models.PhaseSetup, transitionNone},
		{models.PhaseExecution, transitionRep},
	}
	for i, s := range steps {
		if got := c.observe(s.phase, now); got != s.want {
			t.Errorf("step %d (%s): transition %v, want %v", i, s.phase, got, s.want)
		}
	}
	if c.state.Count != 2 {
		t.Errorf("Expected count 2, got %d", c.state.Count)
	}
}

func TestConfidence(t *testing.T) {
	landmarks := make([]models.Landmark, 4)
	landmarks[0].Visibility = ptr(1)
	landmarks[1].Visibility = ptr(0.5)
	landmarks[2].Visibility = ptr(1.7) // clamped to 1
	// landmarks[3] has no visibility and counts as 0
	if c := Confidence(landmarks); math.Abs(c-0.625) > 1e-9 {
		t.Errorf("Expected 0.625, got %v", c)
	}

	negative := []models.Landmark{{Visibility: ptr(-3)}}
	if c := Confidence(negative); c != 0 {
		t.Errorf("Expected 0, got %v", c)
	}
	if c := Confidence(nil); c != 0 {
		t.Errorf("Expected 0 for empty frame, got %v", c)
	}

	nan := []models.Landmark{{Visibility: ptr(math.NaN())}, {Visibility: ptr(1)}}
	if c := Confidence(nan); math.Abs(c-0.5) > 1e-9 {
		t.Errorf("Expected NaN visibility to count as 0, got %v", c)
	}
}

func TestNaNVisibilityIsNotConfident(t *testing.T) {
	e, _, rec := newTestEngine(t)
	e.StartExercise(armCircles())

	if err := e.ProcessFrame(armFrame(90, 140, math.NaN())); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}

	if n := len(rec.kind(models.FeedbackCorrection)); n != 0 {
		t.Errorf("Expected no correction for NaN visibility, got %d", n)
	}
	snap := e.CurrentData()
	if _, err := json.Marshal(snap); err != nil {
		t.Errorf("Snapshot not encodable: %v", err)
	}
	if _, ok := AngleAt(lm(1, 0, math.NaN()), lm(0, 0, 1), lm(0, 1, 1), 0.5); ok {
		t.Error("Expected NaN visibility to fail the visibility gate")
	}
}

func TestIngestRejectsWrongShape(t *testing.T) {
	h := newFrameHistory(models.LandmarkCount, 60)

	_, err := h.ingest(models.Frame{Landmarks: make([]models.Landmark, 20)})
	if !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("Expected ErrInvalidFrame, got %v", err)
	}
	if h.len() != 0 {
		t.Errorf("Expected empty history, got %d", h.len())
	}

	stored, err := h.ingest(uniformFrame(0.5, 0.8))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if math.Abs(stored.Confidence-0.8) > 1e-9 {
		t.Errorf("Expected confidence 0.8, got %v", stored.Confidence)
	}
}

func TestIngestEvictsFIFO(t *testing.T) {
	h := newFrameHistory(models.LandmarkCount, 60)
	for i := 0; i < 75; i++ {
		f := uniformFrame(0.5, 1)
		f.Timestamp = int64(i)
		if _, err := h.ingest(f); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
	}
	frames := h.recent(60)
	if len(frames) != 60 {
		t.Fatalf("Expected 60 frames, got %d", len(frames))
	}
	if frames[0].Timestamp != 15 || frames[59].Timestamp != 74 {
		t.Errorf("Expected timestamps 15..74, got %d..%d", frames[0].Timestamp, frames[59].Timestamp)
	}
}

func TestIngestCopiesLandmarks(t *testing.T) {
	h := newFrameHistory(models.LandmarkCount, 60)
	f := uniformFrame(0.5, 1)
	h.ingest(f)
	f.Landmarks[0].X = 9

	if got := h.recent(1)[0].Landmarks[0].X; got != 0.5 {
		t.Errorf("History aliased caller's landmarks: X = %v", got)
	}
}

func TestRotatingSelector(t *testing.T) {
	s := NewRotatingSelector()
	opts := []string{"a", "b", "c"}
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, s.Select("k", opts))
	}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pick %d = %s, want %s", i, got[i], want[i])
		}
	}
	if s.Select("other", opts) != "a" {
		t.Error("Expected independent rotation per key")
	}
	if s.Select("k", nil) != "" {
		t.Error("Expected empty string for empty options")
	}
}

func TestSeededSelectorIsDeterministic(t *testing.T) {
	a := NewSeededSelector(42)
	b := NewSeededSelector(42)
	for i := 0; i < 20; i++ {
		if x, y := a.Select("m", motivationPhrases), b.Select("m", motivationPhrases); x != y {
			t.Fatalf("pick %d differs: %q vs %q", i, x, y)
		}
	}
}
