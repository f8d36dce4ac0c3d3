package pipeline

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies monotonic time readings. time.Time values from time.Now
// carry a monotonic component, so Sub is immune to wall-clock changes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// PhraseSelector picks one phrase from options. key identifies the phrase set.
type PhraseSelector interface {
	Select(key string, options []string) string
}

// RotatingSelector walks each phrase set in order, wrapping around.
type RotatingSelector struct {
	mu   sync.Mutex
	next map[string]int
}

func NewRotatingSelector() *RotatingSelector {
	return &RotatingSelector{next: make(map[string]int)}
}

func (s *RotatingSelector) Select(key string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next[key] % len(options)
	s.next[key] = i + 1
	return options[i]
}

// SeededSelector picks phrases at random from a seeded source.
type SeededSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededSelector(seed int64) *SeededSelector {
	return &SeededSelector{rng: rand.New(rand.NewSource(seed))}
}

func (s *SeededSelector) Select(_ string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return options[s.rng.Intn(len(options))]
}

const motivationKey = "motivation"

var correctionPhrases = map[string][]string{
	"shoulders": {
		"Relax your shoulders and keep them level",
		"Lift your arms to shoulder height",
		"Keep your shoulders away from your ears",
	},
	"arms": {
		"Straighten your arms a little more",
		"Extend through your fingertips",
		"Keep your elbows soft but long",
	},
	"back": {
		"Sit up tall and lengthen your spine",
		"Keep your back straight",
		"Avoid rounding your lower back",
	},
	"core": {
		"Rotate from your waist, not your shoulders",
		"Engage your core as you twist",
		"Keep your hips facing forward",
	},
	"legs": {
		"Extend your leg a bit further",
		"Keep your knee in line with your toes",
		"Control the movement through your legs",
	},
	"hips": {
		"Keep your hips square",
		"Sit back into your hips",
		"Stay grounded through your hips",
	},
}

var defaultCorrectionPhrases = []string{
	"Adjust your position slightly",
	"Check your form",
}

var motivationPhrases = []string{
	"Great job, keep it up!",
	"Nice and steady!",
	"You're doing wonderfully!",
	"Excellent form, keep going!",
	"Strong work!",
}

func phrasesFor(group string) []string {
	if p, ok := correctionPhrases[group]; ok {
		return p
	}
	return defaultCorrectionPhrases
}
