// Package profiles holds the static catalog of exercise definitions.
package profiles

import (
	"errors"
	"fmt"
	"sort"

	"form-analyzer/pkg/models"
)

var ErrUnknownExercise = errors.New("unknown exercise")

var catalog = map[string]models.ExerciseProfile{
	"chair-yoga-stretch": {
		ID:                 "chair-yoga-stretch",
		Name:               "Chair Yoga Stretch",
		TargetMuscleGroups: []string{"back", "shoulders"},
		KeyLandmarkIndices: map[string][]int{
			"back":      {models.LeftShoulder, models.LeftHip, models.LeftKnee},
			"shoulders": {models.LeftElbow, models.LeftShoulder, models.LeftHip},
		},
		TargetAngleDeg: map[string]float64{
			"back":      100,
			"shoulders": 160,
		},
		ToleranceDeg: 15,
		RepPattern:   models.PatternHold,
		PhaseLandmarkRanges: map[models.Phase][]models.LandmarkRange{
			models.PhaseSetup:     {{Landmark: models.LeftWrist, MinY: 0.4, MaxY: 0.7}},
			models.PhaseExecution: {{Landmark: models.LeftWrist, MinY: 0.0, MaxY: 0.3}},
		},
	},
	"seated-twist": {
		ID:                 "seated-twist",
		Name:               "Seated Twist",
		TargetMuscleGroups: []string{"core", "back"},
		KeyLandmarkIndices: map[string][]int{
			"core": {models.LeftShoulder, models.RightShoulder, models.RightHip},
			"back": {models.RightShoulder, models.RightHip, models.RightKnee},
		},
		TargetAngleDeg: map[string]float64{
			"core": 60,
			"back": 95,
		},
		ToleranceDeg: 15,
		RepPattern:   models.PatternRotation,
		PhaseLandmarkRanges: map[models.Phase][]models.LandmarkRange{
			models.PhaseExecution: {
				{Landmark: models.LeftShoulder, MinY: 0.2, MaxY: 0.5},
				{Landmark: models.RightShoulder, MinY: 0.2, MaxY: 0.5},
			},
		},
	},
	"arm-circles": {
		ID:                 "arm-circles",
		Name:               "Arm Circles",
		TargetMuscleGroups: []string{"shoulders", "arms"},
		KeyLandmarkIndices: map[string][]int{
			"shoulders": {models.LeftElbow, models.LeftShoulder, models.LeftHip},
			"arms":      {models.LeftShoulder, models.LeftElbow, models.LeftWrist},
		},
		TargetAngleDeg: map[string]float64{
			"shoulders": 90,
			"arms":      180,
		},
		ToleranceDeg: 10,
		RepPattern:   models.PatternRotation,
		PhaseLandmarkRanges: map[models.Phase][]models.LandmarkRange{
			models.PhaseSetup:     {{Landmark: models.LeftWrist, MinY: 0.4, MaxY: 0.6}},
			models.PhaseExecution: {{Landmark: models.LeftWrist, MinY: 0.2, MaxY: 0.8}},
		},
	},
	"seated-leg-raise": {
		ID:                 "seated-leg-raise",
		Name:               "Seated Leg Raise",
		TargetMuscleGroups: []string{"legs", "hips"},
		KeyLandmarkIndices: map[string][]int{
			"legs": {models.LeftHip, models.LeftKnee, models.LeftAnkle},
			"hips": {models.LeftShoulder, models.LeftHip, models.LeftKnee},
		},
		TargetAngleDeg: map[string]float64{
			"legs": 170,
			"hips": 100,
		},
		ToleranceDeg: 12,
		RepPattern:   models.PatternUpDown,
		PhaseLandmarkRanges: map[models.Phase][]models.LandmarkRange{
			models.PhaseSetup:     {{Landmark: models.LeftAnkle, MinY: 0.8, MaxY: 1.0}},
			models.PhaseExecution: {{Landmark: models.LeftAnkle, MinY: 0.5, MaxY: 0.75}},
		},
	},
	"standing-squat": {
		ID:                 "standing-squat",
		Name:               "Standing Squat",
		TargetMuscleGroups: []string{"legs", "back"},
		KeyLandmarkIndices: map[string][]int{
			"legs": {models.LeftHip, models.LeftKnee, models.LeftAnkle},
			"back": {models.LeftShoulder, models.LeftHip, models.LeftKnee},
		},
		TargetAngleDeg: map[string]float64{
			"legs": 90,
			"back": 80,
		},
		ToleranceDeg: 15,
		RepPattern:   models.PatternUpDown,
		PhaseLandmarkRanges: map[models.Phase][]models.LandmarkRange{
			models.PhaseSetup:     {{Landmark: models.LeftHip, MinY: 0.4, MaxY: 0.55}},
			models.PhaseExecution: {{Landmark: models.LeftHip, MinY: 0.6, MaxY: 0.8}},
		},
	},
}

// Get returns a deep copy of the profile registered under id.
func Get(id string) (models.ExerciseProfile, error) {
	p, ok := catalog[id]
	if !ok {
		return models.ExerciseProfile{}, fmt.Errorf("%w: %s", ErrUnknownExercise, id)
	}
	return p.Clone(), nil
}

// IDs returns the registered exercise ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func List() []models.ExerciseProfile {
	ids := IDs()
	out := make([]models.ExerciseProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog[id].Clone())
	}
	return out
}
