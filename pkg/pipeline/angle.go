package pipeline

import (
	"math"

	"form-analyzer/pkg/models"
)

// AngleAt returns the angle in degrees at vertex p2, in [0,180]. It reports
// false when any point's visibility is below minVisibility.
func AngleAt(p1, p2, p3 models.Landmark, minVisibility float64) (float64, bool) {
	for _, p := range [...]models.Landmark{p1, p2, p3} {
		if p.Vis() < minVisibility {
			return 0, false
		}
	}

	rad := math.Atan2(p3.Y-p2.Y, p3.X-p2.X) - math.Atan2(p1.Y-p2.Y, p1.X-p2.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg, true
}

// groupAngle computes the joint angle for one muscle group from the first
// three key landmarks (p1, vertex, p3).
func groupAngle(frame models.Frame, indices []int, minVisibility float64) (float64, bool) {
	if len(indices) < 3 {
		return 0, false
	}
	pts := make([]models.Landmark, 3)
	for i := 0; i < 3; i++ {
		idx := indices[i]
		if idx < 0 || idx >= len(frame.Landmarks) {
			return 0, false
		}
		pts[i] = frame.Landmarks[idx]
	}
	return AngleAt(pts[0], pts[1], pts[2], minVisibility)
}
