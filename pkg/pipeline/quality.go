package pipeline

import (
	"form-analyzer/pkg/models"

	"gonum.org/v1/gonum/stat"
)

var severityPenalty = map[models.Severity]float64{
	models.SeverityMinor:    0.1,
	models.SeverityMajor:    0.3,
	models.SeverityCritical: 0.5,
}

// FormQuality scores corrections on a 0-100 scale. An empty history scores 100.
func FormQuality(corrections []models.Correction) float64 {
	if len(corrections) == 0 {
		return 100
	}
	penalties := make([]float64, len(corrections))
	for i, c := range corrections {
		penalties[i] = severityPenalty[c.Severity]
	}
	q := 100 * (1 - stat.Mean(penalties, nil))
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}
