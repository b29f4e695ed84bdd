package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/uni-portal-api/pkg/config"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

// GradeScale resolves a percentage into a letter grade and grade points
// using an ordered band table, highest threshold first. The table comes
// from configuration so institutions can vary it without touching the
// aggregation logic.
type GradeScale struct {
	bands []config.GradeBand
}

// NewGradeScale validates and wraps the configured bands.
func NewGradeScale(bands []config.GradeBand) (*GradeScale, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("grade scale requires at least one band")
	}
	prev := math.Inf(1)
	for _, band := range bands {
		if band.MinPercent < 0 || band.MinPercent > 100 {
			return nil, fmt.Errorf("grade band %s: threshold %.2f out of range", band.Letter, band.MinPercent)
		}
		if band.MinPercent >= prev {
			return nil, fmt.Errorf("grade band %s: thresholds must be strictly descending", band.Letter)
		}
		prev = band.MinPercent
	}
	if bands[len(bands)-1].MinPercent != 0 {
		return nil, fmt.Errorf("grade scale must cover 0%%")
	}
	return &GradeScale{bands: bands}, nil
}

// Resolve maps a percentage to its letter grade and grade points. The
// first band whose threshold the percentage meets or exceeds wins.
// Out-of-range input is a caller error; well-formed score data never
// produces it.
func (s *GradeScale) Resolve(percentage float64) (string, float64, error) {
	if math.IsNaN(percentage) || math.IsInf(percentage, 0) || percentage < 0 || percentage > 100 {
		return "", 0, appErrors.Clone(appErrors.ErrInvalidPercentage, fmt.Sprintf("percentage %v is out of range", percentage))
	}
	for _, band := range s.bands {
		if percentage >= band.MinPercent {
			return band.Letter, band.GradePoint, nil
		}
	}
	// Unreachable: the constructor guarantees a 0% band.
	last := s.bands[len(s.bands)-1]
	return last.Letter, last.GradePoint, nil
}
