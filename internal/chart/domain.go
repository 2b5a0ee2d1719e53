// Package chart implements the pure core of a visualization session:
// scale domains, category filtering, draw-command generation and the
// lazy post sequence. Nothing in this package performs I/O.
package chart

import (
	"math"

	"github.com/nvandessel/chartline/internal/models"
)

// ComputeDomains returns the linear domains [0, max(x)] and [0, max(y)].
// It fails with ErrEmptyDataset when points is empty and with an
// *InvalidDataError when any value is NaN or infinite.
func ComputeDomains(points []models.DataPoint) (x, y models.ScaleDomain, err error) {
	if len(points) == 0 {
		return x, y, ErrEmptyDataset
	}
	if err := validatePoints(points); err != nil {
		return x, y, err
	}

	maxX, maxY := points[0].XValue, points[0].YValue
	for _, p := range points[1:] {
		maxX = math.Max(maxX, p.XValue)
		maxY = math.Max(maxY, p.YValue)
	}

	return models.ScaleDomain{Min: 0, Max: maxX}, models.ScaleDomain{Min: 0, Max: maxY}, nil
}

// validatePoints rejects values that would otherwise propagate as NaN.
func validatePoints(points []models.DataPoint) error {
	for i, p := range points {
		if !finite(p.XValue) {
			return &InvalidDataError{Index: i, Field: "xValue", Reason: "value is not a finite number"}
		}
		if !finite(p.YValue) {
			return &InvalidDataError{Index: i, Field: "yValue", Reason: "value is not a finite number"}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
