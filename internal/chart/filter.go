package chart

import (
	"strings"

	"github.com/nvandessel/chartline/internal/models"
)

// ParseFilterOption maps user input to a FilterOption.
// Empty input selects FilterAll; anything outside the enumerated set is rejected.
func ParseFilterOption(s string) (models.FilterOption, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.FilterAll, nil
	}
	opt := models.FilterOption(s)
	if !opt.Valid() {
		return "", &InvalidArgumentError{
			Name:   "filter",
			Reason: "must be one of All, Category A, Category B, Category C; got " + s,
		}
	}
	return opt, nil
}

// ApplyFilter returns the points selected by option as a new slice.
// FilterAll returns every point in input order. Other options keep only the
// points whose category equals the option label. The input is never modified,
// and a filter matching nothing yields an empty, non-nil slice.
func ApplyFilter(points []models.DataPoint, option models.FilterOption) ([]models.DataPoint, error) {
	if !option.Valid() {
		return nil, &InvalidArgumentError{Name: "filter", Reason: "unknown option " + string(option)}
	}
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	if option == models.FilterAll {
		out := make([]models.DataPoint, len(points))
		copy(out, points)
		return out, nil
	}

	out := make([]models.DataPoint, 0, len(points))
	for _, p := range points {
		if p.Category == string(option) {
			out = append(out, p)
		}
	}
	return out, nil
}
