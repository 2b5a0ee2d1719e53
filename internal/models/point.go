// Package models defines the value types shared across chartline packages.
package models

// DataPoint is a single observation in a fetched dataset.
// Points are treated as read-only once a session has stored them.
type DataPoint struct {
	XValue   float64 `json:"xValue"`
	YValue   float64 `json:"yValue"`
	Category string  `json:"category,omitempty"`
}

// ScaleDomain is the [Min, Max] value range of one data dimension.
type ScaleDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Degenerate reports whether the domain has zero width.
func (d ScaleDomain) Degenerate() bool {
	return d.Max == d.Min
}

// FilterOption selects a category subset of a dataset.
type FilterOption string

const (
	FilterAll       FilterOption = "All"
	FilterCategoryA FilterOption = "Category A"
	FilterCategoryB FilterOption = "Category B"
	FilterCategoryC FilterOption = "Category C"
)

// FilterOptions lists every selectable option in display order.
var FilterOptions = []FilterOption{
	FilterAll,
	FilterCategoryA,
	FilterCategoryB,
	FilterCategoryC,
}

// Valid reports whether o is one of the enumerated options.
func (o FilterOption) Valid() bool {
	for _, opt := range FilterOptions {
		if o == opt {
			return true
		}
	}
	return false
}

// String returns the option label.
func (o FilterOption) String() string {
	return string(o)
}
