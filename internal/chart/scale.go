package chart

import (
	"math"
	"strconv"

	"github.com/nvandessel/chartline/internal/models"
)

// DefaultTickCount is the approximate number of ticks drawn per axis.
const DefaultTickCount = 10

// Scale maps domain values linearly onto [0, Extent] pixels.
// An inverted scale maps Min to Extent, which is how screen y-axes grow downward.
type Scale struct {
	Domain   models.ScaleDomain
	Extent   float64
	Inverted bool
}

// NewScale creates a linear scale.
func NewScale(domain models.ScaleDomain, extent float64, inverted bool) Scale {
	return Scale{Domain: domain, Extent: extent, Inverted: inverted}
}

// Map converts a domain value to a screen coordinate.
// A degenerate domain maps every value to 0.
func (s Scale) Map(v float64) float64 {
	if s.Domain.Degenerate() {
		return 0
	}
	r := (v - s.Domain.Min) / (s.Domain.Max - s.Domain.Min) * s.Extent
	if s.Inverted {
		return s.Extent - r
	}
	return r
}

// Tick is a labeled axis position in domain units.
type Tick struct {
	Value float64
	Label string
}

// Ticks returns roughly count evenly spaced ticks covering the domain, using
// steps of 1, 2 or 5 times a power of ten. Labels are formatted at the step's
// precision. A degenerate domain yields a single tick.
func Ticks(domain models.ScaleDomain, count int) []Tick {
	if count <= 0 {
		return nil
	}
	lo, hi := math.Min(domain.Min, domain.Max), math.Max(domain.Min, domain.Max)
	if !finite(lo) || !finite(hi) {
		return nil
	}
	if lo == hi {
		return []Tick{{Value: lo, Label: formatTick(lo, -1)}}
	}

	step, exp := tickStep(lo, hi, count)
	decimals := 0
	if exp < 0 {
		decimals = -exp
	}
	pow := math.Pow(10, float64(decimals))

	first := math.Ceil(lo/step - 1e-9)
	last := math.Floor(hi/step + 1e-9)
	ticks := make([]Tick, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		v := math.Round(i*step*pow) / pow
		if v == 0 {
			v = 0 // normalize -0
		}
		ticks = append(ticks, Tick{Value: v, Label: formatTick(v, decimals)})
	}
	return ticks
}

// tickStep picks a 1, 2 or 5 times 10^exp step giving about count intervals.
func tickStep(lo, hi float64, count int) (float64, int) {
	raw := (hi - lo) / float64(count)
	exp := int(math.Floor(math.Log10(raw)))
	e := raw / math.Pow(10, float64(exp))

	factor := 1.0
	switch {
	case e >= math.Sqrt(50):
		exp++
	case e >= math.Sqrt(10):
		factor = 5
	case e >= math.Sqrt(2):
		factor = 2
	}
	if exp < 0 {
		return factor / math.Pow(10, float64(-exp)), exp
	}
	return factor * math.Pow(10, float64(exp)), exp
}

func formatTick(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
