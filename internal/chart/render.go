package chart

import (
	"fmt"

	"github.com/nvandessel/chartline/internal/models"
)

// CommandKind identifies a draw instruction.
type CommandKind string

const (
	KindAxis     CommandKind = "axis"
	KindTick     CommandKind = "tick"
	KindPoint    CommandKind = "point"
	KindPolyline CommandKind = "polyline"
)

// Axis names the axis an axis or tick command belongs to.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Vec is a screen coordinate inside the plot area.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style carries paint attributes for a command.
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Command is one renderer-agnostic draw instruction. Coordinates are relative
// to the plot origin (top-left of the plot area, inside the margins).
//
//   - axis: a line from (X,Y) to (X2,Y2)
//   - tick: a tick mark from (X,Y) to (X2,Y2) with Label
//   - point: a circle centred on (X,Y) with Radius; Label holds the category
//   - polyline: a path through Points
type Command struct {
	Kind   CommandKind `json:"kind"`
	Axis   Axis        `json:"axis,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	X2     float64     `json:"x2,omitempty"`
	Y2     float64     `json:"y2,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	Label  string      `json:"label,omitempty"`
	Points []Vec       `json:"points,omitempty"`
	Style  Style       `json:"style"`
}

// RenderCommands is the ordered output of RenderView.
type RenderCommands struct {
	CanvasWidth  float64            `json:"canvas_width"`
	CanvasHeight float64            `json:"canvas_height"`
	PlotWidth    float64            `json:"plot_width"`
	PlotHeight   float64            `json:"plot_height"`
	Margin       Margin             `json:"margin"`
	XDomain      models.ScaleDomain `json:"x_domain"`
	YDomain      models.ScaleDomain `json:"y_domain"`
	Commands     []Command          `json:"commands"`
}

// Count returns the number of commands of the given kind.
func (rc RenderCommands) Count(kind CommandKind) int {
	n := 0
	for _, c := range rc.Commands {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// OptionView pairs a filter option with the view rendered for it.
type OptionView struct {
	Option   models.FilterOption `json:"option"`
	Commands RenderCommands      `json:"commands"`
}

// Margin is the space between the canvas edge and the plot area.
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Layout controls canvas geometry and paint.
type Layout struct {
	Width       float64
	Height      float64
	Margin      Margin
	PointRadius float64
	PointFill   string
	LineStroke  string
	LineWidth   float64
	AxisStroke  string
	TickSize    float64
	TickCount   int
}

// DefaultLayout returns an 800x500 canvas with 50px margins, giving a 700x400 plot.
func DefaultLayout() Layout {
	return Layout{
		Width:       800,
		Height:      500,
		Margin:      Margin{Top: 50, Right: 50, Bottom: 50, Left: 50},
		PointRadius: 5,
		PointFill:   "steelblue",
		LineStroke:  "orange",
		LineWidth:   2,
		AxisStroke:  "black",
		TickSize:    6,
		TickCount:   DefaultTickCount,
	}
}

// PlotWidth is the horizontal pixel extent of the plot area.
func (l Layout) PlotWidth() float64 { return l.Width - l.Margin.Left - l.Margin.Right }

// PlotHeight is the vertical pixel extent of the plot area.
func (l Layout) PlotHeight() float64 { return l.Height - l.Margin.Top - l.Margin.Bottom }

// Validate checks that the plot area is non-empty.
func (l Layout) Validate() error {
	if !finite(l.PlotWidth()) || l.PlotWidth() <= 0 {
		return &InvalidArgumentError{Name: "layout", Reason: fmt.Sprintf("plot width must be positive, got %g", l.PlotWidth())}
	}
	if !finite(l.PlotHeight()) || l.PlotHeight() <= 0 {
		return &InvalidArgumentError{Name: "layout", Reason: fmt.Sprintf("plot height must be positive, got %g", l.PlotHeight())}
	}
	if l.TickCount < 0 {
		return &InvalidArgumentError{Name: "layout", Reason: "tick count must be non-negative"}
	}
	return nil
}

// RenderView produces draw commands for points against the given domains.
// Output order: x axis, x ticks, y axis, y ticks, points in input order, and a
// polyline through the points in input order when there are at least two.
func RenderView(points []models.DataPoint, x, y models.ScaleDomain, layout Layout) (RenderCommands, error) {
	if err := layout.Validate(); err != nil {
		return RenderCommands{}, err
	}
	if err := validatePoints(points); err != nil {
		return RenderCommands{}, err
	}
	for _, d := range []struct {
		name string
		dom  models.ScaleDomain
	}{{"x domain", x}, {"y domain", y}} {
		if !finite(d.dom.Min) || !finite(d.dom.Max) {
			return RenderCommands{}, &InvalidDataError{Index: -1, Field: d.name, Reason: "domain bounds must be finite"}
		}
	}

	pw, ph := layout.PlotWidth(), layout.PlotHeight()
	xs := NewScale(x, pw, false)
	ys := NewScale(y, ph, true)
	axisStyle := Style{Stroke: layout.AxisStroke, StrokeWidth: 1}

	xTicks := Ticks(x, layout.TickCount)
	yTicks := Ticks(y, layout.TickCount)
	cmds := make([]Command, 0, 2+len(xTicks)+len(yTicks)+len(points)+1)

	cmds = append(cmds, Command{Kind: KindAxis, Axis: AxisX, X: 0, Y: ph, X2: pw, Y2: ph, Style: axisStyle})
	for _, t := range xTicks {
		px := xs.Map(t.Value)
		cmds = append(cmds, Command{Kind: KindTick, Axis: AxisX, X: px, Y: ph, X2: px, Y2: ph + layout.TickSize, Label: t.Label, Style: axisStyle})
	}

	cmds = append(cmds, Command{Kind: KindAxis, Axis: AxisY, X: 0, Y: 0, X2: 0, Y2: ph, Style: axisStyle})
	for _, t := range yTicks {
		py := ys.Map(t.Value)
		cmds = append(cmds, Command{Kind: KindTick, Axis: AxisY, X: 0, Y: py, X2: -layout.TickSize, Y2: py, Label: t.Label, Style: axisStyle})
	}

	path := make([]Vec, 0, len(points))
	for _, p := range points {
		v := Vec{X: xs.Map(p.XValue), Y: ys.Map(p.YValue)}
		path = append(path, v)
		cmds = append(cmds, Command{
			Kind:   KindPoint,
			X:      v.X,
			Y:      v.Y,
			Radius: layout.PointRadius,
			Label:  p.Category,
			Style:  Style{Fill: layout.PointFill},
		})
	}

	if len(path) >= 2 {
		cmds = append(cmds, Command{
			Kind:   KindPolyline,
			Points: path,
			Style:  Style{Fill: "none", Stroke: layout.LineStroke, StrokeWidth: layout.LineWidth},
		})
	}

	return RenderCommands{
		CanvasWidth:  layout.Width,
		CanvasHeight: layout.Height,
		PlotWidth:    pw,
		PlotHeight:   ph,
		Margin:       layout.Margin,
		XDomain:      x,
		YDomain:      y,
		Commands:     cmds,
	}, nil
}
