package insight

import (
	"fmt"
	"math"
	"strings"

	"ashiato/journal/internal/clients"
)

// BarWidth is the percentage width of an ability bar relative to the
// largest count. A zero max is treated as 1.
func BarWidth(count, maxCount int) float64 {
	if maxCount < 1 {
		maxCount = 1
	}
	width := float64(count) / float64(maxCount) * 100
	return math.Min(width, 100)
}

type Bar struct {
	Name  string
	Count int
	Width float64
}

func Bars(counts []clients.AbilityCount) []Bar {
	maxCount := 0
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	bars := make([]Bar, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, Bar{Name: c.AbilityName, Count: c.Count, Width: BarWidth(c.Count, maxCount)})
	}
	return bars
}

// Axes is the scatter plot axis choice.
type Axes struct {
	X     clients.ScatterAbility
	Y     clients.ScatterAbility
	Ready bool
}

// ScatterAxes resolves the requested axis ids. Unknown or empty ids fall
// back to the first two abilities. With fewer than two abilities there is
// nothing to plot.
func ScatterAxes(abilities []clients.ScatterAbility, xID, yID string) Axes {
	if len(abilities) < 2 {
		return Axes{}
	}
	axes := Axes{X: abilities[0], Y: abilities[1], Ready: true}
	for _, ability := range abilities {
		if xID != "" && ability.ID == xID {
			axes.X = ability
		}
		if yID != "" && ability.ID == yID {
			axes.Y = ability
		}
	}
	return axes
}

const (
	plotSize   = 360.0
	plotMargin = 40.0
	plotMax    = 100.0
)

var pointColors = []string{"#8b5cf6", "#6366f1", "#3b82f6", "#0ea5e9", "#14b8a6", "#22c55e", "#eab308", "#f97316"}

type Point struct {
	StudentID   string
	StudentName string
	Grade       *int
	ClassName   string
	X           float64
	Y           float64
	CX          float64
	CY          float64
	Color       string
}

// ScatterPoints projects each student onto the chosen axes. Missing scores
// count as 0; values are clamped to the 0-100 plot range.
func ScatterPoints(points []clients.ScatterPoint, axes Axes) []Point {
	if !axes.Ready {
		return nil
	}
	out := make([]Point, 0, len(points))
	for i, p := range points {
		x := p.AbilityScores[axes.X.ID]
		y := p.AbilityScores[axes.Y.ID]
		out = append(out, Point{
			StudentID:   p.StudentID,
			StudentName: p.StudentName,
			Grade:       p.Grade,
			ClassName:   p.ClassName,
			X:           x,
			Y:           y,
			CX:          plotMargin + clamp(x)/plotMax*plotSize,
			CY:          plotMargin + plotSize - clamp(y)/plotMax*plotSize,
			Color:       pointColors[i%len(pointColors)],
		})
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(plotMax, v))
}

// PlotBox is the SVG geometry shared by the scatter template.
type PlotBox struct {
	Size   float64
	Margin float64
	Outer  float64
	Ticks  []Tick
}

type Tick struct {
	Value int
	Pos   float64
}

func ScatterBox() PlotBox {
	box := PlotBox{Size: plotSize, Margin: plotMargin, Outer: plotSize + 2*plotMargin}
	for v := 0; v <= 100; v += 25 {
		box.Ticks = append(box.Ticks, Tick{Value: v, Pos: float64(v) / plotMax * plotSize})
	}
	return box
}

var defaultRadarSubjects = []string{"情報収集", "課題設定", "巻き込む", "対話", "実行", "謙虚", "完遂"}

type RadarAxis struct {
	Name   string
	Count  int
	LabelX float64
	LabelY float64
	EdgeX  float64
	EdgeY  float64
}

type Radar struct {
	Axes     []RadarAxis
	FullMark int
	Polygon  string
	Outline  string
	Center   float64
}

// RadarChart lays out ability counts on a polygon. The scale tops out at the
// largest count but never below 10.
func RadarChart(counts []clients.AbilityCount) Radar {
	const center, radius = 180.0, 110.0
	names := make([]string, 0, len(counts))
	values := make([]int, 0, len(counts))
	for _, c := range counts {
		names = append(names, c.AbilityName)
		values = append(values, c.Count)
	}
	if len(names) == 0 {
		names = defaultRadarSubjects
		values = make([]int, len(names))
	}
	fullMark := 10
	for _, v := range values {
		if v > fullMark {
			fullMark = v
		}
	}

	radar := Radar{FullMark: fullMark, Center: center}
	shape := make([]string, 0, len(names))
	outline := make([]string, 0, len(names))
	for i, name := range names {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(len(names))
		cos, sin := math.Cos(angle), math.Sin(angle)
		r := radius * float64(values[i]) / float64(fullMark)
		shape = append(shape, fmt.Sprintf("%.1f,%.1f", center+r*cos, center+r*sin))
		outline = append(outline, fmt.Sprintf("%.1f,%.1f", center+radius*cos, center+radius*sin))
		radar.Axes = append(radar.Axes, RadarAxis{
			Name:   name,
			Count:  values[i],
			EdgeX:  center + radius*cos,
			EdgeY:  center + radius*sin,
			LabelX: center + (radius+24)*cos,
			LabelY: center + (radius+24)*sin,
		})
	}
	radar.Polygon = strings.Join(shape, " ")
	radar.Outline = strings.Join(outline, " ")
	return radar
}
