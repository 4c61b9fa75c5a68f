package view

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoChart is returned when rendering a chart that is absent or destroyed.
var ErrNoChart = errors.New("chart not available")

// ChartKind identifies one of the two dashboard charts.
type ChartKind string

const (
	TemperatureChart   ChartKind = "temperature"
	PrecipitationChart ChartKind = "precipitation"
)

func (k ChartKind) canvas() string {
	switch k {
	case TemperatureChart:
		return TempCanvas
	case PrecipitationChart:
		return PrecipCanvas
	default:
		return ""
	}
}

// ParseChartKind maps a URL or user supplied name to a ChartKind.
func ParseChartKind(s string) (ChartKind, bool) {
	switch ChartKind(strings.ToLower(s)) {
	case TemperatureChart:
		return TemperatureChart, true
	case PrecipitationChart:
		return PrecipitationChart, true
	}
	return "", false
}

// ChartType is the visual chart type.
type ChartType string

const (
	LineChart ChartType = "line"
	BarChart  ChartType = "bar"
)

// Theme holds the CSS colours used by the charts.
type Theme struct {
	Primary     string `json:"primary"`
	PrimaryFill string `json:"primaryFill"`
	Accent      string `json:"accent"`
	Muted       string `json:"muted"`
}

// DefaultTheme returns the dashboard's stock colours.
func DefaultTheme() Theme {
	return Theme{
		Primary:     "#4ea6ff",
		PrimaryFill: "rgba(78,166,255,0.18)",
		Accent:      "#ffb545",
		Muted:       "rgba(255,255,255,0.08)",
	}
}

// Dataset is the single series of a chart. NaN marks a missing value.
type Dataset struct {
	Label           string
	Data            []float64
	BorderColor     string
	BackgroundColor string
	// Colors holds per-point fill colours (bar charts).
	Colors []string
}

// MarshalJSON writes missing values as null.
func (d Dataset) MarshalJSON() ([]byte, error) {
	data := make([]*float64, len(d.Data))
	for i := range d.Data {
		if !math.IsNaN(d.Data[i]) && !math.IsInf(d.Data[i], 0) {
			v := d.Data[i]
			data[i] = &v
		}
	}
	return json.Marshal(struct {
		Label           string     `json:"label"`
		Data            []*float64 `json:"data"`
		BorderColor     string     `json:"borderColor,omitempty"`
		BackgroundColor string     `json:"backgroundColor,omitempty"`
		Colors          []string   `json:"colors,omitempty"`
	}{d.Label, data, d.BorderColor, d.BackgroundColor, d.Colors})
}

// Chart is a chart handle. Once destroyed it is never rendered again.
type Chart struct {
	ID        string    `json:"id"`
	Kind      ChartKind `json:"kind"`
	Type      ChartType `json:"type"`
	Labels    []string  `json:"labels"`
	Dataset   Dataset   `json:"dataset"`
	CreatedAt time.Time `json:"createdAt"`

	destroyed atomic.Bool
}

// NewChart creates a live chart handle.
func NewChart(kind ChartKind, typ ChartType, labels []string, ds Dataset) *Chart {
	return &Chart{
		ID:        uuid.NewString(),
		Kind:      kind,
		Type:      typ,
		Labels:    labels,
		Dataset:   ds,
		CreatedAt: time.Now().UTC(),
	}
}

// Destroy releases the handle.
func (c *Chart) Destroy() {
	c.destroyed.Store(true)
}

// Destroyed reports whether Destroy was called.
func (c *Chart) Destroyed() bool {
	return c.destroyed.Load()
}

// Renderable reports whether RenderSVG can draw c: it is live and has at
// least two readings (line) or one bar.
func (c *Chart) Renderable() bool {
	if c == nil || c.Destroyed() {
		return false
	}
	switch c.Type {
	case LineChart:
		return countReadings(c.Dataset.Data) >= 2
	case BarChart:
		return len(c.Dataset.Data) > 0
	default:
		return false
	}
}

func countReadings(data []float64) int {
	n := 0
	for _, v := range data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// RenderSVG draws the chart as SVG.
func (c *Chart) RenderSVG(w io.Writer, width, height int) error {
	if c == nil || c.Destroyed() {
		return ErrNoChart
	}
	switch c.Type {
	case LineChart:
		return c.renderLine(w, width, height)
	case BarChart:
		return c.renderBar(w, width, height)
	default:
		return fmt.Errorf("unsupported chart type %q", c.Type)
	}
}

func (c *Chart) renderLine(w io.Writer, width, height int) error {
	xs := make([]float64, 0, len(c.Dataset.Data))
	ys := make([]float64, 0, len(c.Dataset.Data))
	ticks := make([]chart.Tick, 0, len(c.Labels))
	for i, v := range c.Dataset.Data {
		if i < len(c.Labels) {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: c.Labels[i]})
		}
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return fmt.Errorf("%w: need at least two points, have %d", ErrNoChart, len(xs))
	}

	lo, hi := ys[0], ys[0]
	for _, v := range ys {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Dataset.Label,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: parseColor(c.Dataset.BorderColor),
					FillColor:   parseColor(c.Dataset.BackgroundColor),
					StrokeWidth: 2,
					DotWidth:    2,
					DotColor:    parseColor(c.Dataset.BorderColor),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render %s chart: %w", c.Kind, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (c *Chart) renderBar(w io.Writer, width, height int) error {
	bars := make([]chart.Value, 0, len(c.Dataset.Data))
	top := 1.0
	for i, v := range c.Dataset.Data {
		if math.IsNaN(v) {
			v = 0
		}
		top = math.Max(top, v)
		label := ""
		if i < len(c.Labels) {
			label = c.Labels[i]
		}
		fill := c.Dataset.BackgroundColor
		if i < len(c.Dataset.Colors) {
			fill = c.Dataset.Colors[i]
		}
		bars = append(bars, chart.Value{
			Value: v,
			Label: label,
			Style: chart.Style{
				FillColor:   parseColor(fill),
				StrokeColor: parseColor(fill),
			},
		})
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars", ErrNoChart)
	}

	bc := chart.BarChart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 16}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top}},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render %s chart: %w", c.Kind, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// parseColor understands "#rrggbb" and "rgba(r,g,b,a)". Anything else is
// transparent.
func parseColor(css string) drawing.Color {
	css = strings.TrimSpace(css)
	switch {
	case strings.HasPrefix(css, "#"):
		return drawing.ColorFromHex(strings.TrimPrefix(css, "#"))
	case strings.HasPrefix(css, "rgba("):
		var r, g, b uint8
		var a float64
		body := strings.ReplaceAll(strings.TrimSuffix(strings.TrimPrefix(css, "rgba("), ")"), " ", "")
		if _, err := fmt.Sscanf(body, "%d,%d,%d,%g", &r, &g, &b, &a); err != nil {
			return drawing.ColorTransparent
		}
		return drawing.Color{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}
	default:
		return drawing.ColorTransparent
	}
}
