// Package dashboard fetches the trailing week for the current location and
// renders it into the page, and wires the location dialog to that refresh.
package dashboard

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/format"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// fallbackHours is how many hourly points the trend chart shows when none
// fall on today's date.
const fallbackHours = 24

// precipitationDays is the width of the precipitation chart.
const precipitationDays = 7

// View is the part of the page the render pipeline writes into. Every write
// tolerates a missing target.
type View interface {
	SetText(id, text string) bool
	DaySlots() int
	SetDay(i int, name, temp string) bool
	HasCanvas(kind view.ChartKind) bool
	MountChart(c *view.Chart) bool
	Theme() view.Theme
	Locale() string
}

// Pipeline performs one fetch and render per Refresh call.
type Pipeline struct {
	service  *weather.Service
	view     View
	location func() weather.Location

	mu          sync.Mutex
	charts      map[view.ChartKind]*view.Chart
	lastRefresh time.Time
	lastErr     error
}

// NewPipeline creates a pipeline that renders into v for whatever location
// current returns at refresh time.
func NewPipeline(service *weather.Service, v View, current func() weather.Location) *Pipeline {
	return &Pipeline{
		service:  service,
		view:     v,
		location: current,
		charts:   make(map[view.ChartKind]*view.Chart),
	}
}

// Refresh fetches the current location and renders it. On failure the
// summary fields show placeholders and the error is logged and returned;
// callers are free to ignore it. Concurrent refreshes are not ordered.
func (p *Pipeline) Refresh(ctx context.Context) error {
	loc := p.location()

	snap, window, err := p.service.FetchWeek(ctx, loc)
	if err != nil {
		log.Printf("dashboard: error fetching weather: %v", err)
		p.renderFailure()
		p.record(err)
		return err
	}

	p.render(loc, snap, window)
	// Always written so a failed lookup clears the previous place.
	p.view.SetText(view.LocationName, p.service.PlaceName(ctx, loc))
	p.record(nil)
	return nil
}

// LastRefresh reports when Refresh last completed and its result.
func (p *Pipeline) LastRefresh() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRefresh, p.lastErr
}

func (p *Pipeline) record(err error) {
	p.mu.Lock()
	p.lastRefresh = p.service.Now()
	p.lastErr = err
	p.mu.Unlock()
}

func (p *Pipeline) renderFailure() {
	p.view.SetText(view.MetricValue, format.NoValue)
	p.view.SetText(view.MetricRange, format.NoRange)
	p.view.SetText(view.Sunrise, format.NoClock)
	p.view.SetText(view.Sunset, format.NoClock)
	p.view.SetText(view.TempNote, format.NoData)
}

func (p *Pipeline) render(loc weather.Location, snap weather.Snapshot, window weather.DateRange) {
	p.view.SetText(view.LocationBadge, format.Coordinates(loc.Lat, loc.Lon))

	p.renderToday(snap.Daily)
	p.renderForecast(snap.Daily)

	labels, temps := TodayTemperatures(snap.Hourly, format.ISODate(window.End))
	p.renderTemperature(labels, temps)
	p.renderPrecipitation(snap.Daily)

	if temp, hour, ok := Peak(labels, temps); ok {
		p.view.SetText(view.TempNote, format.PeakNote(temp, hour))
	} else {
		p.view.SetText(view.TempNote, format.NoPeak)
	}
}

func (p *Pipeline) renderToday(daily []weather.DailyRecord) {
	var today weather.DailyRecord
	if len(daily) > 0 {
		today = daily[len(daily)-1]
	}

	if today.TempMax != nil {
		p.view.SetText(view.MetricValue, format.Celsius(*today.TempMax))
	} else {
		p.view.SetText(view.MetricValue, format.NoValue)
	}
	if today.TempMax != nil && today.TempMin != nil {
		p.view.SetText(view.MetricRange, format.TempRange(*today.TempMax, *today.TempMin))
	} else {
		p.view.SetText(view.MetricRange, format.NoRange)
	}
	p.view.SetText(view.Sunrise, clockOrPlaceholder(today.Sunrise))
	p.view.SetText(view.Sunset, clockOrPlaceholder(today.Sunset))
}

func (p *Pipeline) renderForecast(daily []weather.DailyRecord) {
	n := min(len(daily), p.view.DaySlots())
	locale := p.view.Locale()
	for i := 0; i < n; i++ {
		d := daily[i]
		temp := format.NoDayTemp
		if d.TempMax != nil {
			temp = format.Celsius(*d.TempMax)
		}
		p.view.SetDay(i, format.WeekdayShort(d.Date, locale), temp)
	}
}

func (p *Pipeline) renderTemperature(labels []string, temps []float64) {
	theme := p.view.Theme()
	p.replaceChart(view.TemperatureChart, func() *view.Chart {
		return view.NewChart(view.TemperatureChart, view.LineChart, labels, view.Dataset{
			Label:           "Temperatura (°C)",
			Data:            temps,
			BorderColor:     theme.Primary,
			BackgroundColor: theme.PrimaryFill,
		})
	})
}

func (p *Pipeline) renderPrecipitation(daily []weather.DailyRecord) {
	labels, values, colors := PrecipitationSeries(daily, p.view.Locale(), p.view.Theme())
	p.replaceChart(view.PrecipitationChart, func() *view.Chart {
		return view.NewChart(view.PrecipitationChart, view.BarChart, labels, view.Dataset{
			Label:  "Precipitación (mm)",
			Data:   values,
			Colors: colors,
		})
	})
}

// replaceChart destroys the chart of kind before building its successor, so
// at most one live handle per kind exists.
func (p *Pipeline) replaceChart(kind view.ChartKind, build func() *view.Chart) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old := p.charts[kind]; old != nil {
		old.Destroy()
		delete(p.charts, kind)
	}
	if !p.view.HasCanvas(kind) {
		return
	}
	c := build()
	if p.view.MountChart(c) {
		p.charts[kind] = c
	}
}

// TodayTemperatures returns the hour labels and temperatures of the hourly
// entries dated today (YYYY-MM-DD, in each entry's own zone). When none
// match it returns the first 24 entries. Missing readings are NaN.
func TodayTemperatures(hourly []weather.HourlyRecord, today string) ([]string, []float64) {
	var labels []string
	var temps []float64
	for _, h := range hourly {
		if format.ISODate(h.Time) == today {
			labels = append(labels, format.HourLabel(h.Time))
			temps = append(temps, valueOrNaN(h.Temperature))
		}
	}
	if len(temps) > 0 {
		return labels, temps
	}

	n := min(len(hourly), fallbackHours)
	labels = make([]string, 0, n)
	temps = make([]float64, 0, n)
	for _, h := range hourly[:n] {
		labels = append(labels, format.HourLabel(h.Time))
		temps = append(temps, valueOrNaN(h.Temperature))
	}
	return labels, temps
}

// Peak returns the highest reading and its label. ok is false when there
// is no reading at all.
func Peak(labels []string, temps []float64) (temp float64, label string, ok bool) {
	idx := -1
	for i, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		if idx < 0 || t > temps[idx] {
			idx = i
		}
	}
	if idx < 0 {
		return 0, "", false
	}
	if idx < len(labels) {
		label = labels[idx]
	}
	return temps[idx], label, true
}

// PrecipitationSeries builds the bar chart data for the last seven daily
// entries. The most recent bar gets the accent colour, the rest are muted.
func PrecipitationSeries(daily []weather.DailyRecord, locale string, theme view.Theme) (labels []string, values []float64, colors []string) {
	start := max(0, len(daily)-precipitationDays)
	days := daily[start:]

	labels = make([]string, len(days))
	values = make([]float64, len(days))
	colors = make([]string, len(days))
	for i, d := range days {
		labels[i] = format.WeekdayWithDate(d.Date, locale)
		values[i] = valueOrNaN(d.PrecipitationSum)
		colors[i] = theme.Muted
		if i == len(days)-1 {
			colors[i] = theme.Accent
		}
	}
	return labels, values, colors
}

func clockOrPlaceholder(t *time.Time) string {
	if t == nil {
		return format.NoClock
	}
	return format.Clock(*t)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
