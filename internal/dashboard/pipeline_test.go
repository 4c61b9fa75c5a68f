package dashboard

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var testNow = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	mu    sync.Mutex
	snap  weather.Snapshot
	err   error
	calls []weather.Location
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(_ context.Context, loc weather.Location, _ weather.DateRange) (weather.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, loc)
	return f.snap, f.err
}

func (f *fakeProvider) Calls() []weather.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]weather.Location(nil), f.calls...)
}

func ptr[T any](v T) *T { return &v }

func day(d int, max, min, precip float64) weather.DailyRecord {
	date := time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	return weather.DailyRecord{
		Date:             date,
		TempMax:          ptr(max),
		TempMin:          ptr(min),
		PrecipitationSum: ptr(precip),
		Sunrise:          ptr(date.Add(6*time.Hour + 45*time.Minute)),
		Sunset:           ptr(date.Add(19*time.Hour + 30*time.Minute)),
	}
}

func hours(start time.Time, temps ...float64) []weather.HourlyRecord {
	out := make([]weather.HourlyRecord, len(temps))
	for i, t := range temps {
		out[i] = weather.HourlyRecord{Time: start.Add(time.Duration(i) * time.Hour), Temperature: ptr(t)}
	}
	return out
}

func weekSnapshot() weather.Snapshot {
	daily := []weather.DailyRecord{
		day(1, 18, 10, 0),
		day(2, 19, 11, 1.2),
		day(3, 20, 12, 0),
		day(4, 17, 9, 4.5),
		day(5, 16, 8, 0),
		day(6, 22, 13, 0.3),
		day(7, 21, 14, 2),
	}
	yesterday := make([]float64, 24)
	for i := range yesterday {
		yesterday[i] = 30
	}
	hourly := append(hours(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), yesterday...),
		hours(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), 10, 15, 12)...)
	return weather.Snapshot{Daily: daily, Hourly: hourly}
}

func newTestPipeline(p *fakeProvider, page *view.Page) *Pipeline {
	svc := weather.NewService(p, nil).WithClock(func() time.Time { return testNow })
	return NewPipeline(svc, page, func() weather.Location { return weather.Location{Lat: -34.9, Lon: -56.2} })
}

func text(t *testing.T, page *view.Page, id string) string {
	t.Helper()
	s, ok := page.Text(id)
	if !ok {
		t.Fatalf("element %s missing", id)
	}
	return s
}

func TestRefreshRendersSnapshot(t *testing.T) {
	page := view.NewPage()
	pipe := newTestPipeline(&fakeProvider{snap: weekSnapshot()}, page)

	if err := pipe.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	want := map[string]string{
		view.LocationBadge: "Lat -34.90, Lon -56.20",
		view.MetricValue:   "21°C",
		view.MetricRange:   "Max 21°C • Min 14°C",
		view.Sunrise:       "06:45",
		view.Sunset:        "19:30",
		view.TempNote:      "Pico: 15°C a las 1:00",
	}
	for id, w := range want {
		if got := text(t, page, id); got != w {
			t.Errorf("%s = %q, want %q", id, got, w)
		}
	}

	days := page.Days()
	if days[0] != (view.DaySlot{Name: "vie", Temp: "18°C"}) {
		t.Errorf("first card = %+v", days[0])
	}
	if days[6] != (view.DaySlot{Name: "jue", Temp: "21°C"}) {
		t.Errorf("last card = %+v", days[6])
	}

	temp := page.Chart(view.TemperatureChart)
	if temp == nil {
		t.Fatal("temperature chart not mounted")
	}
	if !reflect.DeepEqual(temp.Dataset.Data, []float64{10, 15, 12}) {
		t.Errorf("trend data = %v, want today's readings", temp.Dataset.Data)
	}
	if !reflect.DeepEqual(temp.Labels, []string{"0:00", "1:00", "2:00"}) {
		t.Errorf("trend labels = %v", temp.Labels)
	}

	precip := page.Chart(view.PrecipitationChart)
	if precip == nil {
		t.Fatal("precipitation chart not mounted")
	}
	if precip.Labels[0] != "vie 01/03" || precip.Labels[6] != "jue 07/03" {
		t.Errorf("precipitation labels = %v", precip.Labels)
	}

	if at, err := pipe.LastRefresh(); err != nil || !at.Equal(testNow) {
		t.Errorf("LastRefresh = %v, %v", at, err)
	}
}

func TestTrendFallsBackToFirst24Hours(t *testing.T) {
	temps := make([]float64, 48)
	for i := range temps {
		temps[i] = float64(i)
	}
	hourly := hours(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), temps...)

	labels, got := TodayTemperatures(hourly, "2024-03-07")
	if len(got) != 24 || got[0] != 0 || got[23] != 23 {
		t.Fatalf("fallback = %v", got)
	}
	if labels[23] != "23:00" {
		t.Fatalf("fallback labels = %v", labels)
	}

	labels, got = TodayTemperatures(hourly[:5], "2024-03-07")
	if len(got) != 5 || len(labels) != 5 {
		t.Fatalf("short series should be returned whole, got %v", got)
	}
}

func TestForecastFillsMinOfDaysAndSlots(t *testing.T) {
	snap := weekSnapshot()

	page := view.NewPage(view.WithDaySlots(3))
	if err := newTestPipeline(&fakeProvider{snap: snap}, page).Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := page.Days(); len(got) != 3 || got[2].Temp != "20°C" {
		t.Fatalf("3 slots: %+v", got)
	}

	snap.Daily = snap.Daily[:2]
	page = view.NewPage()
	if err := newTestPipeline(&fakeProvider{snap: snap}, page).Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	got := page.Days()
	if got[1].Temp != "19°C" || got[2] != (view.DaySlot{}) {
		t.Fatalf("2 days: %+v", got)
	}
}

func TestFailurePlaceholders(t *testing.T) {
	cases := map[string]*fakeProvider{
		"fetch error":    {err: errors.New("HTTP 500")},
		"empty snapshot": {},
	}
	for name, prov := range cases {
		t.Run(name, func(t *testing.T) {
			page := view.NewPage()
			page.SetText(view.LocationBadge, "untouched")

			if err := newTestPipeline(prov, page).Refresh(context.Background()); err == nil {
				t.Fatal("expected error")
			}

			want := map[string]string{
				view.MetricValue:   "N/D",
				view.MetricRange:   "Max -- • Min --",
				view.Sunrise:       "--:--",
				view.Sunset:        "--:--",
				view.TempNote:      "Datos no disponibles",
				view.LocationBadge: "untouched",
			}
			for id, w := range want {
				if got := text(t, page, id); got != w {
					t.Errorf("%s = %q, want %q", id, got, w)
				}
			}
		})
	}
}

func TestMissingFieldsRenderPlaceholders(t *testing.T) {
	snap := weather.Snapshot{
		Daily:  []weather.DailyRecord{{Date: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)}},
		Hourly: []weather.HourlyRecord{{Time: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)}},
	}
	page := view.NewPage()
	if err := newTestPipeline(&fakeProvider{snap: snap}, page).Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	want := map[string]string{
		view.MetricValue: "N/D",
		view.MetricRange: "Max -- • Min --",
		view.Sunrise:     "--:--",
		view.TempNote:    "—",
	}
	for id, w := range want {
		if got := text(t, page, id); got != w {
			t.Errorf("%s = %q, want %q", id, got, w)
		}
	}
	if got := page.Days()[0].Temp; got != "--°C" {
		t.Errorf("day temp = %q", got)
	}
}

func TestPrecipitationHighlightsMostRecent(t *testing.T) {
	snap := weekSnapshot()
	snap.Daily = append([]weather.DailyRecord{day(1, 0, 0, 9)}, snap.Daily...)
	theme := view.DefaultTheme()

	labels, values, colors := PrecipitationSeries(snap.Daily, "es-ES", theme)
	if len(values) != 7 || len(labels) != 7 {
		t.Fatalf("expected the last 7 days, got %d", len(values))
	}
	if values[6] != 2 {
		t.Fatalf("last value = %v", values[6])
	}
	for i, c := range colors {
		want := theme.Muted
		if i == len(colors)-1 {
			want = theme.Accent
		}
		if c != want {
			t.Fatalf("colors[%d] = %q, want %q", i, c, want)
		}
	}
}

func TestPeak(t *testing.T) {
	temp, hour, ok := Peak([]string{"0:00", "1:00", "2:00"}, []float64{10, 15, 12})
	if !ok || temp != 15 || hour != "1:00" {
		t.Fatalf("Peak = %v %q %v", temp, hour, ok)
	}

	temp, hour, ok = Peak([]string{"0:00", "1:00"}, []float64{math.NaN(), 3})
	if !ok || temp != 3 || hour != "1:00" {
		t.Fatalf("Peak with gap = %v %q %v", temp, hour, ok)
	}

	if _, _, ok := Peak(nil, []float64{math.NaN()}); ok {
		t.Fatal("all-missing readings have no peak")
	}
}

func TestRefreshDestroysPreviousCharts(t *testing.T) {
	page := view.NewPage()
	pipe := newTestPipeline(&fakeProvider{snap: weekSnapshot()}, page)

	_ = pipe.Refresh(context.Background())
	first := page.Chart(view.TemperatureChart)
	_ = pipe.Refresh(context.Background())
	second := page.Chart(view.TemperatureChart)

	if first == nil || second == nil || first == second {
		t.Fatal("expected a fresh chart per refresh")
	}
	if !first.Destroyed() {
		t.Fatal("previous chart must be destroyed")
	}
	if second.Destroyed() {
		t.Fatal("current chart must be live")
	}
}

func TestAbsentTargetsAreTolerated(t *testing.T) {
	page := view.NewPage(view.WithoutElements(view.TempCanvas, view.LocationBadge, view.Forecast))
	if err := newTestPipeline(&fakeProvider{snap: weekSnapshot()}, page).Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if page.Chart(view.TemperatureChart) != nil {
		t.Fatal("no canvas, no chart")
	}
	if page.Chart(view.PrecipitationChart) == nil {
		t.Fatal("precipitation chart should still render")
	}
	if got := text(t, page, view.TempNote); got != "Pico: 15°C a las 1:00" {
		t.Fatalf("note = %q", got)
	}
}

// recordingView is a minimal View that records writes.
type recordingView struct {
	texts map[string]string
}

func (r *recordingView) SetText(id, text string) bool { r.texts[id] = text; return true }
func (r *recordingView) DaySlots() int { return 0 }
func (r *recordingView) SetDay(int, string, string) bool { return false }
func (r *recordingView) HasCanvas(view.ChartKind) bool { return false }
func (r *recordingView) MountChart(*view.Chart) bool { return false }
func (r *recordingView) Theme() view.Theme { return view.DefaultTheme() }
func (r *recordingView) Locale() string { return "es-ES" }

func TestPipelineAgainstFakeView(t *testing.T) {
	rv := &recordingView{texts: map[string]string{}}
	svc := weather.NewService(&fakeProvider{snap: weekSnapshot()}, nil).WithClock(func() time.Time { return testNow })
	pipe := NewPipeline(svc, rv, func() weather.Location { return weather.Location{Lat: 4.711, Lon: -74.0721} })

	if err := pipe.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := rv.texts[view.LocationBadge]; got != "Lat 4.71, Lon -74.07" {
		t.Fatalf("badge = %q", got)
	}
}

// onceResolver names the first location and fails every lookup after it.
type onceResolver struct {
	calls int
}

func (r *onceResolver) Resolve(context.Context, weather.Location) (string, error) {
	r.calls++
	if r.calls == 1 {
		return "Montevideo, Uruguay", nil
	}
	return "", errors.New("geocoder unavailable")
}

func TestFailedPlaceLookupClearsPreviousName(t *testing.T) {
	page := view.NewPage()
	loc := weather.Location{Lat: -34.9, Lon: -56.2}
	svc := weather.NewService(&fakeProvider{snap: weekSnapshot()}, &onceResolver{}).WithClock(func() time.Time { return testNow })
	pipe := NewPipeline(svc, page, func() weather.Location { return loc })

	if err := pipe.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := text(t, page, view.LocationName); got != "Montevideo, Uruguay" {
		t.Fatalf("name = %q", got)
	}

	loc = weather.Location{Lat: -33.8688, Lon: 151.2093}
	if err := pipe.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := text(t, page, view.LocationBadge); got != "Lat -33.87, Lon 151.21" {
		t.Fatalf("badge = %q", got)
	}
	if got := text(t, page, view.LocationName); got != "" {
		t.Fatalf("stale name %q left next to the new coordinates", got)
	}
}
