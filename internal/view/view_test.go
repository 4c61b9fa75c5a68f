package view

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestFocusablesSkipHiddenInputs(t *testing.T) {
	p := NewPage()

	// Inside a hidden modal nothing is focusable.
	if got := p.Focusables(Modal); len(got) != 0 {
		t.Fatalf("hidden modal: expected no focusables, got %v", got)
	}
	if p.Focus(PresetSelect) {
		t.Fatal("focus must not move into a hidden modal")
	}

	p.SetHidden(Modal, false)
	got := p.Focusables(Modal)
	want := []string{CloseButton, PresetSelect, SubmitButton, UseDefault}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("open modal: got %v, want %v", got, want)
	}

	p.SetHidden(CustomInputs, false)
	got = p.Focusables(Modal)
	want = []string{CloseButton, PresetSelect, LatInput, LonInput, SubmitButton, UseDefault}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("custom inputs shown: got %v, want %v", got, want)
	}

	p.SetDisabled(UseDefault, true)
	for _, id := range p.Focusables(Modal) {
		if id == UseDefault {
			t.Fatal("disabled control must not be focusable")
		}
	}
}

func TestAbsentElementsAreIgnored(t *testing.T) {
	p := NewPage(WithoutElements(LocationBadge, TempCanvas, Forecast))

	if p.SetText(LocationBadge, "x") {
		t.Fatal("SetText on absent element should report false")
	}
	if p.HasCanvas(TemperatureChart) {
		t.Fatal("temperature canvas should be absent")
	}
	if p.MountChart(NewChart(TemperatureChart, LineChart, nil, Dataset{})) {
		t.Fatal("mount on absent canvas should report false")
	}
	if p.DaySlots() != 0 || p.SetDay(0, "lun", "1°C") {
		t.Fatal("forecast slots should be absent")
	}
}

func TestWithoutParentDropsChildren(t *testing.T) {
	p := NewPage(WithoutElements(Modal))
	for _, id := range []string{CloseButton, PresetSelect, LatInput, SubmitButton} {
		if p.Exists(id) {
			t.Fatalf("%s should be dropped with its modal", id)
		}
	}
	if !p.Exists(Backdrop) {
		t.Fatal("backdrop is not a child of the modal")
	}
}

func TestDestroyedChartIsNotServed(t *testing.T) {
	p := NewPage()
	c := NewChart(PrecipitationChart, BarChart, []string{"a"}, Dataset{Data: []float64{1}})
	p.MountChart(c)
	if p.Chart(PrecipitationChart) != c {
		t.Fatal("expected mounted chart")
	}

	c.Destroy()
	if p.Chart(PrecipitationChart) != nil {
		t.Fatal("destroyed chart must not be returned")
	}
	if err := c.RenderSVG(&bytes.Buffer{}, 100, 100); err != ErrNoChart {
		t.Fatalf("expected ErrNoChart, got %v", err)
	}
	if _, ok := p.Snapshot().Charts[PrecipitationChart]; ok {
		t.Fatal("destroyed chart must not appear in snapshot")
	}
}

func TestDatasetJSONWritesNullForGaps(t *testing.T) {
	b, err := json.Marshal(Dataset{Label: "t", Data: []float64{1, math.NaN(), 2.5}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"data":[1,null,2.5]`) {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestParseColor(t *testing.T) {
	if got := parseColor("#ffb545"); got != (drawing.Color{R: 0xff, G: 0xb5, B: 0x45, A: 255}) {
		t.Fatalf("unexpected hex colour %+v", got)
	}
	if got := parseColor("rgba(255,255,255,0.08)"); got != (drawing.Color{R: 255, G: 255, B: 255, A: 20}) {
		t.Fatalf("unexpected rgba colour %+v", got)
	}
	if got := parseColor("bogus"); got != drawing.ColorTransparent {
		t.Fatalf("unexpected fallback %+v", got)
	}
}

func TestRenderSVG(t *testing.T) {
	line := NewChart(TemperatureChart, LineChart, []string{"0:00", "1:00", "2:00"}, Dataset{
		Label:       "Temperatura (°C)",
		Data:        []float64{10, 15, 12},
		BorderColor: "#4ea6ff",
	})
	var buf bytes.Buffer
	if err := line.RenderSVG(&buf, 400, 200); err != nil {
		t.Fatalf("line render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatal("expected svg output")
	}

	bar := NewChart(PrecipitationChart, BarChart, []string{"lun 01/01", "mar 02/01"}, Dataset{
		Data:   []float64{0.5, 2},
		Colors: []string{"rgba(255,255,255,0.08)", "#ffb545"},
	})
	buf.Reset()
	if err := bar.RenderSVG(&buf, 400, 200); err != nil {
		t.Fatalf("bar render failed: %v", err)
	}

	single := NewChart(TemperatureChart, LineChart, []string{"0:00"}, Dataset{Data: []float64{10}})
	if err := single.RenderSVG(&buf, 400, 200); err == nil {
		t.Fatal("expected error for a single point line chart")
	}
}

func TestRenderHTML(t *testing.T) {
	p := NewPage()
	p.SetText(LocationBadge, "Lat -34.90, Lon -56.20")
	p.SetText(TempNote, "Pico: 15°C a las 1:00")
	p.SetDay(0, "lun", "21°C")

	var buf bytes.Buffer
	if err := RenderHTML(&buf, p); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Lat -34.90, Lon -56.20", "Pico: 15°C a las 1:00", "lun", `id="locationModal"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
	if !strings.Contains(out, `id="locationModal" class="modal" role="dialog" aria-modal="true" hidden`) {
		t.Fatal("closed modal should render hidden")
	}
	for _, id := range []string{MetricValue, MetricRange} {
		if !strings.Contains(out, `id="`+id+`"`) {
			t.Fatalf("expected element %s in output", id)
		}
	}
}

func TestWriteStatic(t *testing.T) {
	p := NewPage()
	p.MountChart(NewChart(PrecipitationChart, BarChart, []string{"a", "b"}, Dataset{Data: []float64{1, 2}}))

	out := filepath.Join(t.TempDir(), "dashboard.html")
	if err := WriteStatic(p, out); err != nil {
		t.Fatalf("WriteStatic failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("html not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), "charts", "precipitation.svg")); err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), "charts", "temperature.svg")); err == nil {
		t.Fatal("no temperature chart was mounted")
	}
}

func TestWriteStaticSkipsUndrawableChart(t *testing.T) {
	p := NewPage()
	p.MountChart(NewChart(TemperatureChart, LineChart, []string{"0:00", "1:00"}, Dataset{Data: []float64{10, math.NaN()}}))
	p.MountChart(NewChart(PrecipitationChart, BarChart, []string{"a", "b"}, Dataset{Data: []float64{1, 2}}))

	if p.Chart(TemperatureChart).Renderable() {
		t.Fatal("a single reading cannot be drawn as a line")
	}

	out := filepath.Join(t.TempDir(), "dashboard.html")
	if err := WriteStatic(p, out); err != nil {
		t.Fatalf("WriteStatic failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), "charts", "temperature.svg")); err == nil {
		t.Fatal("temperature chart should not be written")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), "charts", "precipitation.svg")); err != nil {
		t.Fatalf("svg not written: %v", err)
	}

	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if strings.Contains(string(html), "charts/temperature.svg") {
		t.Fatal("page links a chart that was not written")
	}
	if !strings.Contains(string(html), "charts/precipitation.svg") {
		t.Fatal("page should link the precipitation chart")
	}
}
