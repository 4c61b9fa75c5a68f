package view

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
   <meta charset="UTF-8"/>
   <title>Clima</title>
   <style>
      :root {
         --bg: #0f1420;
         --card: #182033;
         --text: #e6ebf5;
         --muted: #8a94a8;
         --primary: {{ .Theme.Primary }};
         --accent: {{ .Theme.Accent }};
      }
      body { font-family: Arial, sans-serif; margin: 0; background: var(--bg); color: var(--text); }
      .layout { max-width: 960px; margin: 0 auto; padding: 20px; }
      .card { background: var(--card); border-radius: 8px; padding: 16px; margin-bottom: 16px; }
      .badge { color: var(--muted); font-size: 0.9em; }
      .metric__value { font-size: 2.4em; }
      .forecast { display: flex; gap: 8px; }
      .day { flex: 1; text-align: center; background: var(--bg); border-radius: 6px; padding: 8px; }
      .chart { width: 100%; min-height: 200px; }
      .modal-backdrop { position: fixed; inset: 0; background: rgba(0,0,0,0.6); }
      .modal { position: fixed; top: 15%; left: 50%; transform: translateX(-50%); background: var(--card); padding: 20px; border-radius: 8px; }
      [aria-invalid="true"] { outline: 2px solid #e5484d; }
   </style>
</head>
<body>
{{ if has "layout" }}
<main class="layout"{{ with attr "layout" "aria-hidden" }} aria-hidden="{{ . }}"{{ end }}>
   <header class="card">
      {{ if has "location-badge" }}<span id="location-badge" class="badge">{{ text "location-badge" }}</span>{{ end }}
      {{ if has "location-name" }}<span id="location-name" class="badge">{{ text "location-name" }}</span>{{ end }}
      {{ if has "changeLocationBtn" }}
      <form method="post" action="/api/v1/modal/open" style="display:inline">
         <button id="changeLocationBtn" type="submit"{{ if focused "changeLocationBtn" }} autofocus{{ end }}>Cambiar ubicación</button>
      </form>
      {{ end }}
   </header>

   <section class="card">
      {{ if has "metric-value" }}<div id="metric-value" class="metric__value">{{ text "metric-value" }}</div>{{ end }}
      {{ if has "metric-range" }}<div id="metric-range" class="metric__range">{{ text "metric-range" }}</div>{{ end }}
      {{ if has "sunrise" }}<div>Amanecer <span id="sunrise">{{ text "sunrise" }}</span></div>{{ end }}
      {{ if has "sunset" }}<div>Atardecer <span id="sunset">{{ text "sunset" }}</span></div>{{ end }}
   </section>

   {{ if has "forecast" }}
   <section class="card forecast">
      {{ range .Days }}
      <div class="day"><div class="day__name">{{ .Name }}</div><div class="day__temp">{{ .Temp }}</div></div>
      {{ end }}
   </section>
   {{ end }}

   {{ if has "tempTrend" }}
   <section class="card">
      <h2>Temperatura (°C)</h2>
      {{ if chart "temperature" }}<img id="tempTrend" class="chart" src="charts/temperature.svg?v={{ chartID "temperature" }}" alt="Tendencia de temperatura"/>{{ end }}
      {{ if has "temp-note" }}<p id="temp-note">{{ text "temp-note" }}</p>{{ end }}
   </section>
   {{ end }}

   {{ if has "precipChart" }}
   <section class="card">
      <h2>Precipitación (mm)</h2>
      {{ if chart "precipitation" }}<img id="precipChart" class="chart" src="charts/precipitation.svg?v={{ chartID "precipitation" }}" alt="Precipitación últimos 7 días"/>{{ end }}
   </section>
   {{ end }}
</main>
{{ end }}

{{ if has "modal-backdrop" }}
<form method="post" action="/api/v1/modal/backdrop">
   <button id="modal-backdrop" class="modal-backdrop" type="submit" aria-label="Cerrar"{{ if hidden "modal-backdrop" }} hidden{{ end }}></button>
</form>
{{ end }}

{{ if has "locationModal" }}
<div id="locationModal" class="modal" role="dialog" aria-modal="true"{{ if hidden "locationModal" }} hidden{{ end }}>
   {{ if has "closeModalBtn" }}
   <form method="post" action="/api/v1/modal/close">
      <button id="closeModalBtn" type="submit"{{ if focused "closeModalBtn" }} autofocus{{ end }}>×</button>
   </form>
   {{ end }}
   {{ if has "locationForm" }}
   <form id="locationForm" method="post" action="/api/v1/location">
      {{ if has "presetLocation" }}
      <select id="presetLocation" name="preset"{{ if focused "presetLocation" }} autofocus{{ end }}>
         {{ $sel := value "presetLocation" }}
         {{ range .Presets }}<option value="{{ .Name }}"{{ if eq .Name $sel }} selected{{ end }}>{{ .Label }}</option>{{ end }}
         <option value="custom"{{ if eq $sel "custom" }} selected{{ end }}>Personalizada</option>
      </select>
      {{ end }}
      {{ if has "customInputs" }}
      <fieldset id="customInputs"{{ if hidden "customInputs" }} hidden{{ end }}>
         {{ if has "lat" }}<input id="lat" name="lat" value="{{ value "lat" }}"{{ with attr "lat" "aria-invalid" }} aria-invalid="{{ . }}"{{ end }}{{ if focused "lat" }} autofocus{{ end }}/>{{ end }}
         {{ if has "lon" }}<input id="lon" name="lon" value="{{ value "lon" }}"{{ if focused "lon" }} autofocus{{ end }}/>{{ end }}
      </fieldset>
      {{ end }}
      {{ if has "submitLocation" }}<button id="submitLocation" type="submit"{{ if focused "submitLocation" }} autofocus{{ end }}>Aceptar</button>{{ end }}
      {{ if has "useDefault" }}<button id="useDefault" type="submit" formaction="/api/v1/location/default"{{ if focused "useDefault" }} autofocus{{ end }}>Usar predeterminada</button>{{ end }}
   </form>
   {{ end }}
</div>
{{ end }}
</body>
</html>
`

// templateData is the data handed to the page template.
type templateData struct {
	Theme   Theme
	Days    []DaySlot
	Presets []weather.Preset
}

// RenderHTML writes the page as a standalone HTML document.
func RenderHTML(w io.Writer, p *Page) error {
	st := p.Snapshot()

	funcs := template.FuncMap{
		"has": func(id string) bool {
			_, ok := st.Elements[id]
			return ok
		},
		"text":    func(id string) string { return st.Elements[id].Text },
		"value":   func(id string) string { return st.Elements[id].Value },
		"hidden":  func(id string) bool { return st.Elements[id].Hidden },
		"attr":    func(id, name string) string { return st.Elements[id].Attrs[name] },
		"focused": func(id string) bool { return st.ActiveElement == id },
		"chart": func(kind string) bool {
			return st.Charts[ChartKind(kind)].Renderable()
		},
		"chartID": func(kind string) string {
			if c, ok := st.Charts[ChartKind(kind)]; ok {
				return c.ID
			}
			return ""
		},
	}

	tmpl, err := template.New("dashboard").Funcs(funcs).Parse(pageTemplate)
	if err != nil {
		return err
	}

	data := templateData{
		Theme:   p.Theme(),
		Days:    st.Days,
		Presets: weather.Presets(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// WriteStatic renders the page to outputPath and its drawable charts next to
// it (<dir>/charts/<kind>.svg). Charts without enough data are skipped, as
// the page does not link them. Every file is written to a temp file first and
// renamed into place so readers never see a partial file.
func WriteStatic(p *Page, outputPath string) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, p); err != nil {
		return err
	}
	if err := writeAtomic(outputPath, buf.Bytes()); err != nil {
		return err
	}

	dir := filepath.Join(filepath.Dir(outputPath), "charts")
	for _, kind := range []ChartKind{TemperatureChart, PrecipitationChart} {
		c := p.Chart(kind)
		if !c.Renderable() {
			continue
		}
		var svg bytes.Buffer
		if err := c.RenderSVG(&svg, 800, 300); err != nil {
			if errors.Is(err, ErrNoChart) {
				continue
			}
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := writeAtomic(filepath.Join(dir, string(kind)+".svg"), svg.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
