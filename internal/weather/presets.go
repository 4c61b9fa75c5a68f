package weather

import "sort"

// CustomPreset is the select value that reveals the manual coordinate inputs.
const CustomPreset = "custom"

// Preset is a named quick-select location.
type Preset struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Location Location `json:"location"`
}

var presets = map[string]Preset{
	"montevideo": {Name: "montevideo", Label: "Montevideo", Location: Location{Lat: -34.9, Lon: -56.1667}},
	"bogota":     {Name: "bogota", Label: "Bogotá", Location: Location{Lat: 4.7110, Lon: -74.0721}},
	"sydney":     {Name: "sydney", Label: "Sydney", Location: Location{Lat: -33.8688, Lon: 151.2093}},
	"melbourne":  {Name: "melbourne", Label: "Melbourne", Location: Location{Lat: -37.8136, Lon: 144.9631}},
	"perth":      {Name: "perth", Label: "Perth", Location: Location{Lat: -31.9505, Lon: 115.8605}},
	"darwin":     {Name: "darwin", Label: "Darwin", Location: Location{Lat: -12.4634, Lon: 130.8456}},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets returns every preset sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
