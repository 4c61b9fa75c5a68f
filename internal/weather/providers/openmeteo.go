package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/format"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

	openMeteoHourLayout = "2006-01-02T15:04"
	openMeteoDayLayout  = "2006-01-02"
)

var (
	openMeteoHourlyVars = []string{"temperature_2m"}
	openMeteoDailyVars  = []string{"temperature_2m_max", "temperature_2m_min", "precipitation_sum", "sunrise", "sunset"}
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	timezone string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// OpenMeteoOption customizes an OpenMeteoProvider.
type OpenMeteoOption func(*OpenMeteoProvider)

// WithBaseURL points the provider at another endpoint (tests, mirrors).
func WithBaseURL(u string) OpenMeteoOption {
	return func(p *OpenMeteoProvider) { p.baseURL = u }
}

// WithTimezone sets the timezone resolution mode sent upstream ("auto" by default).
func WithTimezone(tz string) OpenMeteoOption {
	return func(p *OpenMeteoProvider) {
		if tz != "" {
			p.timezone = tz
		}
	}
}

// WithHTTPConfig replaces the client and limiter.
func WithHTTPConfig(cfg HTTPClientConfig) OpenMeteoOption {
	return func(p *OpenMeteoProvider) { p.httpCfg = cfg }
}

func NewOpenMeteoProvider(client *http.Client, opts ...OpenMeteoOption) *OpenMeteoProvider {
	p := &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  openMeteoBaseURL,
		timezone: "auto",
		httpCfg:  HTTPClientConfig{Client: client},
		circuit:  newBreaker("openmeteo"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// openMeteoPayload mirrors the subset of the forecast response we read.
// Value slices hold pointers because Open-Meteo reports gaps as null.
type openMeteoPayload struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`

	Hourly *struct {
		Time          []string   `json:"time"`
		Temperature2m []*float64 `json:"temperature_2m"`
	} `json:"hourly"`

	Daily *struct {
		Time             []string   `json:"time"`
		Temperature2mMax []*float64 `json:"temperature_2m_max"`
		Temperature2mMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		Sunrise          []*string  `json:"sunrise"`
		Sunset           []*string  `json:"sunset"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location, window weather.DateRange) (weather.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, p.query(loc, window).Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode open-meteo response: %w", err)
	}

	return payload.snapshot(loc)
}

func (p *OpenMeteoProvider) query(loc weather.Location, window weather.DateRange) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("daily", strings.Join(openMeteoDailyVars, ","))
	values.Set("hourly", strings.Join(openMeteoHourlyVars, ","))
	values.Set("start_date", format.ISODate(window.Start))
	values.Set("end_date", format.ISODate(window.End))
	values.Set("timezone", p.timezone)
	return values
}

func (pl openMeteoPayload) snapshot(loc weather.Location) (weather.Snapshot, error) {
	zoneName := pl.Timezone
	if zoneName == "" {
		zoneName = "UTC"
	}
	zone := time.FixedZone(zoneName, pl.UTCOffsetSeconds)

	snap := weather.Snapshot{
		Location: loc,
		Timezone: pl.Timezone,
	}

	if d := pl.Daily; d != nil {
		snap.Daily = make([]weather.DailyRecord, 0, len(d.Time))
		for i, day := range d.Time {
			date, err := time.ParseInLocation(openMeteoDayLayout, day, zone)
			if err != nil {
				return weather.Snapshot{}, fmt.Errorf("daily.time[%d]: %w", i, err)
			}
			rec := weather.DailyRecord{
				Date:             date,
				TempMax:          floatAt(d.Temperature2mMax, i),
				TempMin:          floatAt(d.Temperature2mMin, i),
				PrecipitationSum: floatAt(d.PrecipitationSum, i),
				Sunrise:          timeAt(d.Sunrise, i, zone),
				Sunset:           timeAt(d.Sunset, i, zone),
			}
			snap.Daily = append(snap.Daily, rec)
		}
	}

	if h := pl.Hourly; h != nil {
		snap.Hourly = make([]weather.HourlyRecord, 0, len(h.Time))
		for i, ts := range h.Time {
			t, err := time.ParseInLocation(openMeteoHourLayout, ts, zone)
			if err != nil {
				return weather.Snapshot{}, fmt.Errorf("hourly.time[%d]: %w", i, err)
			}
			snap.Hourly = append(snap.Hourly, weather.HourlyRecord{
				Time:        t,
				Temperature: floatAt(h.Temperature2m, i),
			})
		}
	}

	return snap, nil
}

func floatAt(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

// timeAt parses a local "YYYY-MM-DDTHH:MM" entry; unparsable entries are
// treated like nulls.
func timeAt(values []*string, i int, zone *time.Location) *time.Time {
	if i < 0 || i >= len(values) || values[i] == nil || *values[i] == "" {
		return nil
	}
	t, err := time.ParseInLocation(openMeteoHourLayout, *values[i], zone)
	if err != nil {
		return nil
	}
	return &t
}
