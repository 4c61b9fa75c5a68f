package weather

import (
	"fmt"
	"math"
	"time"
)

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite numbers.
func (l Location) Valid() bool {
	return !math.IsNaN(l.Lat) && !math.IsInf(l.Lat, 0) &&
		!math.IsNaN(l.Lon) && !math.IsInf(l.Lon, 0)
}

// Key returns a canonical string key for logging and indexing.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// DailyRecord is one day of the daily series. Nil fields were null or
// missing in the upstream payload.
type DailyRecord struct {
	Date             time.Time  `json:"date"`
	TempMax          *float64   `json:"tempMax"`
	TempMin          *float64   `json:"tempMin"`
	PrecipitationSum *float64   `json:"precipitationSum"`
	Sunrise          *time.Time `json:"sunrise"`
	Sunset           *time.Time `json:"sunset"`
}

// HourlyRecord is one point of the hourly temperature series.
type HourlyRecord struct {
	Time        time.Time `json:"time"`
	Temperature *float64  `json:"temperature"`
}

// Snapshot is the parsed response of a single fetch. It lives for one
// fetch/render cycle and is never stored.
type Snapshot struct {
	Location Location `json:"location"`
	Timezone string   `json:"timezone"`

	// Daily and Hourly are ordered by time ascending.
	Daily  []DailyRecord  `json:"daily"`
	Hourly []HourlyRecord `json:"hourly"`
}

// Empty reports whether the snapshot carries no data at all.
func (s Snapshot) Empty() bool {
	return len(s.Daily) == 0 && len(s.Hourly) == 0
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}
