// Package format turns timestamps and readings into the strings shown on
// the dashboard.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "es-ES"

// Placeholders rendered when a value is unavailable.
const (
	NoValue       = "N/D"
	NoRange       = "Max -- • Min --"
	NoClock       = "--:--"
	NoDayTemp     = "--°C"
	NoPeak        = "—"
	NoData        = "Datos no disponibles"
	isoDateLayout = "2006-01-02"
)

var knownLocales = func() map[monday.Locale]bool {
	m := make(map[monday.Locale]bool)
	for _, l := range monday.ListLocales() {
		m[l] = true
	}
	return m
}()

// ISODate formats t as YYYY-MM-DD in t's location.
func ISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// HourLabel formats t as "<hour>:00" without zero padding.
func HourLabel(t time.Time) string {
	return fmt.Sprintf("%d:00", t.Hour())
}

// WeekdayShort returns the abbreviated weekday of t in locale.
// Unknown locales fall back to English.
func WeekdayShort(t time.Time, locale string) string {
	return monday.Format(t, "Mon", Locale(locale))
}

// Locale maps a BCP 47 tag such as "es-ES" (or a bare language such as
// "fr") to a monday locale, defaulting to en_US.
func Locale(tag string) monday.Locale {
	tag = strings.TrimSpace(tag)
	lang, region, _ := strings.Cut(strings.ReplaceAll(tag, "-", "_"), "_")
	lang = strings.ToLower(lang)
	if region == "" {
		region = lang
	}
	if l := monday.Locale(lang + "_" + strings.ToUpper(region)); knownLocales[l] {
		return l
	}
	return monday.LocaleEnUS
}

// WeekdayWithDate returns "<weekday> DD/MM".
func WeekdayWithDate(t time.Time, locale string) string {
	return fmt.Sprintf("%s %02d/%02d", WeekdayShort(t, locale), t.Day(), int(t.Month()))
}

// Clock returns t as a two-digit 24h "HH:MM".
func Clock(t time.Time) string {
	return t.Format("15:04")
}

// Number prints v with the shortest representation that round-trips,
// so 20 prints as "20" and 21.3 as "21.3".
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Celsius prints v followed by "°C".
func Celsius(v float64) string {
	return Number(v) + "°C"
}

// Coordinates renders the location badge text.
func Coordinates(lat, lon float64) string {
	return fmt.Sprintf("Lat %.2f, Lon %.2f", lat, lon)
}

// PeakNote renders the peak temperature note.
func PeakNote(temp float64, hour string) string {
	return fmt.Sprintf("Pico: %s a las %s", Celsius(temp), hour)
}

// TempRange renders the today min/max line.
func TempRange(max, min float64) string {
	return fmt.Sprintf("Max %s • Min %s", Celsius(max), Celsius(min))
}
