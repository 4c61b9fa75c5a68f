package providers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	errNoAddress    = errors.New("no address found for coordinates")
	errGeocoderBusy = errors.New("geocoder busy with another lookup")
)

// geocoderMu guards the package-level API key of the geocoder library. It is
// held for the whole lookup, and the library's HTTP client has no timeout,
// so lookups never queue on it.
var geocoderMu sync.Mutex

// GoogleGeocoder resolves coordinates to a place name through the Google
// Geocoding API.
type GoogleGeocoder struct {
	apiKey string
}

// NewGoogleGeocoder returns nil when apiKey is empty so callers can pass the
// result straight into weather.NewService.
func NewGoogleGeocoder(apiKey string) weather.PlaceResolver {
	if apiKey == "" {
		return nil
	}
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, loc weather.Location) (string, error) {
	type result struct {
		name string
		err  error
	}
	if !geocoderMu.TryLock() {
		return "", errGeocoderBusy
	}
	done := make(chan result, 1)

	go func() {
		geocoder.ApiKey = g.apiKey
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
		})
		geocoderMu.Unlock()

		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{name: placeName(addresses)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.name == "" {
			return "", errNoAddress
		}
		return r.name, nil
	}
}

// placeName prefers "City, Country" and falls back to the formatted address.
func placeName(addresses []geocoder.Address) string {
	for _, a := range addresses {
		parts := make([]string, 0, 2)
		if a.City != "" {
			parts = append(parts, a.City)
		}
		if a.Country != "" {
			parts = append(parts, a.Country)
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		if a.FormattedAddress != "" {
			return a.FormattedAddress
		}
	}
	return ""
}
