package store

import (
	"encoding/json"
	"errors"
	"log"
	"math"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// LocationKey is the key the current location is stored under.
const LocationKey = "weather_location"

var errInvalidLocation = errors.New("location is not a pair of finite numbers")

// locationCodec encodes the stored {"lat":..,"lon":..} document.
type locationCodec struct{}

func (locationCodec) encode(loc weather.Location) ([]byte, error) {
	if !loc.Valid() {
		return nil, errInvalidLocation
	}
	return json.Marshal(loc)
}

// decode accepts only documents whose lat and lon are both JSON numbers.
func (locationCodec) decode(raw []byte) (weather.Location, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return weather.Location{}, false
	}

	lat, ok := doc["lat"].(float64)
	if !ok {
		return weather.Location{}, false
	}
	lon, ok := doc["lon"].(float64)
	if !ok {
		return weather.Location{}, false
	}
	if math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return weather.Location{}, false
	}
	return weather.Location{Lat: lat, Lon: lon}, true
}

func logSaveFailure(err error) {
	log.Printf("store: ignoring location save failure: %v", err)
}
