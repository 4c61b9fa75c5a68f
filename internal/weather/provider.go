package weather

import (
	"context"
)

// Provider abstracts the weather data source (Open-Meteo in production).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location, window DateRange) (Snapshot, error)
}

// PlaceResolver turns coordinates into a human readable place name.
type PlaceResolver interface {
	Resolve(ctx context.Context, loc Location) (string, error)
}

// LocationStore is the contract for the durable "current location" record.
// Save is best-effort; Load reports false for anything that is not a
// valid stored pair.
type LocationStore interface {
	Save(loc Location)
	Load() (Location, bool)
}
