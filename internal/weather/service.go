package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrEmptySnapshot is returned when the provider answered without any
// daily or hourly entries.
var ErrEmptySnapshot = errors.New("weather snapshot is empty")

// WindowDays is the length of the trailing window requested on every fetch.
const WindowDays = 7

// TrailingWeek returns the WindowDays calendar days ending on now's date,
// in now's location.
func TrailingWeek(now time.Time) DateRange {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return DateRange{
		Start: end.AddDate(0, 0, -(WindowDays - 1)),
		End:   end,
	}
}

// Service fetches the trailing-week snapshot for a location and, when a
// resolver is configured, the place name for it.
type Service struct {
	provider Provider
	resolver PlaceResolver
	now      func() time.Time
}

// NewService creates a new Service. resolver may be nil.
func NewService(provider Provider, resolver PlaceResolver) *Service {
	return &Service{
		provider: provider,
		resolver: resolver,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to compute the fetch window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// FetchWeek performs one fetch for the trailing week ending today. It
// returns the window it asked for so callers can match "today" against it.
// There is no retry: a failed fetch is reported once.
func (s *Service) FetchWeek(ctx context.Context, loc Location) (Snapshot, DateRange, error) {
	window := TrailingWeek(s.now())

	if s.provider == nil {
		return Snapshot{}, window, fmt.Errorf("no weather provider configured")
	}

	log.Printf("DEBUG: FetchWeek called for %s via %s", loc.Key(), s.provider.Name())

	snap, err := s.provider.Fetch(ctx, loc, window)
	if err != nil {
		return Snapshot{}, window, fmt.Errorf("%s fetch for %s: %w", s.provider.Name(), loc.Key(), err)
	}
	if snap.Empty() {
		return Snapshot{}, window, fmt.Errorf("%s fetch for %s: %w", s.provider.Name(), loc.Key(), ErrEmptySnapshot)
	}
	return snap, window, nil
}

// PlaceName resolves a display name for loc. It returns "" when no resolver
// is configured or resolution fails.
func (s *Service) PlaceName(ctx context.Context, loc Location) string {
	if s.resolver == nil {
		return ""
	}
	name, err := s.resolver.Resolve(ctx, loc)
	if err != nil {
		log.Printf("place lookup failed for %s: %v", loc.Key(), err)
		return ""
	}
	return name
}
