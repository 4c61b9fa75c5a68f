package dashboard

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/format"
	"github.com/i474232898/weather-dashboard/internal/modal"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrInvalidCoordinates is returned by Submit when lat or lon is not a
	// finite number.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrUnknownPreset is returned by SelectPreset for names outside the
	// preset list.
	ErrUnknownPreset = errors.New("unknown preset")
)

// State of the dashboard.
type State int

const (
	AwaitingLocation State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "awaiting_location"
}

// LocationSelected is broadcast after a location has been saved.
type LocationSelected struct {
	ID  string    `json:"id"`
	Lat float64   `json:"lat"`
	Lon float64   `json:"lon"`
	At  time.Time `json:"at"`
}

// Controller owns the current location and the dialog, and triggers the
// render pipeline.
type Controller struct {
	page     *view.Page
	modal    *modal.Controller
	store    weather.LocationStore
	pipeline *Pipeline

	mu      sync.RWMutex
	current weather.Location
	state   State
	subs    []func(LocationSelected)
}

// NewController wires a controller for page. def is the location used until
// one is loaded or chosen.
func NewController(page *view.Page, store weather.LocationStore, service *weather.Service, def weather.Location) *Controller {
	c := &Controller{
		page:    page,
		modal:   modal.New(page),
		store:   store,
		current: def,
	}
	c.pipeline = NewPipeline(service, page, c.Current)

	c.Subscribe(func(ev LocationSelected) {
		page.SetText(view.LocationBadge, format.Coordinates(ev.Lat, ev.Lon))
	})
	return c
}

// Current returns the current location.
func (c *Controller) Current() weather.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// State returns the dashboard state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Page returns the page the controller renders into.
func (c *Controller) Page() *view.Page {
	return c.page
}

// Modal returns the dialog controller.
func (c *Controller) Modal() *modal.Controller {
	return c.modal
}

// Pipeline returns the render pipeline.
func (c *Controller) Pipeline() *Pipeline {
	return c.pipeline
}

// Refresh re-renders the current location.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.pipeline.Refresh(ctx)
}

// Subscribe registers fn for LocationSelected events. Handlers run
// synchronously in registration order.
func (c *Controller) Subscribe(fn func(LocationSelected)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Start loads the saved location and renders it. Without one it asks for a
// location, or renders the default when the page has no dialog.
func (c *Controller) Start(ctx context.Context) {
	if c.UseSaved() {
		_ = c.pipeline.Refresh(ctx)
		return
	}

	if c.modal.Available() {
		c.modal.Open()
		return
	}

	log.Printf("dashboard: no saved location and no dialog, using default %s", c.Current().Key())
	c.setState(Ready)
	_ = c.pipeline.Refresh(ctx)
}

// UseSaved adopts the stored location as current. It reports false when
// nothing valid is stored.
func (c *Controller) UseSaved() bool {
	saved, ok := c.store.Load()
	if !ok {
		return false
	}
	c.setCurrent(saved)
	return true
}

// ChangeLocation reopens the dialog. The current data stays on screen.
func (c *Controller) ChangeLocation() {
	c.modal.Open()
}

// SelectPreset reflects a choice in the preset list: "custom" reveals the
// coordinate inputs, any other preset fills them.
func (c *Controller) SelectPreset(name string) error {
	c.page.SetValue(view.PresetSelect, name)
	if name == weather.CustomPreset {
		c.page.SetHidden(view.CustomInputs, false)
		return nil
	}

	c.page.SetHidden(view.CustomInputs, true)
	p, ok := weather.LookupPreset(name)
	if !ok {
		return ErrUnknownPreset
	}
	c.page.SetValue(view.LatInput, format.Number(p.Location.Lat))
	c.page.SetValue(view.LonInput, format.Number(p.Location.Lon))
	return nil
}

// Submit applies the dialog form. A known preset wins; otherwise lat and
// lon are parsed. Invalid coordinates leave the dialog open with focus on
// the latitude field.
func (c *Controller) Submit(ctx context.Context, preset, lat, lon string) error {
	if preset != "" {
		c.page.SetValue(view.PresetSelect, preset)
	}
	if preset == weather.CustomPreset {
		c.page.SetHidden(view.CustomInputs, false)
	}
	if preset != "" && preset != weather.CustomPreset {
		if p, ok := weather.LookupPreset(preset); ok {
			c.saveLocationAndClose(ctx, p.Location)
			return nil
		}
	}

	c.page.SetValue(view.LatInput, lat)
	c.page.SetValue(view.LonInput, lon)

	loc, err := ParseCoordinates(lat, lon)
	if err != nil {
		c.page.Focus(view.LatInput)
		c.page.SetAttr(view.LatInput, "aria-invalid", "true")
		return err
	}
	c.page.RemoveAttr(view.LatInput, "aria-invalid")
	c.saveLocationAndClose(ctx, loc)
	return nil
}

// UseDefault accepts the current location.
func (c *Controller) UseDefault(ctx context.Context) {
	c.saveLocationAndClose(ctx, c.Current())
}

// Dismiss handles the close button and the backdrop. Both accept the
// current location rather than cancel.
func (c *Controller) Dismiss(ctx context.Context) {
	c.saveLocationAndClose(ctx, c.Current())
}

// HandleKey forwards a key press to the dialog. Tab presses the trap does
// not consume move focus to the neighbouring control.
func (c *Controller) HandleKey(key string, shift bool) bool {
	if c.modal.HandleKey(key, shift) {
		return true
	}
	if key == modal.KeyTab && c.modal.IsOpen() {
		c.modal.Step(shift)
	}
	return false
}

func (c *Controller) saveLocationAndClose(ctx context.Context, loc weather.Location) {
	c.store.Save(loc)
	c.setCurrent(loc)
	c.dispatch(LocationSelected{
		ID:  uuid.NewString(),
		Lat: loc.Lat,
		Lon: loc.Lon,
		At:  time.Now().UTC(),
	})
	c.modal.Close()
	_ = c.pipeline.Refresh(ctx)
}

func (c *Controller) setCurrent(loc weather.Location) {
	c.mu.Lock()
	c.current = loc
	c.state = Ready
	c.mu.Unlock()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) dispatch(ev LocationSelected) {
	c.mu.RLock()
	subs := make([]func(LocationSelected), len(c.subs))
	copy(subs, c.subs)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// ParseCoordinates parses a latitude/longitude pair. Both must be finite
// decimal numbers.
func ParseCoordinates(lat, lon string) (weather.Location, error) {
	la, err := parseCoordinate(lat)
	if err != nil {
		return weather.Location{}, err
	}
	lo, err := parseCoordinate(lon)
	if err != nil {
		return weather.Location{}, err
	}
	return weather.Location{Lat: la, Lon: lo}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidCoordinates
	}
	return v, nil
}
