// Package view holds the dashboard page model: the identifiable elements the
// render pipeline writes into, the modal's controls, focus, and the two chart
// canvases. Every element is optional; writes to absent elements are
// ignored.
package view

import (
	"sort"
	"sync"
)

// Element IDs of the dashboard contract.
const (
	Layout         = "layout"
	LocationBadge  = "location-badge"
	LocationName   = "location-name"
	MetricValue    = "metric-value"
	MetricRange    = "metric-range"
	Sunrise        = "sunrise"
	Sunset         = "sunset"
	TempNote       = "temp-note"
	Forecast       = "forecast"
	TempCanvas     = "tempTrend"
	PrecipCanvas   = "precipChart"
	ChangeLocation = "changeLocationBtn"

	Modal        = "locationModal"
	Backdrop     = "modal-backdrop"
	LocationForm = "locationForm"
	PresetSelect = "presetLocation"
	CustomInputs = "customInputs"
	LatInput     = "lat"
	LonInput     = "lon"
	UseDefault   = "useDefault"
	SubmitButton = "submitLocation"
	CloseButton  = "closeModalBtn"
)

// DefaultDaySlots is the number of forecast cards on the default page.
const DefaultDaySlots = 7

type elementKind int

const (
	kindContainer elementKind = iota
	kindText
	kindControl
	kindCanvas
)

type element struct {
	id       string
	kind     elementKind
	parent   string
	text     string
	value    string
	hidden   bool
	disabled bool
	attrs    map[string]string
}

// DaySlot is one forecast card.
type DaySlot struct {
	Name string `json:"name"`
	Temp string `json:"temp"`
}

// Page is the in-memory dashboard document. It is safe for concurrent use;
// concurrent writers are not ordered, the last write wins.
type Page struct {
	mu sync.RWMutex

	elements map[string]*element
	order    []string
	days     []DaySlot
	charts   map[ChartKind]*Chart
	active   string
	theme    Theme
	locale   string
}

// PageOption customizes NewPage.
type PageOption func(*pageConfig)

type pageConfig struct {
	omit     map[string]bool
	daySlots int
	theme    Theme
	locale   string
}

// WithoutElements builds the page without the given elements (and their
// children).
func WithoutElements(ids ...string) PageOption {
	return func(c *pageConfig) {
		for _, id := range ids {
			c.omit[id] = true
		}
	}
}

// WithDaySlots sets the number of forecast cards.
func WithDaySlots(n int) PageOption {
	return func(c *pageConfig) {
		if n >= 0 {
			c.daySlots = n
		}
	}
}

// WithTheme sets the chart colours.
func WithTheme(t Theme) PageOption {
	return func(c *pageConfig) { c.theme = t }
}

// WithLocale sets the locale used for weekday labels.
func WithLocale(locale string) PageOption {
	return func(c *pageConfig) {
		if locale != "" {
			c.locale = locale
		}
	}
}

// NewPage builds the standard dashboard document.
func NewPage(opts ...PageOption) *Page {
	cfg := pageConfig{
		omit:     map[string]bool{},
		daySlots: DefaultDaySlots,
		theme:    DefaultTheme(),
		locale:   "es-ES",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Page{
		elements: make(map[string]*element),
		charts:   make(map[ChartKind]*Chart),
		theme:    cfg.theme,
		locale:   cfg.locale,
	}

	// Document order matters for focus traversal.
	p.add(cfg, Layout, "", kindContainer, false)
	p.add(cfg, LocationBadge, Layout, kindText, false)
	p.add(cfg, LocationName, Layout, kindText, false)
	p.add(cfg, ChangeLocation, Layout, kindControl, false)
	p.add(cfg, MetricValue, Layout, kindText, false)
	p.add(cfg, MetricRange, Layout, kindText, false)
	p.add(cfg, Sunrise, Layout, kindText, false)
	p.add(cfg, Sunset, Layout, kindText, false)
	p.add(cfg, Forecast, Layout, kindContainer, false)
	p.add(cfg, TempCanvas, Layout, kindCanvas, false)
	p.add(cfg, TempNote, Layout, kindText, false)
	p.add(cfg, PrecipCanvas, Layout, kindCanvas, false)

	p.add(cfg, Backdrop, "", kindContainer, true)
	p.add(cfg, Modal, "", kindContainer, true)
	p.add(cfg, CloseButton, Modal, kindControl, false)
	p.add(cfg, LocationForm, Modal, kindContainer, false)
	p.add(cfg, PresetSelect, LocationForm, kindControl, false)
	p.add(cfg, CustomInputs, LocationForm, kindContainer, true)
	p.add(cfg, LatInput, CustomInputs, kindControl, false)
	p.add(cfg, LonInput, CustomInputs, kindControl, false)
	p.add(cfg, SubmitButton, LocationForm, kindControl, false)
	p.add(cfg, UseDefault, LocationForm, kindControl, false)

	if _, ok := p.elements[Forecast]; ok {
		p.days = make([]DaySlot, cfg.daySlots)
	}
	if _, ok := p.elements[PresetSelect]; ok {
		p.elements[PresetSelect].value = "montevideo"
	}
	return p
}

func (p *Page) add(cfg pageConfig, id, parent string, kind elementKind, hidden bool) {
	if cfg.omit[id] {
		return
	}
	if parent != "" {
		if _, ok := p.elements[parent]; !ok {
			return
		}
	}
	p.elements[id] = &element{
		id:     id,
		kind:   kind,
		parent: parent,
		hidden: hidden,
		attrs:  map[string]string{},
	}
	p.order = append(p.order, id)
}

// Exists reports whether the element is part of the page.
func (p *Page) Exists(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.elements[id]
	return ok
}

// SetText replaces the text content of id. It reports false when id is absent.
func (p *Page) SetText(id, text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return false
	}
	el.text = text
	return true
}

// Text returns the text content of id.
func (p *Page) Text(id string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	if !ok {
		return "", false
	}
	return el.text, true
}

// Value returns the current value of a form control.
func (p *Page) Value(id string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	if !ok {
		return "", false
	}
	return el.value, true
}

// SetValue sets the value of a form control.
func (p *Page) SetValue(id, value string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return false
	}
	el.value = value
	return true
}

// Hidden reports whether id carries the hidden flag itself.
func (p *Page) Hidden(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	return ok && el.hidden
}

// SetHidden toggles the hidden flag of id.
func (p *Page) SetHidden(id string, hidden bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		el.hidden = hidden
	}
}

// SetDisabled toggles the disabled flag of a control.
func (p *Page) SetDisabled(id string, disabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		el.disabled = disabled
	}
}

// Attr returns an attribute of id.
func (p *Page) Attr(id, name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	if !ok {
		return "", false
	}
	v, ok := el.attrs[name]
	return v, ok
}

// SetAttr sets an attribute on id.
func (p *Page) SetAttr(id, name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		el.attrs[name] = value
	}
}

// RemoveAttr removes an attribute from id.
func (p *Page) RemoveAttr(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		delete(el.attrs, name)
	}
}

// ActiveElement returns the focused element, "" for none.
func (p *Page) ActiveElement() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Focus moves focus to id when it is a visible, enabled control. It reports
// whether focus moved.
func (p *Page) Focus(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.focusable(id) {
		return false
	}
	p.active = id
	return true
}

// Blur clears focus.
func (p *Page) Blur() {
	p.mu.Lock()
	p.active = ""
	p.mu.Unlock()
}

// Focusables returns the visible, enabled controls inside container in
// document order.
func (p *Page) Focusables(container string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []string
	for _, id := range p.order {
		if id == container || !p.within(id, container) {
			continue
		}
		if p.focusable(id) {
			out = append(out, id)
		}
	}
	return out
}

func (p *Page) focusable(id string) bool {
	el, ok := p.elements[id]
	if !ok || el.kind != kindControl || el.disabled {
		return false
	}
	for cur := el; cur != nil; cur = p.elements[cur.parent] {
		if cur.hidden {
			return false
		}
		if cur.parent == "" {
			break
		}
	}
	return true
}

func (p *Page) within(id, container string) bool {
	for cur, ok := p.elements[id]; ok; cur, ok = p.elements[cur.parent] {
		if cur.parent == container {
			return true
		}
		if cur.parent == "" {
			return false
		}
	}
	return false
}

// DaySlots returns the number of forecast cards.
func (p *Page) DaySlots() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.days)
}

// SetDay fills forecast card i. It reports false when the slot is absent.
func (p *Page) SetDay(i int, name, temp string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.days) {
		return false
	}
	p.days[i] = DaySlot{Name: name, Temp: temp}
	return true
}

// Days returns a copy of the forecast cards.
func (p *Page) Days() []DaySlot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]DaySlot, len(p.days))
	copy(out, p.days)
	return out
}

// HasCanvas reports whether the canvas for kind exists.
func (p *Page) HasCanvas(kind ChartKind) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.elements[kind.canvas()]
	return ok
}

// MountChart attaches c to its canvas, replacing whatever was mounted. It
// reports false when the canvas is absent.
func (p *Page) MountChart(c *Chart) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elements[c.Kind.canvas()]; !ok {
		return false
	}
	p.charts[c.Kind] = c
	return true
}

// Chart returns the live chart mounted for kind, nil when none or destroyed.
func (p *Page) Chart(kind ChartKind) *Chart {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c := p.charts[kind]
	if c == nil || c.Destroyed() {
		return nil
	}
	return c
}

// Theme returns the page colours.
func (p *Page) Theme() Theme {
	return p.theme
}

// Locale returns the page locale.
func (p *Page) Locale() string {
	return p.locale
}

// ElementState is the serializable state of one element.
type ElementState struct {
	Text   string            `json:"text,omitempty"`
	Value  string            `json:"value,omitempty"`
	Hidden bool              `json:"hidden,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// State is a point-in-time copy of the page.
type State struct {
	Elements      map[string]ElementState `json:"elements"`
	Days          []DaySlot               `json:"days"`
	Charts        map[ChartKind]*Chart    `json:"charts"`
	ActiveElement string                  `json:"activeElement"`
}

// Snapshot copies the page state for rendering or serialization.
func (p *Page) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := State{
		Elements:      make(map[string]ElementState, len(p.elements)),
		Days:          make([]DaySlot, len(p.days)),
		Charts:        make(map[ChartKind]*Chart, len(p.charts)),
		ActiveElement: p.active,
	}
	for id, el := range p.elements {
		es := ElementState{Text: el.text, Value: el.value, Hidden: el.hidden}
		if len(el.attrs) > 0 {
			es.Attrs = make(map[string]string, len(el.attrs))
			for k, v := range el.attrs {
				es.Attrs[k] = v
			}
		}
		st.Elements[id] = es
	}
	copy(st.Days, p.days)
	for kind, c := range p.charts {
		if c != nil && !c.Destroyed() {
			st.Charts[kind] = c
		}
	}
	return st
}

// IDs returns the element IDs present on the page, sorted.
func (p *Page) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.elements))
	for id := range p.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
