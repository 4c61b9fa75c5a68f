package httpapi

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/format"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

const (
	defaultChartWidth  = 800
	defaultChartHeight = 300
)

// RegisterRoutes wires the HTTP handlers into the Fiber app. fetchTimeout
// bounds every refresh a request triggers.
func RegisterRoutes(app *fiber.App, ctl *dashboard.Controller, fetchTimeout time.Duration) {
	h := &handlers{ctl: ctl, timeout: fetchTimeout}

	app.Get("/", h.page)
	app.Get("/charts/:kind.svg", h.chart)

	v1 := app.Group("/api/v1")
	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(h.state())
	})
	v1.Get("/presets", func(c *fiber.Ctx) error {
		return c.JSON(weather.Presets())
	})

	v1.Post("/location", h.submitLocation)
	v1.Post("/location/default", func(c *fiber.Ctx) error {
		ctx, cancel := h.refreshContext(c)
		defer cancel()
		ctl.UseDefault(ctx)
		return h.respond(c, nil)
	})

	v1.Post("/modal/open", func(c *fiber.Ctx) error {
		ctl.ChangeLocation()
		return h.respond(c, nil)
	})
	dismiss := func(c *fiber.Ctx) error {
		ctx, cancel := h.refreshContext(c)
		defer cancel()
		ctl.Dismiss(ctx)
		return h.respond(c, nil)
	}
	v1.Post("/modal/close", dismiss)
	v1.Post("/modal/backdrop", dismiss)
	v1.Post("/modal/preset", h.selectPreset)
	v1.Post("/modal/key", h.key)

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := h.refreshContext(c)
		defer cancel()
		if err := ctl.Refresh(ctx); err != nil {
			return h.respond(c, fiber.NewError(fiber.StatusBadGateway, "weather refresh failed"))
		}
		return h.respond(c, nil)
	})
}

type handlers struct {
	ctl     *dashboard.Controller
	timeout time.Duration
}

// locationRequest is the dialog form. Lat and Lon stay strings so that
// unparseable input reaches the controller and is flagged on the page.
type locationRequest struct {
	Preset string `json:"preset" form:"preset" validate:"omitempty,max=32,alphanum"`
	Lat    string `json:"-" form:"lat" validate:"max=64"`
	Lon    string `json:"-" form:"lon" validate:"max=64"`
}

type locationJSON struct {
	Preset string   `json:"preset"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}

type presetRequest struct {
	Preset string `json:"preset" form:"preset" validate:"required,max=32,alphanum"`
}

type keyRequest struct {
	Key   string `json:"key" form:"key" validate:"required,oneof=Tab Escape"`
	Shift bool   `json:"shift" form:"shift"`
}

type chartQuery struct {
	Width  int `query:"w" validate:"omitempty,min=100,max=2000"`
	Height int `query:"h" validate:"omitempty,min=100,max=2000"`
}

// dashboardResponse is the JSON form of the dashboard.
type dashboardResponse struct {
	Location    weather.Location `json:"location"`
	State       string           `json:"state"`
	Modal       string           `json:"modal"`
	LastRefresh *time.Time       `json:"lastRefresh,omitempty"`
	LastError   string           `json:"lastError,omitempty"`
	Page        view.State       `json:"page"`
}

func (h *handlers) state() dashboardResponse {
	resp := dashboardResponse{
		Location: h.ctl.Current(),
		State:    h.ctl.State().String(),
		Modal:    h.ctl.Modal().State().String(),
		Page:     h.ctl.Page().Snapshot(),
	}
	if at, err := h.ctl.Pipeline().LastRefresh(); !at.IsZero() {
		resp.LastRefresh = &at
		if err != nil {
			resp.LastError = err.Error()
		}
	}
	return resp
}

func (h *handlers) page(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := view.RenderHTML(&buf, h.ctl.Page()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render dashboard")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *handlers) chart(c *fiber.Ctx) error {
	kind, ok := view.ParseChartKind(c.Params("kind"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown chart")
	}

	var q chartQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Width == 0 {
		q.Width = defaultChartWidth
	}
	if q.Height == 0 {
		q.Height = defaultChartHeight
	}

	var buf bytes.Buffer
	if err := h.ctl.Page().Chart(kind).RenderSVG(&buf, q.Width, q.Height); err != nil {
		if errors.Is(err, view.ErrNoChart) {
			return fiber.NewError(fiber.StatusNotFound, "chart not available")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

func (h *handlers) submitLocation(c *fiber.Ctx) error {
	req, err := bindLocation(c)
	if err != nil {
		return h.respond(c, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	if err := validate.Struct(req); err != nil {
		return h.respond(c, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}

	ctx, cancel := h.refreshContext(c)
	defer cancel()

	if err := h.ctl.Submit(ctx, req.Preset, req.Lat, req.Lon); err != nil {
		if errors.Is(err, dashboard.ErrInvalidCoordinates) {
			return h.respond(c, fiber.NewError(fiber.StatusUnprocessableEntity, "latitude and longitude must be numbers"))
		}
		return h.respond(c, err)
	}
	return h.respond(c, nil)
}

func bindLocation(c *fiber.Ctx) (locationRequest, error) {
	if !c.Is("json") {
		var req locationRequest
		err := c.BodyParser(&req)
		return req, err
	}

	var body locationJSON
	if err := c.BodyParser(&body); err != nil {
		return locationRequest{}, err
	}
	req := locationRequest{Preset: body.Preset}
	if body.Lat != nil {
		req.Lat = format.Number(*body.Lat)
	}
	if body.Lon != nil {
		req.Lon = format.Number(*body.Lon)
	}
	return req, nil
}

func (h *handlers) selectPreset(c *fiber.Ctx) error {
	var req presetRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respond(c, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	if err := validate.Struct(req); err != nil {
		return h.respond(c, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	if err := h.ctl.SelectPreset(req.Preset); err != nil {
		if errors.Is(err, dashboard.ErrUnknownPreset) {
			return h.respond(c, fiber.NewError(fiber.StatusBadRequest, "unknown preset"))
		}
		return h.respond(c, err)
	}
	return h.respond(c, nil)
}

func (h *handlers) key(c *fiber.Ctx) error {
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	handled := h.ctl.HandleKey(req.Key, req.Shift)
	return c.JSON(fiber.Map{
		"handled":       handled,
		"activeElement": h.ctl.Page().ActiveElement(),
		"modal":         h.ctl.Modal().State().String(),
	})
}

// respond sends HTML form posts back to the page, whatever happened; the
// page itself shows the outcome. API callers get the dashboard or the error.
func (h *handlers) respond(c *fiber.Ctx, err error) error {
	if isFormPost(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if err != nil {
		return err
	}
	return c.JSON(h.state())
}

func (h *handlers) refreshContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func isFormPost(c *fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}
