package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/metrics"
	"github.com/i474232898/us-city-weather/internal/session"
	"github.com/i474232898/us-city-weather/internal/weather"
)

const sessionCookie = "session_id"

type handler struct {
	service  *weather.Service
	sessions *session.Store
	metrics  *metrics.Collector
	validate *validator.Validate
}

// RegisterRoutes wires the dashboard page and JSON API into the Fiber app.
// collector may be nil, in which case no metrics are recorded or exposed.
func RegisterRoutes(app *fiber.App, service *weather.Service, sessions *session.Store, collector *metrics.Collector) {
	h := &handler{
		service:  service,
		sessions: sessions,
		metrics:  collector,
		validate: newValidator(service),
	}

	if collector != nil {
		app.Use(h.recordRequest)
		app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	app.Get("/", h.dashboard)
	app.Post("/select", h.selectCity)

	v1 := app.Group("/api/v1")
	v1.Get("/cities", h.listCities)
	v1.Get("/weather", h.getWeather)
	v1.Post("/session/selection", h.postSelection)
}

// newValidator registers the "city" tag, which accepts registry city names.
func newValidator(service *weather.Service) *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("city", func(fl validator.FieldLevel) bool {
		return service.HasCity(fl.Field().String())
	})
	return v
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	City string `validate:"required,city"`
}

// selectionRequest is the body of a selection event, as JSON or a form post.
type selectionRequest struct {
	City string `json:"city" form:"city" validate:"required,city"`
}

func (h *handler) dashboard(c *fiber.Ctx) error {
	sess := h.session(c)
	view, err := h.service.Build(c.UserContext(), sess.Selected())
	return h.renderPage(c, view, err)
}

// selectCity is the form selection event. A rejected choice re-renders the
// current selection with an error box instead of a JSON error.
func (h *handler) selectCity(c *fiber.Ctx) error {
	sess := h.session(c)

	var req selectionRequest
	if err := c.BodyParser(&req); err != nil || h.validate.Struct(req) != nil {
		view, buildErr := h.service.Build(c.UserContext(), sess.Selected())
		page := newPage(view, buildErr)
		if buildErr == nil {
			page.Error = fmt.Sprintf("%q is not one of the available cities.", req.City)
		}
		c.Status(fiber.StatusBadRequest)
		return h.render(c, page)
	}

	view, err := h.service.Select(c.UserContext(), sess, req.City)
	return h.renderPage(c, view, err)
}

func (h *handler) listCities(c *fiber.Ctx) error {
	sess := h.session(c)
	return c.JSON(fiber.Map{
		"selected": sess.Selected(),
		"cities":   h.service.Cities(),
	})
}

func (h *handler) getWeather(c *fiber.Ctx) error {
	q := weatherQuery{City: c.Query("city")}
	if err := h.validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Build(c.UserContext(), q.City)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(view)
}

func (h *handler) postSelection(c *fiber.Ctx) error {
	sess := h.session(c)

	var req selectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Select(c.UserContext(), sess, req.City)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(view)
}

func (h *handler) renderPage(c *fiber.Ctx, view weather.View, err error) error {
	if errors.Is(err, cities.ErrCityNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "unknown city")
	}

	return h.render(c, newPage(view, err))
}

func (h *handler) render(c *fiber.Ctx, page pageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render dashboard")
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// session returns the caller's session, issuing a cookie for new ones.
func (h *handler) session(c *fiber.Ctx) *session.Session {
	sess, created := h.sessions.GetOrCreate(c.Cookies(sessionCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		if h.metrics != nil {
			h.metrics.SetActiveSessions(h.sessions.Len())
		}
	}
	return sess
}

func (h *handler) recordRequest(c *fiber.Ctx) error {
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}
	h.metrics.RecordAPIRequest(c.Route().Path, c.Method(), strconv.Itoa(status))
	return err
}

// apiError maps pipeline failures to HTTP errors.
func apiError(err error) error {
	var (
		fetchErr *weather.FetchError
		shapeErr *weather.ShapeError
	)
	switch {
	case errors.Is(err, cities.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unknown city")
	case errors.As(err, &fetchErr):
		return fiber.NewError(fiber.StatusBadGateway, "error fetching data: "+fetchErr.Err.Error())
	case errors.As(err, &shapeErr):
		return fiber.NewError(fiber.StatusBadGateway, "weather data is not available for this city")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
