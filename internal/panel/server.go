// Package panel is a small stand-in for the exchange panel's template API,
// used to edit templates offline and in tests.
package panel

import (
	"errors"
	"strconv"
	"time"

	"TemplateBoard/internal/state"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const TemplatePath = "/api/templates/:id/"

type Config struct {
	MediaDir   string
	CSRFCookie string
	CSRFHeader string
}

type handler struct {
	store      TemplateStore
	csrfCookie string
	csrfHeader string
}

// NewServer builds the fiber app serving the template API and media files.
func NewServer(store TemplateStore, cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TemplateBoard panel",
		ErrorHandler:          errorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(accessLog)

	h := &handler{store: store, csrfCookie: cfg.CSRFCookie, csrfHeader: cfg.CSRFHeader}
	if h.csrfCookie == "" {
		h.csrfCookie = "csrftoken"
	}
	if h.csrfHeader == "" {
		h.csrfHeader = "X-CSRFToken"
	}

	app.Get(TemplatePath, h.getTemplate)
	app.Put(TemplatePath, h.putTemplate)
	if cfg.MediaDir != "" {
		app.Static("/media", cfg.MediaDir)
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func accessLog(c *fiber.Ctx) error {
	started := time.Now()
	err := c.Next()
	logrus.WithFields(logrus.Fields{
		"method":      c.Method(),
		"path":        c.Path(),
		"status":      c.Response().StatusCode(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("panel request")
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Path()).Error("panel request failed")
	}
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}

func templateID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "template not found")
	}
	return id, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrTemplateNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

func (h *handler) getTemplate(c *fiber.Ctx) error {
	id, err := templateID(c)
	if err != nil {
		return err
	}
	doc, err := h.store.Get(id)
	if err != nil {
		return storeError(err)
	}
	if c.Cookies(h.csrfCookie) == "" {
		c.Cookie(&fiber.Cookie{Name: h.csrfCookie, Value: uuid.NewString(), Path: "/"})
	}
	return c.JSON(doc)
}

func (h *handler) putTemplate(c *fiber.Ctx) error {
	id, err := templateID(c)
	if err != nil {
		return err
	}

	token := c.Cookies(h.csrfCookie)
	if token == "" || c.Get(h.csrfHeader) != token {
		return fiber.NewError(fiber.StatusForbidden, "CSRF verification failed")
	}

	var payload state.SavePayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	elements := make([]state.Element, 0, len(payload.Elements))
	for i, el := range payload.Elements {
		layer, err := el.Layer()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "element "+strconv.Itoa(i)+": "+err.Error())
		}
		elements = append(elements, state.ElementFrom(layer))
	}

	doc, err := h.store.Put(id, elements)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(doc)
}
