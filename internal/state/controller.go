package state

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Store is the persistence API for one template.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, payload SavePayload) (Document, error)
}

// BackgroundSizer reports the natural pixel size of a background image.
type BackgroundSizer interface {
	BackgroundSize(ctx context.Context, src string) (width, height int, err error)
}

// Controller connects an Editor to its Store.
type Controller struct {
	editor   *Editor
	store    Store
	sizer    BackgroundSizer
	fallback Size
}

// NewController wires editor to store. sizer may be nil, in which case the
// canvas always uses fallback.
func NewController(editor *Editor, store Store, sizer BackgroundSizer, fallback Size) *Controller {
	return &Controller{
		editor:   editor,
		store:    store,
		sizer:    sizer,
		fallback: fallback,
	}
}

// Editor returns the controlled editor.
func (c *Controller) Editor() *Editor {
	return c.editor
}

// Load fetches the template and replaces the layer set. Failures are logged
// and returned; the editor keeps its previous state so the user can build a
// template from scratch.
func (c *Controller) Load(ctx context.Context) error {
	doc, err := c.store.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to load template")
		return err
	}

	background := doc.Background.ValueOrZero()
	canvas := Canvas{Width: c.fallback.W, Height: c.fallback.H}
	if background != "" && c.sizer != nil {
		w, h, err := c.sizer.BackgroundSize(ctx, background)
		if err != nil || w <= 0 || h <= 0 {
			logrus.WithError(err).WithField("background", background).Warn("background unavailable, using default canvas size")
		} else {
			canvas.Width, canvas.Height = float64(w), float64(h)
		}
	}

	layers := doc.Layers()
	c.editor.Replace(layers, background, canvas)
	logrus.WithFields(logrus.Fields{
		"layers": len(layers),
		"width":  canvas.Width,
		"height": canvas.Height,
	}).Info("template loaded")

	for _, w := range c.editor.Lint() {
		logrus.WithField("key", w.Key).Warn(w.Message)
	}
	return nil
}

// Save sends the full layer set. On success the server's answer becomes the
// layer set and the session is clean; on failure nothing but the saving
// flag changes. Concurrent calls return ErrSaveInFlight.
func (c *Controller) Save(ctx context.Context) error {
	payload, err := c.editor.BeginSave()
	if err != nil {
		return err
	}

	doc, err := c.store.Save(ctx, payload)
	if err != nil {
		c.editor.FinishSave(nil)
		logrus.WithError(err).Error("failed to save template")
		return err
	}

	c.editor.FinishSave(&doc)
	logrus.WithField("layers", len(doc.Elements)).Info("template saved")
	return nil
}
