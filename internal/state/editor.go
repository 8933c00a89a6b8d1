package state

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownLayer  = errors.New("unknown layer")
	ErrInvalidValue  = errors.New("invalid value")
	ErrGestureActive = errors.New("another gesture is active")
	ErrSaveInFlight  = errors.New("save already in progress")
)

// Point is a pointer position in window pixels.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Canvas is the editing surface. Origin is where the canvas starts in
// pointer coordinates.
type Canvas struct {
	Width  float64
	Height float64
	Origin Point
}

// Status is the session's save state.
type Status struct {
	Dirty  bool
	Saving bool
}

// Property names accepted by UpdateProperty. They match the wire field names.
type Property string

const (
	PropContent  Property = "content"
	PropFontSize Property = "font_size"
	PropColor    Property = "color"
	PropKind     Property = "type"
	PropScale    Property = "scale"
	PropX        Property = "x"
	PropY        Property = "y"
)

// Editor holds the live layer set, the selection and the active gesture.
// Callbacks run after the editor lock is released.
type Editor struct {
	layers     []*Layer
	index      map[string]*Layer
	selected   string
	canvas     Canvas
	background string
	gesture    *gesture
	status     Status
	mu         sync.RWMutex

	OnLayer  func(key string)
	OnRemove func(key string)
	OnSelect func(key string)
	OnReset  func()
	OnStatus func(Status)
}

// NewEditor creates an empty editor over the given canvas.
func NewEditor(canvas Canvas) *Editor {
	return &Editor{
		layers: make([]*Layer, 0),
		index:  make(map[string]*Layer),
		canvas: canvas,
	}
}

type events []func()

func (ev events) fire() {
	for _, fn := range ev {
		fn()
	}
}

func (e *Editor) layerEvent(key string) func() {
	return func() {
		if e.OnLayer != nil {
			e.OnLayer(key)
		}
	}
}

func (e *Editor) selectEvent(key string) func() {
	return func() {
		if e.OnSelect != nil {
			e.OnSelect(key)
		}
	}
}

func (e *Editor) statusEvent(s Status) func() {
	return func() {
		if e.OnStatus != nil {
			e.OnStatus(s)
		}
	}
}

// setDirty must be called with the lock held.
func (e *Editor) setDirty(ev *events) {
	if e.status.Dirty {
		return
	}
	e.status.Dirty = true
	*ev = append(*ev, e.statusEvent(e.status))
}

// Layers returns copies of all layers in paint order.
func (e *Editor) Layers() []Layer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Layer, 0, len(e.layers))
	for _, l := range e.layers {
		out = append(out, *l)
	}
	return out
}

// Layer returns a copy of one layer.
func (e *Editor) Layer(key string) (Layer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.index[key]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// Len returns the number of layers.
func (e *Editor) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.layers)
}

// Canvas returns the current canvas geometry.
func (e *Editor) Canvas() Canvas {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.canvas
}

// SetCanvasOrigin moves the canvas in pointer coordinates.
func (e *Editor) SetCanvasOrigin(origin Point) {
	e.mu.Lock()
	e.canvas.Origin = origin
	e.mu.Unlock()
}

// Background returns the background image source, or "".
func (e *Editor) Background() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.background
}

// Status returns the dirty/saving flags.
func (e *Editor) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// SelectedKey returns the selected key, or "".
func (e *Editor) SelectedKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// Selected returns a copy of the selected layer.
func (e *Editor) Selected() (Layer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.index[e.selected]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// AddLayer creates a layer with default placement, selects it and marks
// the session dirty.
func (e *Editor) AddLayer(kind Kind, content string) (Layer, error) {
	if !kind.Valid() {
		return Layer{}, fmt.Errorf("%w: unknown layer type %q", ErrInvalidValue, kind)
	}

	var ev events
	e.mu.Lock()
	l := NewLayer(kind, content)
	e.layers = append(e.layers, l)
	e.index[l.Key()] = l
	e.selected = l.Key()
	ev = append(ev, e.layerEvent(l.Key()), e.selectEvent(l.Key()))
	e.setDirty(&ev)
	out := *l
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{"key": out.Key(), "kind": kind}).Debug("layer added")
	ev.fire()
	return out, nil
}

// RemoveLayer deletes a layer. Removing the selected layer clears the selection.
func (e *Editor) RemoveLayer(key string) error {
	var ev events
	e.mu.Lock()
	if _, ok := e.index[key]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownLayer, key)
	}
	delete(e.index, key)
	filtered := make([]*Layer, 0, len(e.layers))
	for _, l := range e.layers {
		if l.Key() != key {
			filtered = append(filtered, l)
		}
	}
	e.layers = filtered
	if e.gesture != nil && e.gesture.key == key {
		e.gesture = nil
	}
	ev = append(ev, func() {
		if e.OnRemove != nil {
			e.OnRemove(key)
		}
	})
	if e.selected == key {
		e.selected = ""
		ev = append(ev, e.selectEvent(""))
	}
	e.setDirty(&ev)
	e.mu.Unlock()

	ev.fire()
	return nil
}

// Select changes the selection. An empty key clears it. Selecting the
// already selected layer does nothing.
func (e *Editor) Select(key string) error {
	e.mu.Lock()
	if key != "" {
		if _, ok := e.index[key]; !ok {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownLayer, key)
		}
	}
	if e.selected == key {
		e.mu.Unlock()
		return nil
	}
	e.selected = key
	e.mu.Unlock()

	e.selectEvent(key)()
	return nil
}

// UpdateProperty applies one edit from the property panel. Values that do
// not parse leave the layer untouched and return ErrInvalidValue; numeric
// values are clamped like gesture updates.
func (e *Editor) UpdateProperty(key string, prop Property, value string) error {
	var ev events
	e.mu.Lock()
	l, ok := e.index[key]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownLayer, key)
	}

	if err := applyProperty(l, prop, value); err != nil {
		e.mu.Unlock()
		return err
	}
	ev = append(ev, e.layerEvent(key))
	if prop == PropKind && e.selected == key {
		// the panel has to re-enable fields for the new kind
		ev = append(ev, e.selectEvent(key))
	}
	e.setDirty(&ev)
	e.mu.Unlock()

	ev.fire()
	return nil
}

func parseFinite(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
	}
	return v, nil
}

func applyProperty(l *Layer, prop Property, value string) error {
	switch prop {
	case PropContent:
		l.Content = value
	case PropKind:
		kind, err := ParseKind(value)
		if err != nil {
			return err
		}
		l.SetKind(kind)
	case PropX, PropY:
		v, err := parseFinite(value)
		if err != nil {
			return err
		}
		if prop == PropX {
			l.X = ClampPercent(v)
		} else {
			l.Y = ClampPercent(v)
		}
	case PropFontSize:
		if l.Kind != KindText {
			return fmt.Errorf("%w: font size on %s layer", ErrInvalidValue, l.Kind)
		}
		v, err := parseFinite(value)
		if err != nil {
			return err
		}
		l.FontSize = ClampFontSize(int(math.Round(v)))
	case PropColor:
		if l.Kind != KindText {
			return fmt.Errorf("%w: color on %s layer", ErrInvalidValue, l.Kind)
		}
		if !ValidHexColor(value) {
			return fmt.Errorf("%w: %q is not a hex color", ErrInvalidValue, value)
		}
		l.Color = strings.ToLower(strings.TrimSpace(value))
	case PropScale:
		if l.Kind != KindImage {
			return fmt.Errorf("%w: scale on %s layer", ErrInvalidValue, l.Kind)
		}
		v, err := parseFinite(value)
		if err != nil {
			return err
		}
		l.Scale = ClampScale(v)
	default:
		return fmt.Errorf("%w: unknown property %q", ErrInvalidValue, prop)
	}
	return nil
}

// Replace swaps the whole layer set, e.g. after a load. The selection is
// cleared, any gesture is dropped and the session becomes clean.
func (e *Editor) Replace(layers []*Layer, background string, canvas Canvas) {
	e.mu.Lock()
	canvas.Origin = e.canvas.Origin
	e.canvas = canvas
	e.background = background
	e.replaceLocked(layers, false)
	e.status.Dirty = false
	status := e.status
	e.mu.Unlock()

	e.resetEvents(status).fire()
}

func (e *Editor) resetEvents(status Status) events {
	return events{
		func() {
			if e.OnReset != nil {
				e.OnReset()
			}
		},
		e.selectEvent(e.SelectedKey()),
		e.statusEvent(status),
	}
}

// replaceLocked installs layers. With keepSelection the layer at the same
// position as the old selection stays selected, since saving can turn a
// local identity into a persisted one.
func (e *Editor) replaceLocked(layers []*Layer, keepSelection bool) {
	selIdx := -1
	if keepSelection {
		for i, l := range e.layers {
			if l.Key() == e.selected {
				selIdx = i
				break
			}
		}
	}

	e.layers = make([]*Layer, 0, len(layers))
	e.index = make(map[string]*Layer, len(layers))
	for _, l := range layers {
		if _, dup := e.index[l.Key()]; dup {
			// two elements with the same server id; keep the keys unique
			l.ID = Local()
		}
		e.layers = append(e.layers, l)
		e.index[l.Key()] = l
	}

	e.selected = ""
	if selIdx >= 0 && selIdx < len(e.layers) {
		e.selected = e.layers[selIdx].Key()
	}
	e.gesture = nil
}

// BeginSave flips the session into saving and returns the payload to send.
func (e *Editor) BeginSave() (SavePayload, error) {
	e.mu.Lock()
	if e.status.Saving {
		e.mu.Unlock()
		return SavePayload{}, ErrSaveInFlight
	}
	e.status.Saving = true
	payload := NewSavePayload(e.layers)
	status := e.status
	e.mu.Unlock()

	e.statusEvent(status)()
	return payload, nil
}

// FinishSave ends a save. A nil doc means the save failed and only the
// saving flag is cleared.
func (e *Editor) FinishSave(doc *Document) {
	e.mu.Lock()
	e.status.Saving = false
	if doc == nil {
		status := e.status
		e.mu.Unlock()
		e.statusEvent(status)()
		return
	}
	e.replaceLocked(doc.Layers(), true)
	if doc.Background.Valid {
		e.background = doc.Background.ValueOrZero()
	}
	e.status.Dirty = false
	status := e.status
	e.mu.Unlock()

	e.resetEvents(status).fire()
}

// Payload serializes the current set without touching the status.
func (e *Editor) Payload() SavePayload {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return NewSavePayload(e.layers)
}
