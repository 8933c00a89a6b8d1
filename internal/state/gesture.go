package state

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Handle is a corner grip used to resize a layer.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
)

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTopRight:
		return "top-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleBottomRight:
		return "bottom-right"
	}
	return "unknown"
}

func (h Handle) right() bool  { return h == HandleTopRight || h == HandleBottomRight }
func (h Handle) bottom() bool { return h == HandleBottomLeft || h == HandleBottomRight }

const (
	MinResizeFactor = 0.5
	MaxResizeFactor = 3.0

	// ImageBaseSize is the edge length of an image layer at scale 1.
	ImageBaseSize = 120.0
)

// Factor turns the total pointer delta of a gesture into a size multiplier.
// Right handles grow when dragged right and left handles when dragged left;
// bottom handles grow downwards and top handles upwards. The axis that moved
// the box more wins.
func (h Handle) Factor(dx, dy float64, box Size) float64 {
	sx, sy := -1.0, -1.0
	if h.right() {
		sx = 1
	}
	if h.bottom() {
		sy = 1
	}

	fw, fh := 1.0, 1.0
	if box.W > 0 {
		fw = (box.W + sx*dx) / box.W
	}
	if box.H > 0 {
		fh = (box.H + sy*dy) / box.H
	}
	factor := fh
	if math.Abs(fw-1) >= math.Abs(fh-1) {
		factor = fw
	}
	return clampFloat(factor, MinResizeFactor, MaxResizeFactor)
}

type gestureKind int

const (
	gestureDrag gestureKind = iota + 1
	gestureResize
)

type gesture struct {
	kind    gestureKind
	key     string
	pointer int

	// drag
	offset Point

	// resize
	handle     Handle
	start      Point
	box        Size
	startFont  int
	startScale float64
}

// EstimateBox approximates the on-canvas size of a layer.
func EstimateBox(l Layer) Size {
	if l.Kind == KindImage {
		side := ImageBaseSize * ClampScale(l.Scale)
		return Size{W: side, H: side}
	}
	fs := float64(ClampFontSize(l.FontSize))
	w := float64(utf8.RuneCountInString(l.Content)) * fs * 0.6
	return Size{W: math.Max(w, 40), H: fs * 1.4}
}

// Dragging reports whether a drag is active.
func (e *Editor) Dragging() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gesture != nil && e.gesture.kind == gestureDrag
}

// Resizing reports whether a resize is active.
func (e *Editor) Resizing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gesture != nil && e.gesture.kind == gestureResize
}

// BeginDrag starts moving a layer with the given pointer.
func (e *Editor) BeginDrag(key string, pointer int, at Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}
	l, ok := e.index[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, key)
	}
	c := e.canvas
	e.gesture = &gesture{
		kind:    gestureDrag,
		key:     key,
		pointer: pointer,
		offset: Point{
			X: at.X - c.Origin.X - PercentToPixel(l.X, c.Width),
			Y: at.Y - c.Origin.Y - PercentToPixel(l.Y, c.Height),
		},
	}
	return nil
}

// UpdateDrag moves the dragged layer. Events from other pointers, or
// without an active drag, are ignored and return false.
func (e *Editor) UpdateDrag(pointer int, at Point) bool {
	var ev events
	e.mu.Lock()
	g := e.gesture
	if g == nil || g.kind != gestureDrag || g.pointer != pointer {
		e.mu.Unlock()
		return false
	}
	l, ok := e.index[g.key]
	if !ok {
		e.gesture = nil
		e.mu.Unlock()
		return false
	}

	c := e.canvas
	px := clampFloat(at.X-g.offset.X-c.Origin.X, 0, c.Width)
	py := clampFloat(at.Y-g.offset.Y-c.Origin.Y, 0, c.Height)
	l.X = PixelToPercent(px, c.Width)
	l.Y = PixelToPercent(py, c.Height)
	ev = append(ev, e.layerEvent(g.key))
	e.setDirty(&ev)
	e.mu.Unlock()

	ev.fire()
	return true
}

// EndDrag releases the drag held by pointer.
func (e *Editor) EndDrag(pointer int) bool {
	return e.endGesture(gestureDrag, pointer)
}

// BeginResize starts scaling a layer from one of its corner handles. box is
// the layer's rendered size; a zero box falls back to EstimateBox.
func (e *Editor) BeginResize(key string, handle Handle, pointer int, at Point, box Size) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}
	l, ok := e.index[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, key)
	}
	if box.W <= 0 || box.H <= 0 {
		box = EstimateBox(*l)
	}
	e.gesture = &gesture{
		kind:       gestureResize,
		key:        key,
		pointer:    pointer,
		handle:     handle,
		start:      at,
		box:        box,
		startFont:  l.FontSize,
		startScale: l.Scale,
	}
	return nil
}

// UpdateResize rescales the layer from the gesture's total delta. The
// factor is applied to the values captured at BeginResize, so repeated
// moves never compound.
func (e *Editor) UpdateResize(pointer int, at Point) bool {
	var ev events
	e.mu.Lock()
	g := e.gesture
	if g == nil || g.kind != gestureResize || g.pointer != pointer {
		e.mu.Unlock()
		return false
	}
	l, ok := e.index[g.key]
	if !ok {
		e.gesture = nil
		e.mu.Unlock()
		return false
	}

	factor := g.handle.Factor(at.X-g.start.X, at.Y-g.start.Y, g.box)
	switch l.Kind {
	case KindText:
		l.FontSize = ClampFontSize(int(math.Round(float64(g.startFont) * factor)))
	case KindImage:
		l.Scale = ClampScale(g.startScale * factor)
	}
	ev = append(ev, e.layerEvent(g.key))
	e.setDirty(&ev)
	e.mu.Unlock()

	ev.fire()
	return true
}

// EndResize releases the resize held by pointer.
func (e *Editor) EndResize(pointer int) bool {
	return e.endGesture(gestureResize, pointer)
}

func (e *Editor) endGesture(kind gestureKind, pointer int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture == nil || e.gesture.kind != kind || e.gesture.pointer != pointer {
		return false
	}
	e.gesture = nil
	return true
}
