package ui

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"

	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

const handleSize float32 = 10

var (
	surfaceColor   = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	selectionColor = color.NRGBA{R: 0x2f, G: 0x80, B: 0xed, A: 0xff}
	frameColor     = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// ImageLoader fetches and decodes an image source (URL or data: URL).
type ImageLoader interface {
	FetchImage(ctx context.Context, src string) (image.Image, error)
}

// layerNode is the drawn form of one layer. Nodes are keyed by layer key
// and updated in place, so a layer is never drawn twice.
type layerNode struct {
	key    string
	kind   state.Kind
	text   *canvas.Text
	image  *canvas.Image
	frame  *canvas.Rectangle
	source string
	pos    fyne.Position
	size   fyne.Size
}

func (n *layerNode) objects() []fyne.CanvasObject {
	if n.kind == state.KindText {
		return []fyne.CanvasObject{n.text}
	}
	return []fyne.CanvasObject{n.frame, n.image}
}

func (n *layerNode) contains(p fyne.Position) bool {
	return p.X >= n.pos.X && p.X <= n.pos.X+n.size.Width &&
		p.Y >= n.pos.Y && p.Y <= n.pos.Y+n.size.Height
}

func (n *layerNode) place() {
	switch n.kind {
	case state.KindText:
		n.text.Move(n.pos)
	case state.KindImage:
		n.frame.Move(n.pos)
		n.frame.Resize(n.size)
		n.image.Move(n.pos)
		n.image.Resize(n.size)
	}
}

// BoardWidget draws the template canvas and turns mouse input into editor
// gestures. It never changes layer state itself.
type BoardWidget struct {
	widget.BaseWidget
	editor *state.Editor
	loader ImageLoader

	mu        sync.RWMutex
	nodes     map[string]*layerNode
	order     []string
	images    map[string]image.Image
	requested map[string]bool

	surface       *canvas.Rectangle
	background    *canvas.Image
	backgroundSrc string
	outline       *canvas.Rectangle
	handles       [4]*canvas.Rectangle

	pointer int
	active  bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget creates a board over editor. loader may be nil, in which
// case image layers are drawn as frames only.
func NewBoardWidget(editor *state.Editor, loader ImageLoader) *BoardWidget {
	b := &BoardWidget{
		editor:    editor,
		loader:    loader,
		nodes:     make(map[string]*layerNode),
		images:    make(map[string]image.Image),
		requested: make(map[string]bool),
		surface:   canvas.NewRectangle(surfaceColor),
	}

	b.background = canvas.NewImageFromImage(nil)
	b.background.FillMode = canvas.ImageFillStretch
	b.background.Hide()

	b.outline = canvas.NewRectangle(color.Transparent)
	b.outline.StrokeColor = selectionColor
	b.outline.StrokeWidth = 1
	for i := range b.handles {
		h := canvas.NewRectangle(color.White)
		h.StrokeColor = selectionColor
		h.StrokeWidth = 1
		h.Resize(fyne.NewSize(handleSize, handleSize))
		b.handles[i] = h
	}

	b.ExtendBaseWidget(b)
	return b
}

// NodeCount is the number of drawn layers.
func (b *BoardWidget) NodeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes)
}

func (b *BoardWidget) origin() fyne.Position {
	o := b.editor.Canvas().Origin
	return fyne.NewPos(float32(o.X), float32(o.Y))
}

// Reconcile brings the drawn nodes in line with the editor: existing nodes
// are updated, missing ones created and stale ones dropped.
func (b *BoardWidget) Reconcile() {
	projections := b.editor.Projections()
	origin := b.origin()

	b.mu.Lock()
	seen := make(map[string]bool, len(projections))
	order := make([]string, 0, len(projections))
	for _, p := range projections {
		n, ok := b.nodes[p.Key]
		if !ok || n.kind != p.Kind {
			n = newLayerNode(p)
			b.nodes[p.Key] = n
		}
		b.updateNodeLocked(n, p, origin)
		seen[p.Key] = true
		order = append(order, p.Key)
	}
	for key := range b.nodes {
		if !seen[key] {
			delete(b.nodes, key)
		}
	}
	b.order = order
	b.mu.Unlock()

	b.Refresh()
}

// RefreshLayer redraws one layer. Unknown or removed keys fall back to a
// full reconcile.
func (b *BoardWidget) RefreshLayer(key string) {
	p, ok := b.editor.Projection(key)
	b.mu.Lock()
	n, drawn := b.nodes[key]
	if !ok || !drawn || n.kind != p.Kind {
		b.mu.Unlock()
		b.Reconcile()
		return
	}
	b.updateNodeLocked(n, p, b.origin())
	b.mu.Unlock()

	b.Refresh()
}

// SetBackground shows src behind the layers.
func (b *BoardWidget) SetBackground(src string) {
	b.mu.Lock()
	if src == b.backgroundSrc {
		b.mu.Unlock()
		return
	}
	b.backgroundSrc = src
	img := b.images[src]
	b.mu.Unlock()

	b.applyBackground(img)
	if img == nil && src != "" {
		b.fetch(src, func(image.Image) {
			b.mu.RLock()
			current := b.backgroundSrc == src
			img := b.images[src]
			b.mu.RUnlock()
			if current {
				b.applyBackground(img)
			}
		})
	}
}

func (b *BoardWidget) applyBackground(img image.Image) {
	b.background.Image = img
	if img == nil {
		b.background.Hide()
	} else {
		b.background.Show()
	}
	b.background.Refresh()
}

func newLayerNode(p state.Projection) *layerNode {
	n := &layerNode{key: p.Key, kind: p.Kind}
	switch p.Kind {
	case state.KindText:
		n.text = canvas.NewText("", p.Color)
	case state.KindImage:
		n.frame = canvas.NewRectangle(color.Transparent)
		n.frame.StrokeColor = frameColor
		n.frame.StrokeWidth = 1
		n.image = canvas.NewImageFromImage(nil)
		n.image.FillMode = canvas.ImageFillContain
		n.image.Hide()
	}
	return n
}

// updateNodeLocked copies a projection onto a node. b.mu must be held.
func (b *BoardWidget) updateNodeLocked(n *layerNode, p state.Projection, origin fyne.Position) {
	n.pos = origin.Add(fyne.NewPos(float32(p.X), float32(p.Y)))
	switch p.Kind {
	case state.KindText:
		n.text.Text = p.Text
		n.text.TextSize = float32(p.FontSize)
		n.text.Color = p.Color
		n.size = n.text.MinSize()
		n.text.Refresh()
	case state.KindImage:
		side := float32(state.ImageBaseSize * p.Scale)
		n.size = fyne.NewSize(side, side)
		if n.source != p.Source || n.image.Image == nil {
			n.source = p.Source
			img := b.images[p.Source]
			n.image.Image = img
			if img == nil {
				n.image.Hide()
				n.frame.Show()
				// several layers may share a source, so refresh them all
				b.fetchLocked(p.Source, func(image.Image) { b.Reconcile() })
			} else {
				n.image.Show()
				n.frame.Hide()
			}
			n.image.Refresh()
		}
	}
	n.place()
}

func (b *BoardWidget) fetch(src string, done func(image.Image)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetchLocked(src, done)
}

// fetchLocked downloads src once per board; failed sources are not retried
// until Forget. done runs on the UI goroutine after the image is cached.
func (b *BoardWidget) fetchLocked(src string, done func(image.Image)) {
	if b.loader == nil || src == "" || b.requested[src] {
		return
	}
	b.requested[src] = true
	go func() {
		img, err := b.loader.FetchImage(context.Background(), src)
		if err != nil {
			logrus.WithError(err).WithField("src", truncate(src, 80)).Warn("failed to load image")
		}
		fyne.Do(func() {
			if img == nil {
				return
			}
			b.mu.Lock()
			b.images[src] = img
			b.mu.Unlock()
			done(img)
		})
	}()
}

// Forget drops cached images so the next reconcile downloads them again.
func (b *BoardWidget) Forget() {
	b.mu.Lock()
	b.images = make(map[string]image.Image)
	b.requested = make(map[string]bool)
	b.mu.Unlock()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// layerAt returns the topmost layer under p.
func (b *BoardWidget) layerAt(p fyne.Position) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := len(b.order) - 1; i >= 0; i-- {
		if n := b.nodes[b.order[i]]; n != nil && n.contains(p) {
			return n.key, true
		}
	}
	return "", false
}

func corners(pos fyne.Position, size fyne.Size) [4]fyne.Position {
	return [4]fyne.Position{
		state.HandleTopLeft:     pos,
		state.HandleTopRight:    pos.Add(fyne.NewPos(size.Width, 0)),
		state.HandleBottomLeft:  pos.Add(fyne.NewPos(0, size.Height)),
		state.HandleBottomRight: pos.Add(fyne.NewPos(size.Width, size.Height)),
	}
}

// handleAt hit-tests the resize handles of the selected layer.
func (b *BoardWidget) handleAt(p fyne.Position) (string, state.Handle, state.Size, bool) {
	key := b.editor.SelectedKey()
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[key]
	if key == "" || !ok {
		return "", 0, state.Size{}, false
	}
	for h, c := range corners(n.pos, n.size) {
		if math.Abs(float64(p.X-c.X)) <= float64(handleSize) && math.Abs(float64(p.Y-c.Y)) <= float64(handleSize) {
			box := state.Size{W: float64(n.size.Width), H: float64(n.size.Height)}
			return key, state.Handle(h), box, true
		}
	}
	return "", 0, state.Size{}, false
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

// MouseDown starts a resize when a handle of the selected layer is hit,
// otherwise selects and starts dragging the layer under the pointer.
// Pressing empty canvas clears the selection.
func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	pointer := int(e.Button)
	at := toPoint(e.Position)

	if key, h, box, ok := b.handleAt(e.Position); ok {
		if err := b.editor.BeginResize(key, h, pointer, at, box); err != nil {
			logrus.WithError(err).Debug("resize not started")
			return
		}
		b.pointer, b.active = pointer, true
		return
	}

	key, ok := b.layerAt(e.Position)
	if !ok {
		_ = b.editor.Select("")
		return
	}
	_ = b.editor.Select(key)
	if err := b.editor.BeginDrag(key, pointer, at); err != nil {
		logrus.WithError(err).Debug("drag not started")
		return
	}
	b.pointer, b.active = pointer, true
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if b.active && int(e.Button) == b.pointer {
		b.release()
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.active {
		return
	}
	at := toPoint(e.Position)
	if !b.editor.UpdateDrag(b.pointer, at) {
		b.editor.UpdateResize(b.pointer, at)
	}
}

func (b *BoardWidget) DragEnd() {
	if b.active {
		b.release()
	}
}

// Gesturing reports whether a drag or resize holds the pointer.
func (b *BoardWidget) Gesturing() bool {
	return b.active
}

func (b *BoardWidget) release() {
	if !b.editor.EndDrag(b.pointer) {
		b.editor.EndResize(b.pointer)
	}
	b.active = false
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board *BoardWidget
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	b := r.board
	selected := b.editor.SelectedKey()

	b.mu.RLock()
	defer b.mu.RUnlock()

	objects := []fyne.CanvasObject{b.surface, b.background}
	for _, key := range b.order {
		if n := b.nodes[key]; n != nil {
			objects = append(objects, n.objects()...)
		}
	}
	if n, ok := b.nodes[selected]; ok {
		objects = append(objects, b.outline)
		for h, c := range corners(n.pos, n.size) {
			b.handles[h].Move(c.SubtractXY(handleSize/2, handleSize/2))
			objects = append(objects, b.handles[h])
		}
		b.outline.Move(n.pos)
		b.outline.Resize(n.size)
	}
	return objects
}

// Layout centres the canvas in the widget and moves every node with it.
func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	b := r.board
	cv := b.editor.Canvas()
	cw, ch := float32(cv.Width), float32(cv.Height)
	ox := float32(math.Max(0, float64(size.Width-cw)/2))
	oy := float32(math.Max(0, float64(size.Height-ch)/2))
	b.editor.SetCanvasOrigin(state.Point{X: float64(ox), Y: float64(oy)})

	origin := fyne.NewPos(ox, oy)
	b.surface.Move(origin)
	b.surface.Resize(fyne.NewSize(cw, ch))
	b.background.Move(origin)
	b.background.Resize(fyne.NewSize(cw, ch))

	for _, p := range b.editor.Projections() {
		b.mu.RLock()
		n := b.nodes[p.Key]
		b.mu.RUnlock()
		if n != nil {
			n.pos = origin.Add(fyne.NewPos(float32(p.X), float32(p.Y)))
			n.place()
		}
	}
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	cv := r.board.editor.Canvas()
	return fyne.NewSize(float32(cv.Width), float32(cv.Height))
}

func (r *boardWidgetRenderer) Refresh() {
	r.Layout(r.board.Size())
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}
