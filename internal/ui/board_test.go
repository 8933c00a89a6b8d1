package ui

import (
	"testing"

	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
)

func newTestBoard(t *testing.T) (*state.Editor, *BoardWidget) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	e := state.NewEditor(state.Canvas{Width: 400, Height: 300})
	b := NewBoardWidget(e, nil)
	test.WidgetRenderer(b)
	b.Resize(fyne.NewSize(400, 300))
	return e, b
}

func press(b *BoardWidget, at fyne.Position) {
	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: at},
		Button:     desktop.MouseButtonPrimary,
	})
}

func drag(b *BoardWidget, to fyne.Position) {
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: to}})
}

func center(n *layerNode) fyne.Position {
	return n.pos.Add(fyne.NewPos(n.size.Width/2, n.size.Height/2))
}

func TestReconcileIsIdempotent(t *testing.T) {
	e, b := newTestBoard(t)
	first, _ := e.AddLayer(state.KindText, "USD")
	second, _ := e.AddLayer(state.KindImage, "")

	b.Reconcile()
	node := b.nodes[first.Key()]
	b.Reconcile()
	b.RefreshLayer(first.Key())
	b.RefreshLayer(first.Key())

	if got := b.NodeCount(); got != 2 {
		t.Fatalf("expected one node per layer, got %d", got)
	}
	if b.nodes[first.Key()] != node {
		t.Fatalf("node for %s was recreated", first.Key())
	}
	if got := len(b.order); got != 2 {
		t.Fatalf("order has %d entries", got)
	}

	if err := e.RemoveLayer(second.Key()); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	b.RefreshLayer(second.Key())
	if got := b.NodeCount(); got != 1 {
		t.Fatalf("stale node kept, %d nodes", got)
	}
}

func TestReconcileKindChangeSwapsNode(t *testing.T) {
	e, b := newTestBoard(t)
	l, _ := e.AddLayer(state.KindText, "USD")
	b.Reconcile()

	if err := e.UpdateProperty(l.Key(), state.PropKind, "image"); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}
	b.RefreshLayer(l.Key())

	n := b.nodes[l.Key()]
	if n == nil || n.kind != state.KindImage || n.image == nil {
		t.Fatalf("expected an image node, got %+v", n)
	}
	if b.NodeCount() != 1 {
		t.Fatalf("expected a single node, got %d", b.NodeCount())
	}
}

func TestBoardDragClampsToCanvas(t *testing.T) {
	e, b := newTestBoard(t)
	l, _ := e.AddLayer(state.KindText, "")
	_ = e.Select("")
	b.Reconcile()

	// unselected layers have no handles, so the press lands on the body
	press(b, center(b.nodes[l.Key()]))
	if !e.Dragging() || e.SelectedKey() != l.Key() {
		t.Fatalf("press on a layer should select it and start a drag")
	}
	drag(b, fyne.NewPos(1000, 1000))
	b.DragEnd()

	got, _ := e.Layer(l.Key())
	if got.X != 100 || got.Y != 100 {
		t.Fatalf("expected the layer clamped to 100/100, got %v/%v", got.X, got.Y)
	}
	if e.Dragging() {
		t.Fatalf("drag should have ended")
	}
}

func TestBoardHandleStartsResize(t *testing.T) {
	e, b := newTestBoard(t)
	l, _ := e.AddLayer(state.KindText, "")
	b.Reconcile()

	n := b.nodes[l.Key()]
	corner := n.pos.Add(fyne.NewPos(n.size.Width, n.size.Height))

	press(b, corner)
	if !e.Resizing() || e.Dragging() {
		t.Fatalf("handle press should resize, not drag")
	}
	// doubling the width of the box doubles the font size
	drag(b, corner.Add(fyne.NewPos(n.size.Width, 0)))
	b.MouseUp(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})

	got, _ := e.Layer(l.Key())
	if got.FontSize != 36 {
		t.Fatalf("expected font size 36, got %d", got.FontSize)
	}
	if e.Resizing() {
		t.Fatalf("resize should have ended")
	}
}

func TestBoardPressOnEmptyCanvasDeselects(t *testing.T) {
	e, b := newTestBoard(t)
	_, _ = e.AddLayer(state.KindText, "")
	b.Reconcile()

	press(b, fyne.NewPos(5, 5))
	if e.SelectedKey() != "" {
		t.Fatalf("selection should be cleared")
	}
	if e.Dragging() || e.Resizing() {
		t.Fatalf("no gesture expected")
	}
}

func contains(objects []fyne.CanvasObject, o fyne.CanvasObject) bool {
	for _, obj := range objects {
		if obj == o {
			return true
		}
	}
	return false
}

func TestSelectionOverlayFollowsSelection(t *testing.T) {
	e, b := newTestBoard(t)
	first, _ := e.AddLayer(state.KindText, "USD")
	second, _ := e.AddLayer(state.KindText, "EUR")
	_ = e.UpdateProperty(second.Key(), state.PropX, "80")
	_ = e.UpdateProperty(second.Key(), state.PropY, "80")
	b.Reconcile()

	r := test.WidgetRenderer(b)
	if err := e.Select(first.Key()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	objects := r.Objects()
	if !contains(objects, b.outline) {
		t.Fatalf("selected layer should be outlined")
	}
	n := b.nodes[first.Key()]
	other := b.nodes[second.Key()]
	for h, c := range corners(n.pos, n.size) {
		if !contains(objects, b.handles[h]) {
			t.Fatalf("handle %d missing for the selected layer", h)
		}
		want := c.SubtractXY(handleSize/2, handleSize/2)
		if b.handles[h].Position() != want {
			t.Fatalf("handle %d at %v, want %v", h, b.handles[h].Position(), want)
		}
	}
	if b.outline.Position() != n.pos || b.outline.Size() != n.size {
		t.Fatalf("outline does not match the selected layer")
	}
	// handles sit on the selected layer only
	for _, c := range corners(other.pos, other.size) {
		for h := range b.handles {
			if b.handles[h].Position() == c.SubtractXY(handleSize/2, handleSize/2) {
				t.Fatalf("handle %d sits on the unselected layer", h)
			}
		}
	}

	if err := e.Select(""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	objects = r.Objects()
	if contains(objects, b.outline) {
		t.Fatalf("outline still drawn after deselect")
	}
	for h := range b.handles {
		if contains(objects, b.handles[h]) {
			t.Fatalf("handle %d still drawn after deselect", h)
		}
	}
}

func TestEmptyPressHidesSelectionOverlay(t *testing.T) {
	e, b := newTestBoard(t)
	_, _ = e.AddLayer(state.KindText, "")
	b.Reconcile()

	r := test.WidgetRenderer(b)
	if !contains(r.Objects(), b.outline) {
		t.Fatalf("new layer should be selected and outlined")
	}
	press(b, fyne.NewPos(5, 5))
	objects := r.Objects()
	if contains(objects, b.outline) || contains(objects, b.handles[0]) {
		t.Fatalf("no layer should look selected after an empty press")
	}
}

func TestBoardIgnoresSecondaryButton(t *testing.T) {
	e, b := newTestBoard(t)
	l, _ := e.AddLayer(state.KindText, "")
	b.Reconcile()

	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: center(b.nodes[l.Key()])},
		Button:     desktop.MouseButtonSecondary,
	})
	if e.Dragging() {
		t.Fatalf("secondary button must not start a drag")
	}
}
