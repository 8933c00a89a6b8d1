package state

import "image/color"

// Projection is everything a view needs to draw one layer.
type Projection struct {
	Key      string
	Kind     Kind
	X, Y     float64 // pixels from the canvas origin
	Text     string
	FontSize float64
	Color    color.NRGBA
	Source   string
	Scale    float64
	Selected bool
}

// Project maps a layer onto canvas pixels. Out-of-range values are clamped
// here as well, so a bad payload can never push a layer off the canvas.
func Project(l Layer, selected bool, c Canvas) Projection {
	p := Projection{
		Key:      l.Key(),
		Kind:     l.Kind,
		X:        PercentToPixel(l.X, c.Width),
		Y:        PercentToPixel(l.Y, c.Height),
		Selected: selected,
	}
	switch l.Kind {
	case KindText:
		p.Text = l.Content
		p.FontSize = float64(ClampFontSize(l.FontSize))
		p.Color = ParseHexColor(l.Color)
	case KindImage:
		p.Source = l.Content
		p.Scale = ClampScale(l.Scale)
	}
	return p
}

// Projections projects every layer in paint order.
func (e *Editor) Projections() []Projection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Projection, 0, len(e.layers))
	for _, l := range e.layers {
		out = append(out, Project(*l, l.Key() == e.selected, e.canvas))
	}
	return out
}

// Projection projects a single layer.
func (e *Editor) Projection(key string) (Projection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.index[key]
	if !ok {
		return Projection{}, false
	}
	return Project(*l, key == e.selected, e.canvas), true
}

// Panel describes the property panel for the current selection: the
// selected layer's values and which fields accept input.
type Panel struct {
	Layer    Layer
	Has      bool
	Content  bool
	Kind     bool
	Position bool
	FontSize bool
	Color    bool
	Scale    bool
}

// PanelFor builds the panel state. With no layer every field is disabled.
func PanelFor(l Layer, ok bool) Panel {
	if !ok {
		return Panel{}
	}
	return Panel{
		Layer:    l,
		Has:      true,
		Content:  true,
		Kind:     true,
		Position: true,
		FontSize: l.Kind == KindText,
		Color:    l.Kind == KindText,
		Scale:    l.Kind == KindImage,
	}
}

// Panel returns the panel state for the current selection.
func (e *Editor) Panel() Panel {
	return PanelFor(e.Selected())
}
