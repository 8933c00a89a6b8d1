package ui

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

var palette = []color.Color{
	color.White,
	color.Black,
	color.NRGBA{R: 255, A: 255},
	color.NRGBA{G: 200, A: 255},
	color.NRGBA{B: 255, A: 255},
	color.NRGBA{R: 255, G: 215, A: 255},
}

// PropertyPanel edits the selected layer. Every change goes through
// Editor.UpdateProperty; fields that do not apply to the layer's kind are
// disabled, and everything is disabled with nothing selected.
type PropertyPanel struct {
	editor  *state.Editor
	key     string
	syncing bool

	heading  *widget.Label
	content  *widget.Entry
	kind     *widget.Select
	x, y     *widget.Entry
	fontSize *widget.Entry
	color    *widget.Entry
	swatches *fyne.Container
	scale    *widget.Entry
	slider   *widget.Slider

	Container fyne.CanvasObject
}

func NewPropertyPanel(editor *state.Editor) *PropertyPanel {
	p := &PropertyPanel{editor: editor}

	p.heading = widget.NewLabel("")
	p.heading.TextStyle = fyne.TextStyle{Bold: true}

	p.content = widget.NewMultiLineEntry()
	p.content.Wrapping = fyne.TextWrapBreak
	p.content.SetMinRowsVisible(3)
	p.content.OnChanged = p.bind(state.PropContent)

	p.kind = widget.NewSelect([]string{string(state.KindText), string(state.KindImage)}, p.bind(state.PropKind))

	p.x = widget.NewEntry()
	p.x.OnChanged = p.bind(state.PropX)
	p.y = widget.NewEntry()
	p.y.OnChanged = p.bind(state.PropY)

	p.fontSize = widget.NewEntry()
	p.fontSize.OnChanged = p.bind(state.PropFontSize)

	p.color = widget.NewEntry()
	p.color.SetPlaceHolder("#ffffff")
	p.color.OnChanged = p.bind(state.PropColor)

	swatches := make([]fyne.CanvasObject, 0, len(palette))
	for _, c := range palette {
		swatches = append(swatches, newColorSwatch(c, func(c color.Color) {
			if !p.color.Disabled() {
				p.color.SetText(state.HexColor(c))
			}
		}))
	}
	p.swatches = container.NewHBox(swatches...)

	p.scale = widget.NewEntry()
	p.scale.OnChanged = p.bind(state.PropScale)
	p.slider = widget.NewSlider(state.MinScale, state.MaxScale)
	p.slider.Step = 0.05
	p.slider.OnChanged = func(v float64) {
		if !p.syncing && !p.scale.Disabled() {
			p.scale.SetText(formatNumber(v))
		}
	}

	form := widget.NewForm(
		widget.NewFormItem("Content", p.content),
		widget.NewFormItem("Type", p.kind),
		widget.NewFormItem("X (%)", p.x),
		widget.NewFormItem("Y (%)", p.y),
		widget.NewFormItem("Font size", p.fontSize),
		widget.NewFormItem("Color", container.NewVBox(p.color, p.swatches)),
		widget.NewFormItem("Scale", container.NewVBox(p.scale, p.slider)),
	)
	p.Container = container.NewVBox(p.heading, form)

	p.Refresh()
	return p
}

// bind returns an input handler writing prop on the panel's layer.
func (p *PropertyPanel) bind(prop state.Property) func(string) {
	return func(value string) {
		if p.syncing || p.key == "" {
			return
		}
		err := p.editor.UpdateProperty(p.key, prop, value)
		if err != nil && !errors.Is(err, state.ErrInvalidValue) {
			logrus.WithError(err).WithField("property", prop).Warn("property update failed")
		}
	}
}

// Key is the layer the panel is bound to, or "".
func (p *PropertyPanel) Key() string {
	return p.key
}

// Refresh reloads every field from the current selection.
func (p *PropertyPanel) Refresh() {
	st := p.editor.Panel()

	p.syncing = true
	defer func() { p.syncing = false }()

	setEnabled(p.content, st.Content)
	setEnabled(p.kind, st.Kind)
	setEnabled(p.x, st.Position)
	setEnabled(p.y, st.Position)
	setEnabled(p.fontSize, st.FontSize)
	setEnabled(p.color, st.Color)
	setEnabled(p.scale, st.Scale)
	setVisible(p.swatches, st.Color)
	setVisible(p.slider, st.Scale)

	if !st.Has {
		p.key = ""
		p.heading.SetText("No layer selected")
		for _, e := range []*widget.Entry{p.content, p.x, p.y, p.fontSize, p.color, p.scale} {
			e.SetText("")
		}
		p.kind.ClearSelected()
		return
	}

	l := st.Layer
	p.key = l.Key()
	p.heading.SetText(strings.ToUpper(string(l.Kind[:1])) + string(l.Kind[1:]) + " layer")

	if p.content.Text != l.Content {
		p.content.SetText(l.Content)
	}
	if p.kind.Selected != string(l.Kind) {
		p.kind.SetSelected(string(l.Kind))
	}
	setNumber(p.x, l.X)
	setNumber(p.y, l.Y)

	if st.FontSize {
		setNumber(p.fontSize, float64(l.FontSize))
	} else {
		p.fontSize.SetText("")
	}
	if st.Color {
		if !strings.EqualFold(p.color.Text, l.Color) {
			p.color.SetText(l.Color)
		}
	} else {
		p.color.SetText("")
	}
	if st.Scale {
		setNumber(p.scale, l.Scale)
		p.slider.SetValue(l.Scale)
	} else {
		p.scale.SetText("")
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// setNumber rewrites the entry only when its value differs, so a half
// typed number such as "12." is left alone.
func setNumber(e *widget.Entry, v float64) {
	if cur, err := strconv.ParseFloat(strings.TrimSpace(e.Text), 64); err == nil && cur == v {
		return
	}
	e.SetText(formatNumber(v))
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}
