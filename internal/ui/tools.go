package ui

import (
	"fmt"
	"image/color"

	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// --- The Main Toolbar ---
func newToolbar(a *editorApp) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), a.addText),    // Text layer
		widget.NewToolbarAction(theme.FileImageIcon(), a.chooseImage), // Image layer
		widget.NewToolbarAction(theme.DeleteIcon(), a.deleteSelected), // Delete
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), a.reload), // Reload
		widget.NewToolbarAction(theme.DownloadIcon(), a.exportPDF), // Export
	)

	return container.NewHBox(
		tb,
		layout.NewSpacer(),
		a.statusLabel,
		a.saveButton,
	)
}

// statusText summarises the session for the status bar.
func statusText(s state.Status, warnings int) string {
	text := "All changes saved"
	switch {
	case s.Saving:
		text = "Saving..."
	case s.Dirty:
		text = "Unsaved changes"
	}
	switch warnings {
	case 0:
	case 1:
		text += " · 1 layout warning"
	default:
		text += fmt.Sprintf(" · %d layout warnings", warnings)
	}
	return text
}
