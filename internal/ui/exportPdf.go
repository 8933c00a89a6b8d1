package ui

import (
	"context"

	"TemplateBoard/internal/export"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// exportPDF asks for a destination and renders the current layout there.
// Rendering runs off the UI goroutine because image layers may be fetched.
func (a *editorApp) exportPDF() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}

		sheet := export.SheetFrom(a.editor, a.title)
		go func() {
			err := export.Render(context.Background(), w, sheet, a.files)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				a.statusLabel.SetText("Exported " + w.URI().Name())
			})
		}()
	}, a.window)
	d.SetFileName("template.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}
