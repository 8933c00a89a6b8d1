package ui

import (
	"context"
	"errors"
	"io"

	"TemplateBoard/internal/export"
	boardnet "TemplateBoard/internal/net"
	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// Options wires the editor to its template source. The same panel client
// usually fills every field.
type Options struct {
	Title       string
	Store       state.Store
	Sizer       state.BackgroundSizer
	Images      ImageLoader
	Files       export.ImageSource
	DefaultSize state.Size
}

type editorApp struct {
	title  string
	window fyne.Window
	editor *state.Editor
	ctrl   *state.Controller
	files  export.ImageSource

	board       *BoardWidget
	props       *PropertyPanel
	statusLabel *widget.Label
	saveButton  *widget.Button
}

func newEditorApp(a fyne.App, opts Options) *editorApp {
	size := opts.DefaultSize
	editor := state.NewEditor(state.Canvas{Width: size.W, Height: size.H})

	ea := &editorApp{
		title:  opts.Title,
		window: a.NewWindow(opts.Title),
		editor: editor,
		ctrl:   state.NewController(editor, opts.Store, opts.Sizer, size),
		files:  opts.Files,
	}
	ea.board = NewBoardWidget(editor, opts.Images)
	ea.props = NewPropertyPanel(editor)
	ea.statusLabel = widget.NewLabel(statusText(state.Status{}, 0))
	ea.saveButton = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), ea.save)
	ea.saveButton.Importance = widget.HighImportance

	ea.bind()

	side := container.NewVScroll(ea.props.Container)
	split := container.NewHSplit(container.NewScroll(ea.board), side)
	split.Offset = 0.72
	ea.window.SetContent(container.NewBorder(newToolbar(ea), nil, nil, nil, split))
	ea.window.Resize(fyne.NewSize(1280, 800))
	ea.window.Canvas().SetOnTypedKey(ea.typedKey)
	return ea
}

// bind routes editor callbacks onto the UI goroutine. Saves and loads
// finish on worker goroutines, so every callback goes through fyne.Do.
func (a *editorApp) bind() {
	a.editor.OnLayer = func(key string) {
		fyne.Do(func() {
			a.board.RefreshLayer(key)
			if key == a.props.Key() {
				a.props.Refresh()
			}
		})
	}
	a.editor.OnRemove = func(string) {
		fyne.Do(a.board.Reconcile)
	}
	a.editor.OnSelect = func(string) {
		fyne.Do(func() {
			a.props.Refresh()
			a.board.Refresh()
		})
	}
	a.editor.OnReset = func() {
		fyne.Do(func() {
			a.board.SetBackground(a.editor.Background())
			a.board.Reconcile()
			a.props.Refresh()
			a.refreshStatus(a.editor.Status())
		})
	}
	a.editor.OnStatus = func(s state.Status) {
		fyne.Do(func() { a.refreshStatus(s) })
	}
}

func (a *editorApp) refreshStatus(s state.Status) {
	a.statusLabel.SetText(statusText(s, len(a.editor.Lint())))
	if s.Saving {
		a.saveButton.Disable()
	} else {
		a.saveButton.Enable()
	}
}

func (a *editorApp) load() {
	go func() {
		// failures are logged by the controller and the editor stays usable
		_ = a.ctrl.Load(context.Background())
	}()
}

func (a *editorApp) reload() {
	reload := func() {
		a.board.Forget()
		a.load()
	}
	if a.editor.Status().Dirty {
		dialog.ShowConfirm("Reload template", "Discard unsaved changes?", func(ok bool) {
			if ok {
				reload()
			}
		}, a.window)
		return
	}
	reload()
}

func (a *editorApp) save() {
	a.saveButton.Disable()
	go func() {
		err := a.ctrl.Save(context.Background())
		if err == nil || errors.Is(err, state.ErrSaveInFlight) {
			return
		}
		fyne.Do(func() {
			a.refreshStatus(a.editor.Status())
			dialog.ShowError(err, a.window)
		})
	}()
}

func (a *editorApp) addText() {
	if _, err := a.editor.AddLayer(state.KindText, ""); err != nil {
		logrus.WithError(err).Error("failed to add text layer")
	}
}

func (a *editorApp) chooseImage() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if _, err := a.editor.AddLayer(state.KindImage, boardnet.EncodeDataURL(data)); err != nil {
			logrus.WithError(err).Error("failed to add image layer")
		}
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}))
	d.Show()
}

func (a *editorApp) deleteSelected() {
	key := a.editor.SelectedKey()
	if key == "" {
		return
	}
	if err := a.editor.RemoveLayer(key); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("delete ignored")
	}
}

func (a *editorApp) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyDelete, fyne.KeyBackspace:
		a.deleteSelected()
	case fyne.KeyEscape:
		// a gesture only ends on pointer release
		if !a.board.Gesturing() {
			_ = a.editor.Select("")
		}
	}
}

// RunApp opens the editor window and blocks until it is closed.
func RunApp(opts Options) {
	if opts.Title == "" {
		opts.Title = "Template Editor"
	}
	myApp := app.NewWithID("com.templateboard.editor")
	ea := newEditorApp(myApp, opts)
	ea.window.SetCloseIntercept(func() {
		if !ea.editor.Status().Dirty {
			ea.window.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Close without saving?", func(ok bool) {
			if ok {
				ea.window.Close()
			}
		}, ea.window)
	})
	ea.load()
	ea.window.ShowAndRun()
}
