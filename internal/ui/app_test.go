package ui

import (
	"context"
	"testing"

	"TemplateBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

type staticStore struct {
	doc state.Document
}

func (s *staticStore) Load(context.Context) (state.Document, error) {
	return s.doc, nil
}

func (s *staticStore) Save(_ context.Context, p state.SavePayload) (state.Document, error) {
	s.doc = state.Document{Elements: p.Elements}
	return s.doc, nil
}

func TestEditorAppActions(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ea := newEditorApp(a, Options{
		Title:       "test",
		Store:       &staticStore{},
		DefaultSize: state.Size{W: 800, H: 600},
	})

	ea.addText()
	if ea.editor.Len() != 1 || ea.editor.SelectedKey() == "" {
		t.Fatalf("addText should add and select a layer")
	}
	if !ea.editor.Status().Dirty {
		t.Fatalf("session should be dirty")
	}

	ea.typedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if ea.editor.SelectedKey() != "" {
		t.Fatalf("escape should clear the selection")
	}

	// nothing selected, nothing deleted
	ea.deleteSelected()
	if ea.editor.Len() != 1 {
		t.Fatalf("delete without selection removed a layer")
	}

	key := ea.editor.Layers()[0].ID.Key()
	_ = ea.editor.Select(key)
	ea.typedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if ea.editor.Len() != 0 {
		t.Fatalf("delete key should remove the selected layer")
	}
}

func TestEditorAppSaveThroughController(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	store := &staticStore{}
	ea := newEditorApp(a, Options{Store: store, DefaultSize: state.Size{W: 800, H: 600}})
	ea.addText()

	if err := ea.ctrl.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(store.doc.Elements) != 1 {
		t.Fatalf("store got %d elements", len(store.doc.Elements))
	}
	if ea.editor.Status().Dirty {
		t.Fatalf("session should be clean after save")
	}
}

func TestEscapeKeepsActiveGesture(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ea := newEditorApp(a, Options{Store: &staticStore{}, DefaultSize: state.Size{W: 400, H: 300}})
	test.WidgetRenderer(ea.board)
	ea.board.Resize(fyne.NewSize(400, 300))
	ea.addText()
	_ = ea.editor.Select("")
	ea.board.Reconcile()

	key := ea.editor.Layers()[0].ID.Key()
	press(ea.board, center(ea.board.nodes[key]))
	ea.typedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if !ea.editor.Dragging() || !ea.board.Gesturing() || ea.editor.SelectedKey() != key {
		t.Fatalf("escape must not end a drag that holds the pointer")
	}

	ea.board.DragEnd()
	if ea.editor.Dragging() || ea.board.Gesturing() {
		t.Fatalf("release should end the drag")
	}
	ea.typedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if ea.editor.SelectedKey() != "" {
		t.Fatalf("escape should clear the selection once idle")
	}
}
