package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
)

// memoryStore behaves like the panel: it assigns ids to new elements and
// echoes the stored document.
type memoryStore struct {
	mu      sync.Mutex
	doc     Document
	nextID  int64
	loadErr error
	saveErr error
	block   chan struct{}
	saves   int
}

func (m *memoryStore) Load(ctx context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Document{}, m.loadErr
	}
	return m.doc, nil
}

func (m *memoryStore) Save(ctx context.Context, payload SavePayload) (Document, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return Document{}, m.saveErr
	}
	elements := make([]Element, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		if !el.ID.Valid {
			m.nextID++
			el.ID = null.IntFrom(m.nextID)
		}
		elements = append(elements, el)
	}
	m.doc = Document{Elements: elements, Background: m.doc.Background}
	return m.doc, nil
}

type fixedSizer struct {
	w, h int
	err  error
}

func (f fixedSizer) BackgroundSize(ctx context.Context, src string) (int, int, error) {
	return f.w, f.h, f.err
}

var fallback = Size{W: 800, H: 600}

func TestControllerLoad(t *testing.T) {
	store := &memoryStore{doc: Document{
		Elements: []Element{
			{ID: null.IntFrom(1), Type: "text", Content: null.StringFrom("USD"), X: 10, Y: 10, FontSize: 30, Color: "#ff0000"},
			{ID: null.IntFrom(2), Type: "image", Content: null.StringFrom("https://example.com/a.png"), X: 50, Y: 50},
		},
		Background: null.StringFrom("/media/bg.png"),
	}}
	e := NewEditor(Canvas{})
	c := NewController(e, store, fixedSizer{w: 1080, h: 1350}, fallback)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Len() != 2 {
		t.Fatalf("expected 2 layers, got %d", e.Len())
	}
	if cv := e.Canvas(); cv.Width != 1080 || cv.Height != 1350 {
		t.Fatalf("canvas should follow the background: %+v", cv)
	}
	if e.Background() != "/media/bg.png" {
		t.Fatalf("background = %q", e.Background())
	}
	img, ok := e.Layer("p:2")
	if !ok || img.Scale != 1 {
		t.Fatalf("missing scale should default to 1: %+v", img)
	}
}

func TestControllerLoadFallbackCanvas(t *testing.T) {
	cases := []struct {
		name  string
		bg    null.String
		sizer BackgroundSizer
	}{
		{"no_background", null.String{}, fixedSizer{w: 10, h: 10}},
		{"broken_background", null.StringFrom("/media/missing.png"), fixedSizer{err: errors.New("404")}},
		{"no_sizer", null.StringFrom("/media/bg.png"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEditor(Canvas{})
			c := NewController(e, &memoryStore{doc: Document{Background: tc.bg}}, tc.sizer, fallback)
			if err := c.Load(context.Background()); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cv := e.Canvas(); cv.Width != 800 || cv.Height != 600 {
				t.Fatalf("expected fallback canvas, got %+v", cv)
			}
		})
	}
}

func TestControllerLoadFailureKeepsState(t *testing.T) {
	e := NewEditor(Canvas{Width: 800, Height: 600})
	store := &memoryStore{loadErr: errors.New("connection refused")}
	c := NewController(e, store, nil, fallback)

	if err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if e.Len() != 0 {
		t.Fatalf("editor should stay empty")
	}
	if _, err := e.AddLayer(KindText, ""); err != nil {
		t.Fatalf("editor should stay usable: %v", err)
	}
}

func TestControllerSave(t *testing.T) {
	store := &memoryStore{nextID: 100}
	e := NewEditor(Canvas{Width: 800, Height: 600})
	c := NewController(e, store, nil, fallback)

	l, _ := e.AddLayer(KindText, "Tether")
	_, _ = e.AddLayer(KindImage, "https://example.com/logo.png")
	_ = e.Select(l.Key())

	var statuses []Status
	e.OnStatus = func(s Status) { statuses = append(statuses, s) }

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.Status().Dirty || e.Status().Saving {
		t.Fatalf("session should be clean after save: %+v", e.Status())
	}
	if _, ok := e.Layer("p:101"); !ok {
		t.Fatalf("server ids should become identities")
	}
	if e.SelectedKey() != "p:101" {
		t.Fatalf("selection should follow the saved layer, got %q", e.SelectedKey())
	}
	if len(statuses) != 2 || !statuses[0].Saving || statuses[1].Saving {
		t.Fatalf("expected saving then idle status, got %+v", statuses)
	}
}

func TestControllerSaveFailureKeepsState(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("500 internal server error")}
	e := NewEditor(Canvas{Width: 800, Height: 600})
	c := NewController(e, store, nil, fallback)

	l, _ := e.AddLayer(KindText, "draft")
	if err := c.Save(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	st := e.Status()
	if !st.Dirty || st.Saving {
		t.Fatalf("failed save should keep the session dirty and idle: %+v", st)
	}
	if got, ok := e.Layer(l.Key()); !ok || got.Content != "draft" {
		t.Fatalf("failed save should not touch layers")
	}

	store.saveErr = nil
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
}

func TestControllerSaveInFlight(t *testing.T) {
	store := &memoryStore{block: make(chan struct{})}
	e := NewEditor(Canvas{Width: 800, Height: 600})
	c := NewController(e, store, nil, fallback)
	_, _ = e.AddLayer(KindText, "")

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !e.Status().Saving {
		if time.Now().After(deadline) {
			t.Fatalf("first save never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Save(context.Background()); !errors.Is(err, ErrSaveInFlight) {
		t.Fatalf("expected ErrSaveInFlight, got %v", err)
	}

	// editing stays possible while the save is pending
	if _, err := e.AddLayer(KindImage, ""); err != nil {
		t.Fatalf("AddLayer during save: %v", err)
	}

	close(store.block)
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("second save must not be queued, store saw %d saves", store.saves)
	}

	// the answer reflects the payload sent, so the layer added meanwhile is gone
	if e.Len() != 1 || e.Status().Dirty {
		t.Fatalf("expected the server answer to replace the session, got %d layers dirty=%v", e.Len(), e.Status().Dirty)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := &memoryStore{}
	e := NewEditor(Canvas{Width: 800, Height: 600})
	c := NewController(e, store, nil, fallback)

	txt, _ := e.AddLayer(KindText, "Dirham")
	_ = e.UpdateProperty(txt.Key(), PropFontSize, "44")
	_ = e.UpdateProperty(txt.Key(), PropColor, "#00ff00")
	img, _ := e.AddLayer(KindImage, "https://example.com/flag.png")
	_ = e.UpdateProperty(img.Key(), PropScale, "0.75")
	_ = e.UpdateProperty(img.Key(), PropX, "12.5")

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := e.Layers()

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded := e.Layers()

	if len(saved) != len(loaded) {
		t.Fatalf("layer count changed: %d vs %d", len(saved), len(loaded))
	}
	for i := range saved {
		a, b := saved[i], loaded[i]
		a.ID, b.ID = Identity{}, Identity{}
		if a != b {
			t.Fatalf("layer %d differs after round trip:\n saved  %+v\n loaded %+v", i, a, b)
		}
	}
}
