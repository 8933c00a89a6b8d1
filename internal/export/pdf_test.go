package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"TemplateBoard/internal/state"
)

type mapImages map[string][]byte

func (m mapImages) FetchBytes(_ context.Context, src string) ([]byte, error) {
	data, ok := m[src]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func solidPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func testSheet() Sheet {
	return Sheet{
		Title:      "USD board",
		Canvas:     state.Canvas{Width: 800, Height: 600},
		Background: "/media/bg.png",
		Layers: []state.Layer{
			{ID: state.Persisted(1), Kind: state.KindText, Content: "USD 1.0850", X: 10, Y: 10, FontSize: 32, Color: "#ff0000"},
			{ID: state.Persisted(2), Kind: state.KindImage, Content: "/media/flag.png", X: 50, Y: 50, Scale: 1.5},
			{ID: state.Persisted(3), Kind: state.KindImage, Content: "/media/missing.png", X: 80, Y: 80, Scale: 1},
		},
	}
}

func TestRender(t *testing.T) {
	pngData := solidPNG(t)
	images := mapImages{"/media/bg.png": pngData, "/media/flag.png": pngData}

	var buf bytes.Buffer
	if err := Render(context.Background(), &buf, testSheet(), images); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", buf.Bytes()[:16])
	}
}

func TestRenderWithoutImages(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(context.Background(), &buf, testSheet(), nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty output")
	}
}

func TestRenderRejectsEmptyCanvas(t *testing.T) {
	sheet := testSheet()
	sheet.Canvas = state.Canvas{}
	if err := Render(context.Background(), &bytes.Buffer{}, sheet, nil); err == nil {
		t.Fatalf("expected error for a canvas without size")
	}
}

func TestRenderFileFromEditor(t *testing.T) {
	e := state.NewEditor(state.Canvas{Width: 400, Height: 300})
	if _, err := e.AddLayer(state.KindText, "EUR"); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	path := filepath.Join(t.TempDir(), "board.pdf")
	if err := RenderFile(context.Background(), path, SheetFrom(e, "board"), nil); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("unexpected file: %v", err)
	}
}
