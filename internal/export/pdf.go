// Package export renders a template layout to PDF so it can be reviewed
// away from the panel.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strconv"

	"TemplateBoard/internal/state"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageSource resolves an image reference (URL, path or data: URL) to bytes.
type ImageSource interface {
	FetchBytes(ctx context.Context, src string) ([]byte, error)
}

// Sheet is a template snapshot ready for rendering.
type Sheet struct {
	Title      string
	Canvas     state.Canvas
	Background string
	Layers     []state.Layer
}

// SheetFrom snapshots the editor.
func SheetFrom(e *state.Editor, title string) Sheet {
	return Sheet{
		Title:      title,
		Canvas:     e.Canvas(),
		Background: e.Background(),
		Layers:     e.Layers(),
	}
}

// Render writes the sheet as a one page PDF sized to the canvas, one point
// per canvas pixel. Images that cannot be fetched are drawn as labelled
// outlines. images may be nil.
func Render(ctx context.Context, w io.Writer, sheet Sheet, images ImageSource) error {
	width, height := sheet.Canvas.Width, sheet.Canvas.Height
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export: canvas has no size (%vx%v)", width, height)
	}

	// gofpdf swaps the sides for "L", so the size is always given as portrait
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if sheet.Title != "" {
		pdf.SetTitle(sheet.Title, true)
	}
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r := renderer{pdf: pdf, images: images, tr: tr}
	if sheet.Background != "" {
		if !r.image(ctx, "background", sheet.Background, 0, 0, width, height) {
			logrus.WithField("background", sheet.Background).Warn("background skipped in export")
		}
	}

	for i, l := range sheet.Layers {
		p := state.Project(l, false, sheet.Canvas)
		switch p.Kind {
		case state.KindText:
			pdf.SetFont("Helvetica", "", p.FontSize)
			pdf.SetTextColor(int(p.Color.R), int(p.Color.G), int(p.Color.B))
			// Text positions by baseline, layers by top-left corner.
			pdf.Text(p.X, p.Y+p.FontSize, tr(p.Text))
		case state.KindImage:
			box := state.EstimateBox(l)
			if !r.image(ctx, "layer-"+strconv.Itoa(i), p.Source, p.X, p.Y, box.W, box.H) {
				r.placeholder(p.X, p.Y, box.W, box.H)
			}
		}
	}

	return pdf.Output(w)
}

// RenderFile writes the sheet to path.
func RenderFile(ctx context.Context, path string, sheet Sheet, images ImageSource) error {
	var buf bytes.Buffer
	if err := Render(ctx, &buf, sheet, images); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"path": path, "layers": len(sheet.Layers)}).Info("template exported")
	return nil
}

type renderer struct {
	pdf    *gofpdf.Fpdf
	images ImageSource
	tr     func(string) string
}

// image draws src into the given box and reports whether it succeeded.
// Everything goes through PNG so formats gofpdf cannot read still work.
func (r renderer) image(ctx context.Context, name, src string, x, y, w, h float64) bool {
	if r.images == nil || src == "" {
		return false
	}
	data, err := r.images.FetchBytes(ctx, src)
	if err != nil {
		logrus.WithError(err).WithField("src", src).Debug("image fetch failed")
		return false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logrus.WithError(err).WithField("src", src).Debug("image decode failed")
		return false
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return false
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader(name, opts, &encoded)
	if r.pdf.Err() {
		logrus.WithError(r.pdf.Error()).WithField("src", src).Warn("image rejected by pdf writer")
		r.pdf.ClearError()
		return false
	}
	r.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return true
}

func (r renderer) placeholder(x, y, w, h float64) {
	r.pdf.SetDrawColor(128, 128, 128)
	r.pdf.SetLineWidth(1)
	r.pdf.Rect(x, y, w, h, "D")
	r.pdf.Line(x, y, x+w, y+h)
	r.pdf.Line(x+w, y, x, y+h)
	r.pdf.SetFont("Helvetica", "", 9)
	r.pdf.SetTextColor(96, 96, 96)
	r.pdf.Text(x+3, y+11, r.tr("image"))
}
