package state

import "fmt"

// Warning is a non-fatal layout problem.
type Warning struct {
	Key     string
	Message string
}

type box struct {
	key                      string
	left, top, right, bottom float64
}

func layerBox(l Layer, c Canvas) box {
	size := EstimateBox(l)
	x := PercentToPixel(l.X, c.Width)
	y := PercentToPixel(l.Y, c.Height)
	return box{key: l.Key(), left: x, top: y, right: x + size.W, bottom: y + size.H}
}

func boxesOverlap(a, b box) bool {
	return a.left < b.right && a.right > b.left && a.top < b.bottom && a.bottom > b.top
}

// Lint reports layers that run past the canvas edge and pairs of layers
// whose estimated boxes overlap.
func Lint(layers []Layer, c Canvas) []Warning {
	var warnings []Warning
	boxes := make([]box, 0, len(layers))
	for _, l := range layers {
		b := layerBox(l, c)
		boxes = append(boxes, b)
		if c.Width > 0 && c.Height > 0 && (b.right > c.Width || b.bottom > c.Height) {
			warnings = append(warnings, Warning{
				Key:     b.key,
				Message: fmt.Sprintf("%s layer %s extends beyond the canvas", l.Kind, b.key),
			})
		}
	}

	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if boxesOverlap(boxes[i], boxes[j]) {
				warnings = append(warnings, Warning{
					Key:     boxes[i].key,
					Message: fmt.Sprintf("layers %s and %s might overlap", boxes[i].key, boxes[j].key),
				})
			}
		}
	}
	return warnings
}

// Lint checks the current layer set.
func (e *Editor) Lint() []Warning {
	return Lint(e.Layers(), e.Canvas())
}
