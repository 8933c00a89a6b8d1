package state

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind is the type of a layer.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Valid reports whether k is a known layer kind.
func (k Kind) Valid() bool {
	return k == KindText || k == KindImage
}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown layer type %q", ErrInvalidValue, s)
	}
	return k, nil
}

const (
	DefaultX        = 40.0
	DefaultY        = 30.0
	DefaultFontSize = 18
	DefaultColor    = "#ffffff"
	DefaultScale    = 1.0
	DefaultText     = "New Text"

	MinPercent  = 0.0
	MaxPercent  = 100.0
	MinFontSize = 8
	MaxFontSize = 200
	MinScale    = 0.3
	MaxScale    = 3.0
)

// Identity is either a server id (persisted) or a client-only uuid (local).
// Exactly one of the two variants is set.
type Identity struct {
	persisted int64
	local     uuid.UUID
	isLocal   bool
}

// Persisted returns the identity of a layer the server already knows.
func Persisted(id int64) Identity {
	return Identity{persisted: id}
}

// Local returns a fresh client-only identity.
func Local() Identity {
	return Identity{local: uuid.New(), isLocal: true}
}

// ServerID returns the persisted id, if any.
func (i Identity) ServerID() (int64, bool) {
	if i.isLocal {
		return 0, false
	}
	return i.persisted, true
}

// IsLocal reports whether the layer has never been saved.
func (i Identity) IsLocal() bool {
	return i.isLocal
}

// Key is the single normalized lookup key for either variant.
func (i Identity) Key() string {
	if i.isLocal {
		return "l:" + i.local.String()
	}
	return "p:" + strconv.FormatInt(i.persisted, 10)
}

func (i Identity) String() string {
	return i.Key()
}

// Layer is one positioned text or image element.
type Layer struct {
	ID       Identity
	Kind     Kind
	X        float64
	Y        float64
	Content  string
	FontSize int
	Color    string
	Scale    float64
}

// Key is shorthand for l.ID.Key().
func (l *Layer) Key() string {
	return l.ID.Key()
}

// NewLayer builds a layer with default placement and styling.
func NewLayer(kind Kind, content string) *Layer {
	l := &Layer{
		ID:       Local(),
		Kind:     kind,
		X:        DefaultX,
		Y:        DefaultY,
		FontSize: DefaultFontSize,
		Color:    DefaultColor,
		Scale:    DefaultScale,
		Content:  content,
	}
	if kind == KindText && content == "" {
		l.Content = DefaultText
	}
	return l
}

// Normalize forces every numeric field into range and fills gaps with defaults.
func (l *Layer) Normalize() {
	l.X = ClampPercent(l.X)
	l.Y = ClampPercent(l.Y)
	if l.FontSize <= 0 {
		l.FontSize = DefaultFontSize
	}
	l.FontSize = ClampFontSize(l.FontSize)
	if !ValidHexColor(l.Color) {
		l.Color = DefaultColor
	}
	if l.Scale == 0 || math.IsNaN(l.Scale) {
		l.Scale = DefaultScale
	}
	l.Scale = ClampScale(l.Scale)
}

// SetKind switches the layer kind and resets fields the new kind does not use.
func (l *Layer) SetKind(kind Kind) {
	if l.Kind == kind {
		return
	}
	l.Kind = kind
	switch kind {
	case KindText:
		l.Content = DefaultText
		l.Scale = DefaultScale
	case KindImage:
		l.Content = ""
		l.FontSize = DefaultFontSize
		l.Color = DefaultColor
	}
}

func (l *Layer) clone() *Layer {
	c := *l
	return &c
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ClampPercent keeps a coordinate inside [0, 100].
func ClampPercent(v float64) float64 {
	return clampFloat(v, MinPercent, MaxPercent)
}

// ClampFontSize keeps a font size inside [8, 200].
func ClampFontSize(v int) int {
	if v < MinFontSize {
		return MinFontSize
	}
	if v > MaxFontSize {
		return MaxFontSize
	}
	return v
}

// ClampScale keeps an image scale inside [0.3, 3].
func ClampScale(v float64) float64 {
	return clampFloat(v, MinScale, MaxScale)
}

// PercentToPixel converts a percent coordinate into pixels along a dimension.
func PercentToPixel(percent, dimension float64) float64 {
	return ClampPercent(percent) / 100 * dimension
}

// PixelToPercent converts pixels into a clamped percent of a dimension.
func PixelToPercent(px, dimension float64) float64 {
	if dimension <= 0 {
		return 0
	}
	return ClampPercent(px / dimension * 100)
}
