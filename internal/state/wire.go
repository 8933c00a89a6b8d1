package state

import (
	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/sirupsen/logrus"
)

// Element is a layer as the template API sends and receives it.
type Element struct {
	ID       null.Int    `json:"id"`
	Type     string      `json:"type"`
	Content  null.String `json:"content"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	FontSize int         `json:"font_size"`
	Color    string      `json:"color"`
	Scale    *float64    `json:"scale,omitempty"`
}

// Document is the load response and the save response body.
type Document struct {
	Elements   []Element   `json:"elements"`
	Background null.String `json:"background"`
}

// SavePayload is the PUT body.
type SavePayload struct {
	Elements []Element `json:"elements"`
}

// DecodeDocument parses a template document.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Layers converts the wire elements into normalized layers. Elements of an
// unknown type are dropped.
func (d Document) Layers() []*Layer {
	layers := make([]*Layer, 0, len(d.Elements))
	for _, el := range d.Elements {
		l, err := el.Layer()
		if err != nil {
			logrus.WithField("type", el.Type).Warn("skipping template element: ", err)
			continue
		}
		layers = append(layers, l)
	}
	return layers
}

// Layer converts one element. The server id becomes the identity when present.
func (e Element) Layer() (*Layer, error) {
	kind, err := ParseKind(e.Type)
	if err != nil {
		return nil, err
	}

	id := Local()
	if e.ID.Valid {
		id = Persisted(e.ID.Int64)
	}

	scale := DefaultScale
	if e.Scale != nil {
		scale = *e.Scale
	}

	l := &Layer{
		ID:       id,
		Kind:     kind,
		X:        e.X,
		Y:        e.Y,
		Content:  e.Content.ValueOrZero(),
		FontSize: e.FontSize,
		Color:    e.Color,
		Scale:    scale,
	}
	l.Normalize()
	return l, nil
}

// ElementFrom converts a layer for saving. Local ids go out as null and text
// layers carry no scale.
func ElementFrom(l *Layer) Element {
	serverID, persisted := l.ID.ServerID()
	el := Element{
		ID:       null.NewInt(serverID, persisted),
		Type:     string(l.Kind),
		Content:  null.NewString(l.Content, true),
		X:        l.X,
		Y:        l.Y,
		FontSize: l.FontSize,
		Color:    l.Color,
	}
	if l.Kind == KindImage {
		scale := l.Scale
		el.Scale = &scale
	}
	return el
}

// NewSavePayload serializes the complete layer set.
func NewSavePayload(layers []*Layer) SavePayload {
	elements := make([]Element, 0, len(layers))
	for _, l := range layers {
		elements = append(elements, ElementFrom(l))
	}
	return SavePayload{Elements: elements}
}
