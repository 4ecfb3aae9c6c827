// Package overlay models diagram-style correction overlays: the visual
// elements and spoken text shown to a user after a mistake. The engine core
// never interprets these; they are produced by the verifier service and
// consumed by a rendering layer.
package overlay

import (
	"fmt"
)

// Element types supported by the renderer.
const (
	TypeCircle    = "circle"
	TypeArrow     = "arrow"
	TypeLabel     = "label"
	TypeRectangle = "rectangle"
)

// Element is one visual element of an overlay. The Type field selects which
// of the positional fields are meaningful; all coordinates are normalized
// to 0-1 with (0,0) at the top-left.
type Element struct {
	Type string `json:"type"`

	// circle
	Center []float64 `json:"center,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	Fill   string    `json:"fill,omitempty"`

	// arrow
	From      []float64 `json:"from,omitempty"`
	To        []float64 `json:"to,omitempty"`
	HeadStyle string    `json:"head_style,omitempty"`

	// label
	Position   []float64 `json:"position,omitempty"`
	Text       string    `json:"text,omitempty"`
	FontSize   int       `json:"font_size,omitempty"`
	Background string    `json:"background,omitempty"`

	// rectangle
	Origin       []float64 `json:"origin,omitempty"`
	Size         []float64 `json:"size,omitempty"`
	CornerRadius float64   `json:"corner_radius,omitempty"`

	// shared styling
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Style       string  `json:"style,omitempty"`
}

// Validate checks that the element has the positional fields its type
// requires and that every coordinate is within the normalized range.
func (e *Element) Validate() error {
	switch e.Type {
	case TypeCircle:
		if err := checkPoint("center", e.Center); err != nil {
			return err
		}
		if e.Radius <= 0 || e.Radius > 1 {
			return fmt.Errorf("overlay: circle radius %v out of range", e.Radius)
		}
	case TypeArrow:
		if err := checkPoint("from", e.From); err != nil {
			return err
		}
		if err := checkPoint("to", e.To); err != nil {
			return err
		}
	case TypeLabel:
		if err := checkPoint("position", e.Position); err != nil {
			return err
		}
		if e.Text == "" {
			return fmt.Errorf("overlay: label has no text")
		}
	case TypeRectangle:
		if err := checkPoint("origin", e.Origin); err != nil {
			return err
		}
		if err := checkPoint("size", e.Size); err != nil {
			return err
		}
	default:
		return fmt.Errorf("overlay: unknown element type %q", e.Type)
	}
	return nil
}

func checkPoint(name string, p []float64) error {
	if len(p) != 2 {
		return fmt.Errorf("overlay: %s must be [x, y], got %v", name, p)
	}
	for _, v := range p {
		if v < 0 || v > 1 {
			return fmt.Errorf("overlay: %s coordinate %v outside 0-1", name, v)
		}
	}
	return nil
}

// Instruction is a complete overlay: what to draw, what to say, and how
// long to keep it on screen.
type Instruction struct {
	OverlayType     string    `json:"overlay_type"`
	AudioText       string    `json:"audio_text"`
	Elements        []Element `json:"elements"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Validate checks every element; an instruction with zero elements is valid
// (audio-only correction).
func (in *Instruction) Validate() error {
	for i := range in.Elements {
		if err := in.Elements[i].Validate(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Fallback returns a minimal label-only overlay used when generation fails.
// The user still gets a visible and audible nudge toward the step that
// needs attention.
func Fallback(stepTitle string) *Instruction {
	return &Instruction{
		OverlayType:     "diagram",
		AudioText:       fmt.Sprintf("Please check your technique for: %s", stepTitle),
		DurationSeconds: 5.0,
		Elements: []Element{
			{
				Type:       TypeLabel,
				Position:   []float64{0.5, 0.1},
				Text:       fmt.Sprintf("Review: %s", stepTitle),
				FontSize:   18,
				Color:      "#FFFFFF",
				Background: "#FF4444CC",
			},
		},
	}
}
