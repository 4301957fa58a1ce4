package model

import (
	"fmt"
	"slices"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
)

// labels is the canonical class order of the emotion model's output axis.
var labels = [...]string{"Happy", "Sad", "Angry", "Surprised", "Neutral"}

// Labels returns a copy of the canonical label table.
func Labels() []string {
	return slices.Clone(labels[:])
}

// Metadata describes the exported model: tensor names and fixed shapes.
type Metadata struct {
	InputShape  []int64  `json:"input_shape" yaml:"input_shape"`
	OutputShape []int64  `json:"output_shape" yaml:"output_shape"`
	InputName   string   `json:"input_name,omitempty" yaml:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	Classes     []string `json:"classes,omitempty" yaml:"classes,omitempty"`
	ImageSize   int      `json:"image_size,omitempty" yaml:"image_size,omitempty"`
}

// Prediction is the decoded model output for one input.
type Prediction struct {
	Label      string             `json:"label"`
	Index      int                `json:"index"`
	Confidence float32            `json:"confidence"`
	Scores     map[string]float32 `json:"scores"`
}

func (m *Metadata) setDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
}

// Validate checks the metadata against the canonical label table and the
// frame layout the preprocessor produces.
func (m *Metadata) Validate() error {
	if len(m.InputShape) == 0 {
		return fmt.Errorf("metadata: input_shape is required")
	}
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("metadata: output_shape is required")
	}
	for _, shape := range [][]int64{m.InputShape, m.OutputShape} {
		for _, d := range shape {
			if d <= 0 {
				return fmt.Errorf("metadata: dynamic or empty dimension in shape %v", shape)
			}
		}
	}

	switch len(m.InputShape) {
	case 4, 5:
	default:
		return apperr.ShapeMismatch("model input must be (N,H,W,1) or (N,F,H,W,1), got %v", m.InputShape)
	}
	h := m.InputShape[len(m.InputShape)-3]
	w := m.InputShape[len(m.InputShape)-2]
	c := m.InputShape[len(m.InputShape)-1]
	if c != 1 || h != w {
		return apperr.ShapeMismatch("model input must be square single-channel frames, got %v", m.InputShape)
	}
	if m.ImageSize != 0 && int64(m.ImageSize) != h {
		return apperr.ShapeMismatch("image_size %d does not match input shape %v", m.ImageSize, m.InputShape)
	}

	classes := m.OutputShape[len(m.OutputShape)-1]
	if int(classes) != len(labels) {
		return apperr.ShapeMismatch("model has %d output classes, label table has %d", classes, len(labels))
	}
	if len(m.Classes) > 0 && !slices.Equal(m.Classes, labels[:]) {
		return fmt.Errorf("metadata: classes %v differ from label table %v", m.Classes, labels)
	}
	return nil
}

// FrameSize is the square frame edge the model expects.
func (m *Metadata) FrameSize() int {
	return int(m.InputShape[len(m.InputShape)-2])
}

func toInts(shape []int64) []int {
	out := make([]int, len(shape))
	for i, d := range shape {
		out[i] = int(d)
	}
	return out
}
