package model

import (
	"fmt"
	"math"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"gorgonia.org/tensor"
)

// Decode picks the label at the arg-max of the class axis (the last axis) for
// the first item in the batch. Ties resolve to the lowest index.
func Decode(scores *tensor.Dense, labels []string) (Prediction, error) {
	if scores.Dims() == 0 {
		return Prediction{}, apperr.ShapeMismatch("model output is a scalar")
	}
	shape := scores.Shape()
	classes := shape[len(shape)-1]
	if classes != len(labels) {
		return Prediction{}, apperr.ShapeMismatch("model returned %d class scores, label table has %d", classes, len(labels))
	}

	data, ok := scores.Data().([]float32)
	if !ok {
		return Prediction{}, apperr.ShapeMismatch("model output must be float32, got %v", scores.Dtype())
	}

	for i, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Prediction{}, apperr.Inference(fmt.Errorf("non-finite score %v at index %d", v, i))
		}
	}

	best, err := scores.Argmax(scores.Dims() - 1)
	if err != nil {
		return Prediction{}, apperr.Inference(err)
	}
	var idx int
	switch v := best.Data().(type) {
	case []int:
		idx = v[0]
	case int:
		idx = v
	default:
		return Prediction{}, apperr.ShapeMismatch("unexpected arg-max result %T", v)
	}

	row := data[:classes]
	byLabel := make(map[string]float32, classes)
	for i, label := range labels {
		byLabel[label] = row[i]
	}

	return Prediction{
		Label:      labels[idx],
		Index:      idx,
		Confidence: row[idx],
		Scores:     byLabel,
	}, nil
}
