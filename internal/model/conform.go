package model

import (
	"slices"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"gorgonia.org/tensor"
)

// Conform adapts a frame tensor to the model's input shape.
//
// A (N,H,W,C) image fed to a (N,F,H,W,C) model becomes a one-frame sequence.
// Frame sequences shorter than F are zero-padded at the end; longer ones are
// truncated. Every other difference is a shape mismatch.
func Conform(input *tensor.Dense, want tensor.Shape) (*tensor.Dense, error) {
	got := []int(input.Shape())
	if slices.Equal(got, []int(want)) {
		return input, nil
	}

	data, ok := input.Data().([]float32)
	if !ok {
		return nil, apperr.ShapeMismatch("input tensor must be float32, got %v", input.Dtype())
	}

	if len(want) == 5 && len(got) == 4 {
		got = []int{got[0], 1, got[1], got[2], got[3]}
	}
	if len(want) != 5 || len(got) != 5 || got[0] != want[0] || !slices.Equal(got[2:], []int(want[2:])) {
		return nil, apperr.ShapeMismatch("input shape %v does not match model input %v", input.Shape(), want)
	}

	frameLen := want[2] * want[3] * want[4]
	batchLen := want[1] * frameLen
	frames := min(got[1], want[1])

	out := make([]float32, want.TotalSize())
	for b := 0; b < want[0]; b++ {
		src := data[b*got[1]*frameLen:]
		copy(out[b*batchLen:b*batchLen+frames*frameLen], src[:frames*frameLen])
	}

	return tensor.New(tensor.WithShape(want...), tensor.WithBacking(out)), nil
}
