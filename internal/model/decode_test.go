package model

import (
	"math"
	"testing"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func scores(shape []int, values ...float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(values))
}

func TestDecode_OneHot(t *testing.T) {
	got, err := Decode(scores([]int{1, 5}, 0, 0, 1, 0, 0), Labels())
	require.NoError(t, err)

	assert.Equal(t, "Angry", got.Label)
	assert.Equal(t, 2, got.Index)
	assert.Equal(t, float32(1), got.Confidence)
	assert.Len(t, got.Scores, 5)
}

func TestDecode_Distribution(t *testing.T) {
	got, err := Decode(scores([]int{1, 5}, 0.05, 0.1, 0.15, 0.6, 0.1), Labels())
	require.NoError(t, err)

	assert.Equal(t, "Surprised", got.Label)
	assert.InDelta(t, 0.6, got.Confidence, 1e-6)
	assert.InDelta(t, 0.05, got.Scores["Happy"], 1e-6)
}

func TestDecode_FlatVector(t *testing.T) {
	got, err := Decode(scores([]int{5}, 0.1, 0.7, 0.1, 0.05, 0.05), Labels())
	require.NoError(t, err)
	assert.Equal(t, "Sad", got.Label)
}

func TestDecode_UsesFirstBatchRow(t *testing.T) {
	got, err := Decode(scores([]int{2, 5},
		0, 0, 0, 0, 1,
		1, 0, 0, 0, 0,
	), Labels())
	require.NoError(t, err)
	assert.Equal(t, "Neutral", got.Label)
}

func TestDecode_TieTakesFirstIndex(t *testing.T) {
	got, err := Decode(scores([]int{1, 5}, 0.1, 0.4, 0.4, 0.05, 0.05), Labels())
	require.NoError(t, err)
	assert.Equal(t, "Sad", got.Label)
}

func TestDecode_CustomLabels(t *testing.T) {
	got, err := Decode(scores([]int{1, 3}, 0.2, 0.3, 0.5), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", got.Label)
}

func TestDecode_ClassCountMismatch(t *testing.T) {
	_, err := Decode(scores([]int{1, 7}, 0, 0, 0, 0, 0, 0, 1), Labels())
	require.Error(t, err)
	assert.Equal(t, apperr.KindShapeMismatch, apperr.KindOf(err))
}

func TestDecode_RejectsNonFiniteScores(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for name, values := range map[string][]float32{
		"nan":      {0.1, 0.9, nan, 0, 0},
		"inf":      {0.1, inf, 0, 0, 0},
		"neg inf":  {0.1, 0.2, 0, float32(math.Inf(-1)), 0},
		"all nans": {nan, nan, nan, nan, nan},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(scores([]int{1, 5}, values...), Labels())
			require.Error(t, err)
			assert.Equal(t, apperr.KindInference, apperr.KindOf(err))
		})
	}
}

func TestLabels_ReturnsCopy(t *testing.T) {
	l := Labels()
	l[0] = "Mutated"
	assert.Equal(t, "Happy", Labels()[0])
	assert.Equal(t, []string{"Happy", "Sad", "Angry", "Surprised", "Neutral"}, Labels())
}
