package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/emotion-api/internal/model"
	"github.com/Brownie44l1/emotion-api/internal/pipeline"
	"github.com/Brownie44l1/emotion-api/internal/preprocess"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

type happyClassifier struct{}

func (happyClassifier) InputShape() tensor.Shape { return tensor.Shape{1, 64, 64, 1} }

func (happyClassifier) Classify(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	return tensor.New(tensor.WithShape(1, 5), tensor.WithBacking([]float32{0.8, 0.05, 0.05, 0.05, 0.05})), nil
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestPredictFile(t *testing.T) {
	dir := t.TempDir()
	svc := pipeline.New(happyClassifier{}, preprocess.New(preprocess.Options{ScratchDir: dir}), nil)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 20))))
	imgPath := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(imgPath, buf.Bytes(), 0o644))

	got, err := predictFile(testCommand(), svc, imgPath)
	require.NoError(t, err)
	assert.Equal(t, "Happy", got.Label)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello there"), 0o644))
	_, err = predictFile(testCommand(), svc, txtPath)
	assert.ErrorContains(t, err, "not an image or video")

	_, err = predictFile(testCommand(), svc, filepath.Join(dir, "absent.png"))
	assert.ErrorContains(t, err, "failed to read file")
}

func TestPrintPrediction(t *testing.T) {
	p := model.Prediction{
		Label:      "Angry",
		Index:      2,
		Confidence: 0.9,
		Scores:     map[string]float32{"Happy": 0.02, "Sad": 0.03, "Angry": 0.9, "Surprised": 0.03, "Neutral": 0.02},
	}

	var out bytes.Buffer
	printPrediction(&out, "clip.webm", p, false)
	assert.Equal(t, "clip.webm\tAngry\t0.900\n", out.String())

	out.Reset()
	printPrediction(&out, "clip.webm", p, true)
	assert.Contains(t, out.String(), "  Angry      0.9000\n")
	assert.Contains(t, out.String(), "  Neutral    0.0200\n")
}
