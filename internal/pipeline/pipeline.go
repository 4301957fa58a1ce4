// Package pipeline wires preprocessing, inference and decoding into the single
// predict operation the HTTP and CLI front ends share.
package pipeline

import (
	"context"
	"time"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/Brownie44l1/emotion-api/internal/media"
	"github.com/Brownie44l1/emotion-api/internal/model"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// Classifier is a loaded model: a fixed input shape and a forward pass that
// returns class scores along the last axis.
type Classifier interface {
	InputShape() tensor.Shape
	Classify(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)
}

// Preprocessor turns an upload into a frame tensor.
type Preprocessor interface {
	Process(ctx context.Context, u media.Upload) (*tensor.Dense, error)
}

type Service struct {
	classifier   Classifier
	preprocessor Preprocessor
	labels       []string
	logger       *zap.Logger
}

func New(classifier Classifier, preprocessor Preprocessor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		classifier:   classifier,
		preprocessor: preprocessor,
		labels:       model.Labels(),
		logger:       logger,
	}
}

// Predict runs an uploaded image or video through the model.
func (s *Service) Predict(ctx context.Context, u media.Upload) (model.Prediction, error) {
	start := time.Now()

	frames, err := s.preprocessor.Process(ctx, u)
	if err != nil {
		return model.Prediction{}, err
	}
	prediction, err := s.infer(ctx, frames)
	if err != nil {
		return model.Prediction{}, err
	}

	s.logger.Info("prediction",
		zap.Stringer("kind", u.Kind),
		zap.String("filename", u.Filename),
		zap.Ints("frames_shape", frames.Shape()),
		zap.String("emotion", prediction.Label),
		zap.Float32("confidence", prediction.Confidence),
		zap.Duration("elapsed", time.Since(start)))
	return prediction, nil
}

// PredictInputs runs a pre-flattened input array through the model. The array
// must hold exactly as many values as the model input shape.
func (s *Service) PredictInputs(ctx context.Context, values []float32) (model.Prediction, error) {
	if len(values) == 0 {
		return model.Prediction{}, apperr.MissingFile("inputs are required")
	}
	want := s.classifier.InputShape()
	if len(values) != want.TotalSize() {
		return model.Prediction{}, apperr.ShapeMismatch("expected %d values, got %d", want.TotalSize(), len(values))
	}

	input := tensor.New(tensor.WithShape(want...), tensor.WithBacking(values))
	prediction, err := s.infer(ctx, input)
	if err != nil {
		return model.Prediction{}, err
	}
	s.logger.Info("prediction",
		zap.String("kind", "inputs"),
		zap.String("emotion", prediction.Label),
		zap.Float32("confidence", prediction.Confidence))
	return prediction, nil
}

func (s *Service) infer(ctx context.Context, frames *tensor.Dense) (model.Prediction, error) {
	input, err := model.Conform(frames, s.classifier.InputShape())
	if err != nil {
		return model.Prediction{}, err
	}
	scores, err := s.classifier.Classify(ctx, input)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			err = apperr.Inference(err)
		}
		return model.Prediction{}, err
	}
	return model.Decode(scores, s.labels)
}
