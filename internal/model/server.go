package model

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// Server owns a loaded ONNX session. Input and output buffers are allocated
// once, so Classify calls are serialized.
type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	logger       *zap.Logger
}

type Option func(*serverOptions)

type serverOptions struct {
	sharedLibrary string
	logger        *zap.Logger
}

// WithSharedLibrary sets the onnxruntime shared library to load.
func WithSharedLibrary(path string) Option {
	return func(o *serverOptions) { o.sharedLibrary = path }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

func NewServer(modelPath, metadataPath string, opts ...Option) (*Server, error) {
	o := serverOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if o.sharedLibrary != "" {
		ort.SetSharedLibraryPath(o.sharedLibrary)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	o.logger.Info("model loaded",
		zap.String("model", modelPath),
		zap.Int64s("input_shape", metadata.InputShape),
		zap.Int64s("output_shape", metadata.OutputShape),
		zap.Strings("labels", labels[:]))

	return &Server{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		logger:       o.logger,
	}, nil
}

// InputShape is the fixed tensor shape the model accepts.
func (s *Server) InputShape() tensor.Shape {
	return tensor.Shape(toInts(s.Metadata.InputShape))
}

// Classify runs one forward pass. input must already match InputShape.
func (s *Server) Classify(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := s.InputShape()
	if !slices.Equal([]int(input.Shape()), []int(want)) {
		return nil, apperr.ShapeMismatch("input shape %v does not match model input %v", input.Shape(), want)
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, apperr.ShapeMismatch("input tensor must be float32, got %v", input.Dtype())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), data)
	if err := s.session.Run(); err != nil {
		return nil, apperr.Inference(err)
	}
	scores := slices.Clone(s.outputTensor.GetData())

	return tensor.New(
		tensor.WithShape(toInts(s.Metadata.OutputShape)...),
		tensor.WithBacking(scores),
	), nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
