// Package preprocess turns uploaded media into the normalized grayscale frame
// tensors the emotion model consumes.
package preprocess

import (
	"context"
	"image"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/Brownie44l1/emotion-api/internal/media"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

const (
	// FrameSize is the edge length every frame is resized to.
	FrameSize = 64
	// MaxFrames caps how many frames are read from a video.
	MaxFrames = 100
)

// Options configures a Preprocessor. Zero values fall back to the defaults above.
type Options struct {
	Size       int
	MaxFrames  int
	ScratchDir string
	Frames     FrameSource
	Logger     *zap.Logger
}

type Preprocessor struct {
	size       int
	maxFrames  int
	scratchDir string
	frames     FrameSource
	logger     *zap.Logger
}

func New(opts Options) *Preprocessor {
	p := &Preprocessor{
		size:       opts.Size,
		maxFrames:  opts.MaxFrames,
		scratchDir: opts.ScratchDir,
		frames:     opts.Frames,
		logger:     opts.Logger,
	}
	if p.size <= 0 {
		p.size = FrameSize
	}
	if p.maxFrames <= 0 {
		p.maxFrames = MaxFrames
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.frames == nil {
		p.frames = NewFFmpegSource(p.logger)
	}
	return p
}

// Process dispatches an upload to the image or video path.
func (p *Preprocessor) Process(ctx context.Context, u media.Upload) (*tensor.Dense, error) {
	switch u.Kind {
	case media.Image:
		return p.Image(u.Data)
	case media.Video:
		return p.Video(ctx, u)
	default:
		return nil, apperr.UnsupportedMedia(u.ContentType)
	}
}

// frameValues resizes img to size×size, converts it to grayscale and scales
// each pixel into [0,1]. The result is row-major.
func frameValues(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	gray := imaging.Grayscale(resized)

	out := make([]float32, size*size)
	for y := 0; y < size; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < size; x++ {
			// R == G == B after Grayscale.
			out[y*size+x] = float32(row[x*4]) / 255.0
		}
	}
	return out
}
