package preprocess

import (
	"context"
	"image"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/Brownie44l1/emotion-api/internal/media"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// FrameSource decodes a video file frame by frame.
type FrameSource interface {
	// ReadFrames calls fn for each decoded frame in stream order, at most max
	// times. It returns nil when the stream ends before max frames.
	ReadFrames(ctx context.Context, path string, max int, fn func(image.Image) error) error
}

// Video writes the clip to scratch storage, decodes up to maxFrames frames and
// stacks them into a (1, F, size, size, 1) tensor. Short clips are not padded.
func (p *Preprocessor) Video(ctx context.Context, u media.Upload) (*tensor.Dense, error) {
	frameLen := p.size * p.size
	values := make([]float32, 0, p.maxFrames*frameLen)
	n := 0

	err := WithScratchFile(p.scratchDir, u.Extension(), u.Data, func(path string) error {
		readErr := p.frames.ReadFrames(ctx, path, p.maxFrames, func(img image.Image) error {
			if n >= p.maxFrames {
				return nil
			}
			values = append(values, frameValues(img, p.size)...)
			n++
			return nil
		})
		switch {
		case readErr != nil && n == 0:
			return apperr.MediaDecode("cannot open video", readErr)
		case readErr != nil:
			return apperr.MediaDecode("video decoding failed", readErr)
		case n == 0:
			return apperr.MediaDecode("video contains no frames", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("decoded video",
		zap.String("filename", u.Filename),
		zap.Int("frames", n))

	return tensor.New(
		tensor.WithShape(1, n, p.size, p.size, 1),
		tensor.WithBacking(values),
	), nil
}
