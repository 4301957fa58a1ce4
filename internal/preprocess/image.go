package preprocess

import (
	"bytes"
	"image"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"gorgonia.org/tensor"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// MaxImagePixels bounds the declared dimensions of an uploaded image. Decoding
// allocates the full bitmap up front, so the header is checked first.
const MaxImagePixels = 50_000_000

// Image decodes a still image into a (1, size, size, 1) tensor.
func (p *Preprocessor) Image(data []byte) (*tensor.Dense, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.MediaDecode("cannot decode image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		p.logger.Warn("rejected oversized image",
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height))
		return nil, apperr.MediaDecode("image too large", nil)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.MediaDecode("cannot decode image", err)
	}

	p.logger.Debug("decoded image",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	values := frameValues(img, p.size)
	return tensor.New(
		tensor.WithShape(1, p.size, p.size, 1),
		tensor.WithBacking(values),
	), nil
}
