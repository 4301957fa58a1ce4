package preprocess

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const megabyte = 1024 * 1024

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// FFmpegSource decodes video through an ffmpeg child process that re-encodes
// each frame as MJPEG onto a pipe.
type FFmpegSource struct {
	logger *zap.Logger
}

func NewFFmpegSource(logger *zap.Logger) *FFmpegSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegSource{logger: logger}
}

func (s *FFmpegSource) ReadFrames(ctx context.Context, path string, max int, fn func(image.Image) error) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	var stderr bytes.Buffer

	stream := ffmpeg.Input(path, ffmpeg.KwArgs{"hide_banner": "", "loglevel": "error"}).
		Output("pipe:", ffmpeg.KwArgs{"format": "image2pipe", "vcodec": "mjpeg", "frames:v": max}).
		WithOutput(pw).
		WithErrorOutput(&stderr)
	stream.Context = ctx

	runErr := make(chan error, 1)
	go func() {
		err := stream.Run()
		pw.CloseWithError(err)
		runErr <- err
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, megabyte), 64*megabyte)
	scanner.Split(splitJPEG)

	n := 0
	var readErr error
	for n < max && scanner.Scan() {
		img, err := jpeg.Decode(bytes.NewReader(scanner.Bytes()))
		if err != nil {
			readErr = fmt.Errorf("frame %d: %w", n, err)
			break
		}
		if err := fn(img); err != nil {
			readErr = err
			break
		}
		n++
	}
	if readErr == nil && n < max {
		readErr = scanner.Err()
	}

	// Stop ffmpeg once we have what we need; it sees a broken pipe.
	done := readErr != nil || n >= max
	if done {
		cancel()
	}
	pr.Close()
	err := <-runErr

	if readErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", readErr, msg)
		}
		return readErr
	}
	if err != nil && !done {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}

	s.logger.Debug("ffmpeg decoded frames", zap.String("path", path), zap.Int("frames", n))
	return nil
}

// splitJPEG is a bufio.SplitFunc that yields whole JPEG images delimited by the
// SOI and EOI markers, skipping any bytes before SOI.
func splitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, jpegSOI)
	if start == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	stop := start + len(jpegSOI) + end + len(jpegEOI)
	return stop, data[start:stop], nil
}
