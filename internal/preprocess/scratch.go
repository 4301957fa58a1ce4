package preprocess

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// WithScratchFile writes data to a fresh file in dir and calls fn with its path.
// The file is removed on every return path, including panics in fn; a removal
// failure is appended to the returned error.
func WithScratchFile(dir, ext string, data []byte, fn func(path string) error) (err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "emotion-upload-"+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return apperr.Internal("failed to create scratch file", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = multierr.Append(err, apperr.Internal("failed to remove scratch file", rmErr))
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return apperr.Internal("failed to write scratch file", err)
	}
	if err := f.Close(); err != nil {
		return apperr.Internal("failed to write scratch file", err)
	}

	return fn(path)
}
