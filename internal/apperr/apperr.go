// Package apperr defines the error kinds a prediction request can fail with.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of request failure.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingFile
	KindUnsupportedMedia
	KindMediaDecode
	KindShapeMismatch
	KindInference
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindMissingFile:
		return "missing_file"
	case KindUnsupportedMedia:
		return "unsupported_media"
	case KindMediaDecode:
		return "media_decode"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindInference:
		return "inference"
	case KindTooLarge:
		return "too_large"
	default:
		return "internal"
	}
}

// Error carries a Kind alongside a caller-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MissingFile reports a request without any media payload.
func MissingFile(msg string) error {
	return &Error{Kind: KindMissingFile, Msg: msg}
}

// UnsupportedMedia reports a declared content type that is neither image nor video.
func UnsupportedMedia(contentType string) error {
	if contentType == "" {
		contentType = "unknown"
	}
	return &Error{
		Kind: KindUnsupportedMedia,
		Msg:  fmt.Sprintf("uploaded file is not an image or video (content type %q)", contentType),
	}
}

// MediaDecode reports corrupt or unopenable media.
func MediaDecode(msg string, err error) error {
	return &Error{Kind: KindMediaDecode, Msg: msg, Err: err}
}

// ShapeMismatch reports a tensor that cannot be fed to, or decoded from, the model.
func ShapeMismatch(format string, args ...any) error {
	return &Error{Kind: KindShapeMismatch, Msg: fmt.Sprintf(format, args...)}
}

// Inference wraps a failure of the model runtime.
func Inference(err error) error {
	return &Error{Kind: KindInference, Msg: "inference failed", Err: err}
}

// TooLarge reports a request body over the configured upload limit.
func TooLarge(limit int64) error {
	return &Error{Kind: KindTooLarge, Msg: fmt.Sprintf("upload exceeds the %d byte limit", limit)}
}

// Internal wraps failures that are not the caller's fault, such as scratch I/O.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
