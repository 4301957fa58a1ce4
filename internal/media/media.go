// Package media classifies uploaded blobs into the image and video variants the
// preprocessor understands.
package media

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/gabriel-vasile/mimetype"
)

// Kind tags an upload as a single image or a frame sequence.
type Kind int

const (
	Image Kind = iota + 1
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// Upload is one uploaded file, tagged by kind. It lives for a single request.
type Upload struct {
	Kind        Kind
	ContentType string
	Filename    string
	Data        []byte
}

// genericTypes are declared types that say nothing about the payload, so the
// bytes are sniffed instead.
var genericTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
}

// New validates the declared content type and tags the upload. An empty payload
// is treated as a missing file.
func New(data []byte, contentType, filename string) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, apperr.MissingFile("uploaded file is empty")
	}

	ct := baseType(contentType)
	if genericTypes[ct] {
		ct = baseType(mimetype.Detect(data).String())
	}

	var kind Kind
	switch {
	case strings.HasPrefix(ct, "image"):
		kind = Image
	case strings.HasPrefix(ct, "video"):
		kind = Video
	default:
		return Upload{}, apperr.UnsupportedMedia(contentType)
	}

	return Upload{
		Kind:        kind,
		ContentType: ct,
		Filename:    filename,
		Data:        data,
	}, nil
}

// Extension picks a file extension for handing the upload to a decoder that
// infers the container from the file name.
func (u Upload) Extension() string {
	if ext := strings.ToLower(filepath.Ext(u.Filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if m := mimetype.Lookup(u.ContentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	if exts, err := mime.ExtensionsByType(u.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	if u.Kind == Video {
		return ".webm"
	}
	return ""
}

func baseType(contentType string) string {
	ct, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		ct = contentType
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
