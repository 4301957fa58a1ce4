package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestNew_DeclaredTypes(t *testing.T) {
	cases := []struct {
		contentType string
		want        Kind
	}{
		{"image/png", Image},
		{"image/jpeg", Image},
		{"video/webm", Video},
		{"video/webm;codecs=vp8", Video},
		{"VIDEO/MP4", Video},
	}
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			u, err := New([]byte("payload"), tc.contentType, "clip")
			require.NoError(t, err)
			assert.Equal(t, tc.want, u.Kind)
		})
	}
}

func TestNew_TextPlainRejected(t *testing.T) {
	_, err := New(pngBytes(t), "text/plain", "notes.txt")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnsupportedMedia, apperr.KindOf(err))
}

func TestNew_EmptyPayload(t *testing.T) {
	_, err := New(nil, "image/png", "face.png")
	assert.Equal(t, apperr.KindMissingFile, apperr.KindOf(err))
}

func TestNew_SniffsGenericType(t *testing.T) {
	u, err := New(pngBytes(t), "application/octet-stream", "blob")
	require.NoError(t, err)
	assert.Equal(t, Image, u.Kind)
	assert.Equal(t, "image/png", u.ContentType)

	_, err = New([]byte("just some words"), "", "blob")
	assert.Equal(t, apperr.KindUnsupportedMedia, apperr.KindOf(err))
}

func TestUpload_Extension(t *testing.T) {
	assert.Equal(t, ".webm", Upload{Kind: Video, Filename: "video.webm"}.Extension())
	assert.Equal(t, ".mp4", Upload{Kind: Video, Filename: "clip.MP4"}.Extension())
	assert.Equal(t, ".webm", Upload{Kind: Video, ContentType: "video/webm"}.Extension())
	assert.Equal(t, ".webm", Upload{Kind: Video, ContentType: "video/x-unknown"}.Extension())
}
