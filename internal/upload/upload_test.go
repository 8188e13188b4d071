package upload

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("accepts allowed types under the ceiling", func(t *testing.T) {
		for _, mime := range []string{"image/jpeg", "image/png", "image/webp", "image/heic"} {
			assert.NoError(t, Validate(mime, 2*1024*1024), mime)
		}
	})

	t.Run("accepts type with content-type parameters", func(t *testing.T) {
		assert.NoError(t, Validate("image/png; charset=binary", 1024))
	})

	t.Run("rejects disallowed type", func(t *testing.T) {
		err := Validate("image/gif", 1024)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "unsupported image type")
	})

	t.Run("rejects oversized file with a size-specific message", func(t *testing.T) {
		err := Validate("image/png", 15*1024*1024)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
		assert.Contains(t, err.Error(), "10 MiB")
	})

	t.Run("accepts a file exactly at the ceiling", func(t *testing.T) {
		assert.NoError(t, Validate("image/jpeg", MaxBytes))
		assert.Error(t, Validate("image/jpeg", MaxBytes+1))
	})

	t.Run("rejects an empty candidate", func(t *testing.T) {
		err := Validate("image/jpeg", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no image")
	})

	t.Run("rejects a generic or missing declared type", func(t *testing.T) {
		for _, mime := range []string{"", "   ", "application/octet-stream", "application/octet-stream; charset=binary"} {
			err := Validate(mime, 1024)
			require.Error(t, err, "%q must not slip past the allow-list", mime)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), "missing image type")
		}
	})
}

func TestEncode(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		data := []byte("not-really-a-jpeg-but-bytes")

		first, err := Encode(bytes.NewReader(data), "image/jpeg")
		require.NoError(t, err)
		second, err := Encode(bytes.NewReader(data), "image/jpeg")
		require.NoError(t, err)

		assert.Equal(t, first.Base64, second.Base64)
		assert.Equal(t, first.MimeType, second.MimeType)
		assert.Equal(t, first.DataURL, second.DataURL)
	})

	t.Run("produces a displayable data URL", func(t *testing.T) {
		img, err := Encode(strings.NewReader("payload"), "image/png")
		require.NoError(t, err)

		assert.Equal(t, "image/png", img.MimeType)
		assert.True(t, strings.HasPrefix(img.DataURL, "data:image/png;base64,"))
		assert.True(t, strings.HasSuffix(img.DataURL, img.Base64))
	})

	t.Run("sniffs the type when the declared one is generic", func(t *testing.T) {
		// Minimal PNG signature is enough for DetectContentType.
		data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
		img, err := Encode(bytes.NewReader(data), "application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
	})

	t.Run("surfaces read failures", func(t *testing.T) {
		_, err := Encode(failingReader{}, "image/jpeg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read image")
	})

	t.Run("rejects an empty source", func(t *testing.T) {
		_, err := Encode(strings.NewReader(""), "image/jpeg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read image")
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}
