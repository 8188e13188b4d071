package upload

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBytes is the upload size ceiling.
const MaxBytes = 10 * 1024 * 1024

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
	"image/heif": {},
}

// ValidationError describes a rejected upload candidate. The message is shown
// to the user as-is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Image is the encoded form of an accepted upload: the raw base64 payload,
// its media type, and a data-URL preview ready for direct display.
type Image struct {
	Base64   string
	MimeType string
	DataURL  string
}

// Validate checks a candidate's declared media type and size before it enters
// the pipeline. It never reads the payload.
func Validate(mimeType string, size int64) error {
	if size <= 0 {
		return &ValidationError{Reason: "no image was provided"}
	}
	if size > MaxBytes {
		return &ValidationError{Reason: fmt.Sprintf("image is too large: %d bytes exceeds the %d MiB limit", size, MaxBytes/(1024*1024))}
	}

	// The declared type alone decides acceptance here; there are no payload
	// bytes to sniff yet, so a missing or generic declaration is a rejection,
	// not a fallback.
	mimeType = strings.ToLower(trimParams(mimeType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		return &ValidationError{Reason: "missing image type: use JPEG, PNG, WEBP or HEIC"}
	}
	if _, ok := allowedTypes[mimeType]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("unsupported image type %q: use JPEG, PNG, WEBP or HEIC", mimeType)}
	}

	return nil
}

// Encode reads the candidate's bytes and produces the base64 payload plus a
// data-URL preview. A read failure is not transient; callers surface it
// without retrying.
func Encode(r io.Reader, mimeType string) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("failed to read image: empty source")
	}

	mimeType = NormalizeMimeType(mimeType, data)
	encoded := base64.StdEncoding.EncodeToString(data)

	return Image{
		Base64:   encoded,
		MimeType: mimeType,
		DataURL:  fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
	}, nil
}

// NormalizeMimeType strips content-type parameters and falls back to sniffing
// when the declared type is missing or generic. data may be nil when only the
// declared type is available.
func NormalizeMimeType(mimeType string, data []byte) string {
	mimeType = trimParams(mimeType)
	if (mimeType == "" || mimeType == "application/octet-stream") && len(data) > 0 {
		mimeType = trimParams(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return strings.ToLower(mimeType)
}

func trimParams(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
