// Package cdn stores profile images in an S3-compatible bucket.
package cdn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var (
	ErrUnsupportedImage = errors.New("image must be jpeg, png or webp")
	ErrImageTooLarge    = errors.New("image exceeds 5 MiB")
	ErrEmptyImage       = errors.New("image is empty")
)

// Image is a stored object. PublicID is what Delete takes.
type Image struct {
	URL      string
	PublicID string
}

type ImageStore interface {
	Put(ctx context.Context, folder, contentType string, body []byte) (Image, error)
	Delete(ctx context.Context, publicID string) error
}

// CheckImage validates the declared type and size of an upload, and that the
// bytes look like the declared type.
func CheckImage(contentType string, body []byte) error {
	if len(body) == 0 {
		return ErrEmptyImage
	}
	if len(body) > MaxImageSize {
		return ErrImageTooLarge
	}
	ct := normalizeType(contentType)
	if _, ok := allowedTypes[ct]; !ok {
		return ErrUnsupportedImage
	}
	if sniffed := normalizeType(http.DetectContentType(body)); sniffed != ct {
		return fmt.Errorf("%w: content looks like %s", ErrUnsupportedImage, sniffed)
	}
	return nil
}

func normalizeType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// ObjectKey returns a fresh key under folder for an image of type ct.
func ObjectKey(folder, ct string, now time.Time) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%d/%02d/%s%s", folder, now.Year(), now.Month(), uuid.New(), allowedTypes[normalizeType(ct)])
}
