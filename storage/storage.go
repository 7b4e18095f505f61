// Package storage keeps uploaded issue images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)

// ImageStore saves an uploaded file and returns the URL it is served from.
// A URL starting with "/" is relative to the API host.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// AllowedImage checks the filename suffix only; content is not sniffed.
func AllowedImage(filename string) bool {
	return imageExt.MatchString(filename)
}

// objectName is image-<unix-ms>-<random><ext>; the random part keeps uploads
// landing in the same millisecond apart.
func objectName(filename string, now time.Time) string {
	return fmt.Sprintf("image-%d-%s%s", now.UnixMilli(), uuid.NewString()[:8], strings.ToLower(filepath.Ext(filename)))
}
