package storage

import (
	"context"
	"errors"
	"fmt"

	"restate/models"
)

// Asset is an uploaded image on the media host.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// MediaUploader uploads images to the media host.
type MediaUploader interface {
	// Upload sends one image and returns its stable URL.
	Upload(ctx context.Context, img models.ImageSource) (Asset, error)
	// Delete removes a previously uploaded asset.
	Delete(ctx context.Context, publicID string) error
}

// ErrUnsupportedFormat is returned for images the media host will not accept.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// UploadError is the failure of one image in a batch.
type UploadError struct {
	Index  int
	Source string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %d (%s): %v", e.Index, e.Source, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UploadResult is the outcome for one image; exactly one of Asset or Err is meaningful.
type UploadResult struct {
	Asset Asset
	Err   *UploadError
}

// OK reports whether the upload succeeded.
func (r UploadResult) OK() bool {
	return r.Err == nil
}
