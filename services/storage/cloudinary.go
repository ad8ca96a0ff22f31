package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"restate/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// CloudinaryUploader implements MediaUploader on Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

// NewCloudinaryUploader creates an uploader placing assets under folder.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string, logger *zap.Logger) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	logger.Debug("Initialized Cloudinary uploader", zap.String("cloudName", cloudName), zap.String("folder", folder))
	return &CloudinaryUploader{cld: cld, folder: folder, logger: logger}, nil
}

// CheckFormat rejects files whose extension is not an accepted image type.
func CheckFormat(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, img models.ImageSource) (Asset, error) {
	if err := CheckFormat(img.Name); err != nil {
		return Asset{}, err
	}

	result, err := u.cld.Upload.Upload(ctx, img.Path, uploader.UploadParams{Folder: u.folder})
	if err != nil {
		return Asset{}, fmt.Errorf("failed to upload %s: %w", img.Name, err)
	}
	if result.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary rejected %s: %s", img.Name, result.Error.Message)
	}
	if result.SecureURL == "" {
		return Asset{}, fmt.Errorf("cloudinary returned no URL for %s", img.Name)
	}

	u.logger.Debug("Uploaded image", zap.String("name", img.Name), zap.String("publicId", result.PublicID))
	return Asset{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	result, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", publicID, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary refused to delete %s: %s", publicID, result.Error.Message)
	}
	return nil
}
