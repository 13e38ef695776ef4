package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrUnsupportedImage is returned for uploads whose extension is not an image.
var ErrUnsupportedImage = errors.New("unsupported image type")

// AvatarStorage stores user avatars and returns public URLs.
type AvatarStorage interface {
	// UploadAvatar uploads the image and returns its secure URL.
	UploadAvatar(ctx context.Context, r io.Reader, fileName string) (string, error)
	// DeleteAvatar removes a previously uploaded avatar by URL.
	DeleteAvatar(ctx context.Context, fileURL string) error
}

type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage creates a Cloudinary-backed AvatarStorage from explicit credentials.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string) (AvatarStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	// Ensure HTTPS URLs by default.
	cld.Config.URL.Secure = true

	return &cloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *cloudinaryStorage) UploadAvatar(ctx context.Context, r io.Reader, fileName string) (string, error) {
	if !IsImage(fileName) {
		return "", ErrUnsupportedImage
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	params := uploader.UploadParams{
		Folder:         s.folder + "/avatars",
		PublicID:       fmt.Sprintf("%d-%s", time.Now().UnixNano(), base),
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
		Format:         "webp",
		Transformation: "c_fill,g_face,w_256,h_256/q_auto",
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar to cloudinary: %w", err)
	}

	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return resp.SecureURL, nil
}

func (s *cloudinaryStorage) DeleteAvatar(ctx context.Context, fileURL string) error {
	publicID := ExtractPublicID(fileURL)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	// Invalidate: true helps to clear CDN cache
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

func IsImage(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}

// ExtractPublicID returns the public ID of a Cloudinary delivery URL.
// Example: https://res.cloudinary.com/demo/image/upload/v123456789/folder/sample.jpg -> folder/sample
func ExtractPublicID(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}

	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return ""
	}

	relevantParts := parts[uploadIndex+1:]
	if len(relevantParts) > 1 && isVersion(relevantParts[0]) {
		relevantParts = relevantParts[1:]
	}

	publicIDWithExt := strings.Join(relevantParts, "/")
	return strings.TrimSuffix(publicIDWithExt, filepath.Ext(publicIDWithExt))
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
