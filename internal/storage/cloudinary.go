package storage

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const routeImageFolder = "culturecompass/routes"

// CloudinaryHost uploads images to Cloudinary.
type CloudinaryHost struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryHost returns nil when no CLOUDINARY_URL is configured.
func NewCloudinaryHost(cloudinaryURL string) (*CloudinaryHost, error) {
	if cloudinaryURL == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryHost{cld: cld, folder: routeImageFolder}, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func (h *CloudinaryHost) Put(ctx context.Context, r io.Reader, name string) (string, error) {
	res, err := h.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:  name,
		Folder:    h.folder,
		Overwrite: boolPtr(false),
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.SecureURL, nil
}
