package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/geocoder89/clubhub/internal/apperr"
)

// Cloudinary stores proofs as auto-typed assets. Keys are "<resourceType>/<publicID>"
// because destroy needs the resource type the upload resolved to.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error) {
	res, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     name,
		Folder:       c.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return Object{}, apperr.Wrap(apperr.Storage, ErrUnavailable.Message, err)
	}
	if res.Error.Message != "" {
		return Object{}, apperr.Wrap(apperr.Storage, ErrUnavailable.Message, errors.New(res.Error.Message))
	}

	return Object{URL: res.SecureURL, Key: res.ResourceType + "/" + res.PublicID}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	resourceType, publicID, ok := strings.Cut(key, "/")
	if !ok {
		resourceType, publicID = "image", key
	}

	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return apperr.Wrap(apperr.Storage, "could not delete stored file", err)
	}
	if res.Error.Message != "" {
		return apperr.Wrap(apperr.Storage, "could not delete stored file", errors.New(res.Error.Message))
	}

	// "not found" means it is already gone
	if res.Result != "ok" && res.Result != "not found" {
		return apperr.Newf(apperr.Storage, "delete %s: %s", key, res.Result)
	}
	return nil
}
