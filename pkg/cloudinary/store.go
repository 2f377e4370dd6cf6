package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const assetFolder = "assets/captures"

// CloudinaryStore is the hosted ImageStore, keyed by the generated capture
// filename (kept as the Cloudinary public id, extension stripped).
type CloudinaryStore struct {
	cld  *cld.Cloudinary
	http *http.Client
}

func NewCloudinaryStore(cloud *cld.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{
		cld: cloud,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (s *CloudinaryStore) Store(ctx context.Context, filename string, b []byte) (string, error) {
	res, err := s.cld.Upload.Upload(
		ctx,
		bytes.NewReader(b),
		uploader.UploadParams{
			Folder:       assetFolder,
			PublicID:     publicID(filename),
			ResourceType: "image",
		},
	)
	if err != nil {
		return "", err
	}

	return res.SecureURL, nil
}

func (s *CloudinaryStore) Retrieve(ctx context.Context, filename string) ([]byte, error) {
	img, err := s.cld.Image(assetFolder + "/" + publicID(filename))
	if err != nil {
		return nil, err
	}
	url, err := img.String()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloudinary fetch failed (%d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func publicID(filename string) string {
	return strings.TrimSuffix(filename, ".jpg")
}
