package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// BucketUploader writes to a hosted object storage bucket over its REST API.
type BucketUploader struct {
	client  *resty.Client
	baseURL string
	bucket  string
}

// NewBucketUploader builds an uploader for bucket at baseURL authenticated with apiKey.
func NewBucketUploader(baseURL, apiKey, bucket string) *BucketUploader {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetAuthToken(apiKey).
		SetHeader("apikey", apiKey)

	return &BucketUploader{client: client, baseURL: baseURL, bucket: bucket}
}

func (u *BucketUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(data).
		Post(fmt.Sprintf("/storage/v1/object/%s/%s", u.bucket, url.PathEscape(name)))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload %s: status %d: %s", name, resp.StatusCode(), resp.String())
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, url.PathEscape(name)), nil
}
