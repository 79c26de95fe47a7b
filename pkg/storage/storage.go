package storage

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/url"
	"path"
	"strings"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
	"github.com/minio/minio-go/v6"
	"github.com/sirupsen/logrus"
)

// ErrSizeLimitExceeded marks objects that are larger than the configured
// ceiling. They are skipped before any download happens.
var ErrSizeLimitExceeded = errors.New("object exceeds configured size limit")

// BlobRef identifies a candidate object in the store. Size and content type
// come from the listing, so oversize objects can be rejected before download.
type BlobRef struct {
	Path        string
	Size        int64
	ContentType string
}

// Client wraps the S3-compatible object store that documents are ingested
// from.
type Client struct {
	s3       *minio.Client
	endpoint *url.URL
	bucket   string
	filter   *model.Filter
	cfg      *config.Config
	logger   *logrus.Entry
}

func CreateClient(logger *logrus.Entry, cfg *config.Config) (*Client, error) {

	endpointURL, err := url.Parse(cfg.Storage.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing storage endpoint: %w", err)
	}

	secureProtocol := endpointURL.Scheme == "https"
	s3Client, err := minio.New(endpointURL.Host, cfg.Storage.AccessKey, cfg.Storage.SecretKey, secureProtocol)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Client{
		s3:       s3Client,
		endpoint: endpointURL,
		bucket:   cfg.Storage.Bucket,
		filter:   &cfg.Filter,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// List returns every eligible object under prefix: supported extension,
// not excluded by the path filter.
func (c *Client) List(ctx context.Context, prefix string) ([]BlobRef, error) {

	doneCh := make(chan struct{})
	defer close(doneCh)

	var refs []BlobRef
	for object := range c.s3.ListObjectsV2(c.bucket, prefix, true, doneCh) {
		if object.Err != nil {
			return nil, fmt.Errorf("listing objects: %w", object.Err)
		}
		if !c.eligible(object.Key) {
			continue
		}
		refs = append(refs, BlobRef{
			Path:        object.Key,
			Size:        object.Size,
			ContentType: object.ContentType,
		})
	}

	c.logger.Infof("Found %d eligible objects in bucket %s", len(refs), c.bucket)
	return refs, nil
}

func (c *Client) eligible(key string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	supported := false
	for _, format := range c.cfg.Processing.SupportedFormats {
		if ext == format {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}
	return c.filter.ValidPath(key)
}

// Download fetches the object's bytes. Objects over the configured size
// ceiling are rejected without a download.
func (c *Client) Download(ctx context.Context, ref BlobRef) ([]byte, error) {

	if ref.Size > c.cfg.Processing.MaxFileSizeBytes() {
		c.logger.Warnf("Object %s exceeds size limit (%d bytes), skipping", ref.Path, ref.Size)
		return nil, ErrSizeLimitExceeded
	}

	object, err := c.s3.GetObjectWithContext(ctx, c.bucket, ref.Path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", ref.Path, err)
	}
	defer object.Close()

	content, err := ioutil.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref.Path, err)
	}

	c.logger.Debugf("Downloaded %s: %d bytes", ref.Path, len(content))
	return content, nil
}

// Exists checks whether an object is present, without downloading it.
func (c *Client) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := c.s3.StatObject(c.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("checking existence of %s: %w", objectPath, err)
	}
	return true, nil
}

// Delete removes an object from the store. A missing object is reported as
// false, not an error.
func (c *Client) Delete(ctx context.Context, objectPath string) (bool, error) {
	exists, err := c.Exists(ctx, objectPath)
	if err != nil {
		return false, err
	}
	if !exists {
		c.logger.Warnf("Object not found for deletion: %s", objectPath)
		return false, nil
	}

	if err := c.s3.RemoveObject(c.bucket, objectPath); err != nil {
		return false, fmt.Errorf("deleting %s: %w", objectPath, err)
	}
	c.logger.Infof("Deleted object: %s", objectPath)
	return true, nil
}

// PublicURL builds the stable download URL for an object.
func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s://%s/%s/%s", c.endpoint.Scheme, c.endpoint.Host, c.bucket, objectPath)
}

// StorageURI builds the store-native URI ("s3://bucket/key") for an object.
func (c *Client) StorageURI(objectPath string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, objectPath)
}

// Health reports whether the store is reachable and the bucket exists.
func (c *Client) Health(ctx context.Context) bool {
	exists, err := c.s3.BucketExists(c.bucket)
	if err != nil {
		c.logger.Warnf("Storage health check failed: %v", err)
		return false
	}
	return exists
}
