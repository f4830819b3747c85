package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"
	"github.com/klauspost/compress/gzip"

	"github.com/gmonitor/gmonitorlib/config"
)

// Client wraps the S3 client for gmonitor object storage.
type Client struct {
	s3      *s3.Client
	presign *s3.PresignClient
	host    string
	bucket  string
	log     logr.Logger
}

// Option is a functional option for client configuration.
type Option func(*Client)

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(l logr.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates an object-storage client from the given settings.
func New(settings *config.Settings, opts ...Option) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage settings: %w", err)
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(settings.AWSAccessKeyID, settings.AWSSecretAccessKey, "")),
		awsconfig.WithRegion(settings.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(settings.AWSHost)
		o.UsePathStyle = true // gmonitor storage uses path-style addressing
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	c := &Client{
		s3:      client,
		presign: s3.NewPresignClient(client),
		host:    strings.TrimRight(settings.AWSHost, "/"),
		bucket:  settings.AWSBucketName,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Upload stores the contents of r under key and returns the public object URL.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, c.bucket, err)
	}
	c.log.V(1).Info("object uploaded", "key", key)
	return c.ObjectURL(key), nil
}

// UploadCompressed gzips the contents of r before storing them under key.
// The object is stored with Content-Encoding: gzip.
func (c *Client) UploadCompressed(ctx context.Context, key string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.Copy(zw, r); err != nil {
		return "", fmt.Errorf("failed to compress object %s: %w", key, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress object %s: %w", key, err)
	}

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentLength:   aws.Int64(int64(buf.Len())),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, c.bucket, err)
	}
	c.log.V(1).Info("compressed object uploaded", "key", key, "bytes", buf.Len())
	return c.ObjectURL(key), nil
}

// Download fetches the object stored under key.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, c.bucket, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return buf.Bytes(), nil
}

// Delete removes the object stored under key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, c.bucket, err)
	}
	c.log.V(1).Info("object deleted", "key", key)
	return nil
}

// Exists checks whether an object is stored under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s in bucket %s: %w", key, c.bucket, err)
	}
	return true, nil
}

// ObjectURL returns the public link for an object: host/bucket/key.
func (c *Client) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.host, c.bucket, key)
}

// PresignedURL returns a time-limited signed link for the object under key.
func (c *Client) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s in bucket %s: %w", key, c.bucket, err)
	}
	return req.URL, nil
}

// IsNotFound checks if the error indicates a missing object or bucket.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}

	return false
}
