package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"csync-go/internal/config"
	"csync-go/internal/csync"
)

// S3Mirror stores artifacts as objects in an S3 bucket under an
// optional key prefix. Uploads stream through the SDK's multipart
// uploader, so artifact size is not bounded by memory.
type S3Mirror struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Mirror creates a mirror backed by the configured bucket. Static
// credentials and a custom endpoint support S3-compatible services;
// otherwise the default AWS credential chain applies.
func NewS3Mirror(ctx context.Context, cfg config.MirrorConfig) (*S3Mirror, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
	}, nil
}

func (m *S3Mirror) key(relPath string) string {
	if m.prefix == "" {
		return relPath
	}
	return m.prefix + "/" + relPath
}

// Size reports the object's ContentLength, with ok=false when no
// object exists at the key.
func (m *S3Mirror) Size(ctx context.Context, relPath string) (int64, bool, error) {
	out, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(relPath)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("head object %s: %w", relPath, err)
	}
	return aws.ToInt64(out.ContentLength), true, nil
}

// Put streams r into the object, replacing any previous content.
func (m *S3Mirror) Put(ctx context.Context, relPath string, r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	_, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(relPath)),
		Body:   cr,
	})
	if err != nil {
		return 0, fmt.Errorf("uploading object %s: %w", relPath, err)
	}
	return cr.n, nil
}

// Open returns a reader over the object at the key.
func (m *S3Mirror) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(relPath)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("artifact not found: %s", relPath)
		}
		return nil, fmt.Errorf("getting object %s: %w", relPath, err)
	}
	return out.Body, nil
}

// List enumerates objects under the given prefix.
func (m *S3Mirror) List(ctx context.Context, prefix string) ([]csync.MirrorEntry, error) {
	full := m.key(prefix)
	if full != "" && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(m.bucket)}
	if full != "" {
		input.Prefix = aws.String(full)
	}

	strip := ""
	if m.prefix != "" {
		strip = m.prefix + "/"
	}

	var entries []csync.MirrorEntry
	paginator := s3.NewListObjectsV2Paginator(m.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue // directory placeholder
			}
			entries = append(entries, csync.MirrorEntry{
				RelPath: strings.TrimPrefix(key, strip),
				Size:    aws.ToInt64(obj.Size),
			})
		}
	}
	return entries, nil
}

// ValidateSetup verifies that the bucket exists and is reachable.
func (m *S3Mirror) ValidateSetup(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	if err != nil {
		return fmt.Errorf("mirror bucket %s not accessible: %w", m.bucket, err)
	}
	return nil
}

// isNotFound checks if an error is an object-not-found error.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

// countingReader counts bytes as they stream through.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Mirror implements csync.Mirror
var _ csync.Mirror = (*S3Mirror)(nil)
