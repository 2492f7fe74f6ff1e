package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.BlobStore = (*S3Store)(nil)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. MinIO
	AccessKeyID     string // optional, default credentials chain otherwise
	SecretAccessKey string
	PathStyle       bool

	HTTPClient *http.Client // optional
	NameFunc   NameFunc     // optional
}

// S3Store keeps blobs as objects of a single bucket. Object keys are the
// blob names.
type S3Store struct {
	client   *s3.Client
	bucket   string
	nameFunc NameFunc
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	const op = "NewS3Store"

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: s3 bucket required", op)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})

	nameFunc := cfg.NameFunc
	if nameFunc == nil {
		nameFunc = NewName
	}

	return &S3Store{client: client, bucket: cfg.Bucket, nameFunc: nameFunc}, nil
}

func (s *S3Store) Store(
	ctx context.Context, content io.Reader, extHint string,
) (string, error) {
	const op = "S3Store.Store"

	ext, err := ValidateExtension(extHint)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := s.nameFunc(ext)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   content,
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", storageErr(op, err)
	}
	return name, nil
}

// Delete relies on DeleteObject being idempotent: removing a missing key
// succeeds.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	const op = "S3Store.Delete"

	if err := validateName(name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil && !isNotFound(err) {
		return storageErr(op, err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	const op = "S3Store.Exists"

	if err := validateName(name); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, storageErr(op, err)
	}
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	const op = "S3Store.Open"

	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrBlobNotFound)
		}
		return nil, storageErr(op, err)
	}
	return out.Body, nil
}

func isNotFound(err error) bool {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		respErr  *awshttp.ResponseError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noKey):
		return true
	case errors.As(err, &respErr):
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
