package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Source opens the raw catalogue text.
type Source interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// fileSource reads the catalogue from the local file system.
type fileSource struct {
	logger zerolog.Logger
}

// NewFileSource creates a Source backed by local files.
func NewFileSource(logger zerolog.Logger) Source {
	return &fileSource{
		logger: logger.With().Str("component", "catalog-file-source").Logger(),
	}
}

func (s *fileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.logger.Info().Str("file", path).Msg("opening catalog file")

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to open catalog file")
		return nil, fmt.Errorf("failed to open catalog file %s: %w", path, err)
	}

	return f, nil
}

// objectGetter is the subset of the S3 client used to fetch the catalogue.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Source reads the catalogue from an S3 bucket.
type s3Source struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Source creates a Source that reads objects from bucket.
func NewS3Source(ctx context.Context, bucket, region string, logger zerolog.Logger) (Source, error) {
	logger = logger.With().Str("component", "catalog-s3-source").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 catalog source initialised")

	return newS3Source(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newS3Source(client objectGetter, bucket string, logger zerolog.Logger) *s3Source {
	return &s3Source{client: client, bucket: bucket, logger: logger}
}

// Open fetches key from the bucket. The caller closes the returned body.
func (s *s3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("fetching catalog from S3")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	return out.Body, nil
}

// fallbackSource tries S3 first and falls back to the local file.
type fallbackSource struct {
	remote   Source
	local    Source
	s3Prefix string
	logger   zerolog.Logger
}

// NewFallbackSource creates a Source that reads the path's base name under
// s3Prefix from remote and, failing that, path from local. A nil remote
// means local only.
func NewFallbackSource(remote, local Source, s3Prefix string, logger zerolog.Logger) Source {
	return &fallbackSource{
		remote:   remote,
		local:    local,
		s3Prefix: s3Prefix,
		logger:   logger.With().Str("component", "catalog-fallback-source").Logger(),
	}
}

func (s *fallbackSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if s.remote != nil {
		key := s.s3Prefix + filepath.Base(path)

		rc, err := s.remote.Open(ctx, key)
		if err == nil {
			return rc, nil
		}

		s.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return s.local.Open(ctx, path)
}
