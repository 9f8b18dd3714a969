package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal"
)

type Option func(*Source)

func WithRegion(region string) Option {
	return func(s *Source) {
		s.Region = region
	}
}

func WithBucket(bucket string) Option {
	return func(s *Source) {
		s.Bucket = bucket
	}
}

func WithKey(key string) Option {
	return func(s *Source) {
		s.Key = key
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

func WithForcePathStyle(forcePathStyle bool) Option {
	return func(s *Source) {
		s.ForcePathStyle = forcePathStyle
	}
}

func WithEndpoint(endpoint string) Option {
	return func(s *Source) {
		s.Endpoint = endpoint
	}
}

// WithClient replaces the client built from the session.
func WithClient(client s3iface.S3API) Option {
	return func(s *Source) {
		s.client = client
	}
}

// Source downloads the servers document from an S3 object.
type Source struct {
	logger     *zap.Logger
	client     s3iface.S3API
	downloader *s3manager.Downloader

	Endpoint       string
	Region         string
	Bucket         string
	Key            string
	ForcePathStyle bool
}

func New(opts ...Option) (*Source, error) {
	s := &Source{
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.Bucket == "" || s.Key == "" {
		return nil, fmt.Errorf("s3 source requires a bucket and key")
	}

	if s.client == nil {
		awsConfig := &aws.Config{
			S3ForcePathStyle: aws.Bool(s.ForcePathStyle),
		}
		if s.Region != "" {
			awsConfig.Region = aws.String(s.Region)
		}
		if s.Endpoint != "" {
			awsConfig.Endpoint = aws.String(s.Endpoint)
		}

		sess, err := session.NewSession(awsConfig)
		if err != nil {
			return nil, fmt.Errorf("creating aws session: %w", err)
		}
		s.client = s3.New(sess)
	}

	s.downloader = s3manager.NewDownloaderWithClient(s.client)

	return s, nil
}

// ParseURL splits s3://bucket/key into its bucket and key.
func ParseURL(raw string) (bucket string, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid s3 url %q: scheme must be s3", raw)
	}

	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: expected s3://bucket/key", raw)
	}
	return u.Host, key, nil
}

func (s *Source) Location() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

func (s *Source) Exists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Source) Read(ctx context.Context) ([]byte, error) {
	s.logger.Debug(
		"S3 source read",
		zap.String("bucket", s.Bucket),
		zap.String("key", s.Key),
	)

	buf := aws.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%s: %w", s.Location(), internal.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	}
	return false
}
