package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var ErrNotFound = errors.New("blob not found")

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

// Object is an open blob. Callers must close Body.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	ContentRange  string
}

type Store struct {
	cfg    Config
	client *s3.Client
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("s3 public base url is required")
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Store{
		cfg:    cfg,
		client: s3.New(options),
	}, nil
}

// Upload stores data under name and returns its public URL.
func (s *Store) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to upload")
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("blob name is required")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return s.cfg.PublicBaseURL + "/" + key, nil
}

// Open streams a blob. byteRange is an HTTP Range header value and may be empty.
func (s *Store) Open(ctx context.Context, name, byteRange string) (*Object, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(name)),
	}
	if byteRange != "" {
		input.Range = aws.String(byteRange)
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get from s3: %w", err)
	}

	return &Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ContentRange:  aws.ToString(out.ContentRange),
	}, nil
}

// NameFromURL maps a URL returned by Upload back to the blob name.
func (s *Store) NameFromURL(rawURL string) (string, error) {
	base := s.cfg.PublicBaseURL + "/"
	if !strings.HasPrefix(rawURL, base) {
		return "", fmt.Errorf("url %q is not served from %s", rawURL, s.cfg.PublicBaseURL)
	}
	key := strings.TrimPrefix(rawURL, base)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	key, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("unescape blob key: %w", err)
	}
	if s.cfg.Prefix != "" {
		key = strings.TrimPrefix(key, s.cfg.Prefix+"/")
	}
	if key == "" {
		return "", fmt.Errorf("url %q has no blob name", rawURL)
	}
	return key, nil
}

func (s *Store) key(name string) string {
	return path.Join(s.cfg.Prefix, strings.TrimLeft(name, "/"))
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// ObjectName derives a blob name from the owner's name and the creation time.
func ObjectName(userName string, now time.Time) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(userName), "-"), "-")
	if slug == "" {
		slug = "user"
	}
	return fmt.Sprintf("%s-%d.png", slug, now.UnixMilli())
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
