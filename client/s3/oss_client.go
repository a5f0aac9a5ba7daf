package s3

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"periodico/bizerror"
	"periodico/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	mediaBucket   *oss.Bucket
	bucketBaseURL string

	UploadObjectFunc = UploadObject
	GetObjectFunc    = GetObject
	DeleteObjectFunc = DeleteObject
)

// MediaConfig holds the media host credentials, read once at startup.
type MediaConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

func ParseMediaConfigFromEnv() (*MediaConfig, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("media host credentials OSS_ENDPOINT, OSS_ACCESS_KEY and OSS_SECRET_KEY are required")
	}
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "periodico"
	}
	return &MediaConfig{Endpoint: endpoint, AccessKey: accessKey, SecretKey: secretKey, Bucket: bucket}, nil
}

func Bootstrap(c *MediaConfig) error {
	bucket, err := BuildBucket(c.Endpoint, c.AccessKey, c.SecretKey, c.Bucket)
	if err != nil {
		return err
	}
	baseURL, err := publicBaseURL(c.Endpoint, c.Bucket)
	if err != nil {
		return err
	}
	mediaBucket = bucket
	bucketBaseURL = baseURL
	return nil
}

func BuildBucket(endpoint, accessKey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return cli.Bucket(bucketName)
}

func publicBaseURL(endpoint, bucketName string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		u, err = url.Parse("https://" + endpoint)
		if err != nil {
			return "", err
		}
	}
	return u.Scheme + "://" + bucketName + "." + u.Host, nil
}

// UploadObject stores the bytes under a fresh opaque key and returns the
// public url together with that key.
func UploadObject(prefix string, r io.Reader, s *session.Context) (string, string, error) {
	publicId := prefix + "/" + strings.ReplaceAll(uuid.New().String(), "-", "")

	span := childSpan("put-object", publicId, s)
	err := mediaBucket.PutObject(publicId, r)
	finishSpan(span, err)
	if err != nil {
		return "", "", fmt.Errorf("%v: %w", err, bizerror.ErrDependencyFailed)
	}
	return bucketBaseURL + "/" + publicId, publicId, nil
}

func GetObject(publicId string, s *session.Context) (io.ReadCloser, error) {
	span := childSpan("get-object", publicId, s)
	r, err := mediaBucket.GetObject(publicId)
	finishSpan(span, err)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, bizerror.ErrNotFound
		}
		return nil, fmt.Errorf("%v: %w", err, bizerror.ErrDependencyFailed)
	}
	return r, nil
}

func DeleteObject(publicId string, s *session.Context) error {
	span := childSpan("delete-object", publicId, s)
	err := mediaBucket.DeleteObject(publicId)
	finishSpan(span, err)
	if err != nil {
		return fmt.Errorf("%v: %w", err, bizerror.ErrDependencyFailed)
	}
	return nil
}

func childSpan(operation, key string, s *session.Context) *opentracing.Span {
	if s == nil || s.Context == nil {
		return nil
	}
	parentSpan := opentracing.SpanFromContext(s.Context)
	if parentSpan == nil {
		return nil
	}
	sp := parentSpan.Tracer().StartSpan(operation, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return &sp
}

func finishSpan(span *opentracing.Span, err error) {
	if span == nil {
		return
	}
	ext.Error.Set(*span, err != nil)
	(*span).Finish()
}
