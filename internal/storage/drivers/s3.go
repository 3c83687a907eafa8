package drivers

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/net/http2"

	"github.com/sashko-guz/splitter/internal/logger"
)

var s3Log = logger.For("S3Storage")

// S3HTTPConfig contains HTTP client configuration for S3 connections
type S3HTTPConfig struct {
	MaxIdleConns          int `json:"max_idle_conns,omitempty"`              // default: 100
	MaxIdleConnsPerHost   int `json:"max_idle_conns_per_host,omitempty"`     // default: 100
	MaxConnsPerHost       int `json:"max_conns_per_host,omitempty"`          // default: 0 = unlimited
	IdleConnTimeout       int `json:"idle_conn_timeout_sec,omitempty"`       // default: 90
	ConnectTimeout        int `json:"connect_timeout_sec,omitempty"`         // default: 10
	RequestTimeout        int `json:"request_timeout_sec,omitempty"`         // default: 60, uploads included
	ResponseHeaderTimeout int `json:"response_header_timeout_sec,omitempty"` // default: 10
}

// S3Options configures an S3 or S3-compatible bucket
type S3Options struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string // custom endpoint for S3-compatible storage (MinIO, R2, ...)
	Prefix    string // optional key prefix inside the bucket
	HTTP      *S3HTTPConfig
}

type S3Client struct {
	client *s3.Client
	bucket string
	prefix string
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// createOptimizedHTTPClient creates an HTTP client with connection pooling and timeouts
func createOptimizedHTTPClient(httpConfig *S3HTTPConfig) *http.Client {
	if httpConfig == nil {
		httpConfig = &S3HTTPConfig{}
	}

	maxIdleConns := positiveOr(httpConfig.MaxIdleConns, 100)
	maxIdleConnsPerHost := positiveOr(httpConfig.MaxIdleConnsPerHost, 100)
	maxConnsPerHost := positiveOr(httpConfig.MaxConnsPerHost, 0)
	idleConnTimeout := positiveOr(httpConfig.IdleConnTimeout, 90)
	connectTimeout := positiveOr(httpConfig.ConnectTimeout, 10)
	requestTimeout := positiveOr(httpConfig.RequestTimeout, 60)
	responseHeaderTimeout := positiveOr(httpConfig.ResponseHeaderTimeout, 10)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   time.Duration(connectTimeout) * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       time.Duration(idleConnTimeout) * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: time.Duration(responseHeaderTimeout) * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		s3Log.Warnf("Failed to configure HTTP/2: %v", err)
	}

	s3Log.Debugf("HTTP client configured: MaxIdleConns=%d, MaxIdleConnsPerHost=%d, MaxConnsPerHost=%d, ConnectTimeout=%ds, RequestTimeout=%ds",
		maxIdleConns, maxIdleConnsPerHost, maxConnsPerHost, connectTimeout, requestTimeout)

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(requestTimeout) * time.Second,
	}
}

func NewS3Client(ctx context.Context, opts S3Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for S3 driver")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	var s3Client *s3.Client
	httpClient := createOptimizedHTTPClient(opts.HTTP)

	if opts.BaseURL != "" {
		s3Log.Infof("Initializing S3-compatible storage: endpoint=%s, bucket=%s, region=%s", opts.BaseURL, opts.Bucket, opts.Region)
		// S3-compatible endpoints skip the AWS credential chain
		s3Client = s3.New(s3.Options{
			Region:       opts.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
			BaseEndpoint: aws.String(opts.BaseURL),
			UsePathStyle: true,
			HTTPClient:   httpClient,
		})
	} else {
		s3Log.Infof("Initializing AWS S3 storage: bucket=%s, region=%s", opts.Bucket, opts.Region)
		configOpts := []func(*config.LoadOptions) error{
			config.WithRegion(opts.Region),
			config.WithHTTPClient(httpClient),
		}

		if opts.AccessKey != "" && opts.SecretKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, err
		}

		s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Client{
		client: s3Client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

func (s *S3Client) objectKey(key string) string {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	objectKey := s.objectKey(key)
	s3Log.Debugf("Fetching object: bucket=%s, key=%s", s.bucket, objectKey)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, objectKey)
		}
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	s3Log.Debugf("Fetched object: bucket=%s, key=%s, size=%d bytes", s.bucket, objectKey, len(data))
	return data, nil
}

func (s *S3Client) PutObject(ctx context.Context, key string, data []byte) error {
	objectKey := s.objectKey(key)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType := mime.TypeByExtension(path.Ext(objectKey)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	s3Log.Debugf("Uploaded object: bucket=%s, key=%s, size=%d bytes", s.bucket, objectKey, len(data))
	return nil
}
