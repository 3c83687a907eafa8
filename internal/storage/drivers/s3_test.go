package drivers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "a/b.png", "a/b.png"},
		{"", "/a/b.png", "a/b.png"},
		{"", "a//b.png", "a/b.png"},
		{"", "a/../b.png", "b.png"},
		{"", "../../etc/passwd", "etc/passwd"},
		{"scans", "p.png", "scans/p.png"},
		{"scans", "/out/./p_00001.png", "scans/out/p_00001.png"},
		{"scans/2024", "../p.png", "scans/2024/p.png"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.key, func(t *testing.T) {
			s := &S3Client{bucket: "b", prefix: tt.prefix}
			assert.Equal(t, tt.want, s.objectKey(tt.key))
		})
	}
}

func TestNewS3ClientCompatibleEndpoint(t *testing.T) {
	s, err := NewS3Client(context.Background(), S3Options{
		Bucket:    "scans",
		BaseURL:   "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "/incoming/",
	})
	require.NoError(t, err)
	assert.Equal(t, "scans", s.bucket)
	assert.Equal(t, "incoming", s.prefix)
	assert.Equal(t, "us-east-1", s.client.Options().Region)
	assert.Equal(t, "incoming/a.png", s.objectKey("a.png"))
}

func TestNewS3ClientRequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3Options{BaseURL: "http://localhost:9000"})
	assert.Error(t, err)
}

func TestCreateOptimizedHTTPClient(t *testing.T) {
	c := createOptimizedHTTPClient(nil)
	assert.Equal(t, 60*time.Second, c.Timeout)

	c = createOptimizedHTTPClient(&S3HTTPConfig{RequestTimeout: 5})
	assert.Equal(t, 5*time.Second, c.Timeout)
}
