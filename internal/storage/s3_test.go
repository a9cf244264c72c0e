package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/config"
)

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//objects.example.com", true, "objects.example.com", true},
	}
	for _, tc := range cases {
		host, secure := splitEndpoint(tc.endpoint, tc.useSSL)
		assert.Equal(t, tc.host, host, tc.endpoint)
		assert.Equal(t, tc.secure, secure, tc.endpoint)
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reorder.csv", objectKey("", "/reorder.csv"))
	assert.Equal(t, "reports/2024/reorder.csv", objectKey("reports/2024", "reorder.csv"))
}

func TestNewS3ClientValidates(t *testing.T) {
	_, err := NewS3Client(config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewS3Client(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "reports"})
	assert.ErrorContains(t, err, "credentials")

	client, err := NewS3Client(config.StorageConfig{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "reports",
		Prefix:    "/pirs/",
	})
	require.NoError(t, err)
	assert.Equal(t, "pirs/reorder.csv", client.ObjectKey("reorder.csv"))
}
