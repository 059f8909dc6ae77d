package s3_test

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/per-object-storage/pkg/perobject/archive/archivetest"
	s3archive "github.com/tendant/per-object-storage/pkg/perobject/archive/s3"
)

// TestS3Backend runs against an S3-compatible endpoint such as MinIO.
func TestS3Backend(t *testing.T) {
	endpoint := os.Getenv("TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_S3_ENDPOINT not set, skipping S3 archive tests")
	}

	backend, err := s3archive.New(s3archive.Config{
		Region:                 "us-east-1",
		Bucket:                 envOr("TEST_S3_BUCKET", "perobject-test"),
		Prefix:                 "archive-test",
		AccessKeyID:            envOr("TEST_S3_ACCESS_KEY_ID", "minioadmin"),
		SecretAccessKey:        envOr("TEST_S3_SECRET_ACCESS_KEY", "minioadmin"),
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	archivetest.Run(t, backend, uuid.NewString()+"/")
}

func TestS3Backend_RequiresBucket(t *testing.T) {
	_, err := s3archive.New(s3archive.Config{})
	assert.Error(t, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
