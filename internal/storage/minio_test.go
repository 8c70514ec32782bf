package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"sikap/internal/config"
)

func TestNewMinIO_RequiresSettings(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{"endpoint", config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}, "endpoint"},
		{"credentials", config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}, "credentials"},
		{"bucket", config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(ctx, tt.cfg, nil)
			assert.Nil(t, s)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestMinIOStorage_RejectsEscapingKeys(t *testing.T) {
	m := &MinIOStorage{}
	ctx := context.Background()

	_, err := m.Put(ctx, "../etc/passwd", nil, PutObjectOptions{})
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, _, err = m.Get(ctx, "/abs/key")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, m.Delete(ctx, "uploads/../../x"), ErrInvalidKey)
}

func TestTranslateMinIOError(t *testing.T) {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	assert.ErrorIs(t, translateMinIOError(notFound), ErrObjectNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	assert.Equal(t, error(denied), translateMinIOError(denied))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateMinIOError(plain))
}

func TestMetadataEscaping(t *testing.T) {
	md := map[string]string{"original-filename": "Surat Kuasa (final) é.pdf"}

	escaped := escapeMetadata(md)
	for _, r := range escaped["original-filename"] {
		assert.Less(t, r, rune(0x80))
	}
	assert.Equal(t, md, unescapeMetadata(escaped))

	assert.Nil(t, escapeMetadata(nil))
	assert.Nil(t, unescapeMetadata(map[string]string{}))
}
