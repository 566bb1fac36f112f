package gridfs_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/adapter/gridfs"
	"github.com/neomorfeo/rentwise/internal/domain"
)

// newStorage connects to the MongoDB named by RENTWISE_TEST_MONGO_URI and
// skips the test when it is unset.
func newStorage(t *testing.T) *gridfs.Storage {
	t.Helper()
	uri := os.Getenv("RENTWISE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("RENTWISE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := gridfs.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("rentwise_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	storage, err := gridfs.New(db, "https://files.example.com/")
	require.NoError(t, err)
	return storage
}

func TestStorage_UploadDownloadDelete(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()
	key := "listings/l-1/photo-1"

	url, err := storage.Upload(ctx, key, "image/jpeg", bytes.NewReader([]byte("jpeg bytes")))
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/listings/l-1/photo-1", url)

	got, err := storage.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, url, got)

	var buf bytes.Buffer
	contentType, err := storage.Download(ctx, key, &buf)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, "jpeg bytes", buf.String())

	require.NoError(t, storage.Delete(ctx, key))
	_, err = storage.URL(ctx, key)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	// Deleting again is a no-op.
	require.NoError(t, storage.Delete(ctx, key))
}

func TestStorage_DownloadMissing(t *testing.T) {
	storage := newStorage(t)

	_, err := storage.Download(context.Background(), "missing", &bytes.Buffer{})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
