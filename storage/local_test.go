package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKey(t *testing.T) {
	docID := uuid.MustParse("ab123456-0000-0000-0000-000000000000")

	key := documentKey(docID, "My Contract.PDF")

	assert.Equal(t, fmt.Sprintf("documents/ab/%s.pdf", docID), key)
}

func TestDocumentKeyIgnoresClientPath(t *testing.T) {
	docID := uuid.New()

	key := documentKey(docID, "../../etc/passwd")

	assert.False(t, strings.Contains(key, ".."))
	assert.True(t, strings.HasPrefix(key, "documents/"))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	docID := uuid.New()

	key, err := store.Upload(ctx, docID, "contract.txt", "text/plain", strings.NewReader("governing law clause"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".txt"))

	reader, err := store.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "governing law clause", string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Download(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageDeleteMissingKey(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "documents/aa/nope.pdf"))
}

func TestNewStorageFromEnvDefaultsToLocal(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("STORAGE_LOCAL_PATH", t.TempDir())

	store, err := NewStorageFromEnv()

	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)
}

func TestNewStorageFromEnvS3RequiresBucket(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")

	_, err := NewStorageFromEnv()

	assert.Error(t, err)
}
