package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("posting text")
	uri, err := store.PutObject(context.Background(), "postings/run/000.txt", "text/plain", payload)
	require.NoError(t, err)
	require.Equal(t, "memory://postings/run/000.txt", uri)

	payload[0] = 'P'
	stored, ok := store.Get("postings/run/000.txt")
	require.True(t, ok)
	require.Equal(t, "posting text", string(stored))
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	_, err := store.PutObject(context.Background(), "", "text/plain", []byte("x"))
	require.Error(t, err)
}
