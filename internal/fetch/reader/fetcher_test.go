package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRequiresProxyBase(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestFetchRoutesThroughProxy(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("# Careers\n\n[Backend   Engineer](https://example.com/jobs/7)\n"))
	}))
	defer srv.Close()

	f, err := New(Config{
		ProxyBase:     srv.URL, // trailing slash appended internally
		APIKey:        "secret",
		Timeout:       5 * time.Second,
		MaxTextLength: 20000,
	}, zap.NewNop())
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), "https://example.com/careers")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(gotPath, "/https://example.com/careers"))
	require.Equal(t, "Bearer secret", gotAuth)
	require.Contains(t, result.Text, "[Backend Engineer](https://example.com/jobs/7)")
}

func TestFetchProxyErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, err := New(Config{ProxyBase: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://example.com/careers")
	require.Error(t, err)
}

func TestFetchSkipsAuthHeaderWithoutKey(t *testing.T) {
	t.Parallel()

	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		_, _ = w.Write([]byte("content"))
	}))
	defer srv.Close()

	f, err := New(Config{ProxyBase: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://example.com/careers")
	require.NoError(t, err)
	require.False(t, sawAuth)
}
