package maps

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStaticMapURL(t *testing.T) {
	c := NewClient("test-key", t.TempDir(), testLogger())
	u := c.StaticMapURL("1026 Valencia St", "San Francisco", "CA")

	assert.Contains(t, u, "key=test-key")
	assert.Contains(t, u, "zoom=15")
	assert.Contains(t, u, "1026+Valencia+St%2CSan+Francisco%2CCA")
}

func TestSaveMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient("test-key", dir, testLogger(), WithBaseURL(srv.URL))

	require.NoError(t, c.SaveMap(context.Background(), 7, "1026 Valencia St", "San Francisco", "CA"))

	data, err := os.ReadFile(filepath.Join(dir, "maps", "7.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestSaveMapUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("test-key", t.TempDir(), testLogger(), WithBaseURL(srv.URL))
	assert.Error(t, c.SaveMap(context.Background(), 7, "a", "b", "c"))
}

func TestSaveMapDisabledWithoutKey(t *testing.T) {
	c := NewClient("", t.TempDir(), testLogger())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SaveMap(context.Background(), 7, "a", "b", "c"))
}
