package s3blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
)

func newTestStore(t *testing.T, h http.HandlerFunc) *Store {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := New(context.Background(), Options{
		Bucket:           "vault",
		Region:           "us-east-1",
		Endpoint:         srv.URL,
		AccessKeyID:      "test",
		SecretAccessKey:  "test",
		OperationTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	return s
}

func TestGetTimesOutOnStalledEndpoint(t *testing.T) {
	done := make(chan struct{})
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	})
	// runs before the server is closed
	t.Cleanup(func() { close(done) })

	start := time.Now()
	_, err := s.Get(context.Background(), "redApple/staging/a/redApple.usda")
	assert.ErrorIs(t, err, blobstore.ErrStorageUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)

	start = time.Now()
	_, err = s.Exists(context.Background(), "redApple/staging/a/redApple.usda")
	assert.ErrorIs(t, err, blobstore.ErrStorageUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGetFailsWhenBodyStalls(t *testing.T) {
	done := make(chan struct{})
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "64")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("#usda 1.0\n"))
		w.(http.Flusher).Flush()
		select {
		case <-done:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(done) })

	rc, appErr := s.Get(context.Background(), "redApple/staging/a/redApple.usda")
	require.Nil(t, appErr)
	defer rc.Close()

	start := time.Now()
	_, err := io.ReadAll(rc)
	assert.ErrorIs(t, err, blobstore.ErrStorageUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPutStreamsBody(t *testing.T) {
	var (
		mu       sync.Mutex
		method   string
		path     string
		received int
	)
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path = r.Method, r.URL.Path
		received = len(b)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	})

	payload := strings.Repeat("#usda 1.0\n", 100)
	n, err := s.Put(context.Background(), "redApple/staging/a/redApple.usda", strings.NewReader(payload))
	require.Nil(t, err)
	assert.Equal(t, int64(len(payload)), n)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/vault/redApple/staging/a/redApple.usda", path)
	assert.GreaterOrEqual(t, received, len(payload))

	_, err = s.Put(context.Background(), "../escape", strings.NewReader(payload))
	assert.ErrorIs(t, err, blobstore.ErrInvalidKey)
}
