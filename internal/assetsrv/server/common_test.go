package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/memblob"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/assetsrv/db/memstore"
	"github.com/tansive/assetvault/internal/common/logtrace"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type testServer struct {
	s     *AssetServer
	store *memstore.Store
	blobs *memblob.Store
}

func newTestServer(t *testing.T, mutate ...func(*config.ConfigParam)) *testServer {
	t.Helper()
	logtrace.InitLogger()
	cfg := *config.Config()
	for _, fn := range mutate {
		fn(&cfg)
	}
	store := memstore.New()
	blobs := memblob.New()
	m := assetmanager.New(store, blobs, assetmanager.OptionsFromConfig(&cfg))
	s, err := CreateNewServer(m, &cfg)
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	return &testServer{s: s, store: store, blobs: blobs}
}

func (ts *testServer) execute(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.s.Router.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return ts.execute(req)
}

// upload stages content and returns its locator.
func (ts *testServer) upload(t *testing.T, asset, filename, requester, content string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, "/assets/"+asset+"/files/"+filename+"?requester="+requester, bytes.NewBufferString(content))
	require.NoError(t, err)
	rr := ts.execute(req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return gjson.Get(rr.Body.String(), "locator").String()
}

// manifestBody builds a request body whose files map points at freshly staged uploads.
func (ts *testServer) manifestBody(t *testing.T, base, asset, requester string, files ...string) string {
	t.Helper()
	body := base
	var err error
	for _, f := range files {
		locator := ts.upload(t, asset, f, requester, "content of "+f)
		body, err = sjson.Set(body, "files."+escapeKey(f), locator)
		require.NoError(t, err)
	}
	return body
}

// escapeKey escapes the dots in a file name so sjson treats it as one key.
func escapeKey(k string) string {
	return strings.ReplaceAll(k, ".", `\.`)
}

func (ts *testServer) register(t *testing.T, name, creator string) {
	t.Helper()
	body := `{}`
	body, _ = sjson.Set(body, "name", name)
	body, _ = sjson.Set(body, "creator", creator)
	body = ts.manifestBody(t, body, name, creator, name+".usda", "thumbnail.png")
	rr := ts.do(t, http.MethodPost, "/assets", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func checkHeader(t *testing.T, h http.Header) {
	expected := "application/json"
	got := h.Get("Content-Type")
	assert.Equal(t, expected, got, "Content-Type expected %s, got %s", expected, got)
	assert.NotEmpty(t, h.Get("X-Asset-Request-ID"), "No Request Id")
}
