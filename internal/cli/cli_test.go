package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/memblob"
	srvconfig "github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/assetsrv/db/memstore"
	"github.com/tansive/assetvault/internal/assetsrv/server"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := *srvconfig.Config()
	m := assetmanager.New(memstore.New(), memblob.New(), assetmanager.OptionsFromConfig(&cfg))
	s, err := server.CreateNewServer(m, &cfg)
	require.NoError(t, err)
	s.MountHandlers()
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts
}

func useServer(ts *httptest.Server, user string) {
	SetConfig(&Config{Version: "1.0", Server: ts.URL, User: user})
}

// run executes assetctl with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("local "+n), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestAssetLifecycle(t *testing.T) {
	ts := startServer(t)
	dir := t.TempDir()
	files := writeFiles(t, dir, "redApple.usda", "thumbnail.png")

	useServer(ts, "js123")
	out, err := run(t, "register", "redApple", "-f", files[0], "-f", files[1], "-k", "fruit", "-j")
	require.NoError(t, err, out)
	assert.Equal(t, "01.00.00", gjson.Get(out, "value.asset.version").String())

	out, err = run(t, "list")
	require.NoError(t, err, out)
	var listed map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
	require.Len(t, listed["assets"], 1)
	assert.Equal(t, "redApple", listed["assets"][0]["name"])

	archive := filepath.Join(dir, "checkout.zip")
	out, err = run(t, "checkout", "redApple", "-o", archive, "-j")
	require.NoError(t, err, out)
	assert.Equal(t, "js123", gjson.Get(out, "value.asset.checkedOutBy").String())
	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	assert.Len(t, zr.File, 2)
	zr.Close()

	useServer(ts, "ej456")
	_, err = run(t, "checkout", "redApple")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "js123")

	useServer(ts, "js123")
	variant := writeFiles(t, dir, "redApple_shiny.usda")
	out, err = run(t, "checkin", "redApple", "-m", "shinier", "--bump", "major", "-f", files[0], "-f", variant[0], "-j")
	require.NoError(t, err, out)
	assert.Equal(t, "02.00.00", gjson.Get(out, "value.asset.version").String())
	assert.True(t, gjson.Get(out, "value.asset.hasMaterials").Bool())

	out, err = run(t, "history", "redApple", "-j")
	require.NoError(t, err, out)
	commits := gjson.Get(out, "value.commits").Array()
	require.Len(t, commits, 2)
	first := commits[1].Get("commitId").String()

	target := filepath.Join(dir, "v1.zip")
	out, err = run(t, "download", "redApple", "--commit", first, "-o", target)
	require.NoError(t, err, out)
	zr, err = zip.OpenReader(target)
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	zr.Close()
	assert.ElementsMatch(t, []string{"redApple.usda", "thumbnail.png"}, names)

	out, err = run(t, "commit", first, "--files", "-j")
	require.NoError(t, err, out)
	assert.Len(t, gjson.Get(out, "value.files").Map(), 2)

	out, err = run(t, "commits", "--author", "js123", "-j")
	require.NoError(t, err, out)
	assert.Len(t, gjson.Get(out, "value.commits").Array(), 2)
}

func TestCheckinErrors(t *testing.T) {
	ts := startServer(t)
	dir := t.TempDir()
	files := writeFiles(t, dir, "cube.usda", "sphere.usda")
	useServer(ts, "al")

	_, err := run(t, "register", "cube", "-f", files[0])
	require.NoError(t, err)

	_, err = run(t, "checkin", "cube", "-m", "notes", "-f", files[0])
	require.Error(t, err)

	_, err = run(t, "checkout", "cube")
	require.NoError(t, err)
	_, err = run(t, "checkin", "cube", "-f", files[0])
	assert.EqualError(t, err, "--notes is required")

	_, err = run(t, "checkin", "cube", "-m", "notes", "-f", files[1])
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.StatusCode)

	out, err := run(t, "cancel", "cube", "-j")
	require.NoError(t, err, out)
	assert.False(t, gjson.Get(out, "value.asset.isCheckedOut").Bool())

	_, err = run(t, "commit", "abc")
	assert.Error(t, err)
}

func TestVersionSkipsConfig(t *testing.T) {
	SetConfig(nil)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, cliVersion)
}
