package memblob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Put(ctx, "redApple/staging/a/redApple.usda", strings.NewReader("usda"))
	require.Nil(t, err)

	rc, err := s.Get(ctx, "redApple/staging/a/redApple.usda")
	require.Nil(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "usda", string(b))

	keys, err := s.List(ctx, "redApple/")
	require.Nil(t, err)
	assert.Equal(t, []string{"redApple/staging/a/redApple.usda"}, keys)

	require.Nil(t, s.Delete(ctx, "redApple/staging/a/redApple.usda"))
	_, err = s.Get(ctx, "redApple/staging/a/redApple.usda")
	assert.ErrorIs(t, err, blobstore.ErrBlobNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Get(cancelled, "anything")
	assert.ErrorIs(t, err, blobstore.ErrStorageUnavailable)
}
