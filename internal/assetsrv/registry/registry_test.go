package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/db/memstore"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
)

func newRegistry(t *testing.T, names ...string) *Registry {
	t.Helper()
	r := New(memstore.New())
	for i, name := range names {
		err := r.Create(context.Background(), &models.Asset{
			Name:           name,
			Keywords:       []string{"fruit"},
			CreatedBy:      "creator",
			LatestCommitID: int64(i + 1),
			LastApprovedID: int64(i + 1),
		})
		require.Nil(t, err)
	}
	return r
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "redApple")

	a, err := r.FindByName(ctx, "redApple")
	require.Nil(t, err)
	assert.False(t, a.CheckedOut)
	assert.Equal(t, "creator", a.CreatedBy)
	assert.False(t, a.CreatedAt.IsZero())

	err = r.Create(ctx, &models.Asset{Name: "redApple"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, vcserror.ErrAssetExists)

	_, err = r.FindByName(ctx, "greenApple")
	assert.ErrorIs(t, err, vcserror.ErrNotFound)
}

func TestAcquireLock(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "redApple")

	a, err := r.AcquireLock(ctx, "redApple", "js123")
	require.Nil(t, err)
	assert.True(t, a.CheckedOut)
	assert.Equal(t, "js123", a.CheckedOutBy)
	assert.True(t, a.IsLockConsistent())

	_, err = r.AcquireLock(ctx, "redApple", "ej456")
	require.NotNil(t, err)
	var locked *vcserror.AlreadyLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "js123", locked.Holder)

	_, err = r.AcquireLock(ctx, "missing", "js123")
	assert.ErrorIs(t, err, vcserror.ErrAssetNotFound)

	_, err = r.AcquireLock(ctx, "redApple", "")
	assert.ErrorIs(t, err, vcserror.ErrInvalidInput)
}

func TestConcurrentAcquireLock(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "skateboard")

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := []string{}
	lockedErrs := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			holder := "user" + string(rune('a'+i))
			_, err := r.AcquireLock(ctx, "skateboard", holder)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, holder)
			} else if errors.Is(err, vcserror.ErrAlreadyLocked) {
				lockedErrs++
			}
		}(i)
	}
	wg.Wait()
	require.Len(t, winners, 1)
	assert.Equal(t, n-1, lockedErrs)

	a, err := r.FindByName(ctx, "skateboard")
	require.Nil(t, err)
	assert.Equal(t, winners[0], a.CheckedOutBy)
	assert.True(t, a.IsLockConsistent())
}

func TestReleaseLock(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "redApple")

	_, err := r.ReleaseLock(ctx, "redApple", Release{Holder: "js123"})
	assert.ErrorIs(t, err, vcserror.ErrNotLocked)

	_, err = r.AcquireLock(ctx, "redApple", "js123")
	require.Nil(t, err)

	_, err = r.ReleaseLock(ctx, "redApple", Release{Holder: "ej456", BaseCommitID: 1, NewCommitID: 2})
	assert.ErrorIs(t, err, vcserror.ErrNotHolder)

	_, err = r.ReleaseLock(ctx, "redApple", Release{Holder: "js123", BaseCommitID: 7, NewCommitID: 8})
	assert.ErrorIs(t, err, vcserror.ErrConflict)
	assert.False(t, errors.Is(err, ErrStaleRead))

	a, err := r.ReleaseLock(ctx, "redApple", Release{Holder: "js123", BaseCommitID: 1, NewCommitID: 2, Approve: true})
	require.Nil(t, err)
	assert.False(t, a.CheckedOut)
	assert.Empty(t, a.CheckedOutBy)
	assert.Equal(t, int64(2), a.LatestCommitID)
	assert.Equal(t, int64(2), a.LastApprovedID)

	// repeating an applied release reports the advanced asset
	a, err = r.ReleaseLock(ctx, "redApple", Release{Holder: "js123", BaseCommitID: 1, NewCommitID: 2, Approve: true})
	require.Nil(t, err)
	assert.Equal(t, int64(2), a.LatestCommitID)
	assert.False(t, a.CheckedOut)

	_, err = r.ReleaseLock(ctx, "redApple", Release{Holder: "js123", BaseCommitID: 2, NewCommitID: 3})
	assert.ErrorIs(t, err, vcserror.ErrNotLocked)

	_, err = r.ReleaseLock(ctx, "missing", Release{Holder: "js123"})
	assert.ErrorIs(t, err, vcserror.ErrAssetNotFound)
}

func TestReleaseWithoutApproval(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "redApple")
	_, err := r.AcquireLock(ctx, "redApple", "js123")
	require.Nil(t, err)

	a, err := r.ReleaseLock(ctx, "redApple", Release{Holder: "js123", BaseCommitID: 1, NewCommitID: 5})
	require.Nil(t, err)
	assert.Equal(t, int64(5), a.LatestCommitID)
	assert.Equal(t, int64(1), a.LastApprovedID)

	a, err = r.SetLastApproved(ctx, "redApple", 5)
	require.Nil(t, err)
	assert.Equal(t, int64(5), a.LastApprovedID)

	// approving an older commit does not move the pointer back
	a, err = r.SetLastApproved(ctx, "redApple", 1)
	require.Nil(t, err)
	assert.Equal(t, int64(5), a.LastApprovedID)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, "redApple")
	_, err := r.AcquireLock(ctx, "redApple", "js123")
	require.Nil(t, err)

	a, err := r.ReleaseLock(ctx, "redApple", Release{Holder: "js123"})
	require.Nil(t, err)
	assert.False(t, a.CheckedOut)
	assert.Equal(t, int64(1), a.LatestCommitID)
}

func TestList(t *testing.T) {
	r := newRegistry(t, "skateboard", "redApple")
	assets, err := r.List(context.Background())
	require.Nil(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "redApple", assets[0].Name)
	assert.Equal(t, "skateboard", assets[1].Name)
}
