package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/memstore"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
)

func newLedger() (*Ledger, *memstore.Store) {
	store := memstore.New()
	return New(store, Options{CacheSize: 16}), store
}

func appendChain(t *testing.T, l *Ledger, asset string, n int) []*models.Commit {
	t.Helper()
	ctx := context.Background()
	var commits []*models.Commit
	var base *int64
	version := InitialVersion
	for i := 0; i < n; i++ {
		c, err := l.Append(ctx, AppendRequest{
			AssetName:    asset,
			Author:       "js123",
			Notes:        "change",
			Version:      version,
			BaseCommitID: base,
			Files:        map[string]string{asset + ".usda": asset + "/staging/x/" + asset + ".usda"},
			Approved:     true,
		})
		require.Nil(t, err)
		commits = append(commits, c)
		id := c.CommitID
		base = &id
		version, err = NextVersion(version, BumpMinor, ResetNone)
		require.Nil(t, err)
	}
	return commits
}

func TestAppendAndResolve(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()
	commits := appendChain(t, l, "redApple", 2)

	root := commits[0]
	assert.True(t, root.IsRoot())
	assert.True(t, root.IsApproved())
	assert.False(t, root.HasMaterials)
	assert.Equal(t, int64(1), root.CommitID)

	second, err := l.Resolve(ctx, commits[1].CommitID)
	require.Nil(t, err)
	require.NotNil(t, second.PrevCommitID)
	assert.Equal(t, root.CommitID, *second.PrevCommitID)
	assert.Equal(t, "01.01.00", second.VersionNumber)

	files, err := l.CommitFiles(ctx, second.CommitID)
	require.Nil(t, err)
	assert.Equal(t, "redApple/staging/x/redApple.usda", files.Files["redApple.usda"])

	_, err = l.Resolve(ctx, 99)
	assert.ErrorIs(t, err, vcserror.ErrCommitNotFound)
}

func TestAppendRejectsBadManifest(t *testing.T) {
	l, store := newLedger()
	_, err := l.Append(context.Background(), AppendRequest{
		AssetName: "skateboard",
		Author:    "js123",
		Version:   InitialVersion,
		Files:     map[string]string{"skateboard.obj": "k"},
	})
	assert.ErrorIs(t, err, vcserror.ErrInvalidFileName)
	assert.Equal(t, 0, store.Count(db.CollectionCommits))
}

func TestHistoryOf(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()
	commits := appendChain(t, l, "skateboard", 4)
	asset := &models.Asset{Name: "skateboard", LatestCommitID: commits[3].CommitID}

	var ids []int64
	for c, err := range l.HistoryOf(ctx, asset) {
		require.NoError(t, err)
		ids = append(ids, c.CommitID)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)

	// restartable and bounded
	got, err := l.CollectHistory(ctx, asset, 2)
	require.Nil(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].CommitID)

	all, err := l.CollectHistory(ctx, asset, 0)
	require.Nil(t, err)
	require.Len(t, all, 4)
	assert.Nil(t, all[3].PrevCommitID)
}

func TestHistoryDetectsLoop(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger()
	one, two := int64(1), int64(2)
	require.Nil(t, store.InsertOne(ctx, db.CollectionCommits, "1", &models.Commit{CommitID: 1, AssetName: "loop", PrevCommitID: &two}))
	require.Nil(t, store.InsertOne(ctx, db.CollectionCommits, "2", &models.Commit{CommitID: 2, AssetName: "loop", PrevCommitID: &one}))

	_, err := l.CollectHistory(ctx, &models.Asset{Name: "loop", LatestCommitID: 2}, 0)
	assert.ErrorIs(t, err, vcserror.ErrConflict)
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger()
	commits := appendChain(t, l, "redApple", 2)
	_, err := l.Resolve(ctx, commits[1].CommitID)
	require.Nil(t, err)

	require.Nil(t, l.Rollback(ctx, commits[1].CommitID))
	_, err = l.Resolve(ctx, commits[1].CommitID)
	assert.ErrorIs(t, err, vcserror.ErrCommitNotFound)
	_, err = l.CommitFiles(ctx, commits[1].CommitID)
	assert.ErrorIs(t, err, vcserror.ErrFileNotFound)
	assert.Equal(t, 1, store.Count(db.CollectionCommits))
	assert.Equal(t, 1, store.Count(db.CollectionCommitFiles))
}

func TestListAndApprove(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()
	appendChain(t, l, "redApple", 2)
	c, err := l.Append(ctx, AppendRequest{
		AssetName: "skateboard",
		Author:    "ej456",
		Version:   InitialVersion,
		Files:     map[string]string{"skateboard.usda": "k"},
	})
	require.Nil(t, err)
	assert.False(t, c.IsApproved())

	byAsset, err := l.ListCommits(ctx, CommitQuery{AssetName: "redApple"})
	require.Nil(t, err)
	require.Len(t, byAsset, 2)
	assert.Equal(t, int64(2), byAsset[0].CommitID)

	byAuthor, err := l.ListCommits(ctx, CommitQuery{Author: "ej456"})
	require.Nil(t, err)
	require.Len(t, byAuthor, 1)

	_, err = l.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	approved, err := l.Approve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.True(t, approved.IsApproved())

	again, err := l.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.Equal(t, []string{models.CommitStateApproved}, again.State)

	_, err = l.Approve(ctx, 42)
	assert.ErrorIs(t, err, vcserror.ErrCommitNotFound)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()
	c := appendChain(t, l, "redApple", 1)[0]
	assert.True(t, c.Pending)

	got, err := l.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.True(t, got.Pending)

	require.Nil(t, l.Publish(ctx, c.CommitID))
	got, err = l.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.False(t, got.Pending)
}

func TestCacheSkipsMutableCommits(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	first := New(store, Options{CacheSize: 16})
	second := New(store, Options{CacheSize: 16})

	c, err := first.Append(ctx, AppendRequest{
		AssetName: "skateboard",
		Author:    "ej456",
		Version:   InitialVersion,
		Files:     map[string]string{"skateboard.usda": "skateboard/staging/x/skateboard.usda"},
	})
	require.Nil(t, err)
	require.Nil(t, first.Publish(ctx, c.CommitID))
	got, err := first.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.False(t, got.IsApproved())
	assert.Equal(t, 0, first.cache.Len())

	// an approval made through another server instance is seen at once
	_, err = second.Approve(ctx, c.CommitID)
	require.Nil(t, err)
	got, err = first.Resolve(ctx, c.CommitID)
	require.Nil(t, err)
	assert.True(t, got.IsApproved())
	assert.Equal(t, 1, first.cache.Len())
}
