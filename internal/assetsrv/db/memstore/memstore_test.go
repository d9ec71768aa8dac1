package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
)

func newAsset(name string) *models.Asset {
	return &models.Asset{
		Name:           name,
		Keywords:       []string{"fruit"},
		LatestCommitID: 1,
		LastApprovedID: 1,
		CreatedBy:      "js123",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertOne(ctx, db.CollectionAssets, "redApple", newAsset("redApple")))
	err := s.InsertOne(ctx, db.CollectionAssets, "redApple", newAsset("redApple"))
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	var a models.Asset
	require.NoError(t, s.FindOne(ctx, db.CollectionAssets, db.Filter{models.AssetFieldName: "redApple"}, &a))
	assert.Equal(t, "redApple", a.Name)
	assert.Equal(t, int64(1), a.LatestCommitID)

	err = s.FindOne(ctx, db.CollectionAssets, db.Filter{models.AssetFieldName: "pear"}, &a)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestFindSorted(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := int64(1); i <= 3; i++ {
		c := &models.Commit{CommitID: i, AssetName: "redApple", Author: "js123"}
		require.NoError(t, s.InsertOne(ctx, db.CollectionCommits, c.AssetName+string(rune('0'+i)), c))
	}
	var commits []models.Commit
	require.NoError(t, s.Find(ctx, db.CollectionCommits, db.Filter{models.CommitFieldAssetName: "redApple"},
		db.FindOptions{SortBy: models.CommitFieldCommitID, Descending: true, Limit: 2}, &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, int64(3), commits[0].CommitID)
	assert.Equal(t, int64(2), commits[1].CommitID)

	var none []models.Commit
	require.NoError(t, s.Find(ctx, db.CollectionCommits, db.Filter{models.CommitFieldAssetName: "pear"}, db.FindOptions{}, &none))
	assert.Empty(t, none)
}

func TestCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertOne(ctx, db.CollectionAssets, "redApple", newAsset("redApple")))

	filter := db.Filter{models.AssetFieldName: "redApple", models.AssetFieldCheckedOut: false}
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matched, err := s.UpdateOne(ctx, db.CollectionAssets, filter, db.Patch{
				models.AssetFieldCheckedOut:   true,
				models.AssetFieldCheckedOutBy: "js123",
			})
			assert.NoError(t, err)
			if matched {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)

	var a models.Asset
	err := s.FindOneAndUpdate(ctx, db.CollectionAssets, filter, db.Patch{models.AssetFieldCheckedOutBy: "ej456"}, &a)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestDeleteAndSequence(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertOne(ctx, db.CollectionCommitFiles, "1", &models.CommitFile{CommitID: 1, Files: map[string]string{"a.usda": "k"}}))
	deleted, err := s.DeleteOne(ctx, db.CollectionCommitFiles, db.Filter{models.CommitFieldCommitID: int64(1)})
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, s.Count(db.CollectionCommitFiles))

	n1, _ := s.NextSequence(ctx, db.SequenceCommitID)
	n2, _ := s.NextSequence(ctx, db.SequenceCommitID)
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
}
