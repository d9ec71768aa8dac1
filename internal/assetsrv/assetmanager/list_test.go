package assetmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/pkg/api"
)

func names(views []api.AssetView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestListAssets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultOptions())
	f.register(t, "skateboard", "Bob", "wood", "wheels")
	f.register(t, "redApple", "alice", "fruit")
	f.register(t, "banana", "carol", "Fruit")
	_, _, err := f.m.CheckOut(ctx, "banana", "carol")
	require.Nil(t, err)

	all, err := f.m.ListAssets(ctx, ListQuery{})
	require.Nil(t, err)
	assert.Equal(t, []string{"banana", "redApple", "skateboard"}, names(all))

	fruit, err := f.m.ListAssets(ctx, ListQuery{Search: "FRUIT"})
	require.Nil(t, err)
	assert.Equal(t, []string{"banana", "redApple"}, names(fruit))

	byName, err := f.m.ListAssets(ctx, ListQuery{Search: "apple"})
	require.Nil(t, err)
	assert.Equal(t, []string{"redApple"}, names(byName))

	checkedIn, err := f.m.ListAssets(ctx, ListQuery{CheckedInOnly: true})
	require.Nil(t, err)
	assert.Equal(t, []string{"redApple", "skateboard"}, names(checkedIn))

	byAuthor, err := f.m.ListAssets(ctx, ListQuery{Author: "bob"})
	require.Nil(t, err)
	assert.Equal(t, []string{"skateboard"}, names(byAuthor))

	sorted, err := f.m.ListAssets(ctx, ListQuery{SortBy: SortByAuthor})
	require.Nil(t, err)
	assert.Equal(t, []string{"redApple", "skateboard", "banana"}, names(sorted))

	created, err := f.m.ListAssets(ctx, ListQuery{SortBy: SortByCreated})
	require.Nil(t, err)
	require.Len(t, created, 3)
	assert.False(t, created[0].CreatedAt.Before(created[2].CreatedAt))

	_, err = f.m.ListAssets(ctx, ListQuery{SortBy: "size"})
	assert.ErrorIs(t, err, vcserror.ErrInvalidInput)
}
