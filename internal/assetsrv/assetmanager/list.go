package assetmanager

import (
	"context"
	"sort"
	"strings"

	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tansive/assetvault/pkg/api"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortByName    = "name"
	SortByAuthor  = "author"
	SortByUpdated = "updated"
	SortByCreated = "created"
)

type ListQuery struct {
	// Search matches the asset name or any keyword, ignoring case.
	Search string
	// Author matches the asset creator, ignoring case.
	Author        string
	CheckedInOnly bool
	SortBy        string
}

// ListAssets filters and sorts the registered assets. Names and authors sort
// with a case insensitive collation; dates sort newest first.
func (m *Manager) ListAssets(ctx context.Context, q ListQuery) ([]api.AssetView, apperrors.Error) {
	switch q.SortBy {
	case "", SortByName, SortByAuthor, SortByUpdated, SortByCreated:
	default:
		return nil, vcserror.ErrInvalidInput.Msg("invalid sortBy: " + q.SortBy + "; expected name, author, updated or created")
	}
	assets, err := m.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(q.Search))
	author := fold.String(strings.TrimSpace(q.Author))
	views := []api.AssetView{}
	for i := range assets {
		a := &assets[i]
		if q.CheckedInOnly && a.CheckedOut {
			continue
		}
		if author != "" && fold.String(a.CreatedBy) != author {
			continue
		}
		if search != "" && !matchesSearch(fold, a, search) {
			continue
		}
		v, err := m.view(ctx, a)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	sortViews(views, q.SortBy)
	return views, nil
}

func matchesSearch(fold cases.Caser, a *models.Asset, search string) bool {
	if strings.Contains(fold.String(a.Name), search) {
		return true
	}
	for _, k := range a.Keywords {
		if strings.Contains(fold.String(k), search) {
			return true
		}
	}
	return false
}

func sortViews(views []api.AssetView, sortBy string) {
	col := collate.New(language.English, collate.IgnoreCase)
	switch sortBy {
	case SortByAuthor:
		sort.SliceStable(views, func(i, j int) bool {
			if c := col.CompareString(views[i].Creator, views[j].Creator); c != 0 {
				return c < 0
			}
			return col.CompareString(views[i].Name, views[j].Name) < 0
		})
	case SortByUpdated:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].UpdatedAt.After(views[j].UpdatedAt)
		})
	case SortByCreated:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		})
	default:
		sort.SliceStable(views, func(i, j int) bool {
			return col.CompareString(views[i].Name, views[j].Name) < 0
		})
	}
}
