package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/common/httpx"
)

type handlers struct {
	manager        *assetmanager.Manager
	maxUploadBytes int64
}

func (h *handlers) routes() []httpx.ResponseHandlerParam {
	return []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodGet,
			Path:    "/assets",
			Handler: h.listAssets,
		},
		{
			Method:  http.MethodPost,
			Path:    "/assets",
			Handler: h.registerAsset,
		},
		{
			Method:  http.MethodGet,
			Path:    "/assets/{assetName}",
			Handler: h.getAsset,
		},
		{
			Method:  http.MethodPost,
			Path:    "/assets/{assetName}/checkout",
			Handler: h.checkout,
		},
		{
			Method:  http.MethodPost,
			Path:    "/assets/{assetName}/checkin",
			Handler: h.checkin,
		},
		{
			Method:  http.MethodPost,
			Path:    "/assets/{assetName}/cancel-checkout",
			Handler: h.cancelCheckout,
		},
		{
			Method:  http.MethodGet,
			Path:    "/assets/{assetName}/download",
			Handler: h.download,
		},
		{
			Method:  http.MethodPut,
			Path:    "/assets/{assetName}/files/{filename}",
			Handler: h.uploadFile,
		},
		{
			Method:  http.MethodGet,
			Path:    "/assets/{assetName}/files/{filename}",
			Handler: h.getFile,
		},
		{
			Method:  http.MethodGet,
			Path:    "/assets/{assetName}/history",
			Handler: h.history,
		},
		{
			Method:  http.MethodGet,
			Path:    "/commits",
			Handler: h.listCommits,
		},
		{
			Method:  http.MethodGet,
			Path:    "/commits/{commitId}",
			Handler: h.getCommit,
		},
		{
			Method:  http.MethodGet,
			Path:    "/commits/{commitId}/files",
			Handler: h.getCommitFiles,
		},
		{
			Method:  http.MethodPost,
			Path:    "/commits/{commitId}/approve",
			Handler: h.approveCommit,
		},
	}
}

// Router mounts the asset and commit endpoints on r.
func Router(r chi.Router, m *assetmanager.Manager, maxUploadBytes int64) {
	h := &handlers{manager: m, maxUploadBytes: maxUploadBytes}
	for _, route := range h.routes() {
		r.Method(route.Method, route.Path, httpx.WrapHttpRsp(route.Handler))
	}
}
