package apis

import (
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/assetsrv/schemavalidator"
	"github.com/tansive/assetvault/internal/common/httpx"
	"github.com/tansive/assetvault/pkg/api"
)

func assetNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "assetName")
	if !schemavalidator.ValidateAssetName(name) {
		return "", httpx.ErrInvalidAssetName()
	}
	return name, nil
}

func (h *handlers) listAssets(r *http.Request) (*httpx.Response, error) {
	checkedIn, err := boolQueryParam(r, "checkedInOnly")
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	req := api.ListAssetsReq{
		Search:        q.Get("search"),
		Author:        q.Get("author"),
		CheckedInOnly: checkedIn,
		SortBy:        q.Get("sortBy"),
	}
	if err := schemavalidator.V().Struct(req); err != nil {
		return nil, validationError(err)
	}
	views, aerr := h.manager.ListAssets(r.Context(), assetmanager.ListQuery{
		Search:        req.Search,
		Author:        req.Author,
		CheckedInOnly: req.CheckedInOnly,
		SortBy:        req.SortBy,
	})
	if aerr != nil {
		return nil, aerr
	}
	if views == nil {
		views = []api.AssetView{}
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.ListAssetsRsp{Assets: views},
	}, nil
}

func (h *handlers) getAsset(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	view, aerr := h.manager.GetAsset(r.Context(), name)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.GetAssetRsp{Asset: *view},
	}, nil
}

func (h *handlers) registerAsset(r *http.Request) (*httpx.Response, error) {
	req := api.RegisterAssetReq{}
	if err := decodeBody(r, registerReqSchema, &req); err != nil {
		return nil, err
	}
	creator, err := requester(r, req.Creator)
	if err != nil {
		return nil, err
	}
	view, aerr := h.manager.Register(r.Context(), assetmanager.RegisterRequest{
		Name:     req.Name,
		Creator:  creator,
		Keywords: req.Keywords,
		Notes:    req.Notes,
		Files:    req.Files,
	})
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/assets/" + view.Name,
		Response:   api.GetAssetRsp{Asset: *view},
	}, nil
}

func (h *handlers) checkout(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	req := api.CheckoutReq{}
	if err := decodeBody(r, requesterReqSchema, &req); err != nil {
		return nil, err
	}
	who, err := requester(r, req.Requester)
	if err != nil {
		return nil, err
	}
	view, ref, aerr := h.manager.CheckOut(r.Context(), name, who)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.CheckoutRsp{Asset: *view, DownloadRef: ref},
	}, nil
}

func (h *handlers) checkin(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	req := api.CheckinReq{}
	if err := decodeBody(r, checkinReqSchema, &req); err != nil {
		return nil, err
	}
	who, err := requester(r, req.Requester)
	if err != nil {
		return nil, err
	}
	view, aerr := h.manager.CheckIn(r.Context(), assetmanager.CheckInRequest{
		AssetName:   name,
		Requester:   who,
		Notes:       req.Notes,
		VersionBump: req.VersionBump,
		Files:       req.Files,
	})
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.CheckinRsp{Asset: *view},
	}, nil
}

func (h *handlers) cancelCheckout(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	req := api.CancelCheckoutReq{}
	if err := decodeBody(r, requesterReqSchema, &req); err != nil {
		return nil, err
	}
	who, err := requester(r, req.Requester)
	if err != nil {
		return nil, err
	}
	view, aerr := h.manager.CancelCheckout(r.Context(), name, who)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.GetAssetRsp{Asset: *view},
	}, nil
}

func (h *handlers) download(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	commitID, err := commitQueryParam(r)
	if err != nil {
		return nil, err
	}
	archive, aerr := h.manager.Download(r.Context(), name, commitID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: "application/zip",
		Stream:      archive.Body,
		Filename:    archive.Filename,
	}, nil
}

func (h *handlers) uploadFile(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	who, err := requester(r, r.URL.Query().Get("requester"))
	if err != nil {
		return nil, err
	}
	if r.Body == nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if h.maxUploadBytes > 0 && r.ContentLength > h.maxUploadBytes {
		return nil, httpx.ErrRequestTooLarge()
	}
	body := &limitReader{r: r.Body, remaining: h.maxUploadBytes}
	if h.maxUploadBytes <= 0 {
		body.remaining = 1<<63 - 2
	}
	rsp, aerr := h.manager.StageUpload(r.Context(), name, chi.URLParam(r, "filename"), who, body)
	if aerr != nil {
		if body.exceeded {
			return nil, httpx.ErrRequestTooLarge()
		}
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/assets/" + name + "/files/" + rsp.Filename,
		Response:   rsp,
	}, nil
}

func (h *handlers) getFile(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	commitID, err := commitQueryParam(r)
	if err != nil {
		return nil, err
	}
	filename := chi.URLParam(r, "filename")
	body, aerr := h.manager.GetFile(r.Context(), name, filename, commitID)
	if aerr != nil {
		return nil, aerr
	}
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Stream:      body,
	}, nil
}

func (h *handlers) history(r *http.Request) (*httpx.Response, error) {
	name, err := assetNameParam(r)
	if err != nil {
		return nil, err
	}
	limit, err := intQueryParam(r, "limit")
	if err != nil {
		return nil, err
	}
	commits, aerr := h.manager.History(r.Context(), name, limit)
	if aerr != nil {
		return nil, aerr
	}
	if commits == nil {
		commits = []api.Commit{}
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.HistoryRsp{Commits: commits},
	}, nil
}
