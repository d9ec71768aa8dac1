package apis

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tansive/assetvault/internal/common/httpx"
	"github.com/tansive/assetvault/pkg/api"
)

func commitIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "commitId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrInvalidCommitId()
	}
	return id, nil
}

func (h *handlers) listCommits(r *http.Request) (*httpx.Response, error) {
	limit, err := intQueryParam(r, "limit")
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	commits, aerr := h.manager.ListCommits(r.Context(), q.Get("asset"), q.Get("author"), int64(limit))
	if aerr != nil {
		return nil, aerr
	}
	if commits == nil {
		commits = []api.Commit{}
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.ListCommitsRsp{Commits: commits},
	}, nil
}

func (h *handlers) getCommit(r *http.Request) (*httpx.Response, error) {
	id, err := commitIDParam(r)
	if err != nil {
		return nil, err
	}
	commit, aerr := h.manager.GetCommit(r.Context(), id)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.GetCommitRsp{Commit: *commit},
	}, nil
}

func (h *handlers) getCommitFiles(r *http.Request) (*httpx.Response, error) {
	id, err := commitIDParam(r)
	if err != nil {
		return nil, err
	}
	files, aerr := h.manager.GetCommitFiles(r.Context(), id)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   files,
	}, nil
}

func (h *handlers) approveCommit(r *http.Request) (*httpx.Response, error) {
	id, err := commitIDParam(r)
	if err != nil {
		return nil, err
	}
	commit, aerr := h.manager.ApproveCommit(r.Context(), id)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.ApproveCommitRsp{Commit: *commit},
	}, nil
}
