package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tidwall/gjson"
)

type appError = apperrors.Error

type detailedErr struct {
	appError
}

func (d *detailedErr) Details() map[string]any {
	return map[string]any{"holder": "js123"}
}

func TestWrapHttpRsp(t *testing.T) {
	errConflict := apperrors.New("asset is locked").SetStatusCode(http.StatusConflict)

	tests := []struct {
		name       string
		handler    RequestHandler
		wantStatus int
		check      func(t *testing.T, body string)
	}{
		{
			name: "json response",
			handler: func(r *http.Request) (*Response, error) {
				return &Response{StatusCode: http.StatusOK, Response: map[string]string{"name": "redApple"}}, nil
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body string) {
				assert.Equal(t, "redApple", gjson.Get(body, "name").String())
			},
		},
		{
			name: "app error keeps status code",
			handler: func(r *http.Request) (*Response, error) {
				return nil, errConflict.Msg("checked out by js123")
			},
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, body string) {
				assert.Equal(t, int64(0), gjson.Get(body, "result").Int())
				assert.Equal(t, "checked out by js123", gjson.Get(body, "error").String())
			},
		},
		{
			name: "details are forwarded",
			handler: func(r *http.Request) (*Response, error) {
				return nil, &detailedErr{errConflict}
			},
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, body string) {
				assert.Equal(t, "js123", gjson.Get(body, "details.holder").String())
			},
		},
		{
			name: "plain error is internal",
			handler: func(r *http.Request) (*Response, error) {
				return nil, io.ErrUnexpectedEOF
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "stream",
			handler: func(r *http.Request) (*Response, error) {
				return &Response{
					Stream:      io.NopCloser(strings.NewReader("zipbytes")),
					ContentType: "application/zip",
					Filename:    "redApple.zip",
				}, nil
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body string) {
				assert.Equal(t, "zipbytes", body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WrapHttpRsp(tt.handler).ServeHTTP(rr, req)
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.check != nil {
				tt.check(t, rr.Body.String())
			}
		})
	}
}
