package httpx

import (
	"context"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Response struct {
	StatusCode  int
	Location    string //in case of http.StatusCreated
	Response    any
	ContentType string
	// Stream, when set, is copied to the client verbatim instead of encoding Response.
	Stream   io.ReadCloser
	Filename string
}

type RequestHandler func(r *http.Request) (*Response, error)

func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			SendErrorRsp(r.Context(), w, err)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.Stream != nil {
			sendStream(r.Context(), w, rsp)
			return
		}
		if rsp.ContentType == "" {
			rsp.ContentType = "application/json"
		}
		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		if rsp.ContentType == "application/json" {
			SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
		} else {
			ErrApplicationError("unsupported response type").Send(w)
		}
	})
}

// SendErrorRsp maps any error returned by a handler onto an error response.
func SendErrorRsp(ctx context.Context, w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *Error:
		e.Send(w)
	case apperrors.Error:
		statusCode := e.StatusCode()
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		httperror := &Error{
			StatusCode:  statusCode,
			Description: e.ErrorAll(),
		}
		if d, ok := err.(Detailer); ok {
			httperror.Details = d.Details()
		}
		httperror.Send(w)
	default:
		log.Ctx(ctx).Error().Err(err).Msg("unhandled error")
		ErrApplicationError(err.Error()).Send(w)
	}
}

// SendJsonRsp encodes v as the JSON body of the response.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, v any, location ...string) {
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.WriteHeader(statusCode)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to encode response")
		ErrApplicationError("unable to encode response").Send(w)
		return
	}
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to write response")
	}
}

func sendStream(ctx context.Context, w http.ResponseWriter, rsp *Response) {
	defer rsp.Stream.Close()
	contentType := rsp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if rsp.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+rsp.Filename+`"`)
	}
	statusCode := rsp.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, rsp.Stream); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("stream interrupted")
	}
}

type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler RequestHandler
}
