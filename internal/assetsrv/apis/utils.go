package apis

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/tansive/assetvault/internal/assetsrv/auth"
	"github.com/tansive/assetvault/internal/assetsrv/schemavalidator"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/httpx"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxJSONBody = 1 << 20

// decodeBody validates the JSON body against schema and decodes it into out.
// An empty body decodes as an empty object.
func decodeBody(r *http.Request, schema *jsonschema.Schema, out any) error {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
		if err != nil {
			return httpx.ErrUnableToReadRequest()
		}
		if len(b) > maxJSONBody {
			return httpx.ErrRequestTooLarge()
		}
		body = b
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if !gjson.ValidBytes(body) {
		return httpx.ErrUnableToParseReqData()
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return httpx.ErrUnableToParseReqData()
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return ErrInvalidBody.Msg(schemaErrorMessage(ve))
		}
		return ErrInvalidBody.Msg(err.Error())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return httpx.ErrUnableToParseReqData()
	}
	if err := schemavalidator.V().Struct(out); err != nil {
		return validationError(err)
	}
	return nil
}

// schemaErrorMessage reports the innermost causes, which name the offending field.
func schemaErrorMessage(ve *jsonschema.ValidationError) string {
	leaves := []string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return "invalid request body: " + strings.Join(leaves, "; ")
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return vcserror.ErrInvalidInput.Msg(err.Error())
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fe.Field()+" failed "+fe.Tag()+" validation")
	}
	return vcserror.ErrInvalidInput.Msg(strings.Join(msgs, "; "))
}

// requester picks the identity that owns this request. An authenticated
// identity wins; a body value that disagrees with it is rejected.
func requester(r *http.Request, fromBody string) (string, error) {
	identity := auth.IdentityFromContext(r.Context())
	if identity != "" {
		if fromBody != "" && fromBody != identity {
			return "", ErrIdentityMismatch
		}
		return identity, nil
	}
	if fromBody == "" {
		return "", vcserror.ErrInvalidInput.Msg("requester is required")
	}
	return fromBody, nil
}

func commitQueryParam(r *http.Request) (int64, error) {
	v := r.URL.Query().Get("commit")
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrInvalidCommitId()
	}
	return id, nil
}

func boolQueryParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, httpx.ErrInvalidRequest("invalid value for " + name + ": " + v)
	}
	return b, nil
}

func intQueryParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, httpx.ErrInvalidRequest("invalid value for " + name + ": " + v)
	}
	return n, nil
}

// limitReader fails the read once more than remaining bytes have been consumed.
type limitReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

var errBodyTooLarge = errors.New("request body exceeds the upload limit")

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		l.exceeded = true
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errBodyTooLarge
	}
	return n, err
}
