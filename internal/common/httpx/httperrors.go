package httpx

import (
	"net/http"
)

type Error struct {
	Description string         `json:"description"`
	StatusCode  int            `json:"http_status_code"`
	Details     map[string]any `json:"details,omitempty"`
}

// Detailer is implemented by errors that carry structured details for the client.
type Detailer interface {
	Details() map[string]any
}

type errorRsp struct {
	Result  int            `json:"result"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

const Failure int = 0

func (e *Error) Send(w http.ResponseWriter) {
	if w != nil {
		rsp := &errorRsp{
			Result:  Failure,
			Error:   e.Description,
			Details: e.Details,
		}
		// Encode the response struct as JSON and send it
		rspJson, err := json.Marshal(rsp)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Unable to parse error"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.StatusCode)
		w.Write(rspJson)
	}
}

func (e *Error) Error() string {
	return e.Description
}

func (current Error) Is(other error) bool {
	return current.Error() == other.Error()
}

// Common Errors

func ErrUnableToParseReqData() *Error {
	return &Error{
		Description: "Unable to parse request",
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrUnableToReadRequest() *Error {
	return &Error{
		Description: "Unable to read request",
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrRequestTooLarge() *Error {
	return &Error{
		Description: "Request body too large",
		StatusCode:  http.StatusRequestEntityTooLarge,
	}
}

func ErrApplicationError(err ...string) *Error {
	var s string
	if len(err) > 0 {
		s = err[0]
	} else {
		s = "Unable to process request"
	}
	return &Error{
		Description: s,
		StatusCode:  http.StatusInternalServerError,
	}
}

func ErrUnAuthorized(str ...string) *Error {
	var s string
	if len(str) > 0 {
		s = str[0]
	} else {
		s = "Unable to authenticate request"
	}
	return &Error{
		Description: s,
		StatusCode:  http.StatusUnauthorized,
	}
}

func ErrInvalidRequest(str ...string) *Error {
	var s string
	if len(str) > 0 {
		s = str[0]
	} else {
		s = "empty request values or invalid request"
	}
	return &Error{
		Description: s,
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrInvalidAssetName() *Error {
	return &Error{
		Description: "Empty or invalid asset name",
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrInvalidCommitId() *Error {
	return &Error{
		Description: "Empty or invalid commit id",
		StatusCode:  http.StatusBadRequest,
	}
}
