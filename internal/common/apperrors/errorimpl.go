package apperrors

import "strings"

// appError implements the apperrors.Error interface
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
	expandError   bool
	prefix        string
	suffix        string
}

func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.Error()
	}
	msgs := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		msgs = append(msgs, err.Error())
	}
	return e.Error() + ": " + strings.Join(msgs, ";")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// New derives a new error from e. The derived error inherits the status code and
// matches e with errors.Is.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		statuscode: e.statuscode,
		base:       e,
	}
}

// clone returns a shallow copy so that package level sentinels are never mutated
func (e *appError) clone() *appError {
	c := *e
	c.wrappedErrors = append([]error(nil), e.wrappedErrors...)
	c.base = e
	return &c
}

func (e *appError) Msg(msg string) Error {
	c := e.clone()
	c.msg = msg
	return c
}

func (e *appError) Prefix(prefix string) Error {
	c := e.clone()
	c.prefix = prefix
	return c
}

func (e *appError) Suffix(suffix string) Error {
	c := e.clone()
	c.suffix = suffix
	return c
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	c := e.clone()
	c.msg = msg
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Err(err ...error) Error {
	c := e.clone()
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	c := e.clone()
	c.base = e.base
	c.expandError = expand
	return c
}

func (e *appError) SetStatusCode(code int) Error {
	c := e.clone()
	c.base = e.base
	c.statuscode = code
	return c
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}
