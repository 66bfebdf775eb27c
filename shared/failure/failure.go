// Package failure carries an HTTP status and a stable machine-readable kind
// alongside an error message. Package-level *Failure values act as
// sentinels: errors.Is matches them by identity through any number of
// fmt.Errorf("...: %w") wraps.
package failure

import (
	"errors"
	"net/http"
)

const (
	KindBadRequest   = "bad_request"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindInternal     = "internal"
)

type Failure struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var ForbiddenError = New(http.StatusForbidden, KindForbidden, "You don't have the required permissions")

func (e *Failure) Error() string {
	return e.Message
}

// New declares a sentinel failure.
func New(code int, kind, message string) *Failure {
	return &Failure{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func fromError(code int, kind string, err error) error {
	if err == nil {
		return nil
	}

	return New(code, kind, err.Error())
}

func BadRequest(err error) error {
	return fromError(http.StatusBadRequest, KindBadRequest, err)
}

func BadRequestFromString(msg string) error {
	return New(http.StatusBadRequest, KindBadRequest, msg)
}

func Unauthorized(msg string) error {
	return New(http.StatusUnauthorized, KindUnauthorized, msg)
}

func Forbidden(msg string) error {
	return New(http.StatusForbidden, KindForbidden, msg)
}

func NotFound(msg string) error {
	return New(http.StatusNotFound, KindNotFound, msg)
}

func Conflict(msg string) error {
	return New(http.StatusConflict, KindConflict, msg)
}

// InternalError exposes err's message to the client. Use it only for
// messages that are safe to show.
func InternalError(err error) error {
	return fromError(http.StatusInternalServerError, KindInternal, err)
}

func find(err error) (*Failure, bool) {
	var fail *Failure

	ok := errors.As(err, &fail)

	return fail, ok
}

// GetCode is 500 for anything that is not a failure.
func GetCode(err error) int {
	if fail, ok := find(err); ok {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind is KindInternal for anything that is not a failure.
func GetKind(err error) string {
	if fail, ok := find(err); ok && fail.Kind != "" {
		return fail.Kind
	}

	return KindInternal
}

// GetMessage returns the message of the first failure in the chain so
// wrapping context stays out of client responses. Other errors are hidden.
func GetMessage(err error) string {
	if fail, ok := find(err); ok {
		return fail.Message
	}

	return http.StatusText(http.StatusInternalServerError)
}
