package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Invalid      Kind = "invalid"
	Unauthorized Kind = "unauthorized"
	NotFound     Kind = "not_found"
	Upstream     Kind = "upstream"
	Internal     Kind = "internal"
)

type Error struct {
	Kind      Kind
	PublicMsg string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.PublicMsg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidErr(publicMsg string) *Error {
	return &Error{Kind: Invalid, PublicMsg: publicMsg}
}

func UnauthorizedErr(publicMsg string) *Error {
	return &Error{Kind: Unauthorized, PublicMsg: publicMsg}
}

func NotFoundErr(publicMsg string) *Error {
	return &Error{Kind: NotFound, PublicMsg: publicMsg}
}

// Wrap marks an internal failure. The wrapped detail is for logs only and
// never reaches the client.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Internal, PublicMsg: "internal error", Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case Unauthorized:
			return http.StatusUnauthorized
		case NotFound:
			return http.StatusNotFound
		case Upstream:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "internal error"
}
