// Package apperr defines the error kinds surfaced by the storefront and how
// each one is rendered over HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindUnauthorized
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is one itemized validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind, a user facing message and optional structured detail
// that is merged into the JSON body.
type Error struct {
	Kind    Kind
	Message string
	Fields  gin.H
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// With attaches structured detail to the response body.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = gin.H{}
	}
	e.Fields[key] = value
	return e
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "authentication required"}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Validation(message string, fields ...FieldError) *Error {
	e := &Error{Kind: KindValidation, Message: message}
	if len(fields) > 0 {
		e.With("fields", fields)
	}
	return e
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps a storage or unexpected failure. op names the operation for
// the log line; the caller only ever sees an opaque message.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Op: op, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Respond renders err as JSON and aborts the request. Internal failures are
// logged with op and any extra fields such as entity ids.
func Respond(c *gin.Context, log *zap.Logger, op string, err error, fields ...zap.Field) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal(op, err)
	}

	if e.Kind == KindInternal {
		if e.Op != "" {
			op = e.Op
		}
		log.Error("request failed",
			append([]zap.Field{zap.String("op", op), zap.Error(e.Err)}, fields...)...)
	}

	body := gin.H{}
	for k, v := range e.Fields {
		body[k] = v
	}
	body["error"] = e.Message
	body["code"] = e.Kind.String()
	c.AbortWithStatusJSON(e.Kind.Status(), body)
}
