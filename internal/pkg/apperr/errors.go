// internal/pkg/apperr/errors.go
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind 是跨服务统一的错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUpstream
	KindSignatureInvalid
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_unavailable"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error 携带分类信息的错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func NotFound(format string, args ...any) error {
	return newf(KindNotFound, nil, format, args...)
}

func Validation(format string, args ...any) error {
	return newf(KindValidation, nil, format, args...)
}

func Conflict(format string, args ...any) error {
	return newf(KindConflict, nil, format, args...)
}

// Upstream 表示调用兄弟服务失败
func Upstream(cause error, format string, args ...any) error {
	return newf(KindUpstream, cause, format, args...)
}

func SignatureInvalid(format string, args ...any) error {
	return newf(KindSignatureInvalid, nil, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newf(KindForbidden, nil, format, args...)
}

func Internal(cause error, format string, args ...any) error {
	return newf(KindInternal, cause, format, args...)
}

// KindOf 沿着包装链查找第一个 *Error
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于某一分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus 把错误分类映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindSignatureInvalid:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
