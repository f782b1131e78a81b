package npm

import (
	"errors"
	"fmt"
)

// Kind 区分错误类别，代理层据此映射 HTTP 状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidRequest
)

// String 返回对外暴露的错误码。
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "internal_error"
	}
}

// Error 是 npm 包内所有失败的统一载体。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound 构造资源不存在错误。
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidRequest 构造请求格式错误。
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal 包装上游或解析失败，err 可以为 nil。
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 返回 err 链上第一个 *Error 的类别；其他错误一律视为内部错误。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
