// Package errors 提供带错误码的应用错误类型。
//
// 数据访问层只使用少量错误码：未找到、不支持的变体、验证失败、并发冲突等；
// 仓储/存储层返回的原始错误原样向上传递，不在此处统一包装。
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// ErrCodeUnsupportedVariant 子类型分支没有对应处理（编程错误，不重试）
	ErrCodeUnsupportedVariant ErrorCode = "UNSUPPORTED_VARIANT"

	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeSchedulePublish ErrorCode = "SCHEDULE_PUBLISH_FAILED"
	ErrCodeConcurrency     ErrorCode = "CONCURRENCY_ERROR"
	ErrCodeLockTimeout     ErrorCode = "LOCK_TIMEOUT"

	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeQueue    ErrorCode = "QUEUE_ERROR"
)

// IError 错误接口
type IError interface {
	error

	Code() ErrorCode
	Message() string
	Cause() error
	Details() map[string]any
	Stack() string

	// WithContext 添加上下文，返回新错误
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) IError {
	return &AppError{
		code:    code,
		message: message,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// Errorf 以格式化消息创建错误
func Errorf(code ErrorCode, format string, args ...any) IError {
	return &AppError{
		code:    code,
		message: fmt.Sprintf(format, args...),
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// WrapError 包装错误；err 为 nil 时返回 nil
func WrapError(err error, code ErrorCode, message string) IError {
	if err == nil {
		return nil
	}
	return &AppError{
		code:    code,
		message: message,
		cause:   err,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *AppError) Code() ErrorCode { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Cause() error    { return e.cause }
func (e *AppError) Stack() string   { return e.stack }

// Details 获取错误详情
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	return e.details
}

// Is 同错误码的 AppError 视为相同错误，便于与预定义哨兵比较
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}
	return false
}

// Unwrap 支持 errors.Unwrap / errors.Is 穿透到 cause
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithContext 添加上下文
func (e *AppError) WithContext(key string, value any) IError {
	details := copyMap(e.details)
	details[key] = value
	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: details,
		stack:   e.stack,
	}
}

// 预定义错误哨兵（用于 errors.Is 比较）
var (
	ErrNotFound           = NewError(ErrCodeNotFound, "资源未找到")
	ErrInvalidInput       = NewError(ErrCodeInvalidInput, "无效的输入参数")
	ErrConflict           = NewError(ErrCodeConflict, "状态冲突")
	ErrUnsupportedVariant = NewError(ErrCodeUnsupportedVariant, "不支持的子类型")
	ErrValidation         = NewError(ErrCodeValidation, "数据验证失败")
	ErrSchedulePublish    = NewError(ErrCodeSchedulePublish, "计划发布验证失败")
	ErrConcurrency        = NewError(ErrCodeConcurrency, "并发冲突")
	ErrLockTimeout        = NewError(ErrCodeLockTimeout, "获取锁超时")
)

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrCodeNotFound)
}

// IsValidation 检查是否为验证错误（含计划发布验证失败）
func IsValidation(err error) bool {
	return IsErrorCode(err, ErrCodeValidation) || IsErrorCode(err, ErrCodeSchedulePublish)
}

// IsUnsupportedVariant 检查是否为不支持的变体错误
func IsUnsupportedVariant(err error) bool {
	return IsErrorCode(err, ErrCodeUnsupportedVariant)
}

// IsErrorCode 检查错误链上是否存在指定错误代码
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// coded 由非 AppError 的领域错误实现（例如计划发布验证错误）
type coded interface {
	Code() ErrorCode
}

// GetErrorCode 获取错误代码；无法识别的错误返回 INTERNAL_ERROR
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c coded
	if stdErrors.As(err, &c) {
		return c.Code()
	}
	return ErrCodeInternal
}

// captureStack 捕获堆栈信息
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var builder strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return builder.String()
}

func copyMap(original map[string]any) map[string]any {
	copied := make(map[string]any, len(original)+1)
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
