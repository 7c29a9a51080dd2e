package errors

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"runtime"

	"ptvdata/logging"
)

// WrapWithLog 包装错误并记录警告日志
func WrapWithLog(ctx context.Context, err error, code ErrorCode, msg string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)

	wrapped := WrapError(err, code, msg)

	allFields := append([]logging.Field{
		logging.Error(err),
		logging.String("error_code", string(code)),
		logging.String("location", fmt.Sprintf("%s:%d", file, line)),
	}, fields...)

	logging.GetLogger().Warn(ctx, msg, allFields...)

	return wrapped
}

// NotFound 创建未找到错误，附带实体类别与标识
func NotFound(kind string, id any) IError {
	return Errorf(ErrCodeNotFound, "%s %v 不存在", kind, id).
		WithContext("kind", kind).
		WithContext("id", id)
}

// UnsupportedVariant 创建不支持变体错误
func UnsupportedVariant(operation string, variant any) IError {
	return Errorf(ErrCodeUnsupportedVariant, "%s 不支持子类型 %v", operation, variant).
		WithContext("operation", operation).
		WithContext("variant", variant)
}

// NewValidationError 创建新的验证错误
func NewValidationError(msg string) error {
	return NewError(ErrCodeValidation, msg)
}

// NotFoundOnNoRows 将 sql.ErrNoRows 转为 NOT_FOUND，其余错误原样返回
func NotFoundOnNoRows(err error, kind string, id any) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, sql.ErrNoRows) {
		return WrapError(err, ErrCodeNotFound, fmt.Sprintf("%s %v 不存在", kind, id)).
			WithContext("kind", kind).
			WithContext("id", id)
	}
	return err
}
