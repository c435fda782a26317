package media

import (
	"errors"
	"fmt"
)

// ErrNotFound 图片不存在或不属于请求者
// 两种情况对外收敛为同一个信号，避免向非所有者泄露记录是否存在
var ErrNotFound = errors.New("image not found")

// ErrProcessing 图片处理失败，该文件的所有产物已清理
var ErrProcessing = errors.New("image processing failed")

// ValidationError 输入校验失败，原因原样透出给调用方
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError 判断是否为输入校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
