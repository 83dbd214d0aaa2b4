package apperr

import "fmt"

// ValidationError 调用方给的数据不足以完成操作 (空购物车、商品无法解析等)
// 返回给前端 4xx
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation 构造校验错误
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PersistenceError 底层存储失败 (连接断开、约束冲突、缺表)
// 保留原始 cause 便于排查，返回给前端 5xx
type PersistenceError struct {
	Msg   string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Persistence 构造持久化错误
func Persistence(msg string, cause error) *PersistenceError {
	return &PersistenceError{Msg: msg, Cause: cause}
}
