package xretry

import "errors"

var (
	ErrNilFunc    = errors.New("xretry: nil function")
	ErrNilContext = errors.New("xretry: nil context")
)

// PermanentError 标记不应重试的错误
type PermanentError struct {
	Err error
}

// Permanent 包装 err 使重试立即终止。nil 返回 nil。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "xretry: permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent 判断错误链中是否有 *PermanentError
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
