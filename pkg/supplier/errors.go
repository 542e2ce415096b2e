package supplier

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth 凭证无效或权限不足 (401/403)
	ErrAuth = errors.New("supplier rejected credentials")
	// ErrUnsupported 不支持的供应商类型
	ErrUnsupported = errors.New("unsupported supplier")
	// ErrNotFound 供应商侧无此资源
	ErrNotFound = errors.New("supplier resource not found")
)

// AuthError 供应商鉴权失败
type AuthError struct {
	Supplier Kind
	Status   int
	Message  string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s auth error (%d): %s", e.Supplier, e.Status, e.Message)
	}
	return fmt.Sprintf("%s auth error (%d)", e.Supplier, e.Status)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// APIError 其他供应商接口错误 (含网络错误，此时 Status 为 0)
type APIError struct {
	Supplier Kind
	Status   int
	Body     string
	Err      error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("%s api error: %v", e.Supplier, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s api error (%d): %v", e.Supplier, e.Status, e.Err)
	default:
		return fmt.Sprintf("%s api error (%d): %s", e.Supplier, e.Status, truncate(e.Body, 300))
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAuthError 是否为鉴权错误
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
