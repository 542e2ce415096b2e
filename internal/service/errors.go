package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNoProductType Listing 未识别商品类型
	ErrNoProductType = errors.New("product type not detected")
	// ErrNotFound 资源不存在或不属于当前用户
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidSupplier 不支持的供应商
	ErrInvalidSupplier = errors.New("invalid supplier")
	// ErrProductNotSynced Listing 未识别当前供应商
	ErrProductNotSynced = errors.New("product supplier not detected")
	// ErrInvalidRequest 请求参数不合法
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMissingCredentials 未提供 API Key 或 Token
	ErrMissingCredentials = errors.New("API key is required")
)

// NoMatchError 目标供应商找不到对应商品
type NoMatchError struct {
	Supplier    string
	ProductType string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("Could not find matching product on %s", e.Supplier)
}

// AlreadyOnSupplierError Listing 已在目标供应商
type AlreadyOnSupplierError struct {
	Supplier string
}

func (e *AlreadyOnSupplierError) Error() string {
	return fmt.Sprintf("Product is already on %s", e.Supplier)
}

// NotConnectedError 用户未连接该供应商
type NotConnectedError struct {
	Supplier string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s is not connected", e.Supplier)
}

// RemotePendingError 本地已提交，平台 SKU 推送失败
type RemotePendingError struct {
	OperationID string
	Err         error
}

func (e *RemotePendingError) Error() string {
	return fmt.Sprintf("local switch committed (operation %s), marketplace update pending: %v", e.OperationID, e.Err)
}

func (e *RemotePendingError) Unwrap() error { return e.Err }

// notFound 将 gorm 未找到转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
