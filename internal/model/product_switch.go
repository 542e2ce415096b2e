package model

import (
	"time"

	"gorm.io/datatypes"
)

// 切换状态机
// resolving_target -> generating_skus -> updating_local -> local_committed -> updating_marketplace -> done
// 任一阶段失败进入 failed；平台推送失败停留在 local_committed
const (
	SwitchStateResolvingTarget     = "resolving_target"
	SwitchStateGeneratingSKUs      = "generating_skus"
	SwitchStateUpdatingLocal       = "updating_local"
	SwitchStateLocalCommitted      = "local_committed"
	SwitchStateUpdatingMarketplace = "updating_marketplace"
	SwitchStateDone                = "done"
	SwitchStateFailed              = "failed"
)

// SKUChange 单个规格的 SKU 变更
type SKUChange struct {
	VariantID            int64  `json:"variant_id"`
	MarketplaceVariantID string `json:"marketplace_variant_id,omitempty"`
	OldSKU               string `json:"old_sku"`
	NewSKU               string `json:"new_sku"`
	Size                 string `json:"size,omitempty"`
	Color                string `json:"color,omitempty"`
}

// ProductSwitch 供应商切换记录
// 本地已提交但平台未同步的记录 (local_committed) 供后续对账任务重放
type ProductSwitch struct {
	BaseModel
	OperationID string `gorm:"size:36;uniqueIndex" json:"operation_id"`
	UserID      int64  `gorm:"index" json:"user_id"`
	ProductID   int64  `gorm:"index;not null" json:"product_id"`

	FromSupplier            string `gorm:"size:20" json:"from_supplier"`
	ToSupplier              string `gorm:"size:20" json:"to_supplier"`
	TargetConnectionID      int64  `json:"target_connection_id"`
	TargetSupplierProductID string `gorm:"size:128" json:"target_supplier_product_id"`

	SKUChanges datatypes.JSONSlice[SKUChange] `json:"sku_changes"`

	State             string     `gorm:"size:32;index" json:"state"`
	Error             string     `gorm:"type:text" json:"error,omitempty"`
	MarketplaceSyncAt *time.Time `json:"marketplace_sync_at,omitempty"`
}

func (ProductSwitch) TableName() string {
	return "product_switches"
}

// RemotePending 本地已提交、平台待同步
func (s *ProductSwitch) RemotePending() bool {
	return s.State == SwitchStateLocalCommitted
}
