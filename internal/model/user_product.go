package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// UserProduct 用户追踪的商品 (跨供应商)
type UserProduct struct {
	BaseModel
	UserID      int64  `gorm:"index;not null" json:"user_id"`
	ProductName string `gorm:"size:500;not null" json:"product_name"`
	ProductType string `gorm:"size:255;index" json:"product_type"`
	Brand       string `gorm:"size:255" json:"brand,omitempty"`
	Category    string `gorm:"size:255" json:"category,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	ThumbnailURL string                      `gorm:"size:1024" json:"thumbnail_url,omitempty"`
	Images       datatypes.JSONSlice[string] `json:"images"`

	// --- 主供应商 ---
	PrimarySupplierType         string `gorm:"size:20" json:"primary_supplier_type"`
	PrimarySupplierProductID    string `gorm:"size:128" json:"primary_supplier_product_id"`
	PrimarySupplierConnectionID int64  `json:"primary_supplier_connection_id"`

	IsActive bool `gorm:"default:false" json:"is_active"`

	Suppliers []UserProductSupplier `gorm:"foreignKey:UserProductID;constraint:OnDelete:CASCADE" json:"suppliers,omitempty"`
}

func (UserProduct) TableName() string {
	return "user_products"
}

// UserProductSupplier 用户商品在某个供应商连接下的对应商品
// (user_product_id, supplier_connection_id) 唯一
type UserProductSupplier struct {
	BaseModel
	UserProductID        int64 `gorm:"not null;uniqueIndex:idx_user_product_conn" json:"user_product_id"`
	SupplierConnectionID int64 `gorm:"not null;uniqueIndex:idx_user_product_conn" json:"supplier_connection_id"`

	// 本地同步行，类型映射兜底时为空
	SupplierProductID *int64           `gorm:"index" json:"supplier_product_id,omitempty"`
	SupplierProduct   *SupplierProduct `json:"supplier_product,omitempty"`

	SupplierType      string          `gorm:"size:20;not null" json:"supplier_type"`
	ExternalProductID string          `gorm:"size:128" json:"supplier_product_external_id"`
	BasePrice         decimal.Decimal `gorm:"type:decimal(12,2)" json:"base_price"`
	Currency          string          `gorm:"size:3" json:"currency"`
	IsAvailable       bool            `gorm:"default:false" json:"is_available"`
	LastChecked       *time.Time      `json:"last_checked,omitempty"`
}

func (UserProductSupplier) TableName() string {
	return "user_product_suppliers"
}
