package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 供应商类型
const (
	SupplierGelato   = "gelato"
	SupplierPrintify = "printify"
	SupplierPrintful = "printful"
)

// SupplierConnection 供应商账号连接 (一个用户可绑定同一供应商的多个账号)
type SupplierConnection struct {
	BaseModel
	UserID       int64  `gorm:"index;not null" json:"user_id"`
	SupplierType string `gorm:"size:20;index;not null" json:"supplier_type"`

	// --- 账号信息 ---
	AccountName  string `gorm:"size:255" json:"account_name"`
	AccountEmail string `gorm:"size:255" json:"account_email"`
	AccountID    string `gorm:"size:128" json:"account_id"`

	// --- 凭证 (不对外输出) ---
	APIKey         string     `gorm:"size:1024" json:"-"`
	APISecret      string     `gorm:"size:1024" json:"-"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`

	// --- 状态 ---
	IsActive        bool       `gorm:"default:false" json:"is_active"`
	IsConnected     bool       `gorm:"default:false;index" json:"is_connected"`
	LastSync        *time.Time `json:"last_sync,omitempty"`
	ConnectionError string     `gorm:"type:text" json:"connection_error,omitempty"`

	// --- 供应商专属标识 ---
	ShopID  string `gorm:"size:64" json:"shop_id,omitempty"`  // Printify
	StoreID string `gorm:"size:64" json:"store_id,omitempty"` // Gelato

	Products []SupplierProduct `gorm:"foreignKey:SupplierConnectionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SupplierConnection) TableName() string {
	return "supplier_connections"
}

// HasCredentials 是否持有可用凭证
func (c *SupplierConnection) HasCredentials() bool {
	return c.APIKey != "" || c.AccessToken != ""
}

// ColorOption 颜色选项
type ColorOption struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// SupplierProduct 标准化后的供应商商品目录
// (supplier_connection_id, supplier_product_id) 唯一
type SupplierProduct struct {
	BaseModel
	SupplierConnectionID int64               `gorm:"not null;uniqueIndex:idx_conn_supplier_product" json:"supplier_connection_id"`
	SupplierConnection   *SupplierConnection `gorm:"foreignKey:SupplierConnectionID;references:ID" json:"-"`
	SupplierProductID    string              `gorm:"size:128;not null;uniqueIndex:idx_conn_supplier_product" json:"supplier_product_id"`

	BlueprintID string `gorm:"size:64" json:"blueprint_id,omitempty"` // Printify
	CatalogID   string `gorm:"size:128" json:"catalog_id,omitempty"`  // Gelato

	// --- 基础信息 ---
	Name        string `gorm:"size:500" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ProductType string `gorm:"size:255;index" json:"product_type"`
	Brand       string `gorm:"size:255" json:"brand,omitempty"`
	Category    string `gorm:"size:255;index" json:"category,omitempty"`

	// --- 价格 (主货币单位) ---
	BasePrice              decimal.Decimal `gorm:"type:decimal(12,2)" json:"base_price"`
	Currency               string          `gorm:"size:3" json:"currency"`
	ShippingFirstItem      decimal.Decimal `gorm:"type:decimal(12,2)" json:"shipping_first_item"`
	ShippingAdditionalItem decimal.Decimal `gorm:"type:decimal(12,2)" json:"shipping_additional_item"`
	ShippingCountry        string          `gorm:"size:2" json:"shipping_country"`

	// --- 规格 ---
	Sizes  datatypes.JSONSlice[string]      `json:"sizes"`
	Colors datatypes.JSONSlice[ColorOption] `json:"colors"`

	// --- 图片 ---
	ThumbnailURL string                      `gorm:"size:1024" json:"thumbnail_url,omitempty"`
	Images       datatypes.JSONSlice[string] `json:"images"`

	IsActive bool `gorm:"default:false;index" json:"is_active"`
}

func (SupplierProduct) TableName() string {
	return "supplier_products"
}

// TotalCost 首件落地成本 = 基础价 + 首件运费
func (p *SupplierProduct) TotalCost() decimal.Decimal {
	return p.BasePrice.Add(p.ShippingFirstItem)
}
