package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 商品同步状态
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

// Product 店铺 Listing
// (shop_id, listing_id) 唯一；SupplierType / ProductType 为空表示未识别供应商
type Product struct {
	BaseModel
	ShopID    int64  `gorm:"not null;uniqueIndex:idx_shop_listing" json:"shop_id"`
	Shop      *Shop  `json:"shop,omitempty"` // belongs-to products.shop_id
	ListingID string `gorm:"size:64;not null;uniqueIndex:idx_shop_listing" json:"listing_id"`

	Title       string `gorm:"size:500" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// --- 供应商识别 ---
	SKU               string `gorm:"size:255" json:"sku"`
	SKUPattern        string `gorm:"size:32" json:"sku_pattern"`
	SupplierType      string `gorm:"size:20;index" json:"supplier_type"`
	SupplierProductID string `gorm:"size:128" json:"supplier_product_id"`

	// --- 价格与分类 ---
	Price        decimal.Decimal             `gorm:"type:decimal(12,2)" json:"price"`
	Currency     string                      `gorm:"size:3" json:"currency"`
	ProductType  string                      `gorm:"size:255;index" json:"product_type"`
	Category     string                      `gorm:"size:255" json:"category,omitempty"`
	ThumbnailURL string                      `gorm:"size:1024" json:"thumbnail_url,omitempty"`
	Images       datatypes.JSONSlice[string] `json:"images"`
	IsActive     bool                        `gorm:"default:false" json:"is_active"`

	// --- 同步状态 ---
	SyncStatus   string     `gorm:"size:20;index" json:"sync_status"`
	SyncError    string     `gorm:"type:text" json:"sync_error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// Comparable 是否具备比价 / 切换条件
func (p *Product) Comparable() bool {
	return p.SupplierType != "" && p.ProductType != ""
}

// ProductVariant Listing 规格 (尺码/颜色组合)，每次同步整体替换
type ProductVariant struct {
	BaseModel
	ProductID int64  `gorm:"index;not null" json:"product_id"`
	VariantID string `gorm:"size:64" json:"variant_id"` // 平台侧 ID

	SKU      string `gorm:"size:255;index" json:"sku"`
	Size     string `gorm:"size:64" json:"size,omitempty"`
	Color    string `gorm:"size:64" json:"color,omitempty"`
	ColorHex string `gorm:"size:16" json:"color_hex,omitempty"`

	Price          decimal.Decimal     `gorm:"type:decimal(12,2)" json:"price"`
	CompareAtPrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"compare_at_price"`
	Quantity       int                 `gorm:"default:0" json:"quantity"`
	IsAvailable    bool                `gorm:"default:false" json:"is_available"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
