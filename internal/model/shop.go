package model

import "time"

// 店铺平台类型
const (
	ShopTypeEtsy    = "etsy"
	ShopTypeShopify = "shopify"
)

// Shop 店铺 (Etsy / Shopify)
type Shop struct {
	BaseModel
	UserID   int64  `gorm:"not null;uniqueIndex:idx_user_shop" json:"user_id"`
	ShopType string `gorm:"size:20;not null;uniqueIndex:idx_user_shop" json:"shop_type"`
	ShopID   string `gorm:"size:64;not null;uniqueIndex:idx_user_shop" json:"shop_id"` // 平台侧店铺 ID
	ShopName string `gorm:"size:255" json:"shop_name"`

	ShopifyDomain string `gorm:"size:255" json:"shopify_domain,omitempty"`

	// --- 授权信息 ---
	APIKey      string `gorm:"size:255" json:"-"` // Etsy x-api-key，为空时使用全局配置
	AccessToken string `gorm:"type:text" json:"-"`

	IsConnected bool       `gorm:"default:false" json:"is_connected"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
}

func (Shop) TableName() string {
	return "shops"
}

func (s *Shop) IsEtsy() bool    { return s.ShopType == ShopTypeEtsy }
func (s *Shop) IsShopify() bool { return s.ShopType == ShopTypeShopify }
