package etsy

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ==========================================
// DTO: 用于接收 Etsy API 返回的原始 JSON 数据
// ==========================================

// MoneyDTO 价格嵌套结构 (amount / divisor 即主货币单位)
type MoneyDTO struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// Decimal 转换为主货币单位
func (m MoneyDTO) Decimal() decimal.Decimal {
	divisor := m.Divisor
	if divisor == 0 {
		divisor = 100
	}
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(divisor))
}

// ListingDTO 单个商品结构 (只保留同步所需字段)
// GET /v3/application/shops/{shop_id}/listings
type ListingDTO struct {
	ListingID     int64    `json:"listing_id"`
	ShopID        int64    `json:"shop_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	State         string   `json:"state"`
	Quantity      int      `json:"quantity"`
	URL           string   `json:"url"`
	Tags          []string `json:"tags"`
	Skus          []string `json:"skus"`
	HasVariations bool     `json:"has_variations"`
	Price         MoneyDTO `json:"price"`
	TaxonomyID    int64    `json:"taxonomy_id"`
}

// ListingsResp 列表响应结构
type ListingsResp struct {
	Count   int          `json:"count"`
	Results []ListingDTO `json:"results"`
}

// PropertyValueDTO 规格属性 (如 Size=["M"])
type PropertyValueDTO struct {
	PropertyID   int64    `json:"property_id"`
	PropertyName string   `json:"property_name"`
	ScaleID      *int64   `json:"scale_id,omitempty"`
	ValueIDs     []int64  `json:"value_ids"`
	Values       []string `json:"values"`
}

// OfferingDTO 报价
type OfferingDTO struct {
	OfferingID int64    `json:"offering_id"`
	Price      MoneyDTO `json:"price"`
	Quantity   int      `json:"quantity"`
	IsEnabled  bool     `json:"is_enabled"`
	IsDeleted  bool     `json:"is_deleted"`
}

// InventoryProductDTO 库存中的单个规格
type InventoryProductDTO struct {
	ProductID      int64              `json:"product_id"` // Etsy Variant ID
	SKU            string             `json:"sku"`
	IsDeleted      bool               `json:"is_deleted"`
	Offerings      []OfferingDTO      `json:"offerings"`
	PropertyValues []PropertyValueDTO `json:"property_values"`
}

// Property 取属性名包含关键字的第一个值 (大小写不敏感)
func (p InventoryProductDTO) Property(keywords ...string) string {
	for _, pv := range p.PropertyValues {
		name := strings.ToLower(pv.PropertyName)
		for _, k := range keywords {
			if strings.Contains(name, strings.ToLower(k)) && len(pv.Values) > 0 {
				return pv.Values[0]
			}
		}
	}
	return ""
}

// InventoryDTO GET /v3/application/listings/{listing_id}/inventory
type InventoryDTO struct {
	Products []InventoryProductDTO `json:"products"`

	// 这里的 int 数组其实存的是 PropertyID
	PriceOnProperty    []int64 `json:"price_on_property"`
	QuantityOnProperty []int64 `json:"quantity_on_property"`
	SkuOnProperty      []int64 `json:"sku_on_property"`
}

// ListingImageDTO 商品图片
type ListingImageDTO struct {
	ListingImageID int64  `json:"listing_image_id"`
	URL75x75       string `json:"url_75x75"`
	URL570xN       string `json:"url_570xN"`
	URLFullxFull   string `json:"url_fullxfull"`
	Rank           int    `json:"rank"`
}

// Best 优先原图
func (i ListingImageDTO) Best() string {
	if i.URLFullxFull != "" {
		return i.URLFullxFull
	}
	return i.URL570xN
}

// ListingImagesResp GET /v3/application/listings/{listing_id}/images
type ListingImagesResp struct {
	Count   int               `json:"count"`
	Results []ListingImageDTO `json:"results"`
}

// ErrorResp Etsy 通用错误响应
type ErrorResp struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
