package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// 店铺平台
const (
	PlatformEtsy    = "etsy"
	PlatformShopify = "shopify"
)

var (
	// ErrUnsupportedPlatform 不支持的店铺平台
	ErrUnsupportedPlatform = errors.New("unsupported marketplace")
	// ErrNotConfigured 店铺缺少必要的凭证或域名
	ErrNotConfigured = errors.New("marketplace shop not configured")
)

// Store 调用平台接口所需的店铺信息
type Store struct {
	ID          int64  // 本地店铺 ID，用于限速分桶
	Platform    string // etsy / shopify
	ShopID      string // 平台侧店铺 ID
	Domain      string // Shopify 域名
	APIKey      string // Etsy x-api-key
	AccessToken string
}

// Variant 平台规格
type Variant struct {
	VariantID      string
	SKU            string
	Size           string
	Color          string
	Price          decimal.Decimal
	CompareAtPrice decimal.NullDecimal
	Quantity       int
	Available      bool
}

// Listing 平台商品
// Err 非空表示该商品明细拉取失败，同步方应记录 sync_error
type Listing struct {
	ListingID    string
	Title        string
	Description  string
	Price        decimal.Decimal
	Currency     string
	ProductType  string // 平台自带的商品类型 (Shopify product_type)
	Category     string
	ThumbnailURL string
	Images       []string
	Active       bool
	Variants     []Variant
	Err          error
}

// SKUs 全部非空 SKU (保序)
func (l *Listing) SKUs() []string {
	var out []string
	for _, v := range l.Variants {
		if v.SKU != "" {
			out = append(out, v.SKU)
		}
	}
	return out
}

// SKUUpdate 单个规格的 SKU 变更
// VariantID 为平台侧规格 ID；旧 SKU 为空的规格只能按 VariantID 匹配
type SKUUpdate struct {
	VariantID string
	OldSKU    string
	NewSKU    string
}

// SKUPlan 一个 Listing 的全部 SKU 变更
type SKUPlan []SKUUpdate

// Lookup 先按平台规格 ID 匹配，再按旧 SKU 匹配
// 新 SKU 与当前 SKU 相同时视为无需修改
func (p SKUPlan) Lookup(variantID, sku string) (string, bool) {
	for _, u := range p {
		if variantID != "" && u.VariantID == variantID {
			return u.NewSKU, u.NewSKU != "" && u.NewSKU != sku
		}
	}
	if sku == "" {
		return "", false
	}
	for _, u := range p {
		if u.OldSKU == sku {
			return u.NewSKU, u.NewSKU != "" && u.NewSKU != sku
		}
	}
	return "", false
}

// SKUUpdater 将 SKU 写回平台，只修改计划中匹配的规格
// 返回实际修改的规格数，为 0 表示平台侧无需改动
type SKUUpdater interface {
	UpdateSKUs(ctx context.Context, store Store, listingID string, plan SKUPlan) (int, error)
}

// ListingFetcher 拉取店铺全部在售商品
type ListingFetcher interface {
	FetchListings(ctx context.Context, store Store) ([]Listing, error)
}

// Client 平台能力集
type Client interface {
	SKUUpdater
	ListingFetcher
}

// APIError 平台接口错误
type APIError struct {
	Platform string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s api error (%d): %s", e.Platform, e.Status, body)
}

// IsAuth 是否鉴权失败
func (e *APIError) IsAuth() bool {
	return e.Status == 401 || e.Status == 403
}

// ==================== 平台路由 ====================

// router 按店铺平台分发到具体实现
type router struct {
	clients map[string]Client
}

var _ Client = (*router)(nil)

// NewRouter 组合各平台实现，未注册的平台返回 ErrUnsupportedPlatform
func NewRouter(etsy, shopify Client) Client {
	r := &router{clients: make(map[string]Client)}
	if etsy != nil {
		r.clients[PlatformEtsy] = etsy
	}
	if shopify != nil {
		r.clients[PlatformShopify] = shopify
	}
	return r
}

func (r *router) pick(platform string) (Client, error) {
	c, ok := r.clients[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	return c, nil
}

func (r *router) UpdateSKUs(ctx context.Context, store Store, listingID string, plan SKUPlan) (int, error) {
	c, err := r.pick(store.Platform)
	if err != nil {
		return 0, err
	}
	return c.UpdateSKUs(ctx, store, listingID, plan)
}

func (r *router) FetchListings(ctx context.Context, store Store) ([]Listing, error) {
	c, err := r.pick(store.Platform)
	if err != nil {
		return nil, err
	}
	return c.FetchListings(ctx, store)
}
