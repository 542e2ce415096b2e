package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

const (
	shopifyAPIVersion = "2024-01"
	shopifyPageSize   = 250
)

// 视为尺码的选项值 (小写)
var shopifySizes = map[string]struct{}{
	"xs": {}, "s": {}, "m": {}, "l": {}, "xl": {}, "2xl": {}, "3xl": {}, "4xl": {}, "5xl": {},
	"small": {}, "medium": {}, "large": {}, "extra large": {},
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// ShopifyClient Shopify Admin REST API
type ShopifyClient struct {
	http     *resty.Client
	version  string
	endpoint string // 非空时覆盖 https://{domain}/admin/api/{version}
}

var _ Client = (*ShopifyClient)(nil)

// ShopifyOption 配置项
type ShopifyOption func(*ShopifyClient)

// WithShopifyEndpoint 固定 Admin API 地址 (测试或代理)
func WithShopifyEndpoint(u string) ShopifyOption {
	return func(c *ShopifyClient) { c.endpoint = strings.TrimRight(u, "/") }
}

// WithShopifyTimeout 单次请求超时
func WithShopifyTimeout(d time.Duration) ShopifyOption {
	return func(c *ShopifyClient) { c.http.SetTimeout(d) }
}

func NewShopifyClient(version string, opts ...ShopifyOption) *ShopifyClient {
	if version == "" {
		version = shopifyAPIVersion
	}
	c := &ShopifyClient{
		http: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		version: version,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// ==================== 响应结构 ====================

type shopifyVariant struct {
	ID                int64               `json:"id"`
	SKU               string              `json:"sku"`
	Option1           string              `json:"option1"`
	Option2           string              `json:"option2"`
	Option3           string              `json:"option3"`
	Price             decimal.Decimal     `json:"price"`
	CompareAtPrice    decimal.NullDecimal `json:"compare_at_price"`
	InventoryQuantity int                 `json:"inventory_quantity"`
	InventoryPolicy   string              `json:"inventory_policy"`
}

type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	Variants    []shopifyVariant `json:"variants"`
	Images      []struct {
		Src string `json:"src"`
	} `json:"images"`
}

func (v shopifyVariant) toVariant() Variant {
	size, color := splitOptions(v.Option1, v.Option2, v.Option3)
	return Variant{
		VariantID:      fmt.Sprintf("%d", v.ID),
		SKU:            v.SKU,
		Size:           size,
		Color:          color,
		Price:          v.Price,
		CompareAtPrice: v.CompareAtPrice,
		Quantity:       v.InventoryQuantity,
		Available:      v.InventoryQuantity > 0 || v.InventoryPolicy == "continue",
	}
}

// splitOptions 识别尺码，其余非空选项视为颜色 (后者覆盖前者)
func splitOptions(options ...string) (size, color string) {
	for _, o := range options {
		if o == "" {
			continue
		}
		if _, ok := shopifySizes[strings.ToLower(o)]; ok {
			size = o
			continue
		}
		color = o
	}
	return size, color
}

func (p shopifyProduct) toListing() Listing {
	l := Listing{
		ListingID:   fmt.Sprintf("%d", p.ID),
		Title:       p.Title,
		Description: p.BodyHTML,
		Currency:    "USD",
		ProductType: p.ProductType,
		Category:    p.ProductType,
		Active:      p.Status == "active",
	}
	for _, img := range p.Images {
		if img.Src != "" {
			l.Images = append(l.Images, img.Src)
		}
	}
	if len(l.Images) > 0 {
		l.ThumbnailURL = l.Images[0]
	}
	for _, v := range p.Variants {
		l.Variants = append(l.Variants, v.toVariant())
	}
	if len(p.Variants) > 0 {
		l.Price = p.Variants[0].Price
	}
	return l
}

// ==================== 商品同步 ====================

// FetchListings products.json?limit=250，按 Link 头的 page_info 翻页
func (c *ShopifyClient) FetchListings(ctx context.Context, store Store) ([]Listing, error) {
	base, err := c.base(store)
	if err != nil {
		return nil, err
	}

	var out []Listing
	pageInfo := ""
	for {
		query := map[string]string{"limit": fmt.Sprintf("%d", shopifyPageSize)}
		if pageInfo != "" {
			query["page_info"] = pageInfo
		}

		var res struct {
			Products []shopifyProduct `json:"products"`
		}
		resp, err := c.request(ctx, store).SetQueryParams(query).SetResult(&res).Get(base + "/products.json")
		if err != nil {
			return nil, fmt.Errorf("shopify request: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, &APIError{Platform: PlatformShopify, Status: resp.StatusCode(), Body: resp.String()}
		}

		for _, p := range res.Products {
			out = append(out, p.toListing())
		}

		pageInfo = nextPageInfo(resp.Header().Get("Link"))
		if pageInfo == "" || len(res.Products) == 0 {
			break
		}
	}
	return out, nil
}

// nextPageInfo 解析 Link: <...page_info=xxx>; rel="next"
func nextPageInfo(link string) string {
	m := linkNextRe.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	u, err := url.Parse(m[1])
	if err != nil {
		return ""
	}
	return u.Query().Get("page_info")
}

// ==================== SKU 写回 ====================

// UpdateSKUs 逐个 PUT variants/{id}.json，仅更新 SKU 变化的规格
func (c *ShopifyClient) UpdateSKUs(ctx context.Context, store Store, listingID string, plan SKUPlan) (int, error) {
	base, err := c.base(store)
	if err != nil {
		return 0, err
	}

	var res struct {
		Product shopifyProduct `json:"product"`
	}
	resp, err := c.request(ctx, store).SetResult(&res).Get(fmt.Sprintf("%s/products/%s.json", base, listingID))
	if err != nil {
		return 0, fmt.Errorf("shopify request: %w", err)
	}
	if !resp.IsSuccess() {
		return 0, &APIError{Platform: PlatformShopify, Status: resp.StatusCode(), Body: resp.String()}
	}

	changed := 0
	for _, v := range res.Product.Variants {
		next, ok := plan.Lookup(fmt.Sprintf("%d", v.ID), v.SKU)
		if !ok {
			continue
		}
		body := map[string]interface{}{"variant": map[string]interface{}{"id": v.ID, "sku": next}}
		resp, err := c.request(ctx, store).SetBody(body).Put(fmt.Sprintf("%s/variants/%d.json", base, v.ID))
		if err != nil {
			return changed, fmt.Errorf("shopify request: %w", err)
		}
		if !resp.IsSuccess() {
			return changed, &APIError{Platform: PlatformShopify, Status: resp.StatusCode(), Body: resp.String()}
		}
		changed++
		logger.L().WithField("variant_id", v.ID).Debugf("[Shopify] SKU %q -> %s", v.SKU, next)
	}
	return changed, nil
}

// ==================== 私有方法 ====================

func (c *ShopifyClient) base(store Store) (string, error) {
	if store.AccessToken == "" {
		return "", ErrNotConfigured
	}
	if c.endpoint != "" {
		return c.endpoint, nil
	}
	if store.Domain == "" {
		return "", ErrNotConfigured
	}
	return fmt.Sprintf("https://%s/admin/api/%s", store.Domain, c.version), nil
}

func (c *ShopifyClient) request(ctx context.Context, store Store) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetHeader("X-Shopify-Access-Token", store.AccessToken)
}
