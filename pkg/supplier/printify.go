package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	printifyBaseURL = "https://api.printify.com/v1"
	// 报价时默认使用的打印商
	printifyDefaultProvider = "99"
	printifyRestOfWorld     = "REST_OF_THE_WORLD"
)

// PrintifyAdapter Printify 接口
// 价格单位：接口返回美分，此处统一换算为美元
type PrintifyAdapter struct {
	creds Credentials
	api   *client

	mu         sync.Mutex
	blueprints []printifyBlueprint // 蓝图列表不分页，首次拉取后缓存
}

var _ Adapter = (*PrintifyAdapter)(nil)

func NewPrintifyAdapter(creds Credentials, o options) *PrintifyAdapter {
	c := newClient(Printify, printifyBaseURL, o)
	if t := creds.token(); t != "" {
		c.http.SetAuthToken(t)
	}
	return &PrintifyAdapter{creds: creds, api: c}
}

func (a *PrintifyAdapter) Kind() Kind { return Printify }

// ==================== 响应结构 ====================

type printifyBlueprint struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Brand       string     `json:"brand"`
	Model       string     `json:"model"`
	Images      imageList  `json:"images"`
}

type printifyProvider struct {
	ID    flexString `json:"id"`
	Title string     `json:"title"`
}

type printifyVariant struct {
	ID      flexString      `json:"id"`
	Title   string          `json:"title"`
	Size    string          `json:"size"`
	Color   string          `json:"color"`
	Code    string          `json:"color_code"`
	Price   decimal.Decimal `json:"price"` // 美分
	Options struct {
		Size  string `json:"size"`
		Color string `json:"color"`
	} `json:"options"`
}

func (v printifyVariant) toVariant() Variant {
	return Variant{
		ID:        string(v.ID),
		Title:     v.Title,
		Size:      firstNonEmpty(v.Size, v.Options.Size),
		Color:     firstNonEmpty(v.Color, v.Options.Color),
		ColorHex:  v.Code,
		Price:     centsToDollars(v.Price),
		Available: true,
	}
}

type printifyShippingProfile struct {
	Countries []string `json:"countries"`
	FirstItem struct {
		Cost     decimal.Decimal `json:"cost"`
		Currency string          `json:"currency"`
	} `json:"first_item"`
	AdditionalItems struct {
		Cost     decimal.Decimal `json:"cost"`
		Currency string          `json:"currency"`
	} `json:"additional_items"`
}

func (p printifyShippingProfile) covers(country string) bool {
	for _, c := range p.Countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// ==================== 目录 ====================

func (a *PrintifyAdapter) loadBlueprints(ctx context.Context, refresh bool) ([]printifyBlueprint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.blueprints != nil && !refresh {
		return a.blueprints, nil
	}
	var list []printifyBlueprint
	if err := a.api.do(ctx, http.MethodGet, "/catalog/blueprints.json", nil, nil, &list); err != nil {
		return nil, err
	}
	a.blueprints = list
	return list, nil
}

func (a *PrintifyAdapter) providers(ctx context.Context, blueprintID string) ([]printifyProvider, error) {
	var list []printifyProvider
	path := fmt.Sprintf("/catalog/blueprints/%s/print_providers.json", blueprintID)
	if err := a.api.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (a *PrintifyAdapter) variants(ctx context.Context, blueprintID, providerID string) ([]Variant, error) {
	var res struct {
		Variants []printifyVariant `json:"variants"`
	}
	path := fmt.Sprintf("/catalog/blueprints/%s/print_providers/%s/variants.json", blueprintID, providerID)
	if err := a.api.do(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]Variant, 0, len(res.Variants))
	for _, v := range res.Variants {
		out = append(out, v.toVariant())
	}
	return out, nil
}

// detail 蓝图 + 首个打印商的规格
func (a *PrintifyAdapter) detail(ctx context.Context, bp printifyBlueprint) (*CatalogItem, error) {
	id := string(bp.ID)
	providers, err := a.providers(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, &APIError{Supplier: Printify, Status: http.StatusOK, Err: fmt.Errorf("蓝图 %s 无打印商", id)}
	}
	variants, err := a.variants(ctx, id, string(providers[0].ID))
	if err != nil {
		return nil, err
	}

	item := CatalogItem{
		ExternalID:  id,
		Name:        bp.Title,
		Description: bp.Description,
		ProductType: bp.Model,
		Brand:       bp.Brand,
		BlueprintID: id,
		BasePrice:   minPrice(variants),
		Currency:    "USD",
		Sizes:       uniqueSizes(variants),
		Colors:      uniqueColors(variants),
		Images:      []string(bp.Images),
		Variants:    variants,
	}
	if len(item.Images) > 0 {
		item.ThumbnailURL = item.Images[0]
	}
	return &item, nil
}

// ListCatalog 蓝图列表不分页，按 Page 截取后逐个补全打印商与规格
// 单个蓝图补全失败时跳过该蓝图
func (a *PrintifyAdapter) ListCatalog(ctx context.Context, page Page) (*CatalogPage, error) {
	all, err := a.loadBlueprints(ctx, page.Offset == 0)
	if err != nil {
		return nil, err
	}
	slice := window(all, page)

	out := &CatalogPage{Raw: len(slice)}
	for _, bp := range slice {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := a.detail(ctx, bp)
		if err != nil {
			out.Skipped++
			continue
		}
		out.Items = append(out.Items, *item)
	}
	return out, nil
}

// GetProduct GET catalog/blueprints/{id}.json
func (a *PrintifyAdapter) GetProduct(ctx context.Context, id string) (*CatalogItem, error) {
	var bp printifyBlueprint
	if err := a.api.do(ctx, http.MethodGet, fmt.Sprintf("/catalog/blueprints/%s.json", id), nil, nil, &bp); err != nil {
		return nil, err
	}
	if bp.ID == "" {
		bp.ID = flexString(id)
	}
	return a.detail(ctx, bp)
}

// ==================== 报价 & 运费 ====================

// GetPricing 默认打印商下的规格最低价
func (a *PrintifyAdapter) GetPricing(ctx context.Context, id, country string) (*Pricing, error) {
	variants, err := a.variants(ctx, id, printifyDefaultProvider)
	if err != nil {
		return nil, err
	}
	return &Pricing{BasePrice: minPrice(variants), Currency: "USD", Variants: variants}, nil
}

// GetShipping 选取覆盖目的国的运费模板，其次 REST_OF_THE_WORLD
func (a *PrintifyAdapter) GetShipping(ctx context.Context, id, country string) (*Shipping, error) {
	var res struct {
		Profiles []printifyShippingProfile `json:"profiles"`
	}
	path := fmt.Sprintf("/catalog/blueprints/%s/print_providers/%s/shipping.json", id, printifyDefaultProvider)
	if err := a.api.do(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}

	country = countryOrDefault(country)
	var picked *printifyShippingProfile
	for i := range res.Profiles {
		if res.Profiles[i].covers(country) {
			picked = &res.Profiles[i]
			break
		}
	}
	if picked == nil {
		for i := range res.Profiles {
			if res.Profiles[i].covers(printifyRestOfWorld) {
				picked = &res.Profiles[i]
				break
			}
		}
	}
	if picked == nil {
		return nil, &APIError{Supplier: Printify, Status: http.StatusOK, Err: fmt.Errorf("%s 无可用运费模板", country)}
	}

	currency := firstNonEmpty(picked.FirstItem.Currency, "USD")
	return &Shipping{
		FirstItem:      centsToDollars(picked.FirstItem.Cost),
		AdditionalItem: centsToDollars(picked.AdditionalItems.Cost),
		Currency:       currency,
	}, nil
}

// ==================== 订单 ====================

// CreateOrder POST shops/{shop_id}/orders.json
func (a *PrintifyAdapter) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error) {
	if a.creds.ShopID == "" {
		return nil, &APIError{Supplier: Printify, Err: fmt.Errorf("未配置 shop_id")}
	}
	first, last := splitName(req.Recipient.Name)
	items := make([]map[string]interface{}, 0, len(req.Items))
	for _, it := range req.Items {
		item := map[string]interface{}{"quantity": it.Quantity}
		if it.ProductID != "" {
			item["product_id"] = it.ProductID
		}
		if it.VariantID != "" {
			item["variant_id"] = json.Number(it.VariantID)
		}
		items = append(items, item)
	}
	body := map[string]interface{}{
		"external_id": req.ExternalID,
		"line_items":  items,
		"address_to": map[string]string{
			"first_name": first,
			"last_name":  last,
			"email":      req.Recipient.Email,
			"phone":      req.Recipient.Phone,
			"country":    req.Recipient.Country,
			"region":     req.Recipient.State,
			"address1":   req.Recipient.Address1,
			"address2":   req.Recipient.Address2,
			"city":       req.Recipient.City,
			"zip":        req.Recipient.Zip,
		},
	}

	var res struct {
		ID     flexString `json:"id"`
		Status string     `json:"status"`
	}
	path := fmt.Sprintf("/shops/%s/orders.json", a.creds.ShopID)
	if err := a.api.do(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, err
	}
	return &OrderResult{ID: string(res.ID), Status: firstNonEmpty(res.Status, "pending")}, nil
}

// ==================== 凭证校验 ====================

// ValidateCredentials GET shops.json
// 响应可能是数组，也可能包在 data 或 shops 字段中
func (a *PrintifyAdapter) ValidateCredentials(ctx context.Context) (*AccountInfo, error) {
	var raw json.RawMessage
	if err := a.api.do(ctx, http.MethodGet, "/shops.json", nil, nil, &raw); err != nil {
		return nil, err
	}

	type shop struct {
		ID    flexString `json:"id"`
		Title string     `json:"title"`
	}
	var shops []shop
	if err := json.Unmarshal(raw, &shops); err != nil {
		var wrapped struct {
			Data  []shop `json:"data"`
			Shops []shop `json:"shops"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, &APIError{Supplier: Printify, Status: http.StatusOK, Err: fmt.Errorf("解析店铺列表失败: %w", err)}
		}
		shops = wrapped.Data
		if len(shops) == 0 {
			shops = wrapped.Shops
		}
	}

	info := &AccountInfo{AccountName: "Printify"}
	for _, s := range shops {
		info.Shops = append(info.Shops, ShopRef{ID: string(s.ID), Title: s.Title})
	}
	if len(shops) > 0 {
		info.AccountID = string(shops[0].ID)
		if shops[0].Title != "" {
			info.AccountName = shops[0].Title
		}
	}
	return info, nil
}

func centsToDollars(cents decimal.Decimal) decimal.Decimal {
	return cents.Shift(-2)
}
