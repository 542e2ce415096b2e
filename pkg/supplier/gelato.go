package supplier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	gelatoBaseURL   = "https://api.gelato.com/v3"
	gelatoStoresURL = "https://ecommerce.gelatoapis.com/v1"
)

// GelatoAdapter Gelato 接口
// 价格单位：所有接口均为主货币单位 (如 12.50 USD)
type GelatoAdapter struct {
	creds     Credentials
	api       *client
	storesURL string
}

var _ Adapter = (*GelatoAdapter)(nil)

func NewGelatoAdapter(creds Credentials, o options) *GelatoAdapter {
	c := newClient(Gelato, gelatoBaseURL, o)
	// OAuth Token 优先，否则使用 API Key
	if creds.AccessToken != "" {
		c.http.SetAuthToken(creds.AccessToken)
	} else if creds.APIKey != "" {
		c.http.SetHeader("X-API-KEY", creds.APIKey)
	}

	storesURL := gelatoStoresURL
	if o.storesURL != "" {
		storesURL = o.storesURL
	}
	return &GelatoAdapter{creds: creds, api: c, storesURL: storesURL}
}

func (a *GelatoAdapter) Kind() Kind { return Gelato }

// ==================== 响应结构 ====================

type gelatoProduct struct {
	UID         flexString      `json:"uid"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ProductType string          `json:"productType"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	CatalogID   string          `json:"catalogId"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Sizes       []string        `json:"sizes"`
	Colors      colorList       `json:"colors"`
	ImageURL    string          `json:"imageUrl"`
	Images      imageList       `json:"images"`
}

type gelatoVariant struct {
	UID      flexString      `json:"uid"`
	ID       flexString      `json:"id"`
	Title    string          `json:"title"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
	ColorHex string          `json:"colorHex"`
	Price    decimal.Decimal `json:"price"`
}

func (v gelatoVariant) toVariant() Variant {
	id := string(v.UID)
	if id == "" {
		id = string(v.ID)
	}
	return Variant{ID: id, Title: v.Title, Size: v.Size, Color: v.Color, ColorHex: v.ColorHex, Price: v.Price, Available: true}
}

func (p gelatoProduct) toItem() CatalogItem {
	name := p.Title
	if name == "" {
		name = p.Name
	}
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	thumb := p.ImageURL
	if thumb == "" && len(p.Images) > 0 {
		thumb = p.Images[0]
	}
	return CatalogItem{
		ExternalID:   string(p.UID),
		Name:         name,
		Description:  p.Description,
		ProductType:  p.ProductType,
		Brand:        p.Brand,
		Category:     p.Category,
		CatalogID:    p.CatalogID,
		BasePrice:    p.Price,
		Currency:     currency,
		Sizes:        p.Sizes,
		Colors:       []Color(p.Colors),
		ThumbnailURL: thumb,
		Images:       []string(p.Images),
	}
}

// ==================== 目录 ====================

// ListCatalog GET products?limit&offset&storeId
func (a *GelatoAdapter) ListCatalog(ctx context.Context, page Page) (*CatalogPage, error) {
	query := map[string]string{
		"limit":  strconv.Itoa(page.Limit),
		"offset": strconv.Itoa(page.Offset),
	}
	if a.creds.StoreID != "" {
		query["storeId"] = a.creds.StoreID
	}

	var res struct {
		Products []gelatoProduct `json:"products"`
	}
	if err := a.api.do(ctx, http.MethodGet, "/products", query, nil, &res); err != nil {
		return nil, err
	}

	out := &CatalogPage{Raw: len(res.Products)}
	for _, p := range res.Products {
		if p.UID == "" {
			out.Skipped++
			continue
		}
		out.Items = append(out.Items, p.toItem())
	}
	return out, nil
}

// GetProduct GET products/{uid}
func (a *GelatoAdapter) GetProduct(ctx context.Context, id string) (*CatalogItem, error) {
	var res struct {
		gelatoProduct
		Variants []gelatoVariant `json:"variants"`
	}
	if err := a.api.do(ctx, http.MethodGet, "/products/"+id, nil, nil, &res); err != nil {
		return nil, err
	}
	item := res.gelatoProduct.toItem()
	if item.ExternalID == "" {
		item.ExternalID = id
	}
	for _, v := range res.Variants {
		item.Variants = append(item.Variants, v.toVariant())
	}
	if len(item.Sizes) == 0 {
		item.Sizes = uniqueSizes(item.Variants)
	}
	if len(item.Colors) == 0 {
		item.Colors = uniqueColors(item.Variants)
	}
	return &item, nil
}

// ==================== 报价 & 运费 ====================

// GetPricing GET products/{uid}/prices?country
func (a *GelatoAdapter) GetPricing(ctx context.Context, id, country string) (*Pricing, error) {
	var res struct {
		Price    decimal.Decimal `json:"price"`
		Currency string          `json:"currency"`
		Variants []gelatoVariant `json:"variants"`
	}
	path := fmt.Sprintf("/products/%s/prices", id)
	if err := a.api.do(ctx, http.MethodGet, path, map[string]string{"country": countryOrDefault(country)}, nil, &res); err != nil {
		return nil, err
	}

	out := &Pricing{BasePrice: res.Price, Currency: res.Currency}
	if out.Currency == "" {
		out.Currency = "USD"
	}
	for _, v := range res.Variants {
		out.Variants = append(out.Variants, v.toVariant())
	}
	if out.BasePrice.IsZero() && len(out.Variants) > 0 {
		out.BasePrice = minPrice(out.Variants)
	}
	return out, nil
}

// GetShipping GET shipping/methods?country
// 取 type=standard 的配送方式，续件运费缺省为首件一半
func (a *GelatoAdapter) GetShipping(ctx context.Context, id, country string) (*Shipping, error) {
	var res struct {
		Methods []struct {
			Type                string              `json:"type"`
			Price               decimal.Decimal     `json:"price"`
			AdditionalItemPrice decimal.NullDecimal `json:"additionalItemPrice"`
			Currency            string              `json:"currency"`
		} `json:"methods"`
	}
	if err := a.api.do(ctx, http.MethodGet, "/shipping/methods", map[string]string{"country": countryOrDefault(country)}, nil, &res); err != nil {
		return nil, err
	}

	for _, m := range res.Methods {
		if !strings.EqualFold(m.Type, "standard") {
			continue
		}
		additional := m.Price.Div(decimal.NewFromInt(2))
		if m.AdditionalItemPrice.Valid {
			additional = m.AdditionalItemPrice.Decimal
		}
		currency := m.Currency
		if currency == "" {
			currency = "USD"
		}
		return &Shipping{FirstItem: m.Price, AdditionalItem: additional, Currency: currency}, nil
	}
	return nil, &APIError{Supplier: Gelato, Status: http.StatusOK, Err: fmt.Errorf("%s 无标准配送方式", countryOrDefault(country))}
}

// ==================== 订单 ====================

// CreateOrder POST orders
func (a *GelatoAdapter) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error) {
	first, last := splitName(req.Recipient.Name)
	items := make([]map[string]interface{}, 0, len(req.Items))
	for i, it := range req.Items {
		item := map[string]interface{}{
			"itemReferenceId": fmt.Sprintf("%s-%d", req.ExternalID, i+1),
			"productUid":      firstNonEmpty(it.VariantID, it.ProductID),
			"quantity":        it.Quantity,
		}
		if it.FileURL != "" {
			item["files"] = []map[string]string{{"type": "default", "url": it.FileURL}}
		}
		items = append(items, item)
	}
	body := map[string]interface{}{
		"orderType":        "order",
		"orderReferenceId": req.ExternalID,
		"currency":         "USD",
		"items":            items,
		"shippingAddress": map[string]string{
			"firstName":    first,
			"lastName":     last,
			"addressLine1": req.Recipient.Address1,
			"addressLine2": req.Recipient.Address2,
			"city":         req.Recipient.City,
			"state":        req.Recipient.State,
			"postCode":     req.Recipient.Zip,
			"country":      req.Recipient.Country,
			"email":        req.Recipient.Email,
			"phone":        req.Recipient.Phone,
		},
	}

	var res struct {
		ID                flexString `json:"id"`
		FulfillmentStatus string     `json:"fulfillmentStatus"`
	}
	if err := a.api.do(ctx, http.MethodPost, "/orders", nil, body, &res); err != nil {
		return nil, err
	}
	return &OrderResult{ID: string(res.ID), Status: res.FulfillmentStatus}, nil
}

// ==================== 凭证校验 ====================

// ValidateCredentials 拉取一条商品校验凭证，再尽力获取店铺信息
func (a *GelatoAdapter) ValidateCredentials(ctx context.Context) (*AccountInfo, error) {
	var sample struct {
		Products []gelatoProduct `json:"products"`
	}
	if err := a.api.do(ctx, http.MethodGet, "/products", map[string]string{"limit": "1"}, nil, &sample); err != nil {
		return nil, err
	}

	info := &AccountInfo{}
	var stores struct {
		Stores []struct {
			ID    flexString `json:"id"`
			Name  string     `json:"name"`
			Title string     `json:"title"`
			Email string     `json:"email"`
		} `json:"stores"`
	}
	// 店铺接口失败不影响校验结果
	if err := a.api.do(ctx, http.MethodGet, a.storesURL+"/stores", nil, nil, &stores); err == nil {
		for _, s := range stores.Stores {
			info.Shops = append(info.Shops, ShopRef{ID: string(s.ID), Title: firstNonEmpty(s.Name, s.Title)})
		}
		if len(stores.Stores) > 0 {
			first := stores.Stores[0]
			info.StoreID = string(first.ID)
			info.AccountName = firstNonEmpty(first.Name, first.Title)
			info.Email = first.Email
		}
	}
	if info.AccountName == "" {
		key := a.creds.APIKey
		if i := strings.Index(key, ":"); i >= 0 {
			key = key[:i]
		}
		info.AccountName = fmt.Sprintf("Gelato (%s)", lastN(key, 8))
	}
	return info, nil
}

// ==================== 工具函数 ====================

func countryOrDefault(country string) string {
	if country == "" {
		return "US"
	}
	return strings.ToUpper(country)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
