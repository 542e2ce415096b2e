package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

const printfulBaseURL = "https://api.printful.com"

// 续件运费按首件的比例估算
var printfulAdditionalRatio = decimal.NewFromFloat(0.3)

// PrintfulAdapter Printful 接口
// 响应统一包在 result 字段中，价格为美元字符串 (如 "13.25")
type PrintfulAdapter struct {
	creds Credentials
	api   *client

	mu       sync.Mutex
	products []printfulProduct // 商品列表不分页，首次拉取后缓存
}

var _ Adapter = (*PrintfulAdapter)(nil)

func NewPrintfulAdapter(creds Credentials, o options) *PrintfulAdapter {
	c := newClient(Printful, printfulBaseURL, o)
	if t := creds.token(); t != "" {
		c.http.SetAuthToken(t)
	}
	return &PrintfulAdapter{creds: creds, api: c}
}

func (a *PrintfulAdapter) Kind() Kind { return Printful }

// ==================== 响应结构 ====================

type printfulProduct struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	TypeName    string     `json:"type_name"`
	Brand       string     `json:"brand"`
	Model       string     `json:"model"`
	Image       string     `json:"image"`
}

type printfulVariant struct {
	ID        flexString      `json:"id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	ColorCode string          `json:"color_code"`
	Price     decimal.Decimal `json:"price"`
	InStock   *bool           `json:"in_stock"`
}

func (v printfulVariant) toVariant() Variant {
	available := true
	if v.InStock != nil {
		available = *v.InStock
	}
	return Variant{
		ID:        string(v.ID),
		Title:     v.Name,
		Size:      v.Size,
		Color:     v.Color,
		ColorHex:  v.ColorCode,
		Price:     v.Price,
		Available: available,
	}
}

// toItem type 作为商品类型，type_name 作为分类
func (p printfulProduct) toItem() CatalogItem {
	item := CatalogItem{
		ExternalID:   string(p.ID),
		Name:         p.Title,
		Description:  p.Description,
		ProductType:  firstNonEmpty(p.Type, p.TypeName),
		Brand:        p.Brand,
		Category:     p.TypeName,
		CatalogID:    string(p.ID),
		Currency:     "USD",
		ThumbnailURL: p.Image,
	}
	if p.Image != "" {
		item.Images = []string{p.Image}
	}
	return item
}

// result 解开 {"code":200,"result":...}
func (a *PrintfulAdapter) result(ctx context.Context, method, path string, body, out interface{}) error {
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := a.api.do(ctx, method, path, nil, body, &env); err != nil {
		return err
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &APIError{Supplier: Printful, Status: http.StatusOK, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return nil
}

// ==================== 目录 ====================

func (a *PrintfulAdapter) loadProducts(ctx context.Context, refresh bool) ([]printfulProduct, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.products != nil && !refresh {
		return a.products, nil
	}
	var list []printfulProduct
	if err := a.result(ctx, http.MethodGet, "/products", nil, &list); err != nil {
		return nil, err
	}
	a.products = list
	return list, nil
}

// ListCatalog 商品列表不分页，按 Page 截取
// 列表条目不含规格，逐个 GetProduct 补全价格、尺码与颜色；详情失败的条目跳过
func (a *PrintfulAdapter) ListCatalog(ctx context.Context, page Page) (*CatalogPage, error) {
	all, err := a.loadProducts(ctx, page.Offset == 0)
	if err != nil {
		return nil, err
	}
	slice := window(all, page)

	out := &CatalogPage{Raw: len(slice)}
	for _, p := range slice {
		if p.ID == "" {
			out.Skipped++
			continue
		}
		item, err := a.GetProduct(ctx, string(p.ID))
		if err != nil {
			if ctx.Err() != nil || IsAuthError(err) {
				return nil, err
			}
			logger.L().WithField("product_id", string(p.ID)).Warnf("[Printful] 获取商品详情失败，跳过: %v", err)
			out.Skipped++
			continue
		}
		if item.Name == "" {
			item.Name = p.Title
		}
		out.Items = append(out.Items, *item)
	}
	return out, nil
}

// GetProduct GET products/{id}
func (a *PrintfulAdapter) GetProduct(ctx context.Context, id string) (*CatalogItem, error) {
	var res struct {
		Product  printfulProduct   `json:"product"`
		Variants []printfulVariant `json:"variants"`
	}
	if err := a.result(ctx, http.MethodGet, "/products/"+id, nil, &res); err != nil {
		return nil, err
	}

	item := res.Product.toItem()
	if item.ExternalID == "" {
		item.ExternalID = id
		item.CatalogID = id
	}
	for _, v := range res.Variants {
		item.Variants = append(item.Variants, v.toVariant())
	}
	item.BasePrice = minPrice(item.Variants)
	item.Sizes = uniqueSizes(item.Variants)
	item.Colors = uniqueColors(item.Variants)
	return &item, nil
}

// ==================== 报价 & 运费 ====================

// GetPricing 取规格最低价
func (a *PrintfulAdapter) GetPricing(ctx context.Context, id, country string) (*Pricing, error) {
	item, err := a.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Pricing{BasePrice: item.BasePrice, Currency: item.Currency, Variants: item.Variants}, nil
}

// GetShipping POST shipping/rates，以商品首个规格估算
// 优先 STANDARD，否则取第一条，续件按首件 30% 估算
func (a *PrintfulAdapter) GetShipping(ctx context.Context, id, country string) (*Shipping, error) {
	item, err := a.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(item.Variants) == 0 {
		return nil, &APIError{Supplier: Printful, Status: http.StatusOK, Err: fmt.Errorf("商品 %s 无规格", id)}
	}

	body := map[string]interface{}{
		"recipient": map[string]string{
			"country_code": countryOrDefault(country),
			"city":         "Anytown",
			"zip":          "12345",
		},
		"items": []map[string]interface{}{
			{"variant_id": json.Number(item.Variants[0].ID), "quantity": 1},
		},
	}
	var rates []struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Rate     decimal.Decimal `json:"rate"`
		Currency string          `json:"currency"`
	}
	if err := a.result(ctx, http.MethodPost, "/shipping/rates", body, &rates); err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, &APIError{Supplier: Printful, Status: http.StatusOK, Err: fmt.Errorf("%s 无可用运费", countryOrDefault(country))}
	}

	picked := rates[0]
	for _, r := range rates {
		if strings.EqualFold(r.ID, "STANDARD") {
			picked = r
			break
		}
	}
	return &Shipping{
		FirstItem:      picked.Rate,
		AdditionalItem: picked.Rate.Mul(printfulAdditionalRatio).Round(2),
		Currency:       firstNonEmpty(picked.Currency, "USD"),
	}, nil
}

// ==================== 订单 ====================

// CreateOrder POST orders
func (a *PrintfulAdapter) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error) {
	items := make([]map[string]interface{}, 0, len(req.Items))
	for _, it := range req.Items {
		item := map[string]interface{}{
			"variant_id": json.Number(firstNonEmpty(it.VariantID, "0")),
			"quantity":   it.Quantity,
		}
		if it.FileURL != "" {
			item["files"] = []map[string]string{{"url": it.FileURL}}
		}
		items = append(items, item)
	}
	body := map[string]interface{}{
		"external_id": req.ExternalID,
		"items":       items,
		"recipient": map[string]string{
			"name":         req.Recipient.Name,
			"email":        req.Recipient.Email,
			"phone":        req.Recipient.Phone,
			"address1":     req.Recipient.Address1,
			"address2":     req.Recipient.Address2,
			"city":         req.Recipient.City,
			"state_code":   req.Recipient.State,
			"country_code": req.Recipient.Country,
			"zip":          req.Recipient.Zip,
		},
	}

	var res struct {
		ID     flexString `json:"id"`
		Status string     `json:"status"`
	}
	if err := a.result(ctx, http.MethodPost, "/orders", body, &res); err != nil {
		return nil, err
	}
	return &OrderResult{ID: string(res.ID), Status: firstNonEmpty(res.Status, "draft")}, nil
}

// ==================== 凭证校验 ====================

// ValidateCredentials GET store
func (a *PrintfulAdapter) ValidateCredentials(ctx context.Context) (*AccountInfo, error) {
	var store struct {
		ID           flexString `json:"id"`
		Name         string     `json:"name"`
		Email        string     `json:"email"`
		OwnerEmail   string     `json:"owner_email"`
		ContactEmail string     `json:"contact_email"`
	}
	if err := a.result(ctx, http.MethodGet, "/store", nil, &store); err != nil {
		return nil, err
	}

	info := &AccountInfo{
		AccountID:   string(store.ID),
		AccountName: store.Name,
		Email:       firstNonEmpty(store.Email, store.OwnerEmail, store.ContactEmail),
		StoreID:     string(store.ID),
	}
	if info.AccountName == "" {
		info.AccountName = fmt.Sprintf("Printful (%s)", lastN(a.creds.token(), 8))
	}
	if info.StoreID != "" {
		info.Shops = []ShopRef{{ID: info.StoreID, Title: store.Name}}
	}
	return info, nil
}
