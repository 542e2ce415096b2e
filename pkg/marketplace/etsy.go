package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iShirker/PoD-ShopManager/pkg/etsy"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/net"
)

const (
	etsyBaseURL  = "https://openapi.etsy.com/v3/application"
	etsyPageSize = 100
)

// EtsyClient Etsy Open API v3
// 所有请求经 Dispatcher 发出，按店铺限速
type EtsyClient struct {
	dispatcher net.Dispatcher
	baseURL    string
	apiKey     string // 店铺未配置 api_key 时使用的应用级 key
}

var _ Client = (*EtsyClient)(nil)

func NewEtsyClient(dispatcher net.Dispatcher, baseURL, apiKey string) *EtsyClient {
	if baseURL == "" {
		baseURL = etsyBaseURL
	}
	return &EtsyClient{
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// ==================== 商品同步 ====================

// FetchListings 分页拉取 active 商品，并逐个补全库存与图片
// 单个商品库存拉取失败时写入 Listing.Err，不中断整页
func (c *EtsyClient) FetchListings(ctx context.Context, store Store) ([]Listing, error) {
	if store.ShopID == "" || store.AccessToken == "" {
		return nil, ErrNotConfigured
	}

	var out []Listing
	for offset := 0; ; offset += etsyPageSize {
		url := fmt.Sprintf("%s/shops/%s/listings?state=active&limit=%d&offset=%d", c.baseURL, store.ShopID, etsyPageSize, offset)
		var page etsy.ListingsResp
		if err := c.getJSON(ctx, store, url, &page); err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			break
		}

		for _, l := range page.Results {
			out = append(out, c.buildListing(ctx, store, l))
		}
		if len(page.Results) < etsyPageSize {
			break
		}
	}
	return out, nil
}

func (c *EtsyClient) buildListing(ctx context.Context, store Store, l etsy.ListingDTO) Listing {
	id := strconv.FormatInt(l.ListingID, 10)
	listing := Listing{
		ListingID:   id,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price.Decimal(),
		Currency:    l.Price.CurrencyCode,
		Active:      true,
	}
	if listing.Currency == "" {
		listing.Currency = "USD"
	}

	inv, err := c.inventory(ctx, store, id)
	if err != nil {
		listing.Err = err
		return listing
	}
	listing.Variants = inventoryVariants(inv)

	// 图片失败不影响商品同步
	var images etsy.ListingImagesResp
	if err := c.getJSON(ctx, store, fmt.Sprintf("%s/listings/%s/images", c.baseURL, id), &images); err != nil {
		logger.L().WithField("listing_id", id).Warnf("[Etsy] 拉取图片失败: %v", err)
	} else {
		for _, img := range images.Results {
			if u := img.Best(); u != "" {
				listing.Images = append(listing.Images, u)
			}
		}
	}
	if len(listing.Images) > 0 {
		listing.ThumbnailURL = listing.Images[0]
	}
	return listing
}

// inventoryVariants 库存规格转换 (每个 offering 一条)
func inventoryVariants(inv *etsy.InventoryDTO) []Variant {
	var out []Variant
	for _, p := range inv.Products {
		if p.IsDeleted {
			continue
		}
		size := p.Property("size")
		color := p.Property("color", "colour")
		for _, o := range p.Offerings {
			if o.IsDeleted {
				continue
			}
			out = append(out, Variant{
				VariantID: strconv.FormatInt(p.ProductID, 10),
				SKU:       p.SKU,
				Size:      size,
				Color:     color,
				Price:     o.Price.Decimal(),
				Quantity:  o.Quantity,
				Available: o.IsEnabled,
			})
		}
	}
	return out
}

// ==================== SKU 写回 ====================

// UpdateSKUs GET inventory 后替换匹配的 SKU，再整体 PUT 回去
// inventory 的 product_id 即同步时记录的平台规格 ID
func (c *EtsyClient) UpdateSKUs(ctx context.Context, store Store, listingID string, plan SKUPlan) (int, error) {
	inv, err := c.inventory(ctx, store, listingID)
	if err != nil {
		return 0, err
	}

	body, changed := etsy.NewUpdateInventoryReq(inv, func(productID int64, sku string) (string, bool) {
		return plan.Lookup(strconv.FormatInt(productID, 10), sku)
	})
	if changed == 0 {
		logger.L().WithField("listing_id", listingID).Info("[Etsy] 无需更新的 SKU")
		return 0, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	url := fmt.Sprintf("%s/listings/%s/inventory", c.baseURL, listingID)
	req, err := net.NewEtsyRequest(ctx, http.MethodPut, url, bytes.NewReader(raw), c.auth(store))
	if err != nil {
		return 0, err
	}
	resp, err := c.dispatcher.Send(ctx, store.ID, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, parseEtsyError(resp)
	}
	return changed, nil
}

// ==================== 私有方法 ====================

func (c *EtsyClient) auth(store Store) net.EtsyAuth {
	key := c.apiKey
	if store.APIKey != "" {
		key = store.APIKey
	}
	return net.EtsyAuth{APIKey: key, AccessToken: store.AccessToken}
}

func (c *EtsyClient) inventory(ctx context.Context, store Store, listingID string) (*etsy.InventoryDTO, error) {
	var inv etsy.InventoryDTO
	if err := c.getJSON(ctx, store, fmt.Sprintf("%s/listings/%s/inventory", c.baseURL, listingID), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *EtsyClient) getJSON(ctx context.Context, store Store, url string, out interface{}) error {
	req, err := net.NewEtsyRequest(ctx, http.MethodGet, url, nil, c.auth(store))
	if err != nil {
		return err
	}
	resp, err := c.dispatcher.Send(ctx, store.ID, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseEtsyError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode etsy response: %w", err)
	}
	return nil
}

func parseEtsyError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e etsy.ErrorResp
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg := e.Error
		if e.ErrorDescription != "" {
			msg += ": " + e.ErrorDescription
		}
		return &APIError{Platform: PlatformEtsy, Status: resp.StatusCode, Body: msg}
	}
	return &APIError{Platform: PlatformEtsy, Status: resp.StatusCode, Body: string(body)}
}
