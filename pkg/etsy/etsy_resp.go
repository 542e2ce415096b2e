package etsy

import "encoding/json"

// ==========================================
// REQ: 写回 Etsy 的请求结构
// ==========================================

// UpdateOfferingReq 报价写回结构 (price 为主货币单位的数字)
type UpdateOfferingReq struct {
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	IsEnabled bool        `json:"is_enabled"`
}

// UpdateProductReq 规格写回结构
type UpdateProductReq struct {
	SKU            string              `json:"sku"`
	PropertyValues []PropertyValueDTO  `json:"property_values"`
	Offerings      []UpdateOfferingReq `json:"offerings"`
}

// UpdateInventoryReq PUT /v3/application/listings/{listing_id}/inventory
// 必须提交完整 products 数组，缺失的规格会被 Etsy 删除
type UpdateInventoryReq struct {
	Products           []UpdateProductReq `json:"products"`
	PriceOnProperty    []int64            `json:"price_on_property"`
	QuantityOnProperty []int64            `json:"quantity_on_property"`
	SkuOnProperty      []int64            `json:"sku_on_property"`
}

// SKULookup 按库存规格的 product_id 与当前 SKU 给出新 SKU，ok 为 false 表示保持不变
type SKULookup func(productID int64, sku string) (next string, ok bool)

// NewUpdateInventoryReq 基于当前库存构建写回请求
// 返回值 changed 为实际替换的 SKU 数量
func NewUpdateInventoryReq(inv *InventoryDTO, lookup SKULookup) (*UpdateInventoryReq, int) {
	req := &UpdateInventoryReq{
		Products:           make([]UpdateProductReq, 0, len(inv.Products)),
		PriceOnProperty:    nonNil(inv.PriceOnProperty),
		QuantityOnProperty: nonNil(inv.QuantityOnProperty),
		SkuOnProperty:      nonNil(inv.SkuOnProperty),
	}

	changed := 0
	for _, p := range inv.Products {
		if p.IsDeleted {
			continue
		}
		sku := p.SKU
		if next, ok := lookup(p.ProductID, sku); ok && next != sku {
			sku = next
			changed++
		}

		offerings := make([]UpdateOfferingReq, 0, len(p.Offerings))
		for _, o := range p.Offerings {
			if o.IsDeleted {
				continue
			}
			offerings = append(offerings, UpdateOfferingReq{
				Price:     json.Number(o.Price.Decimal().StringFixed(2)),
				Quantity:  o.Quantity,
				IsEnabled: o.IsEnabled,
			})
		}

		props := p.PropertyValues
		if props == nil {
			props = []PropertyValueDTO{}
		}
		req.Products = append(req.Products, UpdateProductReq{SKU: sku, PropertyValues: props, Offerings: offerings})
	}
	return req, changed
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
