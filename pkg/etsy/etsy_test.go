package etsy

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryJSON = `{
	"products": [
		{"product_id": 1, "sku": "GEL_TEE_M", "property_values": [{"property_id": 100, "property_name": "Size", "values": ["M"]}],
		 "offerings": [{"offering_id": 11, "price": {"amount": 2599, "divisor": 100, "currency_code": "USD"}, "quantity": 5, "is_enabled": true}]},
		{"product_id": 2, "sku": "GEL_TEE_L", "property_values": [{"property_id": 100, "property_name": "size", "values": ["L"]}],
		 "offerings": [{"offering_id": 12, "price": {"amount": 2799, "divisor": 100, "currency_code": "USD"}, "quantity": 3, "is_enabled": true}]},
		{"product_id": 3, "sku": "OLD", "is_deleted": true}
	],
	"price_on_property": [100]
}`

func TestMoneyDTO_Decimal(t *testing.T) {
	m := MoneyDTO{Amount: 2599, Divisor: 100}
	assert.True(t, decimal.RequireFromString("25.99").Equal(m.Decimal()))

	// divisor 缺失时按 100 处理
	assert.True(t, decimal.RequireFromString("1.5").Equal(MoneyDTO{Amount: 150}.Decimal()))
}

func TestInventoryProduct_Property(t *testing.T) {
	var inv InventoryDTO
	require.NoError(t, json.Unmarshal([]byte(inventoryJSON), &inv))

	assert.Equal(t, "M", inv.Products[0].Property("size"))
	assert.Equal(t, "L", inv.Products[1].Property("Size"))
	assert.Empty(t, inv.Products[0].Property("color", "colour"))
}

func TestNewUpdateInventoryReq(t *testing.T) {
	var inv InventoryDTO
	require.NoError(t, json.Unmarshal([]byte(inventoryJSON), &inv))

	bySKU := map[string]string{"GEL_TEE_M": "PFY_TEE_M"}
	req, changed := NewUpdateInventoryReq(&inv, func(_ int64, sku string) (string, bool) {
		next, ok := bySKU[sku]
		return next, ok
	})
	assert.Equal(t, 1, changed)
	require.Len(t, req.Products, 2)
	assert.Equal(t, "PFY_TEE_M", req.Products[0].SKU)
	assert.Equal(t, "GEL_TEE_L", req.Products[1].SKU)
	assert.Equal(t, "25.99", req.Products[0].Offerings[0].Price.String())
	assert.Equal(t, []int64{100}, req.PriceOnProperty)
	assert.Equal(t, []int64{}, req.SkuOnProperty)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"price":25.99`)
}

func TestNewUpdateInventoryReq_ByProductID(t *testing.T) {
	var inv InventoryDTO
	require.NoError(t, json.Unmarshal([]byte(inventoryJSON), &inv))

	var seen []int64
	req, changed := NewUpdateInventoryReq(&inv, func(productID int64, _ string) (string, bool) {
		seen = append(seen, productID)
		if productID == 2 {
			return "PFY_TEE_L", true
		}
		return "", false
	})
	assert.Equal(t, 1, changed)
	assert.Equal(t, []int64{1, 2}, seen)
	require.Len(t, req.Products, 2)
	assert.Equal(t, "GEL_TEE_M", req.Products[0].SKU)
	assert.Equal(t, "PFY_TEE_L", req.Products[1].SKU)
}
