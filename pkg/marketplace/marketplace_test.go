package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iShirker/PoD-ShopManager/pkg/net"
)

// ==================== Etsy ====================

const etsyInventory = `{
	"products": [
		{"product_id": 501, "sku": "GEL_GILDAN5000_M_BLACK",
		 "property_values": [{"property_id": 100, "property_name": "Size", "values": ["M"]}, {"property_id": 200, "property_name": "Primary color", "values": ["Black"]}],
		 "offerings": [{"offering_id": 1, "price": {"amount": 2500, "divisor": 100, "currency_code": "USD"}, "quantity": 4, "is_enabled": true}]},
		{"product_id": 502, "sku": "GEL_GILDAN5000_L_BLACK",
		 "property_values": [{"property_id": 100, "property_name": "Size", "values": ["L"]}],
		 "offerings": [{"offering_id": 2, "price": {"amount": 2700, "divisor": 100, "currency_code": "USD"}, "quantity": 0, "is_enabled": false}]}
	],
	"price_on_property": [100],
	"quantity_on_property": [],
	"sku_on_property": []
}`

type etsyFake struct {
	mu       sync.Mutex
	putBody  []byte
	failInv  bool
	listings int
}

func (f *etsyFake) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/shops/77/listings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("state"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		f.mu.Lock()
		f.listings++
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"count":1,"results":[{"listing_id":9001,"title":"Gildan 5000 Tee","price":{"amount":2500,"divisor":100,"currency_code":"USD"}}]}`)
	})
	mux.HandleFunc("/listings/9001/inventory", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if f.failInv {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":"boom"}`)
				return
			}
			_, _ = io.WriteString(w, etsyInventory)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.putBody = body
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{}`)
		}
	})
	mux.HandleFunc("/listings/9001/images", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":2,"results":[{"url_fullxfull":"http://img/full.jpg"},{"url_570xN":"http://img/570.jpg"}]}`)
	})
	return mux
}

func newEtsyTest(t *testing.T, f *etsyFake) (*EtsyClient, Store) {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewEtsyClient(net.NewDispatcher(net.WithShopRate(0, 0)), srv.URL, "app-key")
	return c, Store{ID: 1, Platform: PlatformEtsy, ShopID: "77", AccessToken: "tok"}
}

func TestEtsy_FetchListings(t *testing.T) {
	f := &etsyFake{}
	c, store := newEtsyTest(t, f)

	listings, err := c.FetchListings(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 1, f.listings)

	l := listings[0]
	require.NoError(t, l.Err)
	assert.Equal(t, "9001", l.ListingID)
	assert.Equal(t, "25", l.Price.String())
	assert.Equal(t, []string{"http://img/full.jpg", "http://img/570.jpg"}, l.Images)
	assert.Equal(t, "http://img/full.jpg", l.ThumbnailURL)
	require.Len(t, l.Variants, 2)
	assert.Equal(t, "M", l.Variants[0].Size)
	assert.Equal(t, "Black", l.Variants[0].Color)
	assert.False(t, l.Variants[1].Available)
	assert.Equal(t, []string{"GEL_GILDAN5000_M_BLACK", "GEL_GILDAN5000_L_BLACK"}, l.SKUs())
}

func TestEtsy_FetchListingsInventoryFailure(t *testing.T) {
	f := &etsyFake{failInv: true}
	c, store := newEtsyTest(t, f)

	listings, err := c.FetchListings(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	var apiErr *APIError
	require.True(t, errors.As(listings[0].Err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Empty(t, listings[0].Variants)
}

func TestEtsy_UpdateSKUs(t *testing.T) {
	f := &etsyFake{}
	c, store := newEtsyTest(t, f)

	n, err := c.UpdateSKUs(context.Background(), store, "9001", SKUPlan{
		{VariantID: "501", OldSKU: "GEL_GILDAN5000_M_BLACK", NewSKU: "PFY_GILDAN5000_M_BLACK"},
		{VariantID: "502", OldSKU: "GEL_GILDAN5000_L_BLACK", NewSKU: "PFY_GILDAN5000_L_BLACK"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var body struct {
		Products []struct {
			SKU       string `json:"sku"`
			Offerings []struct {
				Price json.Number `json:"price"`
			} `json:"offerings"`
		} `json:"products"`
		PriceOnProperty []int64 `json:"price_on_property"`
	}
	require.NoError(t, json.Unmarshal(f.putBody, &body))
	require.Len(t, body.Products, 2)
	assert.Equal(t, "PFY_GILDAN5000_M_BLACK", body.Products[0].SKU)
	assert.Equal(t, "PFY_GILDAN5000_L_BLACK", body.Products[1].SKU)
	assert.Equal(t, "25.00", body.Products[0].Offerings[0].Price.String())
	assert.Equal(t, []int64{100}, body.PriceOnProperty)
}

func TestEtsy_UpdateSKUsNoChange(t *testing.T) {
	f := &etsyFake{}
	c, store := newEtsyTest(t, f)

	n, err := c.UpdateSKUs(context.Background(), store, "9001", SKUPlan{{VariantID: "999", OldSKU: "UNKNOWN", NewSKU: "X"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, f.putBody)
}

func TestEtsy_UpdateSKUsMatchesByVariantID(t *testing.T) {
	f := &etsyFake{}
	c, store := newEtsyTest(t, f)

	// 本地记录的旧 SKU 与平台不一致时按规格 ID 写回
	n, err := c.UpdateSKUs(context.Background(), store, "9001", SKUPlan{
		{VariantID: "502", OldSKU: "", NewSKU: "PFY_9001_502"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var body struct {
		Products []struct {
			SKU string `json:"sku"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(f.putBody, &body))
	require.Len(t, body.Products, 2)
	assert.Equal(t, "GEL_GILDAN5000_M_BLACK", body.Products[0].SKU)
	assert.Equal(t, "PFY_9001_502", body.Products[1].SKU)
}

func TestEtsy_NotConfigured(t *testing.T) {
	c := NewEtsyClient(net.NewDispatcher(), "", "")
	_, err := c.FetchListings(context.Background(), Store{Platform: PlatformEtsy})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// ==================== Shopify ====================

func TestShopify_FetchListingsPaginated(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shp-tok", r.Header.Get("X-Shopify-Access-Token"))
		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", `<`+srv.URL+`/products.json?limit=250&page_info=abc>; rel="next"`)
			_, _ = io.WriteString(w, `{"products":[{"id":1,"title":"Tee","product_type":"T-Shirt","status":"active",
				"images":[{"src":"http://img/1.jpg"}],
				"variants":[{"id":11,"sku":"PFY_GILDAN5000_M","option1":"M","option2":"Navy","price":"19.99","compare_at_price":"24.99","inventory_quantity":0,"inventory_policy":"continue"}]}]}`)
		case "abc":
			w.Header().Set("Link", `<`+srv.URL+`/products.json?page_info=zzz>; rel="previous"`)
			_, _ = io.WriteString(w, `{"products":[{"id":2,"title":"Mug","status":"draft","variants":[{"id":21,"sku":"","price":"9.00","inventory_quantity":3}]}]}`)
		default:
			t.Errorf("unexpected page_info %q", r.URL.Query().Get("page_info"))
		}
	}))
	defer srv.Close()

	c := NewShopifyClient("", WithShopifyEndpoint(srv.URL))
	listings, err := c.FetchListings(context.Background(), Store{Platform: PlatformShopify, Domain: "demo.myshopify.com", AccessToken: "shp-tok"})
	require.NoError(t, err)
	require.Len(t, listings, 2)

	tee := listings[0]
	assert.True(t, tee.Active)
	assert.Equal(t, "T-Shirt", tee.ProductType)
	assert.Equal(t, "19.99", tee.Price.String())
	require.Len(t, tee.Variants, 1)
	assert.Equal(t, "M", tee.Variants[0].Size)
	assert.Equal(t, "Navy", tee.Variants[0].Color)
	assert.True(t, tee.Variants[0].Available)
	assert.True(t, tee.Variants[0].CompareAtPrice.Valid)

	mug := listings[1]
	assert.False(t, mug.Active)
	assert.Empty(t, mug.SKUs())
}

func TestShopify_UpdateSKUs(t *testing.T) {
	var mu sync.Mutex
	puts := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/products/1.json":
			_, _ = io.WriteString(w, `{"product":{"id":1,"variants":[{"id":11,"sku":"GEL_A"},{"id":12,"sku":"OTHER"},{"id":13,"sku":""}]}}`)
		case r.Method == http.MethodPut:
			var body struct {
				Variant struct {
					ID  int64  `json:"id"`
					SKU string `json:"sku"`
				} `json:"variant"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			puts[r.URL.Path] = body.Variant.SKU
			mu.Unlock()
			_, _ = io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewShopifyClient("2024-01", WithShopifyEndpoint(srv.URL))
	n, err := c.UpdateSKUs(context.Background(), Store{Platform: PlatformShopify, AccessToken: "t"}, "1", SKUPlan{
		{OldSKU: "GEL_A", NewSKU: "PFL_A"},
		{VariantID: "13", NewSKU: "PFL_1_13"},
		{VariantID: "99", OldSKU: "GONE", NewSKU: "PFL_GONE"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, map[string]string{"/variants/11.json": "PFL_A", "/variants/13.json": "PFL_1_13"}, puts)
}

func TestSKUPlan_Lookup(t *testing.T) {
	plan := SKUPlan{
		{VariantID: "11", OldSKU: "GEL_A", NewSKU: "PFL_A"},
		{VariantID: "12", OldSKU: "", NewSKU: "PFL_L_12"},
		{OldSKU: "GEL_B", NewSKU: "PFL_B"},
		{VariantID: "14", OldSKU: "PFL_C", NewSKU: "PFL_C"},
	}
	cases := []struct {
		name      string
		variantID string
		sku       string
		want      string
		ok        bool
	}{
		{name: "按规格 ID", variantID: "11", sku: "GEL_A", want: "PFL_A", ok: true},
		{name: "平台 SKU 已变更仍按 ID", variantID: "11", sku: "EDITED", want: "PFL_A", ok: true},
		{name: "空 SKU 按 ID", variantID: "12", sku: "", want: "PFL_L_12", ok: true},
		{name: "无 ID 回退旧 SKU", variantID: "77", sku: "GEL_B", want: "PFL_B", ok: true},
		{name: "未变化", variantID: "14", sku: "PFL_C", want: "PFL_C", ok: false},
		{name: "空 SKU 无 ID 不匹配", variantID: "", sku: "", ok: false},
		{name: "未知", variantID: "99", sku: "OTHER", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := plan.Lookup(tc.variantID, tc.sku)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSplitOptions(t *testing.T) {
	cases := []struct {
		opts        []string
		size, color string
	}{
		{[]string{"M", "Black"}, "M", "Black"},
		{[]string{"White", "Extra Large"}, "Extra Large", "White"},
		{[]string{"", "", ""}, "", ""},
	}
	for _, tc := range cases {
		size, color := splitOptions(tc.opts...)
		assert.Equal(t, tc.size, size)
		assert.Equal(t, tc.color, color)
	}
}

func TestNextPageInfo(t *testing.T) {
	link := `<https://x.myshopify.com/admin/api/2024-01/products.json?page_info=p1&limit=250>; rel="previous", <https://x.myshopify.com/admin/api/2024-01/products.json?page_info=p2&limit=250>; rel="next"`
	assert.Equal(t, "p2", nextPageInfo(link))
	assert.Empty(t, nextPageInfo(""))
}

// ==================== Router ====================

func TestRouter_Unsupported(t *testing.T) {
	r := NewRouter(nil, NewShopifyClient(""))
	_, err := r.FetchListings(context.Background(), Store{Platform: PlatformEtsy})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = r.FetchListings(context.Background(), Store{Platform: PlatformShopify})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
