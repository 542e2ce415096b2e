package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 测试辅助 ====================

func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func raw(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ==================== 注册表 ====================

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Printify ")
	require.NoError(t, err)
	assert.Equal(t, Printify, k)

	_, err = ParseKind("teespring")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNew_AllKinds(t *testing.T) {
	for _, k := range Kinds() {
		a, err := New(k, Credentials{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, k, a.Kind())
	}
	_, err := New(Kind("nope"), Credentials{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

// ==================== 错误映射 ====================

func TestClient_ErrorMapping(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"bad token"}`)
		},
		"GET /boom": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `oops`)
		},
	})
	c := newClient(Gelato, srv.URL, buildOptions(nil))

	err := c.do(context.Background(), http.MethodGet, "/unauthorized", nil, nil, nil)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "bad token", authErr.Message)
	assert.True(t, IsAuthError(err))

	err = c.do(context.Background(), http.MethodGet, "/missing", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsAuthError(err))

	err = c.do(context.Background(), http.MethodGet, "/boom", nil, nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestClient_NoRetry(t *testing.T) {
	var calls int32
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /flaky": func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		},
	})
	c := newClient(Printful, srv.URL, buildOptions([]Option{WithRateLimit(100)}))

	err := c.do(context.Background(), http.MethodGet, "/flaky", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWindow(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, window(all, Page{Limit: 2}))
	assert.Equal(t, []int{5}, window(all, Page{Limit: 2, Offset: 4}))
	assert.Nil(t, window(all, Page{Limit: 2, Offset: 5}))
	assert.Equal(t, all, window(all, Page{}))
}

// ==================== Gelato ====================

func TestGelato_ListCatalogAndAuthHeader(t *testing.T) {
	var gotKey, gotStore string
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-API-KEY")
			gotStore = r.URL.Query().Get("storeId")
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			raw(`{"products":[
				{"uid":"apparel_gildan_5000","title":"Gildan 5000 Tee","productType":"t-shirt","price":9.5,"sizes":["S","M"],"colors":["Black",{"name":"White","hex":"#fff"}],"images":[{"url":"http://img/1.png"}]},
				{"title":"broken"}
			]}`)(w, r)
		},
	})
	a := NewGelatoAdapter(Credentials{APIKey: "gel-key", StoreID: "store-1"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	page, err := a.ListCatalog(context.Background(), Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "gel-key", gotKey)
	assert.Equal(t, "store-1", gotStore)
	assert.Equal(t, 2, page.Raw)
	assert.Equal(t, 1, page.Skipped)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, "apparel_gildan_5000", item.ExternalID)
	assert.True(t, dec("9.5").Equal(item.BasePrice))
	assert.Equal(t, "USD", item.Currency)
	assert.Equal(t, []Color{{Name: "Black"}, {Name: "White", Hex: "#fff"}}, item.Colors)
	assert.Equal(t, "http://img/1.png", item.ThumbnailURL)
}

func TestGelato_BearerWhenAccessToken(t *testing.T) {
	var auth, key string
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			key = r.Header.Get("X-API-KEY")
			raw(`{"products":[]}`)(w, r)
		},
	})
	a := NewGelatoAdapter(Credentials{APIKey: "k", AccessToken: "tok"}, buildOptions([]Option{WithBaseURL(srv.URL), WithStoresURL(srv.URL)}))

	_, err := a.ListCatalog(context.Background(), Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
	assert.Empty(t, key)
}

func TestGelato_Shipping(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /shipping/methods": raw(`{"methods":[{"type":"express","price":20},{"type":"standard","price":4.5}]}`),
	})
	a := NewGelatoAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	s, err := a.GetShipping(context.Background(), "uid", "us")
	require.NoError(t, err)
	assert.True(t, dec("4.5").Equal(s.FirstItem))
	assert.True(t, dec("2.25").Equal(s.AdditionalItem))
}

func TestGelato_ValidateFallbackName(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": raw(`{"products":[]}`),
	})
	a := NewGelatoAdapter(Credentials{APIKey: "abcdefgh12345678"}, buildOptions([]Option{WithBaseURL(srv.URL), WithStoresURL(srv.URL)}))

	info, err := a.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Gelato (12345678)", info.AccountName)
}

func TestGelato_ValidateRejected(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
	})
	a := NewGelatoAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	_, err := a.ValidateCredentials(context.Background())
	assert.True(t, IsAuthError(err))
}

// ==================== Printify ====================

func printifyRoutes(failBlueprint string) map[string]func(w http.ResponseWriter, r *http.Request) {
	return map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /catalog/blueprints.json": raw(`[
			{"id":6,"title":"Unisex Gildan 5000","brand":"Gildan","model":"5000","images":["http://img/6.png"]},
			{"id":7,"title":"Broken"},
			{"id":8,"title":"Mug","model":"Mug 11oz"}
		]`),
		"GET /catalog/blueprints/6/print_providers.json": raw(`[{"id":3,"title":"Provider"}]`),
		"GET /catalog/blueprints/7/print_providers.json": func(w http.ResponseWriter, r *http.Request) {
			if failBlueprint == "7" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			raw(`[{"id":3}]`)(w, r)
		},
		"GET /catalog/blueprints/8/print_providers.json":            raw(`[{"id":4}]`),
		"GET /catalog/blueprints/6/print_providers/3/variants.json": raw(`{"variants":[{"id":1,"title":"S / Black","options":{"size":"S","color":"Black"},"price":1250},{"id":2,"size":"M","color":"Black","price":1199}]}`),
		"GET /catalog/blueprints/7/print_providers/3/variants.json": raw(`{"variants":[]}`),
		"GET /catalog/blueprints/8/print_providers/4/variants.json": raw(`{"variants":[{"id":9,"price":700}]}`),
	}
}

func TestPrintify_ListCatalogSkipsFailedBlueprint(t *testing.T) {
	srv := newTestServer(t, printifyRoutes("7"))
	a := NewPrintifyAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	page, err := a.ListCatalog(context.Background(), Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Raw)
	assert.Equal(t, 1, page.Skipped)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, "6", item.ExternalID)
	assert.Equal(t, "5000", item.ProductType)
	assert.True(t, dec("11.99").Equal(item.BasePrice))
	assert.Equal(t, []string{"S", "M"}, item.Sizes)
	assert.Len(t, item.Colors, 1)

	next, err := a.ListCatalog(context.Background(), Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Raw)
	require.Len(t, next.Items, 1)
	assert.True(t, dec("7").Equal(next.Items[0].BasePrice))

	last, err := a.ListCatalog(context.Background(), Page{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Zero(t, last.Raw)
}

func TestPrintify_Shipping(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /catalog/blueprints/6/print_providers/99/shipping.json": raw(`{"profiles":[
			{"countries":["US"],"first_item":{"cost":475,"currency":"USD"},"additional_items":{"cost":240,"currency":"USD"}},
			{"countries":["REST_OF_THE_WORLD"],"first_item":{"cost":1000,"currency":"USD"},"additional_items":{"cost":500,"currency":"USD"}}
		]}`),
	})
	a := NewPrintifyAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	us, err := a.GetShipping(context.Background(), "6", "US")
	require.NoError(t, err)
	assert.True(t, dec("4.75").Equal(us.FirstItem))
	assert.True(t, dec("2.4").Equal(us.AdditionalItem))

	de, err := a.GetShipping(context.Background(), "6", "DE")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(de.FirstItem))
}

func TestPrintify_ValidateShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"数组", `[{"id":11,"title":"My Shop"}]`},
		{"data 包装", `{"data":[{"id":11,"title":"My Shop"}]}`},
		{"shops 包装", `{"shops":[{"id":"11","title":"My Shop"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
				"GET /shops.json": raw(tc.body),
			})
			a := NewPrintifyAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

			info, err := a.ValidateCredentials(context.Background())
			require.NoError(t, err)
			require.Len(t, info.Shops, 1)
			assert.Equal(t, "11", info.Shops[0].ID)
			assert.Equal(t, "My Shop", info.AccountName)
		})
	}
}

func TestPrintify_CreateOrderNeedsShop(t *testing.T) {
	a := NewPrintifyAdapter(Credentials{APIKey: "k"}, buildOptions(nil))
	_, err := a.CreateOrder(context.Background(), &OrderRequest{ExternalID: "o-1"})
	require.Error(t, err)
}

// ==================== Printful ====================

func TestPrintful_ProductAndShipping(t *testing.T) {
	var shipBody map[string]interface{}
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products/71": raw(`{"code":200,"result":{"product":{"id":71,"title":"Bella Canvas 3001","type":"T-SHIRT","type_name":"T-Shirt","brand":"Bella + Canvas","image":"http://img/71.png"},
			"variants":[{"id":4011,"name":"S","size":"S","color":"White","color_code":"#ffffff","price":"13.25"},{"id":4012,"size":"M","color":"White","price":"12.95"}]}}`),
		"POST /shipping/rates": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&shipBody)
			raw(`{"code":200,"result":[{"id":"EXPRESS","rate":"15.00"},{"id":"STANDARD","rate":"4.99","currency":"USD"}]}`)(w, r)
		},
	})
	a := NewPrintfulAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	item, err := a.GetProduct(context.Background(), "71")
	require.NoError(t, err)
	assert.Equal(t, "T-SHIRT", item.ProductType)
	assert.Equal(t, "T-Shirt", item.Category)
	assert.True(t, dec("12.95").Equal(item.BasePrice))

	s, err := a.GetShipping(context.Background(), "71", "US")
	require.NoError(t, err)
	assert.True(t, dec("4.99").Equal(s.FirstItem))
	assert.True(t, dec("1.5").Equal(s.AdditionalItem))

	items := shipBody["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.EqualValues(t, 4011, first["variant_id"])
}

func TestPrintful_ListCatalogFetchesDetails(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": raw(`{"code":200,"result":[{"id":71,"title":"Gildan 5000"},{"id":72,"title":"Broken"},{"title":"NoID"}]}`),
		"GET /products/71": raw(`{"code":200,"result":{"product":{"id":71,"title":"Gildan 5000","type":"T-SHIRT","type_name":"T-Shirt"},
			"variants":[{"id":1,"size":"S","color":"Black","color_code":"#000000","price":"9.50"},{"id":2,"size":"M","color":"Black","price":"8.75"},{"id":3,"size":"M","color":"White","price":"9.10"}]}}`),
		"GET /products/72": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	a := NewPrintfulAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	page, err := a.ListCatalog(context.Background(), Page{Offset: 0, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Raw)
	assert.Equal(t, 2, page.Skipped)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, "71", item.ExternalID)
	assert.Equal(t, "T-SHIRT", item.ProductType)
	assert.True(t, dec("8.75").Equal(item.BasePrice))
	assert.Equal(t, []string{"S", "M"}, item.Sizes)
	require.Len(t, item.Colors, 2)
	assert.Equal(t, "Black", item.Colors[0].Name)
	assert.Len(t, item.Variants, 3)
}

func TestPrintful_ListCatalogAuthFailureAborts(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /products": raw(`{"code":200,"result":[{"id":71}]}`),
		"GET /products/71": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})
	a := NewPrintfulAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	_, err := a.ListCatalog(context.Background(), Page{Limit: 100})
	assert.True(t, IsAuthError(err))
}

func TestPrintful_ValidateFallbackName(t *testing.T) {
	srv := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /store": raw(`{"code":200,"result":{"id":5}}`),
	})
	a := NewPrintfulAdapter(Credentials{APIKey: "xxxxPFKEY1234"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	info, err := a.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", info.AccountID)
	assert.True(t, strings.HasPrefix(info.AccountName, "Printful ("))
}

func TestPrintful_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	a := NewPrintfulAdapter(Credentials{APIKey: "k"}, buildOptions([]Option{WithBaseURL(srv.URL)}))

	_, err := a.GetPricing(context.Background(), "999", "US")
	assert.True(t, errors.Is(err, ErrNotFound))
}
