package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/events"
	"github.com/iShirker/PoD-ShopManager/pkg/marketplace"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// ==================== 测试辅助 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("自动建表失败: %v", err)
	}
	return db
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeAdapter 可编排的供应商实现
type fakeAdapter struct {
	kind     supplier.Kind
	items    []supplier.CatalogItem
	listErr  error
	prices   map[string]decimal.Decimal
	shipping map[string]decimal.Decimal
	errs     map[string]error
	account  *supplier.AccountInfo

	mu      sync.Mutex
	offsets []int
}

var _ supplier.Adapter = (*fakeAdapter)(nil)

func newFakeAdapter(kind supplier.Kind) *fakeAdapter {
	return &fakeAdapter{
		kind:     kind,
		prices:   map[string]decimal.Decimal{},
		shipping: map[string]decimal.Decimal{},
		errs:     map[string]error{},
		account:  &supplier.AccountInfo{AccountName: string(kind)},
	}
}

func (f *fakeAdapter) Kind() supplier.Kind { return f.kind }

func (f *fakeAdapter) ListCatalog(_ context.Context, page supplier.Page) (*supplier.CatalogPage, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, page.Offset)
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page.Offset >= len(f.items) {
		return &supplier.CatalogPage{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(f.items) {
		end = len(f.items)
	}
	items := f.items[page.Offset:end]
	return &supplier.CatalogPage{Items: items, Raw: len(items)}, nil
}

func (f *fakeAdapter) GetProduct(_ context.Context, id string) (*supplier.CatalogItem, error) {
	for i := range f.items {
		if f.items[i].ExternalID == id {
			return &f.items[i], nil
		}
	}
	return nil, supplier.ErrNotFound
}

func (f *fakeAdapter) GetPricing(_ context.Context, id, _ string) (*supplier.Pricing, error) {
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	p, ok := f.prices[id]
	if !ok {
		return nil, supplier.ErrNotFound
	}
	return &supplier.Pricing{
		BasePrice: p,
		Currency:  "USD",
		Variants:  []supplier.Variant{{ID: id + "-m", Size: "M", Price: p, Available: true}},
	}, nil
}

func (f *fakeAdapter) GetShipping(_ context.Context, id, _ string) (*supplier.Shipping, error) {
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return &supplier.Shipping{FirstItem: f.shipping[id], Currency: "USD"}, nil
}

func (f *fakeAdapter) CreateOrder(_ context.Context, req *supplier.OrderRequest) (*supplier.OrderResult, error) {
	return &supplier.OrderResult{ID: "order-" + req.ExternalID, Status: "draft"}, nil
}

func (f *fakeAdapter) ValidateCredentials(context.Context) (*supplier.AccountInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.account, nil
}

func fakeFactory(adapters ...*fakeAdapter) supplier.Factory {
	byKind := make(map[supplier.Kind]*fakeAdapter)
	for _, a := range adapters {
		byKind[a.kind] = a
	}
	return func(kind supplier.Kind, _ supplier.Credentials) (supplier.Adapter, error) {
		a, ok := byKind[kind]
		if !ok {
			return nil, fmt.Errorf("no fake for %s", kind)
		}
		return a, nil
	}
}

// fakeMarket 可编排的平台实现
type fakeMarket struct {
	listings  []marketplace.Listing
	fetchErr  error
	updateErr error
	noMatch   bool // 平台侧找不到任何计划中的规格
	onUpdate  func(listingID string, plan marketplace.SKUPlan)
	updates   []marketplace.SKUPlan
}

var _ marketplace.Client = (*fakeMarket)(nil)

func (m *fakeMarket) FetchListings(context.Context, marketplace.Store) ([]marketplace.Listing, error) {
	return m.listings, m.fetchErr
}

func (m *fakeMarket) UpdateSKUs(_ context.Context, _ marketplace.Store, listingID string, plan marketplace.SKUPlan) (int, error) {
	if m.onUpdate != nil {
		m.onUpdate(listingID, plan)
	}
	m.updates = append(m.updates, plan)
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	if m.noMatch {
		return 0, nil
	}
	return len(plan), nil
}

// oldToNew 便于断言的 旧 SKU -> 新 SKU
func oldToNew(plan marketplace.SKUPlan) map[string]string {
	m := make(map[string]string, len(plan))
	for _, u := range plan {
		m[u.OldSKU] = u.NewSKU
	}
	return m
}

// testEnv 组装全部服务
type testEnv struct {
	db        *gorm.DB
	conns     repository.SupplierConnectionRepository
	catalog   repository.SupplierProductRepository
	shops     repository.ShopRepository
	products  repository.ProductRepository
	switches  repository.ProductSwitchRepository
	market    *fakeMarket
	published *events.Memory

	Sync        *CatalogSyncService
	Suppliers   *SupplierService
	Compare     *CompareService
	Matcher     *MatcherService
	Switch      *SwitchService
	Listings    *ListingSyncService
	UserProduct *UserProductService
}

func newTestEnv(t *testing.T, adapters ...*fakeAdapter) *testEnv {
	db := setupServiceTestDB(t)
	factory := fakeFactory(adapters...)
	tables := catalog.Default()

	env := &testEnv{
		db:        db,
		conns:     repository.NewSupplierConnectionRepository(db),
		catalog:   repository.NewSupplierProductRepository(db),
		shops:     repository.NewShopRepository(db),
		products:  repository.NewProductRepository(db),
		switches:  repository.NewProductSwitchRepository(db),
		market:    &fakeMarket{},
		published: &events.Memory{},
	}
	env.Sync = NewCatalogSyncService(env.catalog, factory)
	env.Suppliers = NewSupplierService(env.conns, env.catalog, env.Sync, factory)
	env.Compare = NewCompareService(env.products, env.conns, factory, tables.TypeMap)
	env.Matcher = NewMatcherService(env.products, env.catalog, env.conns, tables.TypeMap)
	env.Switch = NewSwitchService(repository.NewSwitchUnitOfWork(db), env.conns, env.Matcher, env.market, env.published)
	env.Listings = NewListingSyncService(env.shops, env.products, env.market, tables.Detector)
	env.UserProduct = NewUserProductService(repository.NewUserProductRepository(db), env.conns, env.Matcher)
	return env
}

func (e *testEnv) seedConnection(t *testing.T, userID int64, kind supplier.Kind) *model.SupplierConnection {
	conn := &model.SupplierConnection{
		UserID:       userID,
		SupplierType: kind.String(),
		APIKey:       "key-" + kind.String(),
		IsActive:     true,
		IsConnected:  true,
	}
	require.NoError(t, e.conns.Create(context.Background(), conn))
	return conn
}

func (e *testEnv) seedShop(t *testing.T, userID int64) *model.Shop {
	shop := &model.Shop{
		UserID: userID, ShopType: model.ShopTypeEtsy, ShopID: fmt.Sprintf("shop-%d", userID),
		ShopName: "Test Shop", AccessToken: "tok", IsConnected: true,
	}
	require.NoError(t, e.shops.Create(context.Background(), shop))
	return shop
}

func (e *testEnv) seedProduct(t *testing.T, shop *model.Shop, listingID, supplierType, productType string, skus ...string) *model.Product {
	p := &model.Product{
		ShopID:       shop.ID,
		ListingID:    listingID,
		Title:        "Listing " + listingID,
		SupplierType: supplierType,
		ProductType:  productType,
		SyncStatus:   model.SyncStatusSynced,
	}
	if len(skus) > 0 {
		p.SKU = skus[0]
	}
	for i, sku := range skus {
		p.Variants = append(p.Variants, model.ProductVariant{
			VariantID: fmt.Sprintf("%s-%d", listingID, i+1),
			SKU:       sku,
			Size:      "M",
			Color:     "White",
		})
	}
	require.NoError(t, e.products.UpsertListing(context.Background(), p))
	return p
}

func (e *testEnv) reload(t *testing.T, id int64) *model.Product {
	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

const heavyCottonTee = "Gildan 5000 (Heavy Cotton Tee)"
