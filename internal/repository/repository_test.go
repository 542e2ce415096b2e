package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 测试辅助 ====================

func setupTestDB(t *testing.T) *gorm.DB {
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

func seedConnection(t *testing.T, db *gorm.DB, userID int64, kind string) *model.SupplierConnection {
	conn := &model.SupplierConnection{
		UserID:       userID,
		SupplierType: kind,
		APIKey:       "key-" + kind,
		IsActive:     true,
		IsConnected:  true,
	}
	require.NoError(t, db.Create(conn).Error)
	return conn
}

func catalogRow(connID int64, externalID, name, productType, price string) model.SupplierProduct {
	return model.SupplierProduct{
		SupplierConnectionID: connID,
		SupplierProductID:    externalID,
		Name:                 name,
		ProductType:          productType,
		BasePrice:            decimal.RequireFromString(price),
		Currency:             "USD",
		ShippingCountry:      "US",
		IsActive:             true,
	}
}

// ==================== 供应商目录 ====================

func TestSupplierProductRepo_BatchUpsertIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierGelato)
	repo := NewSupplierProductRepository(db)

	rows := []model.SupplierProduct{
		catalogRow(conn.ID, "uid-1", "Gildan 5000 Tee", "t-shirt", "9.50"),
		catalogRow(conn.ID, "uid-2", "Ceramic Mug", "mug", "4.00"),
	}
	require.NoError(t, repo.BatchUpsert(ctx, rows))

	again := []model.SupplierProduct{
		catalogRow(conn.ID, "uid-1", "Gildan 5000 Tee", "t-shirt", "9.75"),
		catalogRow(conn.ID, "uid-2", "Ceramic Mug", "mug", "4.00"),
	}
	require.NoError(t, repo.BatchUpsert(ctx, again))

	n, err := repo.CountByConnection(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.GetByExternalID(ctx, conn.ID, "uid-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9.75").Equal(got.BasePrice))
}

func TestSupplierProductRepo_FindByTypeKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierPrintify)
	repo := NewSupplierProductRepository(db)

	require.NoError(t, repo.BatchUpsert(ctx, []model.SupplierProduct{
		catalogRow(conn.ID, "10", "Mug 11oz", "Mug", "5"),
		catalogRow(conn.ID, "6", "Unisex Heavy Cotton Tee", "Gildan 5000", "11.99"),
		catalogRow(conn.ID, "7", "Another Gildan 5000", "Gildan 5000", "12.99"),
	}))

	got, err := repo.FindByTypeKey(ctx, conn.ID, "GILDAN 5000")
	require.NoError(t, err)
	assert.Equal(t, "6", got.SupplierProductID)

	// name 也参与匹配
	got, err = repo.FindByTypeKey(ctx, conn.ID, "mug 11oz")
	require.NoError(t, err)
	assert.Equal(t, "10", got.SupplierProductID)

	_, err = repo.FindByTypeKey(ctx, conn.ID, "hoodie")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSupplierProductRepo_FindByTypeKeyWildcardsAreLiteral(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierPrintify)
	repo := NewSupplierProductRepository(db)

	require.NoError(t, repo.BatchUpsert(ctx, []model.SupplierProduct{
		catalogRow(conn.ID, "1", "Gildanx5000 Tee", "Gildanx5000", "10"),
		catalogRow(conn.ID, "2", "Tote 100 Cotton", "Tote", "8"),
		catalogRow(conn.ID, "3", "Gildan_5000 Tee", "Gildan_5000", "11"),
	}))

	got, err := repo.FindByTypeKey(ctx, conn.ID, "gildan_5000")
	require.NoError(t, err)
	assert.Equal(t, "3", got.SupplierProductID)

	for _, key := range []string{"100%", "tote_", `tote\`, "%"} {
		_, err = repo.FindByTypeKey(ctx, conn.ID, key)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound, key)
	}

	list, total, err := repo.List(ctx, SupplierProductFilter{ConnectionID: conn.ID, Search: "n_5"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "3", list[0].SupplierProductID)
}

func TestSupplierProductRepo_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierPrintful)
	repo := NewSupplierProductRepository(db)

	require.NoError(t, repo.BatchUpsert(ctx, []model.SupplierProduct{
		catalogRow(conn.ID, "71", "Bella Canvas 3001", "T-Shirt", "12.95"),
		catalogRow(conn.ID, "19", "White Glossy Mug", "Mug", "6.95"),
	}))

	list, total, err := repo.List(ctx, SupplierProductFilter{ConnectionID: conn.ID, Search: "bella"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "71", list[0].SupplierProductID)

	_, total, err = repo.List(ctx, SupplierProductFilter{ConnectionID: conn.ID, ProductType: "mug"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// ==================== 供应商连接 ====================

func TestSupplierConnectionRepo_DisconnectAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierGelato)
	repo := NewSupplierConnectionRepository(db)
	products := NewSupplierProductRepository(db)

	require.NoError(t, products.BatchUpsert(ctx, []model.SupplierProduct{catalogRow(conn.ID, "uid-1", "Tee", "t-shirt", "9")}))

	require.NoError(t, repo.Disconnect(ctx, conn.ID))
	got, err := repo.GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
	assert.False(t, got.HasCredentials())

	_, err = repo.FindConnected(ctx, 1, model.SupplierGelato)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.HardDelete(ctx, conn.ID))
	n, err := products.CountByConnection(ctx, conn.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.GetByID(ctx, conn.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSupplierConnectionRepo_SyncMarks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierPrintify)
	repo := NewSupplierConnectionRepository(db)

	require.NoError(t, repo.MarkSyncFailed(ctx, conn.ID, "printify auth error (401)", true))
	got, _ := repo.GetByID(ctx, conn.ID)
	assert.Equal(t, "printify auth error (401)", got.ConnectionError)
	assert.False(t, got.IsConnected)

	require.NoError(t, repo.MarkSynced(ctx, conn.ID))
	got, _ = repo.GetByID(ctx, conn.ID)
	assert.Empty(t, got.ConnectionError)
	assert.NotNil(t, got.LastSync)
}

// ==================== 店铺商品 ====================

func seedShop(t *testing.T, db *gorm.DB, userID int64, shopType, shopID string) *model.Shop {
	shop := &model.Shop{UserID: userID, ShopType: shopType, ShopID: shopID, ShopName: "shop-" + shopID, AccessToken: "tok", IsConnected: true}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

func TestProductRepo_UpsertListingReplacesVariants(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db, 1, model.ShopTypeEtsy, "77")
	repo := NewProductRepository(db)

	first := &model.Product{
		ShopID: shop.ID, ListingID: "9001", Title: "Tee", SupplierType: model.SupplierGelato,
		ProductType: "Gildan 5000 (Heavy Cotton Tee)", SyncStatus: model.SyncStatusSynced,
		Variants: []model.ProductVariant{{VariantID: "1", SKU: "GEL_A"}, {VariantID: "2", SKU: "GEL_B"}},
	}
	require.NoError(t, repo.UpsertListing(ctx, first))
	require.NotZero(t, first.ID)

	second := &model.Product{
		ShopID: shop.ID, ListingID: "9001", Title: "Tee v2", SupplierType: model.SupplierGelato,
		ProductType: "Gildan 5000 (Heavy Cotton Tee)", SyncStatus: model.SyncStatusSynced,
		Variants: []model.ProductVariant{{VariantID: "3", SKU: "GEL_C"}},
	}
	require.NoError(t, repo.UpsertListing(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tee v2", got.Title)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "GEL_C", got.Variants[0].SKU)

	var count int64
	db.Unscoped().Model(&model.ProductVariant{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProductRepo_OwnershipAndFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	mine := seedShop(t, db, 1, model.ShopTypeEtsy, "77")
	theirs := seedShop(t, db, 2, model.ShopTypeShopify, "88")
	repo := NewProductRepository(db)

	p1 := &model.Product{ShopID: mine.ID, ListingID: "1", Title: "Mine", SupplierType: model.SupplierGelato, ProductType: "Gildan 5000 (Heavy Cotton Tee)"}
	p2 := &model.Product{ShopID: mine.ID, ListingID: "2", Title: "Undetected"}
	p3 := &model.Product{ShopID: theirs.ID, ListingID: "3", Title: "Theirs", SupplierType: model.SupplierPrintify, ProductType: "Gildan 5000 (Heavy Cotton Tee)"}
	for _, p := range []*model.Product{p1, p2, p3} {
		require.NoError(t, repo.UpsertListing(ctx, p))
	}

	_, err := repo.GetForUser(ctx, 1, p3.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := repo.GetForUser(ctx, 1, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Shop)
	assert.Equal(t, "77", got.Shop.ShopID)

	list, total, err := repo.List(ctx, ProductFilter{UserID: 1, OnlyDetected: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Mine", list[0].Title)

	counts, err := repo.TypeCounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].Count)

	byIDs, err := repo.ListByIDs(ctx, 1, []int64{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

// 店铺的平台 ID 与商品主键数值重叠时，仍按 products.shop_id 关联
func TestProductRepo_PreloadsOwningShop(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := seedShop(t, db, 1, model.ShopTypeEtsy, "2")
	decoy := seedShop(t, db, 1, model.ShopTypeShopify, "1")
	repo := NewProductRepository(db)

	p := &model.Product{ShopID: owner.ID, ListingID: "L-1", Title: "Tee"}
	require.NoError(t, repo.UpsertListing(ctx, p))
	require.Equal(t, int64(1), p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Shop)
	assert.Equal(t, owner.ID, got.Shop.ID)
	assert.NotEqual(t, decoy.ID, got.Shop.ID)
	assert.True(t, got.Shop.IsConnected)

	list, _, err := repo.List(ctx, ProductFilter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Shop)
	assert.Equal(t, "2", list[0].Shop.ShopID)
}

func TestProductRepo_MarkSyncError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db, 1, model.ShopTypeEtsy, "77")
	repo := NewProductRepository(db)

	require.NoError(t, repo.MarkSyncError(ctx, shop.ID, "5", "Broken", "etsy api error (500)"))
	got, err := repo.GetByListing(ctx, shop.ID, "5")
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusError, got.SyncStatus)
	assert.Equal(t, "etsy api error (500)", got.SyncError)
}

func TestProductRepo_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db, 1, model.ShopTypeEtsy, "77")
	repo := NewProductRepository(db)

	p := &model.Product{ShopID: shop.ID, ListingID: "1", SupplierType: model.SupplierGelato, Variants: []model.ProductVariant{{SKU: "GEL_A"}}}
	require.NoError(t, repo.UpsertListing(ctx, p))

	err := repo.Transaction(ctx, func(tx ProductRepository) error {
		if err := tx.UpdateVariantSKU(ctx, p.Variants[0].ID, "PFY_A"); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	got, _ := repo.GetByID(ctx, p.ID)
	assert.Equal(t, "GEL_A", got.Variants[0].SKU)
}

// ==================== 用户商品 ====================

func TestUserProductRepo_UpsertSupplier(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	conn := seedConnection(t, db, 1, model.SupplierPrintify)
	repo := NewUserProductRepository(db)

	up := &model.UserProduct{UserID: 1, ProductName: "Heavy Tee", ProductType: "Gildan 5000", IsActive: true}
	require.NoError(t, repo.Create(ctx, up))

	link := &model.UserProductSupplier{UserProductID: up.ID, SupplierConnectionID: conn.ID, SupplierType: model.SupplierPrintify, ExternalProductID: "6"}
	require.NoError(t, repo.UpsertSupplier(ctx, link))
	again := &model.UserProductSupplier{UserProductID: up.ID, SupplierConnectionID: conn.ID, SupplierType: model.SupplierPrintify, ExternalProductID: "145"}
	require.NoError(t, repo.UpsertSupplier(ctx, again))

	links, err := repo.ListSuppliers(ctx, up.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "145", links[0].ExternalProductID)

	row := catalogRow(conn.ID, "145", "Gildan 18000", "Gildan 18000", "21.00")
	require.NoError(t, db.Create(&row).Error)
	require.NoError(t, repo.UpsertSupplier(ctx, &model.UserProductSupplier{
		UserProductID: up.ID, SupplierConnectionID: conn.ID, SupplierProductID: &row.ID,
		SupplierType: model.SupplierPrintify, ExternalProductID: "145",
	}))

	linked, err := repo.ListSuppliers(ctx, up.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.NotNil(t, linked[0].SupplierProduct)
	assert.Equal(t, "145", linked[0].SupplierProduct.SupplierProductID)

	require.NoError(t, repo.Delete(ctx, 1, up.ID))
	assert.ErrorIs(t, repo.Delete(ctx, 1, up.ID), gorm.ErrRecordNotFound)

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ==================== 切换记录 ====================

func TestProductSwitchRepo_ListPending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductSwitchRepository(db)

	for i, state := range []string{model.SwitchStateDone, model.SwitchStateLocalCommitted, model.SwitchStateFailed} {
		s := &model.ProductSwitch{OperationID: "op-" + string(rune('a'+i)), ProductID: int64(i + 1), State: state}
		require.NoError(t, repo.Create(ctx, s))
	}

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "op-b", pending[0].OperationID)
	assert.True(t, pending[0].RemotePending())
}
