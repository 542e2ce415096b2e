package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/marketplace"
)

// ListingSyncResult 店铺同步结果
type ListingSyncResult struct {
	ShopID   int64 `json:"shop_id"`
	Total    int   `json:"total"`
	Synced   int   `json:"synced"`
	Detected int   `json:"detected"` // 识别出供应商的 Listing 数
	Failed   int   `json:"failed"`
}

// ListingSyncService 店铺 Listing 同步
type ListingSyncService struct {
	shops    repository.ShopRepository
	products repository.ProductRepository
	market   marketplace.ListingFetcher
	detector *catalog.Detector
}

func NewListingSyncService(
	shops repository.ShopRepository,
	products repository.ProductRepository,
	market marketplace.ListingFetcher,
	detector *catalog.Detector,
) *ListingSyncService {
	return &ListingSyncService{
		shops:    shops,
		products: products,
		market:   market,
		detector: detector,
	}
}

// ListShops 用户店铺
func (s *ListingSyncService) ListShops(ctx context.Context, userID int64) ([]model.Shop, error) {
	return s.shops.ListByUserID(ctx, userID)
}

// ListProducts 用户 Listing
func (s *ListingSyncService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.products.List(ctx, filter)
}

// SyncShop 校验归属后同步
func (s *ListingSyncService) SyncShop(ctx context.Context, userID, shopID int64) (*ListingSyncResult, error) {
	shop, err := s.shops.GetByUser(ctx, userID, shopID)
	if err != nil {
		return nil, notFound(err)
	}
	return s.SyncStore(ctx, shop)
}

// SyncStore 拉取店铺全部在售 Listing，识别供应商后按 (shop, listing_id) 写入
// 单个 Listing 明细失败只记录该 Listing 的 sync_error
func (s *ListingSyncService) SyncStore(ctx context.Context, shop *model.Shop) (*ListingSyncResult, error) {
	if !shop.IsConnected {
		return nil, &NotConnectedError{Supplier: shop.ShopType}
	}
	log := logger.L().WithField("shop_id", shop.ID).WithField("platform", shop.ShopType)

	listings, err := s.market.FetchListings(ctx, storeFor(shop))
	if err != nil {
		var apiErr *marketplace.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuth() {
			if mErr := s.shops.MarkDisconnected(ctx, shop.ID); mErr != nil {
				log.WithError(mErr).Error("[ListingSync] 标记店铺断开失败")
			}
		}
		return nil, fmt.Errorf("拉取店铺商品失败: %w", err)
	}

	result := &ListingSyncResult{ShopID: shop.ID, Total: len(listings)}
	for i := range listings {
		l := &listings[i]
		if l.Err != nil {
			result.Failed++
			if err := s.products.MarkSyncError(ctx, shop.ID, l.ListingID, l.Title, l.Err.Error()); err != nil {
				return result, err
			}
			continue
		}

		product := s.toProduct(shop.ID, l)
		if err := s.products.UpsertListing(ctx, product); err != nil {
			return result, fmt.Errorf("保存商品 %s 失败: %w", l.ListingID, err)
		}
		result.Synced++
		if product.SupplierType != "" {
			result.Detected++
		}
	}

	if err := s.shops.MarkSynced(ctx, shop.ID); err != nil {
		return result, err
	}
	log.Infof("[ListingSync] 同步完成: 共 %d, 成功 %d, 识别 %d, 失败 %d",
		result.Total, result.Synced, result.Detected, result.Failed)
	return result, nil
}

// toProduct 平台商品转换为本地 Listing
// 商品类型依次取 SKU、标题、平台自带类型
func (s *ListingSyncService) toProduct(shopID int64, l *marketplace.Listing) *model.Product {
	cls := s.detector.Classify(l.SKUs(), l.Title)
	productType := cls.ProductType
	if productType == "" {
		productType = l.ProductType
	}
	category := l.Category
	if category == "" {
		category = l.ProductType
	}

	now := time.Now()
	product := &model.Product{
		ShopID:       shopID,
		ListingID:    l.ListingID,
		Title:        l.Title,
		Description:  l.Description,
		SKU:          cls.FirstSKU,
		SKUPattern:   cls.SKUPattern,
		SupplierType: cls.Supplier,
		Price:        l.Price,
		Currency:     l.Currency,
		ProductType:  productType,
		Category:     category,
		ThumbnailURL: l.ThumbnailURL,
		Images:       datatypes.NewJSONSlice(nonNil(l.Images)),
		IsActive:     l.Active,
		SyncStatus:   model.SyncStatusSynced,
		LastSyncedAt: &now,
	}
	if product.ThumbnailURL == "" && len(l.Images) > 0 {
		product.ThumbnailURL = l.Images[0]
	}
	for _, v := range l.Variants {
		product.Variants = append(product.Variants, model.ProductVariant{
			VariantID:      v.VariantID,
			SKU:            v.SKU,
			Size:           v.Size,
			Color:          v.Color,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
			Quantity:       v.Quantity,
			IsAvailable:    v.Available,
		})
	}
	return product
}

// storeFor 店铺转换为平台调用参数
func storeFor(shop *model.Shop) marketplace.Store {
	return marketplace.Store{
		ID:          shop.ID,
		Platform:    shop.ShopType,
		ShopID:      shop.ShopID,
		Domain:      shop.ShopifyDomain,
		APIKey:      shop.APIKey,
		AccessToken: shop.AccessToken,
	}
}
