package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// 目录分页大小
const catalogPageSize = 100

// CatalogSyncService 供应商目录同步
type CatalogSyncService struct {
	products repository.SupplierProductRepository
	factory  supplier.Factory
	pageSize int
}

func NewCatalogSyncService(products repository.SupplierProductRepository, factory supplier.Factory) *CatalogSyncService {
	return &CatalogSyncService{
		products: products,
		factory:  factory,
		pageSize: catalogPageSize,
	}
}

// SyncConnection 全量拉取连接的目录并按 (连接, 外部 ID) 写入
// 未出现在本次目录中的旧行保持原样
func (s *CatalogSyncService) SyncConnection(ctx context.Context, conn *model.SupplierConnection) (int, error) {
	adapter, err := adapterFor(s.factory, conn)
	if err != nil {
		return 0, err
	}

	log := logger.L().WithField("connection_id", conn.ID).WithField("supplier", conn.SupplierType)
	written, skipped := 0, 0

	for offset := 0; ; offset += s.pageSize {
		page, err := adapter.ListCatalog(ctx, supplier.Page{Limit: s.pageSize, Offset: offset})
		if err != nil {
			return written, fmt.Errorf("拉取目录失败 (offset=%d): %w", offset, err)
		}
		skipped += page.Skipped

		if len(page.Items) > 0 {
			rows := make([]model.SupplierProduct, 0, len(page.Items))
			for _, item := range page.Items {
				rows = append(rows, toSupplierProduct(conn.ID, item))
			}
			if err := s.products.BatchUpsert(ctx, rows); err != nil {
				return written, fmt.Errorf("保存目录失败: %w", err)
			}
			written += len(rows)
		}

		log.Debugf("[CatalogSync] offset=%d 本页 %d 条 (跳过 %d)", offset, page.Raw, page.Skipped)
		if page.Raw == 0 || page.Raw < s.pageSize {
			break
		}
	}

	if skipped > 0 {
		log.Warnf("[CatalogSync] %d 个条目明细拉取失败，已跳过", skipped)
	}
	log.Infof("[CatalogSync] 同步完成，写入 %d 条", written)
	return written, nil
}

// toSupplierProduct 目录条目转换为本地行
func toSupplierProduct(connID int64, item supplier.CatalogItem) model.SupplierProduct {
	colors := make([]model.ColorOption, 0, len(item.Colors))
	for _, c := range item.Colors {
		colors = append(colors, model.ColorOption{Name: c.Name, Hex: c.Hex})
	}
	currency := item.Currency
	if currency == "" {
		currency = "USD"
	}
	thumb := item.ThumbnailURL
	if thumb == "" && len(item.Images) > 0 {
		thumb = item.Images[0]
	}

	return model.SupplierProduct{
		SupplierConnectionID: connID,
		SupplierProductID:    item.ExternalID,
		BlueprintID:          item.BlueprintID,
		CatalogID:            item.CatalogID,
		Name:                 item.Name,
		Description:          item.Description,
		ProductType:          item.ProductType,
		Brand:                item.Brand,
		Category:             item.Category,
		BasePrice:            item.BasePrice.Round(2),
		Currency:             currency,
		ShippingFirstItem:    decimal.Zero,
		ShippingCountry:      "US",
		Sizes:                datatypes.NewJSONSlice(nonNil(item.Sizes)),
		Colors:               datatypes.NewJSONSlice(colors),
		ThumbnailURL:         thumb,
		Images:               datatypes.NewJSONSlice(nonNil(item.Images)),
		IsActive:             true,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// adapterFor 用连接凭证创建 Adapter
func adapterFor(factory supplier.Factory, conn *model.SupplierConnection) (supplier.Adapter, error) {
	kind, err := supplier.ParseKind(conn.SupplierType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSupplier, conn.SupplierType)
	}
	return factory(kind, supplier.Credentials{
		APIKey:      conn.APIKey,
		AccessToken: conn.AccessToken,
		ShopID:      conn.ShopID,
		StoreID:     conn.StoreID,
	})
}
