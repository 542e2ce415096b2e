package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 店铺商品仓储接口
type ProductRepository interface {
	// 基础查询
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetForUser(ctx context.Context, userID, id int64) (*model.Product, error)
	GetByListing(ctx context.Context, shopID int64, listingID string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Product, error)
	TypeCounts(ctx context.Context, userID int64) ([]ProductTypeCount, error)

	// 同步写入
	// UpsertListing 按 (shop_id, listing_id) 写入商品并整体替换规格
	UpsertListing(ctx context.Context, product *model.Product) error
	MarkSyncError(ctx context.Context, shopID int64, listingID, title, errMsg string) error

	// 切换写入
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	UpdateVariantSKU(ctx context.Context, variantID int64, sku string) error

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	UserID       int64
	ShopID       int64
	SupplierType string
	ProductType  string
	Keyword      string
	OnlyDetected bool // 仅已识别供应商与类型的商品
	Page         int
	PageSize     int // <=0 且 Page<=0 时不分页
}

// ProductTypeCount 商品类型聚合
type ProductTypeCount struct {
	ProductType  string `json:"product_type"`
	SupplierType string `json:"supplier_type"`
	Count        int64  `json:"count"`
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Shop").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetForUser 校验商品所属店铺归属于该用户
func (r *productRepo) GetForUser(ctx context.Context, userID, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Shop").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Joins("JOIN shops ON shops.id = products.shop_id AND shops.deleted_at IS NULL").
		Where("products.id = ? AND shops.user_id = ?", id, userID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByListing(ctx context.Context, shopID int64, listingID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("shop_id = ? AND listing_id = ?", shopID, listingID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) scoped(ctx context.Context, filter ProductFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.UserID > 0 {
		query = query.
			Joins("JOIN shops ON shops.id = products.shop_id AND shops.deleted_at IS NULL").
			Where("shops.user_id = ?", filter.UserID)
	}
	if filter.ShopID > 0 {
		query = query.Where("products.shop_id = ?", filter.ShopID)
	}
	if filter.SupplierType != "" {
		query = query.Where("products.supplier_type = ?", filter.SupplierType)
	}
	if filter.ProductType != "" {
		query = query.Where("products.product_type = ?", filter.ProductType)
	}
	if filter.Keyword != "" {
		query = query.Where(`LOWER(products.title) LIKE ? ESCAPE '\'`, containsPattern(filter.Keyword))
	}
	if filter.OnlyDetected {
		query = query.Where("products.supplier_type <> '' AND products.product_type <> ''")
	}
	return query
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.scoped(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Preload("Shop").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("products.id ASC")
	if filter.Page > 0 || filter.PageSize > 0 {
		if filter.Page <= 0 {
			filter.Page = 1
		}
		if filter.PageSize <= 0 {
			filter.PageSize = 20
		}
		query = query.Limit(filter.PageSize).Offset((filter.Page - 1) * filter.PageSize)
	}

	err := query.Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.scoped(ctx, ProductFilter{UserID: userID}).
		Where("products.id IN ?", ids).
		Order("products.id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) TypeCounts(ctx context.Context, userID int64) ([]ProductTypeCount, error) {
	var out []ProductTypeCount
	err := r.scoped(ctx, ProductFilter{UserID: userID}).
		Select("products.product_type AS product_type, products.supplier_type AS supplier_type, COUNT(*) AS count").
		Where("products.product_type <> ''").
		Group("products.product_type, products.supplier_type").
		Order("count DESC, product_type ASC").
		Scan(&out).Error
	return out, err
}

func (r *productRepo) UpsertListing(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variants := product.Variants
		product.Variants = nil

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop_id"}, {Name: "listing_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description",
				"sku", "sku_pattern", "supplier_type",
				"price", "currency", "product_type", "category",
				"thumbnail_url", "images", "is_active",
				"sync_status", "sync_error", "last_synced_at", "updated_at",
			}),
		}).Create(product).Error
		if err != nil {
			return err
		}

		// 冲突更新时部分驱动不回填主键
		if product.ID == 0 {
			var existing model.Product
			if err := tx.Select("id").
				Where("shop_id = ? AND listing_id = ?", product.ShopID, product.ListingID).
				First(&existing).Error; err != nil {
				return err
			}
			product.ID = existing.ID
		}

		// 规格整体替换
		if err := tx.Unscoped().
			Where("product_id = ?", product.ID).
			Delete(&model.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].ID = 0
			variants[i].ProductID = product.ID
		}
		if len(variants) > 0 {
			if err := tx.Create(&variants).Error; err != nil {
				return err
			}
		}
		product.Variants = variants
		return nil
	})
}

func (r *productRepo) MarkSyncError(ctx context.Context, shopID int64, listingID, title, errMsg string) error {
	now := time.Now()
	product := model.Product{
		ShopID:       shopID,
		ListingID:    listingID,
		Title:        title,
		SyncStatus:   model.SyncStatusError,
		SyncError:    errMsg,
		LastSyncedAt: &now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}, {Name: "listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sync_status", "sync_error", "last_synced_at", "updated_at"}),
	}).Create(&product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) UpdateVariantSKU(ctx context.Context, variantID int64, sku string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("sku", sku).Error
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
