package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// SupplierProductRepository 供应商目录仓储接口
type SupplierProductRepository interface {
	GetByID(ctx context.Context, id int64) (*model.SupplierProduct, error)
	GetByExternalID(ctx context.Context, connID int64, externalID string) (*model.SupplierProduct, error)
	List(ctx context.Context, filter SupplierProductFilter) ([]model.SupplierProduct, int64, error)

	// FindByTypeKey 按类型关键字匹配 product_type 或 name (大小写不敏感子串)，取最早一条
	FindByTypeKey(ctx context.Context, connID int64, key string) (*model.SupplierProduct, error)

	// BatchUpsert 按 (supplier_connection_id, supplier_product_id) 冲突更新
	BatchUpsert(ctx context.Context, products []model.SupplierProduct) error
	CountByConnection(ctx context.Context, connID int64) (int64, error)
}

// ==================== 过滤条件 ====================

// SupplierProductFilter 目录过滤条件
type SupplierProductFilter struct {
	ConnectionID int64
	ProductType  string
	Category     string
	Search       string
	Page         int
	PageSize     int
}

// upsert 时覆盖的列
var supplierProductUpsertColumns = []string{
	"blueprint_id", "catalog_id",
	"name", "description", "product_type", "brand", "category",
	"base_price", "currency",
	"shipping_first_item", "shipping_additional_item", "shipping_country",
	"sizes", "colors", "thumbnail_url", "images",
	"is_active", "updated_at",
}

// ==================== 仓储实现 ====================

type supplierProductRepo struct {
	db *gorm.DB
}

// NewSupplierProductRepository 创建供应商目录仓储
func NewSupplierProductRepository(db *gorm.DB) SupplierProductRepository {
	return &supplierProductRepo{db: db}
}

func (r *supplierProductRepo) GetByID(ctx context.Context, id int64) (*model.SupplierProduct, error) {
	var p model.SupplierProduct
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *supplierProductRepo) GetByExternalID(ctx context.Context, connID int64, externalID string) (*model.SupplierProduct, error) {
	var p model.SupplierProduct
	err := r.db.WithContext(ctx).
		Where("supplier_connection_id = ? AND supplier_product_id = ?", connID, externalID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *supplierProductRepo) List(ctx context.Context, filter SupplierProductFilter) ([]model.SupplierProduct, int64, error) {
	var list []model.SupplierProduct
	var total int64

	query := r.db.WithContext(ctx).Model(&model.SupplierProduct{}).Where("is_active = ?", true)

	if filter.ConnectionID > 0 {
		query = query.Where("supplier_connection_id = ?", filter.ConnectionID)
	}
	if filter.ProductType != "" {
		query = query.Where(`LOWER(product_type) LIKE ? ESCAPE '\'`, containsPattern(filter.ProductType))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		kw := containsPattern(filter.Search)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("name ASC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&list).Error

	return list, total, err
}

func (r *supplierProductRepo) FindByTypeKey(ctx context.Context, connID int64, key string) (*model.SupplierProduct, error) {
	kw := containsPattern(key)
	var p model.SupplierProduct
	err := r.db.WithContext(ctx).
		Where("supplier_connection_id = ? AND is_active = ?", connID, true).
		Where(`LOWER(product_type) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\'`, kw, kw).
		Order("id ASC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 小写后的子串匹配模式，% _ \ 按字面匹配，配合 ESCAPE '\' 使用
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (r *supplierProductRepo) BatchUpsert(ctx context.Context, products []model.SupplierProduct) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "supplier_connection_id"},
			{Name: "supplier_product_id"},
		},
		DoUpdates: clause.AssignmentColumns(supplierProductUpsertColumns),
	}).Create(&products).Error
}

func (r *supplierProductRepo) CountByConnection(ctx context.Context, connID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.SupplierProduct{}).
		Where("supplier_connection_id = ?", connID).
		Count(&n).Error
	return n, err
}
