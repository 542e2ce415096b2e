package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// UserProductRepository 用户商品仓储接口
type UserProductRepository interface {
	Create(ctx context.Context, p *model.UserProduct) error
	GetForUser(ctx context.Context, userID, id int64) (*model.UserProduct, error)
	ListByUser(ctx context.Context, userID int64) ([]model.UserProduct, error)
	Delete(ctx context.Context, userID, id int64) error

	// 供应商关联
	UpsertSupplier(ctx context.Context, link *model.UserProductSupplier) error
	ListSuppliers(ctx context.Context, userProductID int64) ([]model.UserProductSupplier, error)
}

// ==================== 仓储实现 ====================

type userProductRepo struct {
	db *gorm.DB
}

// NewUserProductRepository 创建用户商品仓储
func NewUserProductRepository(db *gorm.DB) UserProductRepository {
	return &userProductRepo{db: db}
}

func (r *userProductRepo) Create(ctx context.Context, p *model.UserProduct) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *userProductRepo) GetForUser(ctx context.Context, userID, id int64) (*model.UserProduct, error) {
	var p model.UserProduct
	err := r.db.WithContext(ctx).
		Preload("Suppliers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Suppliers.SupplierProduct").
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userProductRepo) ListByUser(ctx context.Context, userID int64) ([]model.UserProduct, error) {
	var list []model.UserProduct
	err := r.db.WithContext(ctx).
		Preload("Suppliers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// Delete 软删除
func (r *userProductRepo) Delete(ctx context.Context, userID, id int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.UserProduct{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertSupplier 按 (user_product_id, supplier_connection_id) 冲突更新
func (r *userProductRepo) UpsertSupplier(ctx context.Context, link *model.UserProductSupplier) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_product_id"}, {Name: "supplier_connection_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"supplier_product_id", "supplier_type", "external_product_id",
			"base_price", "currency", "is_available", "last_checked", "updated_at",
		}),
	}).Create(link).Error
}

func (r *userProductRepo) ListSuppliers(ctx context.Context, userProductID int64) ([]model.UserProductSupplier, error) {
	var list []model.UserProductSupplier
	err := r.db.WithContext(ctx).
		Preload("SupplierProduct").
		Where("user_product_id = ?", userProductID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
