package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByUser(ctx context.Context, userID, id int64) (*model.Shop, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 列表查询
	ListByUserID(ctx context.Context, userID int64) ([]model.Shop, error)
	ListConnected(ctx context.Context) ([]model.Shop, error)

	// 状态相关
	MarkSynced(ctx context.Context, id int64) error
	MarkDisconnected(ctx context.Context, id int64) error
}

// ==================== 仓储实现 ====================

// shopRepo 店铺仓储实现
type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) GetByUser(ctx context.Context, userID, id int64) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *shopRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&shops).Error
	return shops, err
}

func (r *shopRepo) ListConnected(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("is_connected = ?", true).
		Find(&shops).Error
	return shops, err
}

func (r *shopRepo) MarkSynced(ctx context.Context, id int64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"last_sync_at": time.Now()})
}

func (r *shopRepo) MarkDisconnected(ctx context.Context, id int64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"is_connected": false})
}
