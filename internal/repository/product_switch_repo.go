package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// ProductSwitchRepository 切换记录仓储接口
type ProductSwitchRepository interface {
	Create(ctx context.Context, s *model.ProductSwitch) error
	Save(ctx context.Context, s *model.ProductSwitch) error
	GetByOperationID(ctx context.Context, operationID string) (*model.ProductSwitch, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.ProductSwitch, error)
	// ListPending 本地已提交、平台待同步的记录
	ListPending(ctx context.Context, limit int) ([]model.ProductSwitch, error)

	WithTx(tx *gorm.DB) ProductSwitchRepository
}

// ==================== 仓储实现 ====================

type productSwitchRepo struct {
	db *gorm.DB
}

// NewProductSwitchRepository 创建切换记录仓储
func NewProductSwitchRepository(db *gorm.DB) ProductSwitchRepository {
	return &productSwitchRepo{db: db}
}

func (r *productSwitchRepo) Create(ctx context.Context, s *model.ProductSwitch) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *productSwitchRepo) Save(ctx context.Context, s *model.ProductSwitch) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *productSwitchRepo) GetByOperationID(ctx context.Context, operationID string) (*model.ProductSwitch, error) {
	var s model.ProductSwitch
	if err := r.db.WithContext(ctx).Where("operation_id = ?", operationID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *productSwitchRepo) ListByProduct(ctx context.Context, productID int64) ([]model.ProductSwitch, error) {
	var list []model.ProductSwitch
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *productSwitchRepo) ListPending(ctx context.Context, limit int) ([]model.ProductSwitch, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []model.ProductSwitch
	err := r.db.WithContext(ctx).
		Where("state = ?", model.SwitchStateLocalCommitted).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *productSwitchRepo) WithTx(tx *gorm.DB) ProductSwitchRepository {
	return &productSwitchRepo{db: tx}
}

// ==================== 事务支持 ====================

// SwitchUnitOfWork 切换本地提交工作单元 (规格 SKU + 商品 + 切换记录同事务)
type SwitchUnitOfWork struct {
	db       *gorm.DB
	Products ProductRepository
	Switches ProductSwitchRepository
}

// NewSwitchUnitOfWork 创建工作单元
func NewSwitchUnitOfWork(db *gorm.DB) *SwitchUnitOfWork {
	return &SwitchUnitOfWork{
		db:       db,
		Products: NewProductRepository(db),
		Switches: NewProductSwitchRepository(db),
	}
}

// Transaction 执行事务
func (u *SwitchUnitOfWork) Transaction(ctx context.Context, fn func(uow *SwitchUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUow := &SwitchUnitOfWork{
			db:       tx,
			Products: NewProductRepository(tx),
			Switches: NewProductSwitchRepository(tx),
		}
		return fn(txUow)
	})
}
