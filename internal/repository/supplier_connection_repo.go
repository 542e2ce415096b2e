package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/model"
)

// ==================== 接口定义 ====================

// SupplierConnectionRepository 供应商连接仓储接口
type SupplierConnectionRepository interface {
	Create(ctx context.Context, conn *model.SupplierConnection) error
	GetByID(ctx context.Context, id int64) (*model.SupplierConnection, error)
	GetByUser(ctx context.Context, userID, id int64) (*model.SupplierConnection, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 列表查询
	ListByUser(ctx context.Context, userID int64) ([]model.SupplierConnection, error)
	ListConnectedByUser(ctx context.Context, userID int64) ([]model.SupplierConnection, error)
	ListConnected(ctx context.Context) ([]model.SupplierConnection, error)
	FindConnected(ctx context.Context, userID int64, supplierType string) (*model.SupplierConnection, error)

	// 状态变更
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncFailed(ctx context.Context, id int64, errMsg string, disconnect bool) error
	Disconnect(ctx context.Context, id int64) error

	// HardDelete 物理删除连接及其目录
	HardDelete(ctx context.Context, id int64) error
}

// ==================== 仓储实现 ====================

type supplierConnectionRepo struct {
	db *gorm.DB
}

// NewSupplierConnectionRepository 创建供应商连接仓储
func NewSupplierConnectionRepository(db *gorm.DB) SupplierConnectionRepository {
	return &supplierConnectionRepo{db: db}
}

func (r *supplierConnectionRepo) Create(ctx context.Context, conn *model.SupplierConnection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *supplierConnectionRepo) GetByID(ctx context.Context, id int64) (*model.SupplierConnection, error) {
	var conn model.SupplierConnection
	if err := r.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *supplierConnectionRepo) GetByUser(ctx context.Context, userID, id int64) (*model.SupplierConnection, error) {
	var conn model.SupplierConnection
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *supplierConnectionRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.SupplierConnection{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *supplierConnectionRepo) ListByUser(ctx context.Context, userID int64) ([]model.SupplierConnection, error) {
	var list []model.SupplierConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("supplier_type ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *supplierConnectionRepo) ListConnectedByUser(ctx context.Context, userID int64) ([]model.SupplierConnection, error) {
	var list []model.SupplierConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_connected = ?", userID, true).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *supplierConnectionRepo) ListConnected(ctx context.Context) ([]model.SupplierConnection, error) {
	var list []model.SupplierConnection
	err := r.db.WithContext(ctx).
		Where("is_connected = ?", true).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// FindConnected 用户某供应商下最早的已连接账号
func (r *supplierConnectionRepo) FindConnected(ctx context.Context, userID int64, supplierType string) (*model.SupplierConnection, error) {
	var conn model.SupplierConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND supplier_type = ? AND is_connected = ?", userID, supplierType, true).
		Order("id ASC").
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *supplierConnectionRepo) MarkSynced(ctx context.Context, id int64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"last_sync":        time.Now(),
		"connection_error": "",
	})
}

func (r *supplierConnectionRepo) MarkSyncFailed(ctx context.Context, id int64, errMsg string, disconnect bool) error {
	fields := map[string]interface{}{"connection_error": errMsg}
	if disconnect {
		fields["is_connected"] = false
	}
	return r.UpdateFields(ctx, id, fields)
}

// Disconnect 清空凭证并标记断开
func (r *supplierConnectionRepo) Disconnect(ctx context.Context, id int64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"api_key":          "",
		"api_secret":       "",
		"access_token":     "",
		"refresh_token":    "",
		"token_expires_at": nil,
		"is_connected":     false,
		"connection_error": "",
	})
}

func (r *supplierConnectionRepo) HardDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("supplier_connection_id = ?", id).
			Delete(&model.UserProductSupplier{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Where("supplier_connection_id = ?", id).
			Delete(&model.SupplierProduct{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.SupplierConnection{}, id).Error
	})
}
