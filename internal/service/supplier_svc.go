package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// ConnectRequest 连接供应商请求
type ConnectRequest struct {
	APIKey      string
	AccessToken string
	ShopID      string // Printify，可选
}

// ShopSelectionError Printify 账号下存在多个店铺，需指定 shop_id
type ShopSelectionError struct {
	Shops []supplier.ShopRef
}

func (e *ShopSelectionError) Error() string {
	titles := make([]string, 0, len(e.Shops))
	for _, s := range e.Shops {
		titles = append(titles, fmt.Sprintf("%s (%s)", s.Title, s.ID))
	}
	return fmt.Sprintf("Multiple shops found. Please specify shop_id: %s", strings.Join(titles, ", "))
}

// SupplierStatus 单个供应商类型的连接状态
type SupplierStatus struct {
	IsConnected bool       `json:"is_connected"`
	Connections int        `json:"connections"`
	LastSync    *time.Time `json:"last_sync"`
	HasError    bool       `json:"has_error"`
	Error       string     `json:"error,omitempty"`
}

// SyncResult 目录同步结果
type SyncResult struct {
	ConnectionID   int64      `json:"connection_id"`
	ProductsSynced int        `json:"products_synced"`
	LastSync       *time.Time `json:"last_sync"`
}

// SupplierService 供应商连接管理
type SupplierService struct {
	conns    repository.SupplierConnectionRepository
	products repository.SupplierProductRepository
	syncer   *CatalogSyncService
	factory  supplier.Factory
}

func NewSupplierService(
	conns repository.SupplierConnectionRepository,
	products repository.SupplierProductRepository,
	syncer *CatalogSyncService,
	factory supplier.Factory,
) *SupplierService {
	return &SupplierService{
		conns:    conns,
		products: products,
		syncer:   syncer,
		factory:  factory,
	}
}

// List 用户全部连接
func (s *SupplierService) List(ctx context.Context, userID int64) ([]model.SupplierConnection, error) {
	return s.conns.ListByUser(ctx, userID)
}

// Status 每个供应商类型的连接概况
func (s *SupplierService) Status(ctx context.Context, userID int64) (map[string]SupplierStatus, error) {
	list, err := s.conns.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]SupplierStatus, len(supplier.Kinds()))
	for _, k := range supplier.Kinds() {
		out[k.String()] = SupplierStatus{}
	}
	for i := range list {
		c := &list[i]
		st := out[c.SupplierType]
		st.Connections++
		if c.IsConnected {
			st.IsConnected = true
		}
		if c.LastSync != nil && (st.LastSync == nil || c.LastSync.After(*st.LastSync)) {
			st.LastSync = c.LastSync
		}
		if c.ConnectionError != "" {
			st.HasError = true
			st.Error = c.ConnectionError
		}
		out[c.SupplierType] = st
	}
	return out, nil
}

// Connect 校验凭证并保存连接
// 同一账号重复连接时更新原记录
func (s *SupplierService) Connect(ctx context.Context, userID int64, kindStr string, req ConnectRequest) (*model.SupplierConnection, error) {
	kind, err := supplier.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSupplier, kindStr)
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	req.ShopID = strings.TrimSpace(req.ShopID)
	if req.APIKey == "" && req.AccessToken == "" {
		return nil, ErrMissingCredentials
	}

	adapter, err := s.factory(kind, supplier.Credentials{APIKey: req.APIKey, AccessToken: req.AccessToken, ShopID: req.ShopID})
	if err != nil {
		return nil, err
	}
	info, err := adapter.ValidateCredentials(ctx)
	if err != nil {
		return nil, err
	}

	shopID := ""
	if kind == supplier.Printify {
		shopID, err = pickPrintifyShop(req.ShopID, info.Shops)
		if err != nil {
			return nil, err
		}
	}

	conn, err := s.findExisting(ctx, userID, kind, info.AccountID, shopID)
	if err != nil {
		return nil, err
	}

	conn.AccountName = info.AccountName
	conn.AccountEmail = info.Email
	conn.AccountID = info.AccountID
	conn.APIKey = req.APIKey
	conn.AccessToken = req.AccessToken
	conn.ShopID = shopID
	if kind == supplier.Gelato {
		conn.StoreID = info.StoreID
	}
	conn.IsConnected = true
	conn.IsActive = true
	conn.ConnectionError = ""

	if conn.ID == 0 {
		err = s.conns.Create(ctx, conn)
	} else {
		err = s.conns.UpdateFields(ctx, conn.ID, map[string]interface{}{
			"account_name":     conn.AccountName,
			"account_email":    conn.AccountEmail,
			"account_id":       conn.AccountID,
			"api_key":          conn.APIKey,
			"access_token":     conn.AccessToken,
			"shop_id":          conn.ShopID,
			"store_id":         conn.StoreID,
			"is_connected":     true,
			"is_active":        true,
			"connection_error": "",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("保存供应商连接失败: %w", err)
	}

	logger.L().WithField("connection_id", conn.ID).WithField("supplier", kind).
		Infof("[Supplier] 用户 %d 连接成功: %s", userID, conn.AccountName)
	return conn, nil
}

// pickPrintifyShop 未指定 shop_id 时仅有一个店铺则自动选择
func pickPrintifyShop(requested string, shops []supplier.ShopRef) (string, error) {
	if requested != "" {
		return requested, nil
	}
	switch len(shops) {
	case 0:
		return "", nil
	case 1:
		return shops[0].ID, nil
	default:
		return "", &ShopSelectionError{Shops: shops}
	}
}

func (s *SupplierService) findExisting(ctx context.Context, userID int64, kind supplier.Kind, accountID, shopID string) (*model.SupplierConnection, error) {
	list, err := s.conns.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		c := list[i]
		if c.SupplierType != kind.String() {
			continue
		}
		if accountID != "" && c.AccountID == accountID && c.ShopID == shopID {
			return &c, nil
		}
	}
	return &model.SupplierConnection{UserID: userID, SupplierType: kind.String()}, nil
}

// Disconnect 清空凭证，保留记录与目录
func (s *SupplierService) Disconnect(ctx context.Context, userID, connID int64) error {
	if _, err := s.get(ctx, userID, connID); err != nil {
		return err
	}
	return s.conns.Disconnect(ctx, connID)
}

// Delete 物理删除连接及其目录
func (s *SupplierService) Delete(ctx context.Context, userID, connID int64) error {
	if _, err := s.get(ctx, userID, connID); err != nil {
		return err
	}
	return s.conns.HardDelete(ctx, connID)
}

// Sync 同步目录并回写连接状态
func (s *SupplierService) Sync(ctx context.Context, userID, connID int64) (*SyncResult, error) {
	conn, err := s.get(ctx, userID, connID)
	if err != nil {
		return nil, err
	}
	if !conn.IsConnected || !conn.HasCredentials() {
		return nil, &NotConnectedError{Supplier: conn.SupplierType}
	}
	return s.SyncConnection(ctx, conn)
}

// SyncConnection 不校验归属的同步入口 (定时任务与 CLI 使用)
func (s *SupplierService) SyncConnection(ctx context.Context, conn *model.SupplierConnection) (*SyncResult, error) {
	count, syncErr := s.syncer.SyncConnection(ctx, conn)
	if syncErr != nil {
		auth := supplier.IsAuthError(syncErr)
		if err := s.conns.MarkSyncFailed(ctx, conn.ID, syncErr.Error(), auth); err != nil {
			logger.L().WithError(err).Errorf("[Supplier] 回写同步失败状态失败 connection=%d", conn.ID)
		}
		return nil, syncErr
	}

	if err := s.conns.MarkSynced(ctx, conn.ID); err != nil {
		return nil, err
	}
	now := time.Now()
	return &SyncResult{ConnectionID: conn.ID, ProductsSynced: count, LastSync: &now}, nil
}

// Products 浏览已同步目录
func (s *SupplierService) Products(ctx context.Context, userID int64, filter repository.SupplierProductFilter) ([]model.SupplierProduct, int64, error) {
	if _, err := s.get(ctx, userID, filter.ConnectionID); err != nil {
		return nil, 0, err
	}
	return s.products.List(ctx, filter)
}

// ==================== 下单 ====================

// CreateOrder 通过指定连接向供应商下单 (podctl 使用，不校验归属)
func (s *SupplierService) CreateOrder(ctx context.Context, connID int64, req *supplier.OrderRequest) (*supplier.OrderResult, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidRequest)
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item needs product_id and a positive quantity", ErrInvalidRequest)
		}
	}

	conn, err := s.conns.GetByID(ctx, connID)
	if err != nil {
		return nil, notFound(err)
	}
	if !conn.IsConnected || !conn.HasCredentials() {
		return nil, &NotConnectedError{Supplier: conn.SupplierType}
	}
	adapter, err := adapterFor(s.factory, conn)
	if err != nil {
		return nil, err
	}

	res, err := adapter.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s 下单失败: %w", conn.SupplierType, err)
	}
	logger.L().WithField("connection_id", connID).WithField("order_id", res.ID).
		Infof("[Supplier] %s 订单已创建: %s", conn.SupplierType, res.Status)
	return res, nil
}

func (s *SupplierService) get(ctx context.Context, userID, connID int64) (*model.SupplierConnection, error) {
	conn, err := s.conns.GetByUser(ctx, userID, connID)
	if err != nil {
		return nil, notFound(err)
	}
	return conn, nil
}
