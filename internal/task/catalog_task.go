package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/internal/service"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// ==================== CatalogSyncTask 供应商目录同步任务 ====================

// CatalogSyncer 单个连接的目录同步 (SupplierService 实现)
type CatalogSyncer interface {
	SyncConnection(ctx context.Context, conn *model.SupplierConnection) (*service.SyncResult, error)
}

// CatalogSyncTask 定时刷新全部已连接供应商的目录
type CatalogSyncTask struct {
	connRepo repository.SupplierConnectionRepository
	syncer   CatalogSyncer
	cron     *cron.Cron
	spec     string

	// 并发控制
	concurrencyLimit int
	timeout          time.Duration
}

// NewCatalogSyncTask 创建目录同步任务，spec 为秒级 cron 表达式
func NewCatalogSyncTask(connRepo repository.SupplierConnectionRepository, syncer CatalogSyncer, spec string) *CatalogSyncTask {
	return &CatalogSyncTask{
		connRepo:         connRepo,
		syncer:           syncer,
		cron:             newCron(),
		spec:             spec,
		concurrencyLimit: 2,
		timeout:          time.Hour,
	}
}

// SetConcurrency 设置并发上限
func (t *CatalogSyncTask) SetConcurrency(limit int) {
	if limit > 0 {
		t.concurrencyLimit = limit
	}
}

// Start 注册并启动定时任务
func (t *CatalogSyncTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.SyncAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("目录同步 cron 表达式无效 %q: %w", t.spec, err)
	}

	t.cron.Start()
	logger.L().Infof("[CatalogSyncTask] 已启动 (%s)", t.spec)
	return nil
}

// Stop 停止任务，等待正在执行的同步结束
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	logger.L().Info("[CatalogSyncTask] 已停止")
}

// SyncAll 同步全部已连接的供应商账号
// 单个连接失败不影响其他连接，失败状态由 SyncConnection 回写
func (t *CatalogSyncTask) SyncAll(ctx context.Context) RunStats {
	conns, err := t.connRepo.ListConnected(ctx)
	if err != nil {
		logger.L().WithError(err).Error("[CatalogSyncTask] 获取连接列表失败")
		return RunStats{}
	}
	if len(conns) == 0 {
		logger.L().Info("[CatalogSyncTask] 无已连接的供应商")
		return RunStats{}
	}

	logger.L().Infof("[CatalogSyncTask] 开始处理 %d 个连接，并发上限: %d", len(conns), t.concurrencyLimit)

	stats := runBounded(ctx, t.concurrencyLimit, conns, func(ctx context.Context, conn model.SupplierConnection) error {
		res, err := t.syncer.SyncConnection(ctx, &conn)
		if err != nil {
			logger.L().WithError(err).WithField("connection_id", conn.ID).
				Warnf("[CatalogSyncTask] %s 目录同步失败", conn.SupplierType)
			return err
		}
		logger.L().WithField("connection_id", conn.ID).
			Infof("[CatalogSyncTask] %s 同步 %d 个商品", conn.SupplierType, res.ProductsSynced)
		return nil
	})

	logger.L().Infof("[CatalogSyncTask] 同步完成: 成功 %d, 失败 %d, 跳过 %d", stats.Succeeded, stats.Failed, stats.Skipped)
	return stats
}
