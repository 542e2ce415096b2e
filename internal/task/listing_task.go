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

// ==================== ListingSyncTask 店铺 Listing 同步任务 ====================

// ListingSyncer 单个店铺的 Listing 同步 (ListingSyncService 实现)
type ListingSyncer interface {
	SyncStore(ctx context.Context, shop *model.Shop) (*service.ListingSyncResult, error)
}

// ListingSyncTask 定时拉取已连接店铺的 Listing 并重新识别供应商
type ListingSyncTask struct {
	shopRepo repository.ShopRepository
	syncer   ListingSyncer
	cron     *cron.Cron
	spec     string

	concurrencyLimit int
	timeout          time.Duration
}

// NewListingSyncTask 创建 Listing 同步任务
func NewListingSyncTask(shopRepo repository.ShopRepository, syncer ListingSyncer, spec string) *ListingSyncTask {
	return &ListingSyncTask{
		shopRepo:         shopRepo,
		syncer:           syncer,
		cron:             newCron(),
		spec:             spec,
		concurrencyLimit: 5,
		timeout:          30 * time.Minute,
	}
}

// SetConcurrency 设置并发上限
func (t *ListingSyncTask) SetConcurrency(limit int) {
	if limit > 0 {
		t.concurrencyLimit = limit
	}
}

// Start 注册并启动定时任务
func (t *ListingSyncTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.SyncAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("Listing 同步 cron 表达式无效 %q: %w", t.spec, err)
	}

	t.cron.Start()
	logger.L().Infof("[ListingSyncTask] 已启动 (%s)", t.spec)
	return nil
}

// Stop 停止任务
func (t *ListingSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	logger.L().Info("[ListingSyncTask] 已停止")
}

// SyncAll 同步全部已连接店铺
func (t *ListingSyncTask) SyncAll(ctx context.Context) RunStats {
	shops, err := t.shopRepo.ListConnected(ctx)
	if err != nil {
		logger.L().WithError(err).Error("[ListingSyncTask] 获取店铺列表失败")
		return RunStats{}
	}
	if len(shops) == 0 {
		logger.L().Info("[ListingSyncTask] 无已连接店铺需要同步")
		return RunStats{}
	}

	logger.L().Infof("[ListingSyncTask] 开始处理 %d 个店铺", len(shops))

	stats := runBounded(ctx, t.concurrencyLimit, shops, func(ctx context.Context, shop model.Shop) error {
		res, err := t.syncer.SyncStore(ctx, &shop)
		if err != nil {
			logger.L().WithError(err).WithField("shop_id", shop.ID).
				Warnf("[ListingSyncTask] 店铺 %s 同步失败", shop.ShopName)
			return err
		}
		logger.L().WithField("shop_id", shop.ID).
			Infof("[ListingSyncTask] 店铺 %s: 共 %d, 识别 %d", shop.ShopName, res.Total, res.Detected)
		return nil
	})

	logger.L().Infof("[ListingSyncTask] 同步完成: 成功 %d, 失败 %d, 跳过 %d", stats.Succeeded, stats.Failed, stats.Skipped)
	return stats
}
