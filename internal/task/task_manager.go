package task

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/iShirker/PoD-ShopManager/internal/config"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// ==================== TaskManager 后台同步任务管理器 ====================

// TaskManager 统一管理目录同步与 Listing 同步
type TaskManager struct {
	catalogTask *CatalogSyncTask
	listingTask *ListingSyncTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	// Repositories
	ConnRepo repository.SupplierConnectionRepository
	ShopRepo repository.ShopRepository

	// Services
	CatalogSyncer CatalogSyncer
	ListingSyncer ListingSyncer
}

// TaskManagerConfig 任务管理器配置，cron 为空表示关闭
type TaskManagerConfig struct {
	CatalogCron        string
	CatalogConcurrency int

	ListingCron        string
	ListingConcurrency int
}

// ConfigFrom 从应用配置生成任务配置
func ConfigFrom(cfg config.TaskConfig) *TaskManagerConfig {
	return &TaskManagerConfig{
		CatalogCron:        cfg.CatalogSyncCron,
		CatalogConcurrency: cfg.CatalogSyncConcurrency,
		ListingCron:        cfg.ListingSyncCron,
		ListingConcurrency: 5,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = &TaskManagerConfig{}
	}

	tm := &TaskManager{}

	if cfg.CatalogCron != "" && deps.CatalogSyncer != nil {
		tm.catalogTask = NewCatalogSyncTask(deps.ConnRepo, deps.CatalogSyncer, cfg.CatalogCron)
		tm.catalogTask.SetConcurrency(cfg.CatalogConcurrency)
	}

	if cfg.ListingCron != "" && deps.ListingSyncer != nil {
		tm.listingTask = NewListingSyncTask(deps.ShopRepo, deps.ListingSyncer, cfg.ListingCron)
		tm.listingTask.SetConcurrency(cfg.ListingConcurrency)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有已启用的任务，cron 表达式无效时返回错误
func (tm *TaskManager) Start() error {
	logger.L().Info("[TaskManager] 正在启动后台同步任务...")

	if tm.catalogTask != nil {
		if err := tm.catalogTask.Start(); err != nil {
			return err
		}
	}
	if tm.listingTask != nil {
		if err := tm.listingTask.Start(); err != nil {
			tm.Stop()
			return err
		}
	}

	logger.L().WithField("tasks", tm.Status()).Info("[TaskManager] 后台同步任务已启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
	if tm.listingTask != nil {
		tm.listingTask.Stop()
	}
	logger.L().Info("[TaskManager] 后台同步任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerCatalogSync 立即同步全部供应商目录
func (tm *TaskManager) TriggerCatalogSync(ctx context.Context) (RunStats, error) {
	if tm.catalogTask == nil {
		return RunStats{}, ErrTaskDisabled
	}
	return tm.catalogTask.SyncAll(ctx), nil
}

// TriggerListingSync 立即同步全部店铺 Listing
func (tm *TaskManager) TriggerListingSync(ctx context.Context) (RunStats, error) {
	if tm.listingTask == nil {
		return RunStats{}, ErrTaskDisabled
	}
	return tm.listingTask.SyncAll(ctx), nil
}

// Status 获取任务启用状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"catalog": tm.catalogTask != nil,
		"listing": tm.listingTask != nil,
	}
}

// ==================== 并发执行 ====================

// RunStats 单轮执行统计
type RunStats struct {
	Succeeded int
	Failed    int
	Skipped   int // 上下文取消后未执行
}

// runBounded 以有限并发逐个执行 fn，等待全部结束
func runBounded[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) RunStats {
	if limit <= 0 {
		limit = 1
	}
	var succeeded, failed, skipped atomic.Int64

	p := pool.New().WithMaxGoroutines(limit)
	for _, item := range items {
		item := item
		p.Go(func() {
			if ctx.Err() != nil {
				skipped.Add(1)
				return
			}
			if err := fn(ctx, item); err != nil {
				failed.Add(1)
				return
			}
			succeeded.Add(1)
		})
	}
	p.Wait()

	return RunStats{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}
}

// newCron 秒级 cron，上一轮未结束时跳过本轮
func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.L()))),
	)
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
