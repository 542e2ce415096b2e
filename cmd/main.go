package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/bootstrap"
	"github.com/iShirker/PoD-ShopManager/internal/config"
	"github.com/iShirker/PoD-ShopManager/internal/controller"
	"github.com/iShirker/PoD-ShopManager/internal/router"
	"github.com/iShirker/PoD-ShopManager/internal/task"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// @title PoD ShopManager API
// @version 1.0
// @description 供应商目录同步、跨供应商比价与 Listing 换供应商
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. 加载配置
	cfg := config.Load()
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 2. 初始化依赖
	deps := initDependencies(cfg)
	defer func() {
		if err := deps.App.Close(); err != nil {
			logger.L().WithError(err).Warn("释放资源失败")
		}
	}()

	// 3. 启动定时任务
	tasks := initTasks(cfg, deps)
	defer tasks.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(cfg, deps.Controllers)

	// 5. 启动服务
	startServer(cfg.Server.Port, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	App         *bootstrap.App
	Controllers *router.Controllers
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config) *Dependencies {
	// -------- 数据库 --------
	db, err := bootstrap.OpenDatabase(cfg.Database, cfg.IsDebug())
	if err != nil {
		logger.L().WithError(err).Fatal("数据库初始化失败")
	}

	// -------- Repo / 外部客户端 / 业务服务 --------
	app := bootstrap.New(cfg, db)

	// -------- Controller 层 --------
	return &Dependencies{
		App:         app,
		Controllers: initControllers(app.Services),
	}
}

// initControllers 初始化所有控制器
func initControllers(svc *bootstrap.Services) *router.Controllers {
	return &router.Controllers{
		Supplier:    controller.NewSupplierController(svc.Supplier),
		Shop:        controller.NewShopController(svc.ListingSync),
		Product:     controller.NewProductController(svc.ListingSync, svc.Compare, svc.Matcher),
		Switch:      controller.NewSwitchController(svc.Switch),
		UserProduct: controller.NewUserProductController(svc.UserProduct),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(cfg *config.Config, deps *Dependencies) *task.TaskManager {
	app := deps.App
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		ConnRepo:      app.Repos.Connection,
		ShopRepo:      app.Repos.Shop,
		CatalogSyncer: app.Services.Supplier,
		ListingSyncer: app.Services.ListingSync,
	}, task.ConfigFrom(cfg.Task))

	if err := tm.Start(); err != nil {
		logger.L().WithError(err).Fatal("定时任务启动失败")
	}
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(port string, r *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 异步启动服务
	go func() {
		logger.L().Infof("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().WithError(err).Fatal("服务启动失败")
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.L().WithError(err).Error("服务强制关闭")
		return
	}

	logger.L().Info("服务已退出")
}
