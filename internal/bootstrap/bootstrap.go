// Package bootstrap 组装仓储、外部客户端与业务服务，供 HTTP 服务与 podctl 共用
package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/config"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/internal/service"
	"github.com/iShirker/PoD-ShopManager/pkg/database"
	"github.com/iShirker/PoD-ShopManager/pkg/events"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/marketplace"
	"github.com/iShirker/PoD-ShopManager/pkg/net"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// Repositories 仓库集合
type Repositories struct {
	Connection      repository.SupplierConnectionRepository
	SupplierProduct repository.SupplierProductRepository
	Shop            repository.ShopRepository
	Product         repository.ProductRepository
	Switch          repository.ProductSwitchRepository
	SwitchUow       *repository.SwitchUnitOfWork
	UserProduct     repository.UserProductRepository
}

// Services 服务集合
type Services struct {
	CatalogSync *service.CatalogSyncService
	Supplier    *service.SupplierService
	Compare     *service.CompareService
	Matcher     *service.MatcherService
	Switch      *service.SwitchService
	ListingSync *service.ListingSyncService
	UserProduct *service.UserProductService
}

// App 已组装的依赖
type App struct {
	DB        *gorm.DB
	Catalog   *catalog.Catalog
	Repos     *Repositories
	Services  *Services
	Factory   supplier.Factory
	Market    marketplace.Client
	Publisher events.Publisher
}

// ==================== 初始化函数 ====================

// OpenDatabase 打开数据库并自动建表
func OpenDatabase(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	return database.InitDB(database.Options{
		Driver:  cfg.Driver,
		DSN:     cfg.URL,
		MaxIdle: cfg.MaxIdle,
		MaxOpen: cfg.MaxOpen,
		Debug:   debug,
	}, model.AllModels()...)
}

// New 在已打开的数据库上组装全部依赖
func New(cfg *config.Config, db *gorm.DB) *App {
	tables := catalog.Default()
	repos := NewRepositories(db)

	factory := SupplierFactory(cfg.Supplier, cfg.IsDebug())
	market := Marketplace(cfg.Market)
	publisher := Publisher(cfg.Kafka)

	app := &App{
		DB:        db,
		Catalog:   tables,
		Repos:     repos,
		Factory:   factory,
		Market:    market,
		Publisher: publisher,
	}
	app.Services = NewServices(repos, tables, factory, market, publisher)
	return app
}

// NewRepositories 初始化所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	uow := repository.NewSwitchUnitOfWork(db)
	return &Repositories{
		Connection:      repository.NewSupplierConnectionRepository(db),
		SupplierProduct: repository.NewSupplierProductRepository(db),
		Shop:            repository.NewShopRepository(db),
		Product:         uow.Products,
		Switch:          uow.Switches,
		SwitchUow:       uow,
		UserProduct:     repository.NewUserProductRepository(db),
	}
}

// NewServices 初始化所有业务服务
func NewServices(
	repos *Repositories,
	tables *catalog.Catalog,
	factory supplier.Factory,
	market marketplace.Client,
	publisher events.Publisher,
) *Services {
	svc := &Services{}
	svc.CatalogSync = service.NewCatalogSyncService(repos.SupplierProduct, factory)
	svc.Supplier = service.NewSupplierService(repos.Connection, repos.SupplierProduct, svc.CatalogSync, factory)
	svc.Compare = service.NewCompareService(repos.Product, repos.Connection, factory, tables.TypeMap)
	svc.Matcher = service.NewMatcherService(repos.Product, repos.SupplierProduct, repos.Connection, tables.TypeMap)
	svc.Switch = service.NewSwitchService(repos.SwitchUow, repos.Connection, svc.Matcher, market, publisher)
	svc.ListingSync = service.NewListingSyncService(repos.Shop, repos.Product, market, tables.Detector)
	svc.UserProduct = service.NewUserProductService(repos.UserProduct, repos.Connection, svc.Matcher)
	return svc
}

// ==================== 外部客户端 ====================

// SupplierFactory 按供应商类型选择接口地址，其余配置共用
func SupplierFactory(cfg config.SupplierConfig, debug bool) supplier.Factory {
	urls := map[supplier.Kind]string{
		supplier.Gelato:   cfg.GelatoURL,
		supplier.Printify: cfg.PrintifyURL,
		supplier.Printful: cfg.PrintfulURL,
	}
	return func(kind supplier.Kind, creds supplier.Credentials) (supplier.Adapter, error) {
		return supplier.New(kind, creds,
			supplier.WithBaseURLs(urls, kind),
			supplier.WithStoresURL(cfg.GelatoStoresURL),
			supplier.WithTimeout(cfg.Timeout),
			supplier.WithRateLimit(cfg.RPS),
			supplier.WithDebug(debug),
		)
	}
}

// Marketplace Etsy 走限速调度器，Shopify 直连店铺域名
func Marketplace(cfg config.MarketplaceConfig) marketplace.Client {
	dispatcher := net.NewDispatcher(net.WithShopRate(5, 5))
	etsy := marketplace.NewEtsyClient(dispatcher, cfg.EtsyURL, cfg.EtsyAPIKey)
	shopify := marketplace.NewShopifyClient(cfg.ShopifyAPIVersion)
	return marketplace.NewRouter(etsy, shopify)
}

// Publisher 配置了 Kafka 时发布切换事件，否则不发布
func Publisher(cfg config.KafkaConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.Noop{}
	}
	logger.L().WithField("brokers", cfg.Brokers).WithField("topic", cfg.SwitchTopic).
		Info("[Events] 切换事件发布到 Kafka")
	return events.NewKafkaPublisher(cfg.Brokers, cfg.SwitchTopic)
}

// Close 释放外部连接
func (a *App) Close() error {
	var firstErr error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			firstErr = fmt.Errorf("关闭事件发布失败: %w", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("关闭数据库失败: %w", err)
			}
		}
	}
	return firstErr
}
