package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/iShirker/PoD-ShopManager/docs"
	"github.com/iShirker/PoD-ShopManager/internal/config"
	"github.com/iShirker/PoD-ShopManager/internal/controller"
	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// Controllers 控制器集合
type Controllers struct {
	Supplier    *controller.SupplierController
	Shop        *controller.ShopController
	Product     *controller.ProductController
	Switch      *controller.SwitchController
	UserProduct *controller.UserProductController
}

// SetupRouter 创建引擎并注册全部路由
func SetupRouter(cfg *config.Config, ctls *Controllers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	controller.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	r.Use(middleware.RequestLogger(logger.L()))

	jwtCfg := &middleware.JWTConfig{SecretKey: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}
	limiter := middleware.NewSyncRateLimiter()
	InitRoutes(r, ctls, jwtCfg, limiter, cfg.Server.SyncCooldown)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// InitRoutes 注册所有路由
func InitRoutes(
	r *gin.Engine,
	ctls *Controllers,
	jwtCfg *middleware.JWTConfig,
	limiter *middleware.SyncRateLimiter,
	cooldown time.Duration,
) {
	// 1. Swagger 文档
	// 访问 http://localhost:8080/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. API 路由组
	api := r.Group("/api", middleware.JWTAuth(jwtCfg))
	{
		// 供应商连接与目录
		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", ctls.Supplier.List)
			suppliers.GET("/status", ctls.Supplier.Status)
			// 路径段为供应商类型，与其他路由共用 :id 参数名
			suppliers.POST("/:id/connect", ctls.Supplier.Connect)
			suppliers.POST("/:id/disconnect", ctls.Supplier.Disconnect)
			suppliers.DELETE("/:id", ctls.Supplier.Delete)
			suppliers.POST("/:id/sync",
				middleware.SyncRateLimit(limiter, middleware.SyncTypeSupplier, cooldown),
				ctls.Supplier.Sync,
			)
			suppliers.GET("/:id/products", ctls.Supplier.Products)
		}

		// 店铺
		shops := api.Group("/shops")
		{
			shops.GET("", ctls.Shop.GetShopList)
			shops.POST("/:id/sync",
				middleware.SyncRateLimit(limiter, middleware.SyncTypeShop, cooldown),
				ctls.Shop.SyncShop,
			)
		}

		// Listing、比价与切换
		products := api.Group("/products")
		{
			products.GET("", ctls.Product.GetProducts)
			products.GET("/types", ctls.Product.GetProductTypes)
			products.GET("/compare", ctls.Product.CompareAll)
			products.GET("/compare/summary", ctls.Product.CompareSummary)
			products.POST("/bulk-switch", ctls.Switch.BulkSwitch)
			products.GET("/:id/compare", ctls.Product.CompareOne)
			products.GET("/:id/matches", ctls.Product.Matches)
			products.GET("/:id/switch/preview", ctls.Switch.Preview)
			products.POST("/:id/switch", ctls.Switch.Switch)
		}

		// 追踪商品
		userProducts := api.Group("/user-products")
		{
			userProducts.GET("", ctls.UserProduct.List)
			userProducts.POST("", ctls.UserProduct.Create)
			userProducts.DELETE("/:id", ctls.UserProduct.Delete)
			userProducts.GET("/:id/suppliers", ctls.UserProduct.Suppliers)
		}
	}
}
