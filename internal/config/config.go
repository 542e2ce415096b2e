package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	JWT      JWTConfig
	Supplier SupplierConfig
	Market   MarketplaceConfig
	Task     TaskConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port         string
	Mode         string // debug / release / test
	CORSOrigins  []string
	SyncCooldown time.Duration // 手动同步冷却时间
}

type DatabaseConfig struct {
	Driver  string // postgres / sqlite
	URL     string
	MaxIdle int
	MaxOpen int
}

type LogConfig struct {
	Level  string
	Format string
}

type JWTConfig struct {
	Secret string
	Issuer string // 非空时校验 iss
}

// SupplierConfig POD 供应商接口配置
type SupplierConfig struct {
	GelatoURL       string
	GelatoStoresURL string
	PrintifyURL     string
	PrintfulURL     string
	RPS             float64 // 单个 Adapter 每秒请求数
	Timeout         time.Duration
}

// MarketplaceConfig 店铺平台接口配置
type MarketplaceConfig struct {
	EtsyURL           string
	EtsyAPIKey        string
	ShopifyAPIVersion string
}

type TaskConfig struct {
	CatalogSyncCron        string // 空表示关闭
	CatalogSyncConcurrency int
	ListingSyncCron        string // 空表示关闭
}

type KafkaConfig struct {
	Brokers     []string // 空表示关闭
	SwitchTopic string
}

// Load 加载配置 (.env 文件可选，环境变量优先)
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "debug"),
			CORSOrigins:  getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
			SyncCooldown: getEnvAsDuration("SYNC_COOLDOWN", 60*time.Second),
		},
		Database: DatabaseConfig{
			Driver:  getEnv("DB_DRIVER", "postgres"),
			URL:     getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pod_manager port=5432 sslmode=disable"),
			MaxIdle: getEnvAsInt("DB_MAX_IDLE", 10),
			MaxOpen: getEnvAsInt("DB_MAX_OPEN", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "pod-manager-secret-change-in-production"),
			Issuer: getEnv("JWT_ISSUER", ""),
		},
		Supplier: SupplierConfig{
			GelatoURL:       getEnv("GELATO_API_URL", "https://api.gelato.com/v3"),
			GelatoStoresURL: getEnv("GELATO_STORES_URL", "https://ecommerce.gelatoapis.com/v1"),
			PrintifyURL:     getEnv("PRINTIFY_API_URL", "https://api.printify.com/v1"),
			PrintfulURL:     getEnv("PRINTFUL_API_URL", "https://api.printful.com"),
			RPS:             getEnvAsFloat("SUPPLIER_RPS", 5),
			Timeout:         getEnvAsDuration("SUPPLIER_TIMEOUT", 30*time.Second),
		},
		Market: MarketplaceConfig{
			EtsyURL:           getEnv("ETSY_API_URL", "https://openapi.etsy.com/v3/application"),
			EtsyAPIKey:        getEnv("ETSY_API_KEY", ""),
			ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2024-01"),
		},
		Task: TaskConfig{
			CatalogSyncCron:        getEnv("CATALOG_SYNC_CRON", ""),
			CatalogSyncConcurrency: getEnvAsInt("CATALOG_SYNC_CONCURRENCY", 2),
			ListingSyncCron:        getEnv("LISTING_SYNC_CRON", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvAsSlice("KAFKA_BROKERS", nil),
			SwitchTopic: getEnv("KAFKA_SWITCH_TOPIC", "product-switch-events"),
		},
	}
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDebug 是否调试模式
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug" || getEnvAsBool("DEBUG", false)
}
