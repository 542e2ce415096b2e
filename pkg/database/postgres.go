package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// Options 数据库连接参数
type Options struct {
	Driver  string // postgres / sqlite
	DSN     string
	MaxIdle int
	MaxOpen int
	Debug   bool // 打印所有 SQL
}

// Open 打开数据库连接并设置连接池
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(opts.Driver) {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(opts.DSN)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", opts.Driver)
	}

	// 开发环境下打印所有 SQL，方便调试
	level := gormlogger.Warn
	if opts.Debug {
		level = gormlogger.Info
	}
	dbLogger := gormlogger.New(logger.L(), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 SQL DB 失败: %w", err)
	}

	maxIdle, maxOpen := opts.MaxIdle, opts.MaxOpen
	if maxIdle <= 0 {
		maxIdle = 10
	}
	if maxOpen <= 0 {
		maxOpen = 100
	}
	// sqlite 内存库每个连接是独立的库
	if strings.HasPrefix(strings.ToLower(opts.Driver), "sqlite") && strings.Contains(opts.DSN, ":memory:") {
		maxIdle, maxOpen = 1, 1
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	// 设置了连接可复用的最大时间
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.L().WithField("driver", dialector.Name()).Info("[DB] 数据库连接成功")
	return db, nil
}

// InitDB 打开连接并自动建表
// models: 需要自动建表/迁移的结构体指针
func InitDB(opts Options, models ...interface{}) (*gorm.DB, error) {
	db, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("自动建表出错: %w", err)
		}
	}
	return db, nil
}
