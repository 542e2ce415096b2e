// podctl 运维命令行：SKU 识别、目录同步、比价、切换与下单
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/iShirker/PoD-ShopManager/internal/config"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger.L().WithError(err).Error("[podctl] 执行失败")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "podctl",
		Usage: "PoD ShopManager 运维工具",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Value: "text", EnvVars: []string{"LOG_FORMAT"}},
		},
		Before: func(c *cli.Context) error {
			logger.Init(c.String("log-level"), c.String("log-format"))
			return nil
		},
		Commands: []*cli.Command{
			detectCommand(),
			mappingsCommand(),
			syncCommand(),
			syncShopCommand(),
			compareCommand(),
			previewSwitchCommand(),
			switchCommand(),
			orderCommand(),
		},
	}
}

// loadConfig 命令执行时才读取配置，detect / mappings 无需数据库
func loadConfig() *config.Config {
	return config.Load()
}
