package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/iShirker/PoD-ShopManager/internal/bootstrap"
	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/service"
	"github.com/iShirker/PoD-ShopManager/internal/task"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// ==================== 离线命令 ====================

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "识别 SKU 对应的供应商与商品类型",
		ArgsUsage: "<sku>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("至少提供一个 SKU")
			}
			return runDetect(c.App.Writer, catalog.Default(), c.Args().Slice())
		},
	}
}

func runDetect(w io.Writer, tables *catalog.Catalog, skus []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tSUPPLIER\tPREFIX\tPRODUCT TYPE")
	for _, sku := range skus {
		det, _ := tables.Detector.DetectSupplier(sku)
		productType, _ := tables.Detector.DetectProductType(sku)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sku, dash(det.Supplier), dash(det.Prefix), dash(productType))
	}
	return tw.Flush()
}

func mappingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "mappings",
		Usage: "打印跨供应商商品类型映射表",
		Action: func(c *cli.Context) error {
			return runMappings(c.App.Writer, catalog.Default())
		},
	}
}

func runMappings(w io.Writer, tables *catalog.Catalog) error {
	fmt.Fprintf(w, "version: %s\n", tables.Version)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := []string{"KEY"}
	for _, kind := range supplier.Kinds() {
		header = append(header, strings.ToUpper(kind.String()))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, entry := range tables.TypeMap.Entries() {
		row := []string{entry.Key}
		for _, kind := range supplier.Kinds() {
			id, _ := entry.ExternalID(kind.String())
			row = append(row, dash(id))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// ==================== 在线命令 ====================

// withApp 连接数据库并组装依赖，执行完毕后关闭
func withApp(fn func(app *bootstrap.App) error) error {
	cfg := loadConfig()
	db, err := bootstrap.OpenDatabase(cfg.Database, false)
	if err != nil {
		return err
	}
	app := bootstrap.New(cfg, db)
	defer app.Close()
	return fn(app)
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "同步供应商目录",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "connection", Usage: "连接ID"},
			&cli.BoolFlag{Name: "all", Usage: "同步全部已连接账号"},
			&cli.IntFlag{Name: "concurrency", Value: 2},
		},
		Action: func(c *cli.Context) error {
			if c.Int64("connection") == 0 && !c.Bool("all") {
				return errors.New("需要 --connection 或 --all")
			}
			return withApp(func(app *bootstrap.App) error {
				if c.Bool("all") {
					t := task.NewCatalogSyncTask(app.Repos.Connection, app.Services.Supplier, "")
					t.SetConcurrency(c.Int("concurrency"))
					stats := t.SyncAll(c.Context)
					return printJSON(c.App.Writer, stats)
				}

				conn, err := app.Repos.Connection.GetByID(c.Context, c.Int64("connection"))
				if err != nil {
					return fmt.Errorf("连接 %d 不存在: %w", c.Int64("connection"), err)
				}
				res, err := app.Services.Supplier.SyncConnection(c.Context, conn)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, res)
			})
		},
	}
}

func syncShopCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-shop",
		Usage: "拉取店铺 Listing 并识别供应商",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "shop", Required: true, Usage: "店铺ID"},
		},
		Action: func(c *cli.Context) error {
			return withApp(func(app *bootstrap.App) error {
				shop, err := app.Repos.Shop.GetByID(c.Context, c.Int64("shop"))
				if err != nil {
					return fmt.Errorf("店铺 %d 不存在: %w", c.Int64("shop"), err)
				}
				res, err := app.Services.ListingSync.SyncStore(c.Context, shop)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, res)
			})
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "单个 Listing 跨供应商比价",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "product", Required: true, Usage: "商品ID"},
		},
		Action: func(c *cli.Context) error {
			return withApp(func(app *bootstrap.App) error {
				product, err := ownerOf(c, app, c.Int64("product"))
				if err != nil {
					return err
				}
				res, err := app.Services.Compare.CompareForUser(c.Context, product.userID, product.ID)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, res)
			})
		},
	}
}

func previewSwitchCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview-switch",
		Usage: "预览切换后的 SKU 变更",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "product", Required: true, Usage: "商品ID"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "目标供应商"},
		},
		Action: func(c *cli.Context) error {
			return withApp(func(app *bootstrap.App) error {
				product, err := ownerOf(c, app, c.Int64("product"))
				if err != nil {
					return err
				}
				preview, err := app.Services.Switch.PreviewSwitch(c.Context, product.userID, product.ID, c.String("to"))
				if err != nil {
					return err
				}
				return printSKUChanges(c.App.Writer, preview.SKUChanges)
			})
		},
	}
}

func switchCommand() *cli.Command {
	return &cli.Command{
		Name:  "switch",
		Usage: "切换 Listing 供应商并回写平台 SKU",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "product", Required: true, Usage: "商品ID"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "目标供应商"},
			&cli.StringFlag{Name: "target-product", Usage: "指定目标供应商商品ID"},
		},
		Action: func(c *cli.Context) error {
			return withApp(func(app *bootstrap.App) error {
				product, err := ownerOf(c, app, c.Int64("product"))
				if err != nil {
					return err
				}
				res, err := app.Services.Switch.Switch(c.Context, product.userID, service.SwitchRequest{
					ProductID:       product.ID,
					TargetSupplier:  c.String("to"),
					TargetProductID: c.String("target-product"),
				})
				if res != nil {
					if pErr := printJSON(c.App.Writer, res); pErr != nil {
						return pErr
					}
				}
				return err
			})
		},
	}
}

func orderCommand() *cli.Command {
	return &cli.Command{
		Name:  "order",
		Usage: "通过供应商连接创建订单",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "connection", Required: true, Usage: "连接ID"},
			&cli.StringFlag{Name: "external-id", Required: true, Usage: "平台订单号"},
			&cli.StringFlag{Name: "product", Required: true, Usage: "供应商商品ID"},
			&cli.StringFlag{Name: "variant", Usage: "供应商规格ID"},
			&cli.IntFlag{Name: "qty", Value: 1},
			&cli.StringFlag{Name: "file-url", Usage: "印刷文件地址"},
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "address1", Required: true},
			&cli.StringFlag{Name: "city", Required: true},
			&cli.StringFlag{Name: "state"},
			&cli.StringFlag{Name: "zip", Required: true},
			&cli.StringFlag{Name: "country", Value: "US"},
		},
		Action: func(c *cli.Context) error {
			req := &supplier.OrderRequest{
				ExternalID: c.String("external-id"),
				Items: []supplier.OrderItem{{
					ProductID: c.String("product"),
					VariantID: c.String("variant"),
					Quantity:  c.Int("qty"),
					FileURL:   c.String("file-url"),
				}},
				Recipient: supplier.Address{
					Name:     c.String("name"),
					Email:    c.String("email"),
					Address1: c.String("address1"),
					City:     c.String("city"),
					State:    c.String("state"),
					Zip:      c.String("zip"),
					Country:  c.String("country"),
				},
			}
			return withApp(func(app *bootstrap.App) error {
				res, err := app.Services.Supplier.CreateOrder(c.Context, c.Int64("connection"), req)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, res)
			})
		},
	}
}

// ==================== 辅助函数 ====================

type ownedProduct struct {
	*model.Product
	userID int64
}

// ownerOf 运维命令按商品所属店铺确定用户
func ownerOf(c *cli.Context, app *bootstrap.App, productID int64) (*ownedProduct, error) {
	product, err := app.Repos.Product.GetByID(c.Context, productID)
	if err != nil {
		return nil, fmt.Errorf("商品 %d 不存在: %w", productID, err)
	}
	shop, err := app.Repos.Shop.GetByID(c.Context, product.ShopID)
	if err != nil {
		return nil, fmt.Errorf("商品 %d 的店铺不存在: %w", productID, err)
	}
	return &ownedProduct{Product: product, userID: shop.UserID}, nil
}

func printSKUChanges(w io.Writer, changes []model.SKUChange) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tSIZE\tCOLOR\tOLD SKU\tNEW SKU")
	for _, ch := range changes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", ch.VariantID, dash(ch.Size), dash(ch.Color), dash(ch.OldSKU), ch.NewSKU)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
