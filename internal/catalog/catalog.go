package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed mappings.json
var defaultMappings []byte

// ==================== 配置结构 ====================

// document 映射表文件结构
type document struct {
	Version       string            `json:"version"`
	SKUPrefixes   map[string]string `json:"sku_prefixes"`
	SupplierRules []struct {
		Pattern  string `json:"pattern"`
		Supplier string `json:"supplier"`
		Prefix   string `json:"prefix"`
	} `json:"supplier_rules"`
	ProductTypes []struct {
		Pattern string `json:"pattern"`
		Label   string `json:"label"`
	} `json:"product_types"`
	TypeMap []TypeMapping `json:"type_map"`
}

// Catalog 进程级只读映射表 (SKU 规则 + 跨供应商类型映射)
// 初始化后不可修改
type Catalog struct {
	Version  string
	Detector *Detector
	TypeMap  *TypeMap

	prefixes map[string]string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default 加载内置映射表 (仅加载一次)
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultMappings)
		if err != nil {
			panic(fmt.Sprintf("内置映射表解析失败: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load 从 JSON 文档构建映射表，规则顺序即优先级
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析映射表失败: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("映射表缺少 version")
	}

	det := &Detector{}
	for i, r := range doc.SupplierRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("supplier_rules[%d] 正则无效: %w", i, err)
		}
		det.supplierRules = append(det.supplierRules, supplierRule{re: re, supplier: r.Supplier, prefix: r.Prefix})
	}
	for i, r := range doc.ProductTypes {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("product_types[%d] 正则无效: %w", i, err)
		}
		det.typeRules = append(det.typeRules, typeRule{re: re, label: r.Label})
	}

	tm := &TypeMap{}
	for _, m := range doc.TypeMap {
		m.Key = strings.ToLower(strings.TrimSpace(m.Key))
		if m.Key == "" {
			return nil, fmt.Errorf("type_map 存在空 key")
		}
		tm.entries = append(tm.entries, m)
	}

	prefixes := make(map[string]string, len(doc.SKUPrefixes))
	for k, v := range doc.SKUPrefixes {
		prefixes[strings.ToLower(k)] = v
	}

	return &Catalog{
		Version:  doc.Version,
		Detector: det,
		TypeMap:  tm,
		prefixes: prefixes,
	}, nil
}

// SKUPrefix 供应商的标准 SKU 前缀，未配置时为 UPPER(supplier)+"_"
func (c *Catalog) SKUPrefix(supplier string) string {
	if p, ok := c.prefixes[strings.ToLower(supplier)]; ok {
		return p
	}
	return strings.ToUpper(supplier) + "_"
}
