package catalog

import (
	"regexp"
	"strings"
)

type supplierRule struct {
	re       *regexp.Regexp
	supplier string
	prefix   string
}

type typeRule struct {
	re    *regexp.Regexp
	label string
}

// Detector SKU 识别器
// 规则按声明顺序匹配，首个命中生效；前缀规则排在子串规则之前
type Detector struct {
	supplierRules []supplierRule
	typeRules     []typeRule
}

// Detection SKU 识别结果
type Detection struct {
	Supplier string // gelato / printify / printful
	Prefix   string // 命中的前缀，统一大写，如 PFL_
}

// DetectSupplier 根据 SKU 识别供应商
// 返回 false 表示供应商未知，不是错误
func (d *Detector) DetectSupplier(sku string) (Detection, bool) {
	s := strings.ToLower(strings.TrimSpace(sku))
	if s == "" {
		return Detection{}, false
	}
	for _, r := range d.supplierRules {
		if r.re.MatchString(s) {
			return Detection{Supplier: r.supplier, Prefix: strings.ToUpper(r.prefix)}, true
		}
	}
	return Detection{}, false
}

// DetectProductType 根据 SKU 或商品名识别标准商品类型
func (d *Detector) DetectProductType(text string) (string, bool) {
	s := strings.ToLower(text)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	for _, r := range d.typeRules {
		if r.re.MatchString(s) {
			return r.label, true
		}
	}
	return "", false
}

// Classification Listing 识别结果
type Classification struct {
	Supplier    string
	SKUPattern  string
	ProductType string
	FirstSKU    string
}

// Classify 店铺同步时识别 Listing
// 供应商取首个可识别的 SKU；商品类型依次尝试 SKU、标题
func (d *Detector) Classify(skus []string, title string) Classification {
	var out Classification
	for _, sku := range skus {
		if sku == "" {
			continue
		}
		if out.FirstSKU == "" {
			out.FirstSKU = sku
		}
		if out.Supplier == "" {
			if det, ok := d.DetectSupplier(sku); ok {
				out.Supplier = det.Supplier
				out.SKUPattern = det.Prefix
			}
		}
		if out.ProductType == "" {
			if pt, ok := d.DetectProductType(sku); ok {
				out.ProductType = pt
			}
		}
	}
	if out.ProductType == "" {
		if pt, ok := d.DetectProductType(title); ok {
			out.ProductType = pt
		}
	}
	return out
}
