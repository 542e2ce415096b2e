package catalog

import "strings"

// TypeMapping 跨供应商类型映射条目
// IDs: supplier -> 该供应商用于报价的外部 ID (Gelato slug / Printify blueprint / Printful product)
type TypeMapping struct {
	Key string            `json:"key"`
	IDs map[string]string `json:"ids"`
}

// ExternalID 指定供应商的外部 ID
func (m *TypeMapping) ExternalID(supplier string) (string, bool) {
	id, ok := m.IDs[strings.ToLower(supplier)]
	return id, ok && id != ""
}

// TypeMap 静态类型映射表
type TypeMap struct {
	entries []TypeMapping
}

// NormalizeTypeKey 商品类型转查找键：小写，去掉括号及之后内容
// "Gildan 18000 (Heavy Blend Sweatshirt)" -> "gildan 18000"
func NormalizeTypeKey(productType string) string {
	s := strings.ToLower(productType)
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Lookup 返回首个 key 为查找键子串的映射条目
func (t *TypeMap) Lookup(productType string) (*TypeMapping, bool) {
	key := NormalizeTypeKey(productType)
	if key == "" {
		return nil, false
	}
	for i := range t.entries {
		if strings.Contains(key, t.entries[i].Key) {
			return &t.entries[i], true
		}
	}
	return nil, false
}

// Entries 全部映射条目 (副本)
func (t *TypeMap) Entries() []TypeMapping {
	out := make([]TypeMapping, len(t.entries))
	copy(out, t.entries)
	return out
}
