package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步冷却 ====================

// SyncRateLimiter 手动同步冷却
// 防止用户频繁触发同步导致供应商或平台接口限流
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSyncRateLimiter 创建冷却器
func NewSyncRateLimiter() *SyncRateLimiter {
	return &SyncRateLimiter{now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并占用
// key: 如 "user:7:supplier:12"
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
	}
	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 同步失败后释放，允许立即重试
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成 ====================

// SyncType 同步类型
type SyncType string

const (
	SyncTypeSupplier SyncType = "supplier" // 供应商目录
	SyncTypeShop     SyncType = "shop"     // 店铺 Listing
)

// SyncKey 按用户 + 资源生成 Key
func SyncKey(userID int64, syncType SyncType, resourceID string) string {
	return fmt.Sprintf("user:%d:%s:%s", userID, syncType, resourceID)
}
