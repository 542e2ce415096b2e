package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步冷却中间件 ====================

// SyncRateLimit 按 用户 + 同步类型 + 路径 :id 冷却
// 处理器返回 5xx 时释放冷却，允许立即重试
//
//	suppliers.POST("/:id/sync",
//	    middleware.SyncRateLimit(limiter, middleware.SyncTypeSupplier, cfg.Server.SyncCooldown),
//	    ctl.Sync,
//	)
func SyncRateLimit(limiter *SyncRateLimiter, syncType SyncType, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		id := c.Param("id")
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "invalid id",
				"reason":  "invalid_request",
			})
			return
		}

		key := SyncKey(GetUserID(c), syncType, id)
		result := limiter.Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": formatRetryMessage(result.RetryAfter),
				"reason":  "rate_limited",
				"data": gin.H{
					"retry_after": retryAfter,
					"sync_type":   syncType,
				},
			})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			limiter.Reset(key)
		}
	}
}

// formatRetryMessage 重试提示
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("sync cooling down, retry in %d seconds", seconds+1)
	}

	minutes := seconds / 60
	remaining := seconds % 60
	if remaining == 0 {
		return fmt.Sprintf("sync cooling down, retry in %d minutes", minutes)
	}
	return fmt.Sprintf("sync cooling down, retry in %dm%ds", minutes, remaining)
}
