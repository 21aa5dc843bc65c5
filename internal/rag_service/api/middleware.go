package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDKey 是 trace ID 在 gin 上下文与响应头中使用的键。
const TraceIDKey = "X-Trace-Id"

// TraceIDMiddleware 为每个请求分配一个 trace ID。
// 客户端携带的 X-Trace-Id 会被沿用，否则生成一个新的。
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDKey)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDKey, traceID)
		c.Next()
	}
}
