package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	klog "github.com/kochabx/curvebox/log"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-Id"

var (
	log = klog.G
)

// SetLogger 替换中间件使用的日志器
func SetLogger(logger *klog.Logger) {
	if logger != nil {
		log = logger
	}
}

// RequestID 请求未携带 X-Request-Id 时生成一个 UUID，并写回响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(HeaderRequestID, id)
		}
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Recovery 捕获 panic，记录日志并返回 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		log.Error().
			Interface("panic", err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetHeader(HeaderRequestID)).
			Msg("handler panicked")
		c.AbortWithStatusJSON(500, gin.H{"code": 500, "msg": "internal server error"})
	})
}
