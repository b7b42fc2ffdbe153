package middleware

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/google/uuid"
	"github.com/hertz-contrib/cors"
	xrate "golang.org/x/time/rate"

	"sanchari/pkg/common/config"
)

// RequestIDHeader 请求追踪ID
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestIDMiddleware 透传或生成请求ID，并写回响应头
func RequestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := strings.TrimSpace(string(ctx.GetHeader(RequestIDHeader)))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Response.Header.Set(RequestIDHeader, id)
		ctx.Next(c)
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(ctx *app.RequestContext) string {
	return ctx.GetString(requestIDKey)
}

// LoggerMiddleware 结构化的请求日志记录
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c) // 放行到后续处理器
		latency := time.Since(start)

		hlog.CtxInfof(c, "| %3d | %13v | %15s | %-7s | %s | rid=%s | UA=%s",
			ctx.Response.StatusCode(),
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			RequestID(ctx),
			ctx.GetHeader("User-Agent"),
		)
	}
}

/*
	启动时指定环境变量
	export APP_ENV=production
	go run ./cmd/web serve
*/

// RecoveryMiddleware 异常捕获，生产环境隐藏堆栈
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				hlog.CtxErrorf(c, "[PANIC RECOVERED] rid=%s %v\n%s", RequestID(ctx), err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(500, utils.H{
						"code":    500,
						"message": "internal server error",
						"success": false,
					})
				} else { // 开发环境显示详细错误
					ctx.AbortWithStatusJSON(500, utils.H{
						"code":    500,
						"error":   fmt.Sprintf("%v", err),
						"stack":   strings.Split(stack, "\n"),
						"success": false,
					})
				}
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware 安全的跨域配置
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	return cors.New(
		cors.Config{
			AllowOrigins:     corsConfig.AllowOrigins,
			AllowMethods:     corsConfig.AllowMethods,
			AllowHeaders:     corsConfig.AllowHeaders,
			ExposeHeaders:    corsConfig.ExposeHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAge,
			// 动态校验来源
			AllowOriginFunc: func(origin string) bool {
				for _, domain := range corsConfig.TrustedDomains {
					if strings.HasSuffix(origin, domain) {
						return true
					}
				}
				return false
			},
		},
	)
}

// TimeoutMiddleware 给后续处理器设置截止时间。处理器在同一个 goroutine 中执行，
// 数据库与长轮询操作通过 context 感知超时。
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if seconds <= 0 {
			ctx.Next(c)
			return
		}
		timeoutCtx, cancel := context.WithTimeout(c, time.Duration(seconds)*time.Second)
		defer cancel()

		ctx.Next(timeoutCtx)

		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			hlog.CtxWarnf(c, "request timeout path=%s rid=%s", ctx.Path(), RequestID(ctx))
		}
	}
}

// RateLimitMiddleware 令牌桶算法限流：每个 interval 补充一个令牌，桶容量为 rate，初始为满桶
func RateLimitMiddleware(rate int, interval time.Duration) app.HandlerFunc {
	return rateLimit(NewLimiter(rate, interval))
}

// NewLimiter 按配置构造令牌桶，非法参数退化为每秒一个令牌
func NewLimiter(capacity int, interval time.Duration) *xrate.Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return xrate.NewLimiter(xrate.Every(interval), capacity)
}

func rateLimit(limiter *xrate.Limiter) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			hlog.CtxInfof(c, "[RATE LIMIT] path=%s", ctx.Path())
			ctx.AbortWithStatusJSON(429, utils.H{
				"code":    429001,
				"message": "too many requests",
				"success": false,
			})
			return
		}
		ctx.Next(c)
	}
}

// SecurityCheckMiddleware 全局安全校验中间件
func SecurityCheckMiddleware(security config.SecurityConfig) app.HandlerFunc {
	// 预编译恶意字符正则
	xssRegex := regexp.MustCompile(`(?i)<script.*?>|<\/script>|alert\(|onerror=`)
	sqlInjectRegex := regexp.MustCompile(`(?i)\b(union\s+select|drop\s+table|delete\s+from|insert\s+into)\b`)

	allowed := make(map[string]bool, len(security.AllowedMethods))
	for _, m := range security.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		// 防护机制1：检查User-Agent
		if isInvalidUserAgent(ctx) {
			securityResponse(c, ctx, 400001, "missing required header: User-Agent", 400)
			return
		}

		// 防护机制2：请求体大小限制
		if security.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > security.MaxBodySize {
			securityResponse(c, ctx, 413001, "request body exceeds max size", 413)
			return
		}

		// 防护机制3：参数恶意字符检查
		if hasMaliciousContent(ctx, xssRegex, sqlInjectRegex) {
			securityResponse(c, ctx, 422001, "request contains invalid characters", 422)
			return
		}

		// 防护机制4：检查HTTP方法
		if len(allowed) > 0 && !allowed[string(ctx.Method())] {
			securityResponse(c, ctx, 405001, "method not allowed", 405)
			return
		}

		ctx.Next(c)
	}
}

// 辅助方法：判断User-Agent合法性
func isInvalidUserAgent(ctx *app.RequestContext) bool {
	return len(ctx.GetHeader("User-Agent")) == 0
}

func hasMaliciousContent(ctx *app.RequestContext, xss *regexp.Regexp, sql *regexp.Regexp) bool {
	var found int32

	check := func(data []byte) bool {
		return xss.Match(data) || sql.Match(data)
	}

	visitor := func(key, value []byte) {
		if atomic.LoadInt32(&found) == 1 {
			return // 已经找到匹配，跳过后续检查
		}
		if check(key) || check(value) {
			atomic.StoreInt32(&found, 1)
		}
	}

	// 检查Query参数
	ctx.QueryArgs().VisitAll(visitor)
	if atomic.LoadInt32(&found) == 1 {
		return true
	}

	// 检查Post表单参数（multipart 上传不在此处解析）
	ctx.PostArgs().VisitAll(visitor)
	return atomic.LoadInt32(&found) == 1
}

// 安全响应统一处理
func securityResponse(c context.Context, ctx *app.RequestContext, code int, msg string, status int) {
	hlog.CtxWarnf(c, "SecurityAlert[code=%d]: %s path=%s", code, msg, ctx.Path())
	ctx.AbortWithStatusJSON(status, utils.H{
		"code":    code,
		"message": msg,
		"success": false,
	})
}
