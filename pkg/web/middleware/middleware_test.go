package middleware

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"

	"sanchari/pkg/common/config"
)

func ok(_ context.Context, c *app.RequestContext) {
	c.String(200, "ok")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := server.New()
	h.Use(RateLimitMiddleware(2, time.Hour))
	h.GET("/ping", ok)

	// 满桶两个令牌，一小时内不补充
	for i := 0; i < 2; i++ {
		w := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
		assert.Equal(t, 200, w.Result().StatusCode())
	}
	w := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	assert.Equal(t, 429, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "too many requests")
}

func TestNewLimiter_Refills(t *testing.T) {
	l := NewLimiter(2, time.Second)
	start := time.Unix(0, 0)
	assert.True(t, l.AllowN(start, 1))
	assert.True(t, l.AllowN(start, 1))
	assert.False(t, l.AllowN(start, 1))

	assert.True(t, l.AllowN(start.Add(1500*time.Millisecond), 1))
	assert.False(t, l.AllowN(start.Add(1500*time.Millisecond), 1))

	later := start.Add(time.Hour)
	assert.True(t, l.AllowN(later, 1))
	assert.True(t, l.AllowN(later, 1))
	assert.False(t, l.AllowN(later, 1), "refill is capped at capacity")
}

func TestNewLimiter_BadConfigFallsBack(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, 1, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 1e-9)
}

func TestSecurityCheckMiddleware(t *testing.T) {
	h := server.New()
	h.Use(SecurityCheckMiddleware(config.SecurityConfig{
		MaxBodySize:    16,
		AllowedMethods: []string{"GET", "POST"},
	}))
	h.GET("/ping", ok)
	h.POST("/ping", ok)
	h.PUT("/ping", ok)

	ua := ut.Header{Key: "User-Agent", Value: "test"}

	w := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	assert.Equal(t, 400, w.Result().StatusCode(), "missing user agent")

	w = ut.PerformRequest(h.Engine, "GET", "/ping?q=%3Cscript%3Ealert(1)%3C%2Fscript%3E", nil, ua)
	assert.Equal(t, 422, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "POST", "/ping", &ut.Body{Body: strings.NewReader(strings.Repeat("a", 32)), Len: 32}, ua)
	assert.Equal(t, 413, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "PUT", "/ping", nil, ua)
	assert.Equal(t, 405, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/ping?q=select%20a%20trip", nil, ua)
	assert.Equal(t, 200, w.Result().StatusCode(), "ordinary words are not treated as SQL")
}

func TestRequestIDMiddleware(t *testing.T) {
	h := server.New()
	h.Use(RequestIDMiddleware())
	h.GET("/ping", func(_ context.Context, c *app.RequestContext) {
		c.String(200, RequestID(c))
	})

	w := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	resp := w.Result()
	id := string(resp.Header.Peek(RequestIDHeader))
	assert.Len(t, id, 36)
	assert.Equal(t, id, string(resp.Body()))

	w = ut.PerformRequest(h.Engine, "GET", "/ping", nil, ut.Header{Key: RequestIDHeader, Value: "abc"})
	assert.Equal(t, "abc", string(w.Result().Header.Peek(RequestIDHeader)))
}

func TestRequireRole(t *testing.T) {
	h := server.New()
	h.GET("/admin", func(ctx context.Context, c *app.RequestContext) {
		c.Set(IdentityKey, &Identity{UID: "u1", Role: string(c.GetHeader("X-Role"))})
		c.Next(ctx)
	}, RequireRole("admin"), ok)

	w := ut.PerformRequest(h.Engine, "GET", "/admin", nil, ut.Header{Key: "X-Role", Value: "traveler"})
	assert.Equal(t, 403, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/admin", nil, ut.Header{Key: "X-Role", Value: "admin"})
	assert.Equal(t, 200, w.Result().StatusCode())
}
