package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	jwth "github.com/hertz-contrib/jwt"

	"sanchari/pkg/common/config"
	usersvc "sanchari/pkg/core/user/service"
)

// IdentityKey 身份信息在 RequestContext 中的键
const IdentityKey = "identity"

// Identity 令牌中携带的调用方身份
type Identity struct {
	UID  string
	Role string
}

// JWTAuthMiddleware 校验 Bearer 令牌；令牌由 UserService.IssueToken 签发
func JWTAuthMiddleware(cfg *config.JWTAuthConfig) (app.HandlerFunc, error) {
	authMiddleware, err := jwth.New(&jwth.HertzJWTMiddleware{
		Realm:            cfg.Realm,
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Secret),
		Timeout:          cfg.ExpireDuration,
		TimeFunc:         time.Now,
		IdentityKey:      IdentityKey,
		TokenLookup:      "header: Authorization",
		TokenHeadName:    "Bearer",
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwth.ExtractClaims(ctx, c)
			uid, _ := claims[usersvc.ClaimUserID].(string)
			role, _ := claims[usersvc.ClaimRole].(string)
			if uid == "" {
				return nil
			}
			return &Identity{UID: uid, Role: role}
		},
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			if _, ok := data.(*Identity); !ok {
				return false
			}
			// 只接受本服务签发的令牌
			iss, _ := jwth.ExtractClaims(ctx, c)["iss"].(string)
			return cfg.Issuer == "" || iss == cfg.Issuer
		},
		Unauthorized: handleJWTError,
	})
	if err != nil {
		return nil, fmt.Errorf("init jwt middleware: %w", err)
	}
	return authMiddleware.MiddlewareFunc(), nil
}

// CurrentUser 读取已认证的调用方
func CurrentUser(c *app.RequestContext) (*Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// RequireRole 仅允许指定角色访问，须挂在 JWTAuthMiddleware 之后
func RequireRole(role string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id, ok := CurrentUser(c)
		if !ok || id.Role != role {
			hlog.CtxWarnf(ctx, "forbidden: path=%s role=%q want=%q", c.Path(), roleOf(id), role)
			c.AbortWithStatusJSON(403, utils.H{
				"code":    403,
				"message": "forbidden",
				"success": false,
			})
			return
		}
		c.Next(ctx)
	}
}

func roleOf(id *Identity) string {
	if id == nil {
		return ""
	}
	return id.Role
}

func handleJWTError(ctx context.Context, c *app.RequestContext, code int, message string) {
	hlog.CtxWarnf(ctx, "JWT Error (code=%d) path=%s: %s", code, c.Path(), message)
	c.JSON(code, utils.H{
		"code":    code,
		"message": message,
		"success": false,
	})
}
